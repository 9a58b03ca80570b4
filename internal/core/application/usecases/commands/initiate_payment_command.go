package commands

import (
	"errors"
	"strings"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/pkg/errs"
	"pharmacy/internal/pkg/guard"
)

var ErrInitiatePaymentCommandIsNotConstructed = errors.New(
	"InitiatePaymentCommand must be created via NewInitiatePaymentCommand constructor",
)

// InitiatePaymentCommand opens a gateway payment session for an order, e.g. with method "upi" or "card".
type InitiatePaymentCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	method  string

	guard guard.ConstructorGuard
}

func NewInitiatePaymentCommand(orderID kernel.UUID, method string) (InitiatePaymentCommand, error) {
	method = strings.ToLower(strings.TrimSpace(method))

	var methodErr error
	if method == "" {
		methodErr = errs.NewValueIsRequiredError("payment method")
	}

	if err := errors.Join(orderID.Validate(), methodErr); err != nil {
		return InitiatePaymentCommand{}, err
	}

	return InitiatePaymentCommand{
		orderID: orderID,
		method:  method,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c InitiatePaymentCommand) Validate() error {
	return c.guard.Validate(ErrInitiatePaymentCommandIsNotConstructed)
}

func (c InitiatePaymentCommand) OrderID() kernel.UUID { return c.orderID }
func (c InitiatePaymentCommand) Method() string       { return c.method }
