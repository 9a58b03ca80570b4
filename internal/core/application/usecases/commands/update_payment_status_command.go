package commands

import (
	"errors"
	"fmt"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/payment"
	"pharmacy/internal/pkg/errs"
	"pharmacy/internal/pkg/guard"
)

var ErrUpdatePaymentStatusCommandIsNotConstructed = errors.New(
	"UpdatePaymentStatusCommand must be created via NewUpdatePaymentStatusCommand constructor",
)

// UpdatePaymentStatusCommand is a user- or admin-initiated payment status change, e.g. an
// admin marking a cash-on-delivery order as paid. Gateway notifications use
// ApplyPaymentWebhookCommand instead.
type UpdatePaymentStatusCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	update  payment.StatusUpdate

	guard guard.ConstructorGuard
}

func NewUpdatePaymentStatusCommand(
	orderID kernel.UUID,
	status payment.Status,
	source payment.Source,
	metadata map[string]any,
) (UpdatePaymentStatusCommand, error) {
	var sourceErr error
	if source == payment.SourceWebhook {
		sourceErr = errs.NewValueIsInvalidErrorWithCause("source",
			fmt.Errorf("%s updates must go through the webhook endpoint", source))
	}

	update, updateErr := payment.NewStatusUpdate(status, source, metadata, "")
	if err := errors.Join(orderID.Validate(), sourceErr, updateErr); err != nil {
		return UpdatePaymentStatusCommand{}, err
	}

	return UpdatePaymentStatusCommand{
		orderID: orderID,
		update:  update,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c UpdatePaymentStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdatePaymentStatusCommandIsNotConstructed)
}

func (c UpdatePaymentStatusCommand) OrderID() kernel.UUID         { return c.orderID }
func (c UpdatePaymentStatusCommand) Update() payment.StatusUpdate { return c.update }
