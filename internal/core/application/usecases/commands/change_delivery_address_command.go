package commands

import (
	"errors"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/pkg/guard"
)

var ErrChangeDeliveryAddressCommandIsNotConstructed = errors.New(
	"ChangeDeliveryAddressCommand must be created via NewChangeDeliveryAddressCommand constructor",
)

type ChangeDeliveryAddressCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	address order.Address

	guard guard.ConstructorGuard
}

func NewChangeDeliveryAddressCommand(orderID kernel.UUID, address order.Address) (ChangeDeliveryAddressCommand, error) {
	if err := errors.Join(orderID.Validate(), address.Validate()); err != nil {
		return ChangeDeliveryAddressCommand{}, err
	}

	return ChangeDeliveryAddressCommand{
		orderID: orderID,
		address: address,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c ChangeDeliveryAddressCommand) Validate() error {
	return c.guard.Validate(ErrChangeDeliveryAddressCommandIsNotConstructed)
}

func (c ChangeDeliveryAddressCommand) OrderID() kernel.UUID   { return c.orderID }
func (c ChangeDeliveryAddressCommand) Address() order.Address { return c.address }
