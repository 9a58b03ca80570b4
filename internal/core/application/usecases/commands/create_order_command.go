package commands

import (
	"errors"
	"slices"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/pkg/errs"
	"pharmacy/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand checks out a cart. The order id is chosen by the client so that a
// retried checkout returns the order created by the first attempt.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(orderID, order.CategoryMedicine, customerID, items, address)
//	if err != nil {
//	    return fmt.Errorf("invalid checkout: %w", err)
//	}
//
//	o, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrNotServiceable) {
//	    // outside the delivery radius
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID    kernel.UUID
	category   order.Category
	customerID kernel.UUID
	items      []order.Item
	address    order.Address

	guard guard.ConstructorGuard
}

func NewCreateOrderCommand(
	orderID kernel.UUID,
	category order.Category,
	customerID kernel.UUID,
	items []order.Item,
	address order.Address,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCategory(category),
		cmd.setCustomerID(customerID),
		cmd.setItems(items),
		cmd.setAddress(address),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID     { return c.orderID }
func (c CreateOrderCommand) Category() order.Category { return c.category }
func (c CreateOrderCommand) CustomerID() kernel.UUID  { return c.customerID }
func (c CreateOrderCommand) Items() []order.Item      { return slices.Clone(c.items) }
func (c CreateOrderCommand) Address() order.Address   { return c.address }

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setCategory(category order.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}
	c.category = category
	return nil
}

func (c *CreateOrderCommand) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer id", err)
	}
	c.customerID = customerID
	return nil
}

func (c *CreateOrderCommand) setItems(items []order.Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	c.items = slices.Clone(items)
	return nil
}

func (c *CreateOrderCommand) setAddress(address order.Address) error {
	if err := address.Validate(); err != nil {
		return err
	}
	c.address = address
	return nil
}
