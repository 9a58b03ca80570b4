package commands

import (
	"context"
	"errors"

	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/services"
	"pharmacy/internal/core/ports"
	"pharmacy/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// CreateOrderCommandHandler prices the delivery, computes the totals, allocates the order
// number and persists a new pending order.
//
// The handler is idempotent by order id: if an order with the same id already exists it is
// returned unchanged and nothing is written.
type CreateOrderCommandHandler struct {
	rt         Runtime
	calculator *services.DeliveryFeeCalculator
	taxRate    decimal.Decimal
}

func NewCreateOrderCommandHandler(
	rt Runtime,
	calculator *services.DeliveryFeeCalculator,
	taxRate decimal.Decimal,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{rt: rt, calculator: calculator, taxRate: taxRate}
}

// Handle processes the checkout.
//
// Returns:
//   - *order.Order: the created order, or the existing one for a repeated id
//   - *errs.NotServiceableError: the address is beyond the delivery radius
//   - validation errors before any state change
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var (
		result  *order.Order
		created bool
	)

	err := h.rt.withOrderLock(ctx, cmd.OrderID(), func() error {
		return retryOnConflict(ctx, func() error {
			var err error
			result, created, err = h.createOnce(ctx, cmd)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	if created {
		h.rt.publish(ctx, ports.OrderCreated, result)
	}
	return result, nil
}

func (h CreateOrderCommandHandler) createOnce(ctx context.Context, cmd CreateOrderCommand) (*order.Order, bool, error) {
	uow := h.rt.UoWFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	existing, err := repo.Get(ctx, cmd.OrderID())
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return nil, false, err
	}

	items := cmd.Items()
	quote, err := h.calculator.Quote(ctx, cmd.Address().Point(), order.Subtotal(items))
	if err != nil {
		return nil, false, err
	}
	if err = quote.Err(); err != nil {
		return nil, false, err
	}

	totals, err := order.ComputeTotals(items, *quote.Fee, h.taxRate)
	if err != nil {
		return nil, false, err
	}

	now := h.rt.now()
	o, err := order.NewOrder(
		cmd.OrderID(),
		cmd.Category(),
		cmd.CustomerID(),
		items,
		cmd.Address(),
		totals,
		order.NewDeliverySnapshot(quote.DistanceKm, quote.DistanceSource == services.DistanceEstimated),
		now,
	)
	if err != nil {
		return nil, false, err
	}

	sequence, err := uow.OrderNumberSequence().Next(ctx, cmd.Category())
	if err != nil {
		return nil, false, err
	}
	number, err := order.NewNumber(cmd.Category(), now, sequence)
	if err != nil {
		return nil, false, err
	}
	if err = o.AssignNumber(number); err != nil {
		return nil, false, err
	}

	if err = repo.Add(ctx, o); err != nil {
		return nil, false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, false, err
	}

	h.rt.logger().InfoContext(ctx, "order created",
		"order_id", o.ID().String(),
		"order_number", number.String(),
		"total", totals.Total().StringFixed(2),
	)
	return o, true, nil
}
