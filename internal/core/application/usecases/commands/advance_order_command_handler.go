package commands

import (
	"context"
	"time"

	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/ports"
)

type AdvanceOrderCommandHandler struct {
	rt Runtime
}

func NewAdvanceOrderCommandHandler(rt Runtime) AdvanceOrderCommandHandler {
	return AdvanceOrderCommandHandler{rt: rt}
}

// Handle refuses with *errs.StateViolationError on delivered or cancelled orders and on
// backward moves.
func (h AdvanceOrderCommandHandler) Handle(ctx context.Context, cmd AdvanceOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	o, _, err := h.rt.mutateOrder(ctx, cmd.OrderID(), func(o *order.Order, now time.Time) (bool, error) {
		if err := o.Advance(cmd.Target(), now); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	h.rt.publish(ctx, ports.OrderStatusChanged, o)
	return o, nil
}
