package commands

import (
	"context"
	"time"

	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/ports"
)

// CancelOrderCommandHandler cancels pending orders. The payment is failed in the same
// mutation, so no reader ever sees a cancelled order with a live payment.
//
// Example:
//
//	err := handler.Handle(ctx, cmd)
//	var refused *errs.StateViolationError
//	if errors.As(err, &refused) {
//	    // the order already left pending
//	}
type CancelOrderCommandHandler struct {
	rt Runtime
}

func NewCancelOrderCommandHandler(rt Runtime) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{rt: rt}
}

// Handle returns *errs.StateViolationError when the order is not pending.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	o, _, err := h.rt.mutateOrder(ctx, cmd.OrderID(), func(o *order.Order, now time.Time) (bool, error) {
		if err := o.Cancel(cmd.Reason(), cmd.Actor(), now); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	h.rt.publish(ctx, ports.OrderCancelled, o)
	return o, nil
}
