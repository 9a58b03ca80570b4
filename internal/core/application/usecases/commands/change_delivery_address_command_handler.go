package commands

import (
	"context"
	"time"

	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/services"
	"pharmacy/internal/core/ports"
	"pharmacy/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// ChangeDeliveryAddressCommandHandler re-quotes delivery for a new address and recomputes
// the totals. Only pending orders can be re-priced.
type ChangeDeliveryAddressCommandHandler struct {
	rt         Runtime
	calculator *services.DeliveryFeeCalculator
	taxRate    decimal.Decimal
}

func NewChangeDeliveryAddressCommandHandler(
	rt Runtime,
	calculator *services.DeliveryFeeCalculator,
	taxRate decimal.Decimal,
) ChangeDeliveryAddressCommandHandler {
	return ChangeDeliveryAddressCommandHandler{rt: rt, calculator: calculator, taxRate: taxRate}
}

// Handle returns *errs.NotServiceableError when the new address is beyond the delivery
// radius and *errs.StateViolationError once the order left pending.
func (h ChangeDeliveryAddressCommandHandler) Handle(
	ctx context.Context,
	cmd ChangeDeliveryAddressCommand,
) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	address := cmd.Address()
	o, _, err := h.rt.mutateOrder(ctx, cmd.OrderID(), func(o *order.Order, now time.Time) (bool, error) {
		if o.Status() != order.Pending {
			return false, errs.NewStateViolationError("change delivery address", o.Status())
		}

		items := o.Items()
		quote, err := h.calculator.Quote(ctx, address.Point(), order.Subtotal(items))
		if err != nil {
			return false, err
		}
		if err = quote.Err(); err != nil {
			return false, err
		}

		totals, err := order.ComputeTotals(items, *quote.Fee, h.taxRate)
		if err != nil {
			return false, err
		}

		delivery := order.NewDeliverySnapshot(quote.DistanceKm, quote.DistanceSource == services.DistanceEstimated)
		if err = o.RecomputeTotals(address, totals, delivery, now); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	h.rt.publish(ctx, ports.OrderRepriced, o)
	return o, nil
}
