package commands

import (
	"context"
	"time"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/model/payment"
	"pharmacy/internal/core/ports"
)

// ApplyPaymentWebhookCommandHandler reconciles gateway notifications against the stored
// payment record. Stale, duplicate and out-of-order webhooks are a normal "ignored"
// outcome and never an error, so the gateway is not asked to redeliver them.
type ApplyPaymentWebhookCommandHandler struct {
	rt Runtime
}

func NewApplyPaymentWebhookCommandHandler(rt Runtime) ApplyPaymentWebhookCommandHandler {
	return ApplyPaymentWebhookCommandHandler{rt: rt}
}

func (h ApplyPaymentWebhookCommandHandler) Handle(
	ctx context.Context,
	cmd ApplyPaymentWebhookCommand,
) (payment.Outcome, error) {
	if err := cmd.Validate(); err != nil {
		return payment.OutcomeIgnored, err
	}

	return applyPaymentUpdate(ctx, h.rt, cmd.OrderID(), cmd.Update())
}

// applyPaymentUpdate is shared by the webhook and the user/admin payment handlers.
// Ignored updates are not written.
func applyPaymentUpdate(
	ctx context.Context,
	rt Runtime,
	id kernel.UUID,
	update payment.StatusUpdate,
) (payment.Outcome, error) {
	var outcome payment.Outcome
	o, _, err := rt.mutateOrder(ctx, id, func(o *order.Order, now time.Time) (bool, error) {
		var applyErr error
		outcome, applyErr = o.ApplyPaymentUpdate(update, now)
		if applyErr != nil {
			return false, applyErr
		}
		return outcome.Accepted(), nil
	})
	if err != nil {
		return payment.OutcomeIgnored, err
	}

	rt.logger().InfoContext(ctx, "payment update reconciled",
		"order_id", id.String(),
		"source", update.Source().String(),
		"status", update.Status().String(),
		"webhook_id", update.WebhookID(),
		"outcome", outcome.String(),
		"payment_status", o.Payment().Status().String(),
	)

	if outcome == payment.OutcomeApplied {
		rt.publish(ctx, ports.PaymentStatusChanged, o)
	}
	return outcome, nil
}
