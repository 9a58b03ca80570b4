package commands

import (
	"context"

	"pharmacy/internal/core/domain/model/payment"
)

// UpdatePaymentStatusCommandHandler applies user and admin payment changes through the
// same reconciliation rules as webhooks: a lower-priority status never overwrites a
// higher one, while failed and refunded always apply.
type UpdatePaymentStatusCommandHandler struct {
	rt Runtime
}

func NewUpdatePaymentStatusCommandHandler(rt Runtime) UpdatePaymentStatusCommandHandler {
	return UpdatePaymentStatusCommandHandler{rt: rt}
}

func (h UpdatePaymentStatusCommandHandler) Handle(
	ctx context.Context,
	cmd UpdatePaymentStatusCommand,
) (payment.Outcome, error) {
	if err := cmd.Validate(); err != nil {
		return payment.OutcomeIgnored, err
	}

	return applyPaymentUpdate(ctx, h.rt, cmd.OrderID(), cmd.Update())
}
