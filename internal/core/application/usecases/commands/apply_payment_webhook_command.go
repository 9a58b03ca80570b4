package commands

import (
	"errors"
	"maps"
	"strings"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/payment"
	"pharmacy/internal/pkg/guard"
)

var ErrApplyPaymentWebhookCommandIsNotConstructed = errors.New(
	"ApplyPaymentWebhookCommand must be created via NewApplyPaymentWebhookCommand constructor",
)

// ApplyPaymentWebhookCommand carries one gateway notification. The payload is kept verbatim
// as history metadata.
type ApplyPaymentWebhookCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	update  payment.StatusUpdate
	payload map[string]any

	guard guard.ConstructorGuard
}

func NewApplyPaymentWebhookCommand(
	orderID kernel.UUID,
	webhookID string,
	status payment.Status,
	payload map[string]any,
) (ApplyPaymentWebhookCommand, error) {
	cmd := ApplyPaymentWebhookCommand{
		payload: maps.Clone(payload),
		guard:   guard.NewConstructorGuard(),
	}

	update, updateErr := payment.NewStatusUpdate(status, payment.SourceWebhook, payload, strings.TrimSpace(webhookID))
	if err := errors.Join(orderID.Validate(), updateErr); err != nil {
		return ApplyPaymentWebhookCommand{}, err
	}

	cmd.orderID = orderID
	cmd.update = update
	return cmd, nil
}

func (c ApplyPaymentWebhookCommand) Validate() error {
	return c.guard.Validate(ErrApplyPaymentWebhookCommandIsNotConstructed)
}

func (c ApplyPaymentWebhookCommand) OrderID() kernel.UUID         { return c.orderID }
func (c ApplyPaymentWebhookCommand) Update() payment.StatusUpdate { return c.update }
func (c ApplyPaymentWebhookCommand) Payload() map[string]any      { return maps.Clone(c.payload) }
