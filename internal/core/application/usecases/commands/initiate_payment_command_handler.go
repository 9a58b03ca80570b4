package commands

import (
	"context"
	"strconv"
	"time"

	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/model/payment"
	"pharmacy/internal/core/ports"
	"pharmacy/internal/pkg/errs"
)

const DefaultCurrency = "INR"

// InitiatePaymentResult is the gateway session together with how it was reconciled.
type InitiatePaymentResult struct {
	Session ports.PaymentSession
	Outcome payment.Outcome
	Order   *order.Order
}

// InitiatePaymentCommandHandler calls the payment gateway and records the call as an
// attempt whatever its result. An accepted session moves the payment to processing, a
// declined one to failed; a transport error changes nothing but the attempt log.
type InitiatePaymentCommandHandler struct {
	rt       Runtime
	gateway  ports.PaymentGateway
	currency string
}

func NewInitiatePaymentCommandHandler(rt Runtime, gateway ports.PaymentGateway, currency string) InitiatePaymentCommandHandler {
	if currency == "" {
		currency = DefaultCurrency
	}
	return InitiatePaymentCommandHandler{rt: rt, gateway: gateway, currency: currency}
}

// Handle returns *errs.StateViolationError for cancelled or delivered orders and for
// payments that are already processing, paid or refunded, and *errs.ExternalServiceError
// when the gateway could not be reached. Payability is checked again before the result is
// saved; an order that changed meanwhile keeps its state and only gains the attempt.
func (h InitiatePaymentCommandHandler) Handle(ctx context.Context, cmd InitiatePaymentCommand) (InitiatePaymentResult, error) {
	if err := cmd.Validate(); err != nil {
		return InitiatePaymentResult{}, err
	}

	var result InitiatePaymentResult
	err := h.rt.withOrderLock(ctx, cmd.OrderID(), func() error {
		var err error
		result, err = h.initiate(ctx, cmd)
		return err
	})

	return result, err
}

func (h InitiatePaymentCommandHandler) initiate(ctx context.Context, cmd InitiatePaymentCommand) (InitiatePaymentResult, error) {
	o, err := h.rt.loadOrder(ctx, cmd.OrderID())
	if err != nil {
		return InitiatePaymentResult{}, err
	}
	if err = checkPayable(o); err != nil {
		return InitiatePaymentResult{}, err
	}

	req := ports.PaymentRequest{
		OrderID:        o.ID(),
		OrderNumber:    o.Number().String(),
		Amount:         o.Totals().Total(),
		Currency:       h.currency,
		Method:         cmd.Method(),
		IdempotencyKey: attemptKey(o),
	}
	session, gatewayErr := h.gateway.Initiate(ctx, req)

	attemptRequest := map[string]any{
		"order_number":    req.OrderNumber,
		"amount":          req.Amount.StringFixed(2),
		"currency":        req.Currency,
		"method":          req.Method,
		"idempotency_key": req.IdempotencyKey,
	}

	var (
		outcome payment.Outcome
		refused error
	)
	updated, _, err := h.rt.mutateWithRetry(ctx, cmd.OrderID(), func(o *order.Order, now time.Time) (bool, error) {
		resultStatus, errMessage := payment.Unknown, ""
		switch {
		case gatewayErr != nil:
			errMessage = gatewayErr.Error()
		case session.Accepted:
			resultStatus = payment.Processing
		default:
			resultStatus = payment.Failed
			errMessage = session.Reason
		}

		if err := o.RecordPaymentAttempt(payment.NewAttempt(attemptRequest, resultStatus, errMessage, now), now); err != nil {
			return false, err
		}

		// the order may have been cancelled or paid while the gateway call was in flight
		if refused = checkPayable(o); refused != nil || resultStatus == payment.Unknown {
			return true, nil
		}

		update, err := payment.NewStatusUpdate(resultStatus, payment.SourceUser, map[string]any{
			"cause":             "payment_initiated",
			"method":            req.Method,
			"gateway_reference": session.Reference,
			"reason":            session.Reason,
		}, "")
		if err != nil {
			return false, err
		}

		outcome, err = o.ApplyPaymentUpdate(update, now)
		return err == nil, err
	})
	if err != nil {
		return InitiatePaymentResult{}, err
	}

	if refused != nil {
		h.rt.logger().WarnContext(ctx, "order stopped being payable during gateway call",
			"order_id", cmd.OrderID().String(), "gateway_reference", session.Reference, "error", refused)
		return InitiatePaymentResult{Session: session, Order: updated}, refused
	}

	if gatewayErr != nil {
		h.rt.logger().WarnContext(ctx, "payment gateway call failed",
			"order_id", cmd.OrderID().String(), "error", gatewayErr)
		return InitiatePaymentResult{Order: updated}, errs.NewExternalServiceError("payment gateway", gatewayErr)
	}

	if outcome == payment.OutcomeApplied {
		h.rt.publish(ctx, ports.PaymentStatusChanged, updated)
	}

	return InitiatePaymentResult{Session: session, Outcome: outcome, Order: updated}, nil
}

// attemptKey is unique per attempt, so a retry after a declined or lost call is not
// collapsed by the gateway into the earlier one.
func attemptKey(o *order.Order) string {
	return o.ID().String() + ":" + strconv.Itoa(len(o.Payment().Attempts())+1)
}

func checkPayable(o *order.Order) error {
	if o.Status() == order.Cancelled || o.Status() == order.Delivered {
		return errs.NewStateViolationError("initiate payment", o.Status())
	}

	switch status := o.Payment().Status(); status {
	case payment.Pending, payment.Failed:
		return nil
	default:
		return errs.NewStateViolationError("initiate payment", status)
	}
}
