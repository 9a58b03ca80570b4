package ports

import (
	"context"

	"pharmacy/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
)

// PaymentRequest asks the gateway to open a payment session for an order. IdempotencyKey
// identifies one attempt; the gateway replays its earlier answer for a repeated key.
type PaymentRequest struct {
	OrderID        kernel.UUID
	OrderNumber    string
	Amount         decimal.Decimal
	Currency       string
	Method         string
	IdempotencyKey string
}

// PaymentSession is the gateway's answer. Accepted is false when the gateway declined the
// request outright; the final status still arrives through webhooks.
type PaymentSession struct {
	Reference   string
	RedirectURL string
	Accepted    bool
	Reason      string
}

type PaymentGateway interface {
	Initiate(ctx context.Context, req PaymentRequest) (PaymentSession, error)
}
