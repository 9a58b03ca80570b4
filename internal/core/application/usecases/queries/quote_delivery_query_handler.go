package queries

import (
	"context"

	"pharmacy/internal/core/domain/services"
)

type QuoteDeliveryQueryHandler struct {
	calculator *services.DeliveryFeeCalculator
}

func NewQuoteDeliveryQueryHandler(calculator *services.DeliveryFeeCalculator) QuoteDeliveryQueryHandler {
	return QuoteDeliveryQueryHandler{calculator: calculator}
}

// Handle returns the quote together with a *errs.NotServiceableError when the destination
// is beyond the delivery radius. The quote is populated in both cases so callers can show
// the distance that was measured.
func (h QuoteDeliveryQueryHandler) Handle(ctx context.Context, query QuoteDeliveryQuery) (services.DeliveryQuote, error) {
	if err := query.Validate(); err != nil {
		return services.DeliveryQuote{}, err
	}

	quote, err := h.calculator.Quote(ctx, query.Destination(), query.Subtotal())
	if err != nil {
		return services.DeliveryQuote{}, err
	}

	return quote, quote.Err()
}
