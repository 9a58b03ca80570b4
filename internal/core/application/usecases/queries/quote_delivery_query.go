// Package queries contains read operations that never change order state.
package queries

import (
	"errors"
	"fmt"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/pkg/errs"
	"pharmacy/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrQuoteDeliveryQueryIsNotConstructed = errors.New(
	"QuoteDeliveryQuery must be created via NewQuoteDeliveryQuery constructor",
)

// QuoteDeliveryQuery prices delivery of a cart before checkout. A nil destination is priced
// at the base fee.
type QuoteDeliveryQuery struct {
	destination *kernel.GeoPoint
	subtotal    decimal.Decimal

	guard guard.ConstructorGuard
}

func NewQuoteDeliveryQuery(destination *kernel.GeoPoint, subtotal decimal.Decimal) (QuoteDeliveryQuery, error) {
	if destination != nil {
		if err := destination.Validate(); err != nil {
			return QuoteDeliveryQuery{}, err
		}
		p := *destination
		destination = &p
	}

	if subtotal.IsNegative() {
		return QuoteDeliveryQuery{}, errs.NewValueIsInvalidErrorWithCause("subtotal", fmt.Errorf("%s is negative", subtotal))
	}

	return QuoteDeliveryQuery{
		destination: destination,
		subtotal:    subtotal,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (q QuoteDeliveryQuery) Validate() error {
	return q.guard.Validate(ErrQuoteDeliveryQueryIsNotConstructed)
}

func (q QuoteDeliveryQuery) Destination() *kernel.GeoPoint { return q.destination }
func (q QuoteDeliveryQuery) Subtotal() decimal.Decimal     { return q.subtotal }
