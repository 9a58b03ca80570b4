package order

import (
	"errors"
	"fmt"

	"pharmacy/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// ErrTotalsDiverged flags a stored total that no longer matches its components.
// It is a data-integrity bug to be logged, never silently corrected.
var ErrTotalsDiverged = errors.New("order totals diverged from their components")

// Totals is the monetary summary of an order. All amounts are rounded to two decimals.
type Totals struct {
	subtotal        decimal.Decimal
	deliveryCharges decimal.Decimal
	tax             decimal.Decimal
	total           decimal.Decimal
}

// ComputeTotals derives the totals deterministically from the items, the final delivery fee
// and the tax rate applied to the subtotal (0.05 means 5%).
func ComputeTotals(items []Item, deliveryCharges, taxRate decimal.Decimal) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, errs.NewValueIsRequiredError("items")
	}
	if deliveryCharges.IsNegative() {
		return Totals{}, errs.NewValueIsInvalidErrorWithCause("delivery charges", fmt.Errorf("%s is negative", deliveryCharges))
	}
	if taxRate.IsNegative() {
		return Totals{}, errs.NewValueIsInvalidErrorWithCause("tax rate", fmt.Errorf("%s is negative", taxRate))
	}

	subtotal := Subtotal(items).Round(2)
	delivery := deliveryCharges.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)

	return Totals{
		subtotal:        subtotal,
		deliveryCharges: delivery,
		tax:             tax,
		total:           subtotal.Add(delivery).Add(tax),
	}, nil
}

// RestoreTotals rebuilds stored totals as-is. Use VerifyTotals on the order to detect drift.
func RestoreTotals(subtotal, deliveryCharges, tax, total decimal.Decimal) Totals {
	return Totals{subtotal: subtotal, deliveryCharges: deliveryCharges, tax: tax, total: total}
}

func (t Totals) Subtotal() decimal.Decimal        { return t.subtotal }
func (t Totals) DeliveryCharges() decimal.Decimal { return t.deliveryCharges }
func (t Totals) Tax() decimal.Decimal             { return t.tax }
func (t Totals) Total() decimal.Decimal           { return t.total }
