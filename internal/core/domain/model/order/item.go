package order

import (
	"errors"
	"fmt"
	"strings"

	"pharmacy/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

const MaxItemQuantity = 100

// Item is one line of the cart captured at checkout. Prices are snapshotted and never re-read.
type Item struct {
	sku       string
	name      string
	quantity  int
	unitPrice decimal.Decimal
}

func NewItem(sku, name string, quantity int, unitPrice decimal.Decimal) (Item, error) {
	var errList []error

	sku = strings.TrimSpace(sku)
	if sku == "" {
		errList = append(errList, errs.NewValueIsRequiredError("sku"))
	}
	if quantity < 1 || quantity > MaxItemQuantity {
		errList = append(errList, errs.NewValueIsOutOfRangeError("quantity", quantity, 1, MaxItemQuantity))
	}
	if unitPrice.IsNegative() {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"unit price", fmt.Errorf("%s is negative", unitPrice)))
	}

	if err := errors.Join(errList...); err != nil {
		return Item{}, err
	}

	return Item{sku: sku, name: strings.TrimSpace(name), quantity: quantity, unitPrice: unitPrice}, nil
}

func (i Item) SKU() string                { return i.sku }
func (i Item) Name() string               { return i.name }
func (i Item) Quantity() int              { return i.quantity }
func (i Item) UnitPrice() decimal.Decimal { return i.unitPrice }

func (i Item) LineTotal() decimal.Decimal {
	return i.unitPrice.Mul(decimal.NewFromInt(int64(i.quantity)))
}

// Subtotal sums the line totals of items.
func Subtotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
