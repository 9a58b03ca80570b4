package queries

import (
	"errors"
	"time"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/model/payment"
	"pharmacy/internal/pkg/errs"
	"pharmacy/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

const (
	DefaultActiveOrdersLimit = 100
	MaxActiveOrdersLimit     = 500
)

var ErrListActiveOrdersQueryIsNotConstructed = errors.New(
	"ListActiveOrdersQuery must be created via NewListActiveOrdersQuery constructor",
)

// ListActiveOrdersQuery lists orders that are neither delivered nor cancelled, the
// pharmacy's open workload.
//
// Example:
//
//	query, _ := NewListActiveOrdersQuery(0)
//	orders, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to list active orders: %w", err)
//	}
//
//	for _, o := range orders {
//	    fmt.Printf("%s %s %s\n", o.Number, o.Status, o.Total.StringFixed(2))
//	}
type ListActiveOrdersQuery struct {
	limit int

	guard guard.ConstructorGuard
}

// NewListActiveOrdersQuery builds the query. A zero limit means DefaultActiveOrdersLimit.
func NewListActiveOrdersQuery(limit int) (ListActiveOrdersQuery, error) {
	if limit == 0 {
		limit = DefaultActiveOrdersLimit
	}
	if limit < 0 || limit > MaxActiveOrdersLimit {
		return ListActiveOrdersQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxActiveOrdersLimit)
	}
	return ListActiveOrdersQuery{limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (q ListActiveOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListActiveOrdersQueryIsNotConstructed)
}

func (q ListActiveOrdersQuery) Limit() int { return q.limit }

type ListActiveOrdersQueryResponse struct {
	ID            kernel.UUID
	Number        string
	Category      order.Category
	Status        order.Status
	PaymentStatus payment.Status
	Total         decimal.Decimal
	UpdatedAt     time.Time
}
