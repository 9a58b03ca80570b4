package queries

import (
	"errors"
	"time"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/model/payment"
	"pharmacy/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

type GetOrderQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) OrderID() kernel.UUID { return q.orderID }

// GetOrderQueryResponse is the order read model, payment trail included.
type GetOrderQueryResponse struct {
	ID              kernel.UUID
	Number          string
	Category        order.Category
	CustomerID      kernel.UUID
	Status          order.Status
	Items           []order.Item
	Address         order.Address
	Subtotal        decimal.Decimal
	DeliveryCharges decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	DistanceKm      *float64
	EstimatedRoute  bool
	PaymentStatus   payment.Status
	PaymentHistory  []payment.HistoryEntry
	PaymentAttempts []payment.Attempt
	Cancellation    *order.Cancellation
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewGetOrderQueryResponse projects an aggregate onto the read model. Command results are
// rendered through it too.
func NewGetOrderQueryResponse(o *order.Order) GetOrderQueryResponse {
	totals := o.Totals()
	return GetOrderQueryResponse{
		ID:              o.ID(),
		Number:          o.Number().String(),
		Category:        o.Category(),
		CustomerID:      o.CustomerID(),
		Status:          o.Status(),
		Items:           o.Items(),
		Address:         o.Address(),
		Subtotal:        totals.Subtotal(),
		DeliveryCharges: totals.DeliveryCharges(),
		Tax:             totals.Tax(),
		Total:           totals.Total(),
		DistanceKm:      o.Delivery().DistanceKm(),
		EstimatedRoute:  o.Delivery().Estimated(),
		PaymentStatus:   o.Payment().Status(),
		PaymentHistory:  o.Payment().History(),
		PaymentAttempts: o.Payment().Attempts(),
		Cancellation:    o.Cancellation(),
		Version:         o.Version(),
		CreatedAt:       o.CreatedAt(),
		UpdatedAt:       o.UpdatedAt(),
	}
}
