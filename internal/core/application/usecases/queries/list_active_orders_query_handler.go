package queries

import (
	"context"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/model/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ListActiveOrdersQueryHandler reads the orders table directly. It selects only the
// summary columns, so the serialized items and payment trail are never decoded.
type ListActiveOrdersQueryHandler struct {
	db *gorm.DB
}

func NewListActiveOrdersQueryHandler(db *gorm.DB) ListActiveOrdersQueryHandler {
	return ListActiveOrdersQueryHandler{db: db}
}

// Handle returns active orders, oldest first.
func (h ListActiveOrdersQueryHandler) Handle(
	ctx context.Context,
	query ListActiveOrdersQuery,
) ([]ListActiveOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders := make([]ListActiveOrdersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			order_number,
			category,
			status,
			payment_status,
			total,
			updated_at
		FROM orders
		WHERE status NOT IN (?, ?)
		ORDER BY created_at, id
		LIMIT ?
	`, order.Delivered.String(), order.Cancelled.String(), query.Limit()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			resp                            ListActiveOrdersQueryResponse
			id                              uuid.UUID
			category, status, paymentStatus string
			total                           decimal.Decimal
		)

		err = rows.Scan(&id, &resp.Number, &category, &status, &paymentStatus, &total, &resp.UpdatedAt)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		resp.ID = orderID

		if resp.Category, err = order.ParseCategory(category); err != nil {
			return nil, err
		}
		if resp.Status, err = order.ParseStatus(status); err != nil {
			return nil, err
		}
		if resp.PaymentStatus, err = payment.ParseStatus(paymentStatus); err != nil {
			return nil, err
		}
		resp.Total = total
		resp.UpdatedAt = resp.UpdatedAt.UTC()

		orders = append(orders, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
