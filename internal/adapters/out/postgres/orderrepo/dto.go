// Package orderrepo maps the order aggregate, its payment record included, to relational
// storage and back.
package orderrepo

import (
	"time"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/model/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO is the row of the orders table. Items and the payment trail are stored as JSON
// columns; the current payment status has its own indexed column.
type OrderDTO struct {
	ID                uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Number            string              `gorm:"column:order_number;uniqueIndex;not null"`
	Category          string              `gorm:"index;not null"`
	CustomerID        uuid.UUID           `gorm:"type:uuid;index;not null"`
	Status            string              `gorm:"index;not null"`
	Items             []ItemDTO           `gorm:"type:text;serializer:json"`
	Address           AddressDTO          `gorm:"embedded;embeddedPrefix:address_"`
	Subtotal          decimal.Decimal     `gorm:"type:numeric(12,2)"`
	DeliveryCharges   decimal.Decimal     `gorm:"type:numeric(12,2)"`
	Tax               decimal.Decimal     `gorm:"type:numeric(12,2)"`
	Total             decimal.Decimal     `gorm:"type:numeric(12,2)"`
	DistanceKm        *float64            `gorm:"column:distance_km"`
	DistanceEstimated bool                `gorm:"column:distance_estimated"`
	PaymentStatus     string              `gorm:"index;not null"`
	PaymentHistory    []PaymentHistoryDTO `gorm:"type:text;serializer:json"`
	PaymentAttempts   []PaymentAttemptDTO `gorm:"type:text;serializer:json"`
	LastWebhookID     string
	LastWebhookAt     *time.Time
	Cancellation      CancellationDTO `gorm:"embedded;embeddedPrefix:cancellation_"`
	Version           int64           `gorm:"not null;default:0"`
	CreatedAt         time.Time       `gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time       `gorm:"index;autoUpdateTime:false"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

type ItemDTO struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type AddressDTO struct {
	Line       string
	City       string
	PostalCode string
	Lat        *float64
	Lng        *float64
}

type CancellationDTO struct {
	Reason *string
	Actor  *string
	At     *time.Time
}

type PaymentHistoryDTO struct {
	Status    string         `json:"status"`
	Source    string         `json:"source"`
	At        time.Time      `json:"at"`
	WebhookID string         `json:"webhook_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type PaymentAttemptDTO struct {
	Request      map[string]any `json:"request,omitempty"`
	ResultStatus string         `json:"result_status"`
	Error        string         `json:"error,omitempty"`
	At           time.Time      `json:"at"`
}

// fromDomain converts an order aggregate to its row. The version is left as loaded; the
// repository decides what to write.
func fromDomain(o *order.Order) OrderDTO {
	items := make([]ItemDTO, 0, len(o.Items()))
	for _, item := range o.Items() {
		items = append(items, ItemDTO{
			SKU:       item.SKU(),
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice(),
		})
	}

	address := AddressDTO{
		Line:       o.Address().Line(),
		City:       o.Address().City(),
		PostalCode: o.Address().PostalCode(),
	}
	if p := o.Address().Point(); p != nil {
		lat, lng := p.Lat(), p.Lng()
		address.Lat, address.Lng = &lat, &lng
	}

	record := o.Payment()
	history := make([]PaymentHistoryDTO, 0, len(record.History()))
	for _, e := range record.History() {
		history = append(history, PaymentHistoryDTO{
			Status:    e.Status().String(),
			Source:    e.Source().String(),
			At:        e.At().UTC(),
			WebhookID: e.WebhookID(),
			Metadata:  e.Metadata(),
		})
	}
	attempts := make([]PaymentAttemptDTO, 0, len(record.Attempts()))
	for _, a := range record.Attempts() {
		attempts = append(attempts, PaymentAttemptDTO{
			Request:      a.Request(),
			ResultStatus: a.ResultStatus().String(),
			Error:        a.ErrorMessage(),
			At:           a.At().UTC(),
		})
	}

	var cancellation CancellationDTO
	if c := o.Cancellation(); c != nil {
		reason, actor, at := c.Reason(), c.Actor(), c.At().UTC()
		cancellation = CancellationDTO{Reason: &reason, Actor: &actor, At: &at}
	}

	var lastWebhookAt *time.Time
	if at := record.LastWebhookAt(); at != nil {
		utc := at.UTC()
		lastWebhookAt = &utc
	}

	totals := o.Totals()
	return OrderDTO{
		ID:                o.ID().Bytes(),
		Number:            o.Number().String(),
		Category:          o.Category().String(),
		CustomerID:        o.CustomerID().Bytes(),
		Status:            o.Status().String(),
		Items:             items,
		Address:           address,
		Subtotal:          totals.Subtotal(),
		DeliveryCharges:   totals.DeliveryCharges(),
		Tax:               totals.Tax(),
		Total:             totals.Total(),
		DistanceKm:        o.Delivery().DistanceKm(),
		DistanceEstimated: o.Delivery().Estimated(),
		PaymentStatus:     record.Status().String(),
		PaymentHistory:    history,
		PaymentAttempts:   attempts,
		LastWebhookID:     record.LastWebhookID(),
		LastWebhookAt:     lastWebhookAt,
		Cancellation:      cancellation,
		Version:           o.Version(),
		CreatedAt:         o.CreatedAt().UTC(),
		UpdatedAt:         o.UpdatedAt().UTC(),
	}
}

// toDomain rebuilds the aggregate through RestoreOrder, so stored rows pass the same
// validation as freshly built orders.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}

	number, err := order.ParseNumber(dto.Number)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, i := range dto.Items {
		item, itemErr := order.NewItem(i.SKU, i.Name, i.Quantity, i.UnitPrice)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	address, err := addressToDomain(dto.Address)
	if err != nil {
		return nil, err
	}

	record, err := paymentToDomain(dto)
	if err != nil {
		return nil, err
	}

	var cancellation *order.Cancellation
	if c := dto.Cancellation; c.Actor != nil && c.At != nil {
		reason := ""
		if c.Reason != nil {
			reason = *c.Reason
		}
		restored, cErr := order.NewCancellation(reason, *c.Actor, *c.At)
		if cErr != nil {
			return nil, cErr
		}
		cancellation = &restored
	}

	return order.RestoreOrder(order.RestoreParams{
		ID:           id,
		Number:       number,
		Category:     order.Category(dto.Category),
		CustomerID:   customerID,
		Items:        items,
		Address:      address,
		Status:       status,
		Payment:      record,
		Cancellation: cancellation,
		Totals:       order.RestoreTotals(dto.Subtotal, dto.DeliveryCharges, dto.Tax, dto.Total),
		Delivery:     order.NewDeliverySnapshot(dto.DistanceKm, dto.DistanceEstimated),
		Version:      dto.Version,
		CreatedAt:    dto.CreatedAt,
		UpdatedAt:    dto.UpdatedAt,
	})
}

func addressToDomain(dto AddressDTO) (order.Address, error) {
	var point *kernel.GeoPoint
	if dto.Lat != nil && dto.Lng != nil {
		p, err := kernel.NewGeoPoint(*dto.Lat, *dto.Lng)
		if err != nil {
			return order.Address{}, err
		}
		point = &p
	}
	return order.NewAddress(dto.Line, dto.City, dto.PostalCode, point)
}

func paymentToDomain(dto OrderDTO) (*payment.Record, error) {
	status, err := payment.ParseStatus(dto.PaymentStatus)
	if err != nil {
		return nil, err
	}

	history := make([]payment.HistoryEntry, 0, len(dto.PaymentHistory))
	for _, h := range dto.PaymentHistory {
		entryStatus, statusErr := payment.ParseStatus(h.Status)
		if statusErr != nil {
			return nil, statusErr
		}
		source, sourceErr := payment.ParseSource(h.Source)
		if sourceErr != nil {
			return nil, sourceErr
		}
		history = append(history, payment.RestoreHistoryEntry(entryStatus, source, h.At, h.WebhookID, h.Metadata))
	}

	attempts := make([]payment.Attempt, 0, len(dto.PaymentAttempts))
	for _, a := range dto.PaymentAttempts {
		resultStatus, statusErr := payment.ParseStatus(a.ResultStatus)
		if statusErr != nil {
			resultStatus = payment.Unknown
		}
		attempts = append(attempts, payment.NewAttempt(a.Request, resultStatus, a.Error, a.At))
	}

	return payment.RestoreRecord(status, history, attempts, dto.LastWebhookID, dto.LastWebhookAt)
}
