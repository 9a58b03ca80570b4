package http

import (
	"time"

	"pharmacy/internal/core/application/usecases/queries"
	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/services"
	"pharmacy/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Address struct {
	Line       string   `json:"line"`
	City       string   `json:"city"`
	PostalCode string   `json:"postal_code"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
}

type Item struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type NewOrder struct {
	OrderID    string  `json:"order_id"`
	Category   string  `json:"category"`
	CustomerID string  `json:"customer_id"`
	Items      []Item  `json:"items"`
	Address    Address `json:"address"`
}

type CancelOrder struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

type AdvanceOrder struct {
	Status string `json:"status"`
}

type ChangeAddress struct {
	Address Address `json:"address"`
}

type InitiatePayment struct {
	Method string `json:"method"`
}

type UpdatePaymentStatus struct {
	Status   string         `json:"status"`
	Source   string         `json:"source"`
	Metadata map[string]any `json:"metadata"`
}

type QuoteRequest struct {
	Lat      *float64        `json:"lat"`
	Lng      *float64        `json:"lng"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type ValidateAddress struct {
	Address Address `json:"address"`
}

type PaymentEvent struct {
	Status    string         `json:"status"`
	Source    string         `json:"source"`
	At        time.Time      `json:"at"`
	WebhookID string         `json:"webhook_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type PaymentAttempt struct {
	Request      map[string]any `json:"request"`
	ResultStatus string         `json:"result_status"`
	Error        string         `json:"error,omitempty"`
	At           time.Time      `json:"at"`
}

type Cancellation struct {
	Reason string    `json:"reason"`
	Actor  string    `json:"actor"`
	At     time.Time `json:"at"`
}

type Order struct {
	ID              string           `json:"id"`
	Number          string           `json:"number"`
	Category        string           `json:"category"`
	CustomerID      string           `json:"customer_id"`
	Status          string           `json:"status"`
	PaymentStatus   string           `json:"payment_status"`
	Items           []Item           `json:"items"`
	Address         Address          `json:"address"`
	Subtotal        string           `json:"subtotal"`
	DeliveryCharges string           `json:"delivery_charges"`
	Tax             string           `json:"tax"`
	Total           string           `json:"total"`
	DistanceKm      *float64         `json:"distance_km"`
	EstimatedRoute  bool             `json:"estimated_route"`
	PaymentHistory  []PaymentEvent   `json:"payment_history"`
	PaymentAttempts []PaymentAttempt `json:"payment_attempts"`
	Cancellation    *Cancellation    `json:"cancellation,omitempty"`
	Version         int64            `json:"version"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type ActiveOrder struct {
	ID            string    `json:"id"`
	Number        string    `json:"number"`
	Category      string    `json:"category"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Total         string    `json:"total"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type PaymentSession struct {
	Reference   string `json:"reference,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Accepted    bool   `json:"accepted"`
	Reason      string `json:"reason,omitempty"`
}

type InitiatePaymentResult struct {
	Session PaymentSession `json:"session"`
	Result  string         `json:"result"`
	Order   Order          `json:"order"`
}

type ReconcileResult struct {
	Result        string `json:"result"`
	Accepted      bool   `json:"accepted"`
	PaymentStatus string `json:"payment_status,omitempty"`
}

type Breakdown struct {
	BaseFee             string `json:"base_fee"`
	DistanceFee         string `json:"distance_fee"`
	TotalFee            string `json:"total_fee"`
	FreeDeliveryApplied bool   `json:"free_delivery_applied"`
}

type Quote struct {
	Deliverable    bool      `json:"deliverable"`
	Fee            *string   `json:"fee"`
	DistanceKm     *float64  `json:"distance_km"`
	DurationMin    *int      `json:"duration_min"`
	DistanceSource string    `json:"distance_source,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Breakdown      Breakdown `json:"breakdown"`
}

type ValidatedAddress struct {
	Address  Address `json:"address"`
	Geocoded bool    `json:"geocoded"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func pointFromWire(lat, lng *float64) (*kernel.GeoPoint, error) {
	switch {
	case lat == nil && lng == nil:
		return nil, nil
	case lat == nil || lng == nil:
		return nil, errs.NewValueIsRequiredError("lat and lng")
	}
	p, err := kernel.NewGeoPoint(*lat, *lng)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (a Address) toDomain() (order.Address, error) {
	point, err := pointFromWire(a.Lat, a.Lng)
	if err != nil {
		return order.Address{}, err
	}
	return order.NewAddress(a.Line, a.City, a.PostalCode, point)
}

func addressFromDomain(a order.Address) Address {
	out := Address{Line: a.Line(), City: a.City(), PostalCode: a.PostalCode()}
	if p := a.Point(); p != nil {
		lat, lng := p.Lat(), p.Lng()
		out.Lat, out.Lng = &lat, &lng
	}
	return out
}

func itemsToDomain(items []Item) ([]order.Item, error) {
	out := make([]order.Item, 0, len(items))
	for _, it := range items {
		item, err := order.NewItem(it.SKU, it.Name, it.Quantity, it.UnitPrice)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func orderFromReadModel(m queries.GetOrderQueryResponse) Order {
	items := make([]Item, len(m.Items))
	for i, it := range m.Items {
		items[i] = Item{SKU: it.SKU(), Name: it.Name(), Quantity: it.Quantity(), UnitPrice: it.UnitPrice()}
	}

	history := make([]PaymentEvent, len(m.PaymentHistory))
	for i, e := range m.PaymentHistory {
		history[i] = PaymentEvent{
			Status:    e.Status().String(),
			Source:    e.Source().String(),
			At:        e.At(),
			WebhookID: e.WebhookID(),
			Metadata:  e.Metadata(),
		}
	}

	attempts := make([]PaymentAttempt, len(m.PaymentAttempts))
	for i, a := range m.PaymentAttempts {
		attempts[i] = PaymentAttempt{
			Request:      a.Request(),
			ResultStatus: a.ResultStatus().String(),
			Error:        a.ErrorMessage(),
			At:           a.At(),
		}
	}

	var cancellation *Cancellation
	if c := m.Cancellation; c != nil {
		cancellation = &Cancellation{Reason: c.Reason(), Actor: c.Actor(), At: c.At()}
	}

	return Order{
		ID:              m.ID.String(),
		Number:          m.Number,
		Category:        m.Category.String(),
		CustomerID:      m.CustomerID.String(),
		Status:          m.Status.String(),
		PaymentStatus:   m.PaymentStatus.String(),
		Items:           items,
		Address:         addressFromDomain(m.Address),
		Subtotal:        money(m.Subtotal),
		DeliveryCharges: money(m.DeliveryCharges),
		Tax:             money(m.Tax),
		Total:           money(m.Total),
		DistanceKm:      m.DistanceKm,
		EstimatedRoute:  m.EstimatedRoute,
		PaymentHistory:  history,
		PaymentAttempts: attempts,
		Cancellation:    cancellation,
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func orderFromDomain(o *order.Order) Order {
	return orderFromReadModel(queries.NewGetOrderQueryResponse(o))
}

func quoteFromDomain(q services.DeliveryQuote) Quote {
	out := Quote{
		Deliverable:    q.Deliverable,
		DistanceKm:     q.DistanceKm,
		DurationMin:    q.DurationMin,
		DistanceSource: string(q.DistanceSource),
		Reason:         q.Reason,
		Breakdown: Breakdown{
			BaseFee:             money(q.Breakdown.BaseFee),
			DistanceFee:         money(q.Breakdown.DistanceFee),
			TotalFee:            money(q.Breakdown.TotalFee),
			FreeDeliveryApplied: q.Breakdown.FreeDeliveryApplied,
		},
	}
	if q.Fee != nil {
		fee := money(*q.Fee)
		out.Fee = &fee
	}
	return out
}
