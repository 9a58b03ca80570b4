package order

import (
	"strings"
	"time"

	"pharmacy/internal/pkg/errs"
)

// DeliverySnapshot freezes the distance the fee was priced on. Estimated is true when the
// routing provider was unavailable and the straight-line fallback was used.
type DeliverySnapshot struct {
	distanceKm *float64
	estimated  bool
}

func NewDeliverySnapshot(distanceKm *float64, estimated bool) DeliverySnapshot {
	s := DeliverySnapshot{estimated: estimated}
	if distanceKm != nil {
		d := *distanceKm
		s.distanceKm = &d
	}
	return s
}

func (s DeliverySnapshot) DistanceKm() *float64 {
	if s.distanceKm == nil {
		return nil
	}
	d := *s.distanceKm
	return &d
}

func (s DeliverySnapshot) Estimated() bool { return s.estimated }

// Cancellation records who cancelled an order, why and when.
type Cancellation struct {
	reason string
	actor  string
	at     time.Time
}

func NewCancellation(reason, actor string, at time.Time) (Cancellation, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return Cancellation{}, errs.NewValueIsRequiredError("cancellation actor")
	}
	return Cancellation{reason: strings.TrimSpace(reason), actor: actor, at: at}, nil
}

func (c Cancellation) Reason() string { return c.reason }
func (c Cancellation) Actor() string  { return c.actor }
func (c Cancellation) At() time.Time  { return c.at }
