package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// FreeDistanceKm is the distance covered by the base fee.
const FreeDistanceKm = 5.0

// Pricing holds the delivery tariff of one dispatch point.
type Pricing struct {
	central               kernel.GeoPoint
	baseFee               decimal.Decimal
	perKmRate             decimal.Decimal
	freeDeliveryThreshold decimal.Decimal
	maxDeliveryDistanceKm float64
}

// NewPricing validates a tariff. Money must be non-negative and the delivery radius positive.
func NewPricing(
	central kernel.GeoPoint,
	baseFee, perKmRate, freeDeliveryThreshold decimal.Decimal,
	maxDeliveryDistanceKm float64,
) (Pricing, error) {
	var errList []error

	if err := central.Validate(); err != nil {
		errList = append(errList, err)
	}
	for name, v := range map[string]decimal.Decimal{
		"base fee":                baseFee,
		"per km rate":             perKmRate,
		"free delivery threshold": freeDeliveryThreshold,
	} {
		if v.IsNegative() {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%s is negative", v)))
		}
	}
	if maxDeliveryDistanceKm <= 0 || math.IsNaN(maxDeliveryDistanceKm) {
		errList = append(errList, errs.NewValueIsOutOfRangeError("max delivery distance", maxDeliveryDistanceKm, 0, "unbounded"))
	}

	if err := errors.Join(errList...); err != nil {
		return Pricing{}, err
	}

	return Pricing{
		central:               central,
		baseFee:               baseFee,
		perKmRate:             perKmRate,
		freeDeliveryThreshold: freeDeliveryThreshold,
		maxDeliveryDistanceKm: maxDeliveryDistanceKm,
	}, nil
}

func (p Pricing) Central() kernel.GeoPoint               { return p.central }
func (p Pricing) BaseFee() decimal.Decimal               { return p.baseFee }
func (p Pricing) PerKmRate() decimal.Decimal             { return p.perKmRate }
func (p Pricing) FreeDeliveryThreshold() decimal.Decimal { return p.freeDeliveryThreshold }
func (p Pricing) MaxDeliveryDistanceKm() float64         { return p.maxDeliveryDistanceKm }

// Breakdown explains how a fee was built. TotalFee is the pre-override fee even when free
// delivery applies.
type Breakdown struct {
	BaseFee             decimal.Decimal
	DistanceFee         decimal.Decimal
	TotalFee            decimal.Decimal
	FreeDeliveryApplied bool
}

// DeliveryQuote is the priced answer for one destination and subtotal.
// Fee is nil when the destination is not deliverable.
type DeliveryQuote struct {
	Fee            *decimal.Decimal
	DistanceKm     *float64
	DurationMin    *int
	Deliverable    bool
	Reason         string
	DistanceSource DistanceSource
	Breakdown      Breakdown
}

// Err returns a NotServiceableError for undeliverable quotes and nil otherwise.
func (q DeliveryQuote) Err() error {
	if q.Deliverable {
		return nil
	}
	return errs.NewNotServiceableError(q.Reason, q.DistanceKm)
}

// DeliveryFeeCalculator prices delivery from the dispatch point to a destination.
type DeliveryFeeCalculator struct {
	pricing  Pricing
	resolver *DistanceResolver
}

func NewDeliveryFeeCalculator(pricing Pricing, resolver *DistanceResolver) *DeliveryFeeCalculator {
	if resolver == nil {
		resolver = NewDistanceResolver(nil, 0, 0, nil)
	}
	return &DeliveryFeeCalculator{pricing: pricing, resolver: resolver}
}

func (c *DeliveryFeeCalculator) Pricing() Pricing {
	return c.pricing
}

// Quote prices delivery of an order with the given item subtotal.
//
// Rules:
//   - no destination coordinate: the base fee applies and the order is deliverable
//   - distance beyond the delivery radius: not deliverable, Fee is nil
//   - otherwise fee = baseFee + max(0, distance - 5km) * perKmRate, rounded to two decimals
//   - subtotal at or above the free-delivery threshold makes the final fee 0
//
// Example:
//
//	// base 50, 8/km, 12 km away, subtotal 300
//	q, _ := calc.Quote(ctx, &home, decimal.NewFromInt(300))
//	// q.Breakdown.DistanceFee = 56, *q.Fee = 106
//
// Returns an error only for invalid input. Undeliverable destinations are a normal quote;
// use DeliveryQuote.Err to turn them into a NotServiceableError.
func (c *DeliveryFeeCalculator) Quote(
	ctx context.Context,
	destination *kernel.GeoPoint,
	subtotal decimal.Decimal,
) (DeliveryQuote, error) {
	if subtotal.IsNegative() {
		return DeliveryQuote{}, errs.NewValueIsInvalidErrorWithCause("subtotal", fmt.Errorf("%s is negative", subtotal))
	}

	if destination == nil {
		return c.priced(subtotal, decimal.Zero, DeliveryQuote{Deliverable: true}), nil
	}

	route, err := c.resolver.Resolve(ctx, c.pricing.central, *destination)
	if err != nil {
		return DeliveryQuote{}, err
	}

	distance := route.DistanceKm
	duration := route.DurationMin
	quote := DeliveryQuote{
		DistanceKm:     &distance,
		DurationMin:    &duration,
		DistanceSource: route.Source,
	}

	if distance > c.pricing.maxDeliveryDistanceKm {
		quote.Reason = fmt.Sprintf("delivery address is %.2f km away, beyond the %g km delivery radius",
			distance, c.pricing.maxDeliveryDistanceKm)
		return quote, nil
	}

	chargeableKm := math.Max(0, distance-FreeDistanceKm)
	distanceFee := decimal.NewFromFloat(chargeableKm).Mul(c.pricing.perKmRate).Round(2)

	quote.Deliverable = true
	return c.priced(subtotal, distanceFee, quote), nil
}

func (c *DeliveryFeeCalculator) priced(subtotal, distanceFee decimal.Decimal, quote DeliveryQuote) DeliveryQuote {
	totalFee := c.pricing.baseFee.Add(distanceFee).Round(2)
	free := subtotal.GreaterThanOrEqual(c.pricing.freeDeliveryThreshold)

	fee := totalFee
	if free {
		fee = decimal.Zero
	}

	quote.Fee = &fee
	quote.Breakdown = Breakdown{
		BaseFee:             c.pricing.baseFee,
		DistanceFee:         distanceFee,
		TotalFee:            totalFee,
		FreeDeliveryApplied: free,
	}
	return quote
}
