package ports

import (
	"context"

	"pharmacy/internal/core/domain/model/kernel"
)

// Directions is a driving route between two points.
type Directions struct {
	DistanceKm  float64
	DurationMin int
}

// RoutingProvider computes driving directions. Implementations are best effort: callers
// fall back to straight-line estimates on any error.
type RoutingProvider interface {
	GetDirections(ctx context.Context, from, to kernel.GeoPoint) (Directions, error)
}

// GeocodedAddress is the structured result of reverse geocoding.
type GeocodedAddress struct {
	Line       string
	City       string
	PostalCode string
}

// Geocoder resolves free-form addresses to coordinates and back.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (kernel.GeoPoint, error)
	ReverseGeocode(ctx context.Context, point kernel.GeoPoint) (GeocodedAddress, error)
}
