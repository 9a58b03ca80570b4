package services

import (
	"context"
	"log/slog"
	"math"
	"time"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/ports"
)

// DistanceSource tells whether a distance came from the routing provider or from the
// straight-line fallback.
type DistanceSource string

const (
	DistanceRouted    DistanceSource = "routed"
	DistanceEstimated DistanceSource = "estimated"
)

const (
	DefaultRoutingTimeout  = 3 * time.Second
	DefaultAverageSpeedKmh = 25.0
)

// Route is a resolved distance between the dispatch point and a destination.
type Route struct {
	DistanceKm  float64
	DurationMin int
	Source      DistanceSource
}

// DistanceResolver asks the routing provider for driving directions and degrades to the
// haversine distance when the provider fails, times out or is not configured.
// Routing failures are never returned to the caller.
type DistanceResolver struct {
	routing         ports.RoutingProvider
	timeout         time.Duration
	averageSpeedKmh float64
	logger          *slog.Logger
}

// NewDistanceResolver builds a resolver. A nil routing provider always yields estimates.
// Non-positive timeout and speed fall back to the defaults.
func NewDistanceResolver(
	routing ports.RoutingProvider,
	timeout time.Duration,
	averageSpeedKmh float64,
	logger *slog.Logger,
) *DistanceResolver {
	if timeout <= 0 {
		timeout = DefaultRoutingTimeout
	}
	if averageSpeedKmh <= 0 {
		averageSpeedKmh = DefaultAverageSpeedKmh
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DistanceResolver{
		routing:         routing,
		timeout:         timeout,
		averageSpeedKmh: averageSpeedKmh,
		logger:          logger.With("component", "DistanceResolver"),
	}
}

// Resolve returns the route from origin to destination.
//
// Returns:
//   - Route: routed when the provider answered within the timeout, estimated otherwise
//   - error: only when either point is not a constructed GeoPoint
func (r *DistanceResolver) Resolve(ctx context.Context, origin, destination kernel.GeoPoint) (Route, error) {
	straight, err := origin.DistanceTo(destination)
	if err != nil {
		return Route{}, err
	}

	if r.routing != nil {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		directions, err := r.routing.GetDirections(callCtx, origin, destination)
		cancel()

		if err == nil && directions.DistanceKm >= 0 && !math.IsNaN(directions.DistanceKm) {
			return Route{
				DistanceKm:  kernel.RoundKm(directions.DistanceKm),
				DurationMin: directions.DurationMin,
				Source:      DistanceRouted,
			}, nil
		}

		r.logger.WarnContext(ctx, "routing unavailable, using straight-line estimate",
			"destination", destination.String(),
			"distance_km", straight,
			"error", err,
		)
	}

	return Route{
		DistanceKm:  straight,
		DurationMin: r.estimateMinutes(straight),
		Source:      DistanceEstimated,
	}, nil
}

func (r *DistanceResolver) estimateMinutes(km float64) int {
	return int(math.Ceil(km / r.averageSpeedKmh * 60))
}
