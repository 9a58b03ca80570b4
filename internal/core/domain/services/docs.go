// Package services provides the domain services of the pharmacy checkout that do not belong
// to a single aggregate.
//
// The package includes:
//   - DeliveryFeeCalculator: prices delivery from the dispatch point with a free-distance
//     allowance, a per-km rate, a free-delivery threshold and a hard delivery radius
//   - DistanceResolver: routed distance with a haversine fallback flagged as estimated
//   - ServiceAreaPolicy: the configurable geofence gating address registration
package services
