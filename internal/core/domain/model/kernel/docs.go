// Package kernel provides the value objects shared by the order and payment models.
//
// The package includes:
//   - UUID: identifier for aggregates, wrapping google/uuid
//   - GeoPoint: validated latitude/longitude with haversine distance
//   - BoundingBox: rectangular geofence over the operating region
//
// All values are immutable and their zero values fail validation.
package kernel
