package kernel

import (
	"errors"
	"fmt"

	"pharmacy/internal/pkg/errs"
	"pharmacy/internal/pkg/guard"
)

var ErrBoundingBoxIsNotConstructed = errs.NewValueIsRequiredError("bounding box must be created via NewBoundingBox")

// BoundingBox is the fixed geofence over the operating region. It decides whether an address may
// be registered at all and is unrelated to the per-order maximum delivery distance.
type BoundingBox struct {
	southWest GeoPoint
	northEast GeoPoint
	guard     guard.ConstructorGuard
}

// NewBoundingBox builds a box from its south-west and north-east corners.
// Boxes crossing the antimeridian are not supported.
func NewBoundingBox(southWest, northEast GeoPoint) (BoundingBox, error) {
	if err := errors.Join(southWest.Validate(), northEast.Validate()); err != nil {
		return BoundingBox{}, err
	}

	if southWest.Lat() > northEast.Lat() || southWest.Lng() > northEast.Lng() {
		return BoundingBox{}, errs.NewValueIsInvalidErrorWithCause(
			"bounding box",
			fmt.Errorf("south-west corner %s is not below and left of north-east corner %s", southWest, northEast),
		)
	}

	return BoundingBox{southWest: southWest, northEast: northEast, guard: guard.NewConstructorGuard()}, nil
}

func (b BoundingBox) Validate() error {
	return b.guard.Validate(ErrBoundingBoxIsNotConstructed)
}

func (b BoundingBox) SouthWest() GeoPoint {
	return b.southWest
}

func (b BoundingBox) NorthEast() GeoPoint {
	return b.northEast
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(p GeoPoint) bool {
	if b.Validate() != nil || p.Validate() != nil {
		return false
	}

	return p.Lat() >= b.southWest.Lat() && p.Lat() <= b.northEast.Lat() &&
		p.Lng() >= b.southWest.Lng() && p.Lng() <= b.northEast.Lng()
}
