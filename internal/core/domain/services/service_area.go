package services

import (
	"fmt"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/pkg/errs"
)

// ServiceAreaPolicy decides whether an address may be registered for delivery.
// It gates address registration only; pricing is governed by the delivery radius.
type ServiceAreaPolicy interface {
	Check(point *kernel.GeoPoint) error
}

// StrictServiceArea accepts coordinates inside the configured bounding box and rejects
// everything else, including addresses without a coordinate.
type StrictServiceArea struct {
	area kernel.BoundingBox
	name string
}

func NewStrictServiceArea(name string, area kernel.BoundingBox) (StrictServiceArea, error) {
	if err := area.Validate(); err != nil {
		return StrictServiceArea{}, err
	}
	return StrictServiceArea{area: area, name: name}, nil
}

func (p StrictServiceArea) Check(point *kernel.GeoPoint) error {
	if point == nil {
		return errs.NewNotServiceableError("address has no coordinates to check against the service area", nil)
	}
	if !p.area.Contains(*point) {
		return errs.NewNotServiceableError(fmt.Sprintf("%s is outside the %s service area", point, p.name), nil)
	}
	return nil
}

// PermissiveServiceArea accepts every address.
type PermissiveServiceArea struct{}

func (PermissiveServiceArea) Check(*kernel.GeoPoint) error {
	return nil
}
