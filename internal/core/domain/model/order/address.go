package order

import (
	"errors"
	"strings"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/pkg/errs"
	"pharmacy/internal/pkg/guard"
)

var ErrAddressIsNotConstructed = errs.NewValueIsRequiredError("address must be created via NewAddress")

// Address is the delivery destination. The coordinate is optional: addresses typed in without
// geolocation still check out, priced at the base fee.
type Address struct { //nolint:recvcheck //using for validation
	line       string
	city       string
	postalCode string
	point      *kernel.GeoPoint

	guard guard.ConstructorGuard
}

func NewAddress(line, city, postalCode string, point *kernel.GeoPoint) (Address, error) {
	a := Address{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		a.setLine(line),
		a.setCity(city),
		a.setPostalCode(postalCode),
		a.setPoint(point),
	); err != nil {
		return Address{}, err
	}

	return a, nil
}

func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

func (a Address) Line() string       { return a.line }
func (a Address) City() string       { return a.city }
func (a Address) PostalCode() string { return a.postalCode }

// Point returns a copy of the coordinate, or nil when the address was not geolocated.
func (a Address) Point() *kernel.GeoPoint {
	if a.point == nil {
		return nil
	}
	p := *a.point
	return &p
}

// WithPoint returns the same address geolocated at p.
func (a Address) WithPoint(p kernel.GeoPoint) (Address, error) {
	return NewAddress(a.line, a.city, a.postalCode, &p)
}

func (a *Address) setLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return errs.NewValueIsRequiredError("address line")
	}
	a.line = line
	return nil
}

func (a *Address) setCity(city string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return errs.NewValueIsRequiredError("city")
	}
	a.city = city
	return nil
}

func (a *Address) setPostalCode(postalCode string) error {
	a.postalCode = strings.TrimSpace(postalCode)
	return nil
}

func (a *Address) setPoint(point *kernel.GeoPoint) error {
	if point == nil {
		return nil
	}
	if err := point.Validate(); err != nil {
		return err
	}
	p := *point
	a.point = &p
	return nil
}
