package queries

import (
	"errors"

	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/pkg/guard"
)

var ErrValidateAddressQueryIsNotConstructed = errors.New(
	"ValidateAddressQuery must be created via NewValidateAddressQuery constructor",
)

// ValidateAddressQuery checks whether an address can be registered for delivery.
type ValidateAddressQuery struct {
	address order.Address

	guard guard.ConstructorGuard
}

func NewValidateAddressQuery(address order.Address) (ValidateAddressQuery, error) {
	if err := address.Validate(); err != nil {
		return ValidateAddressQuery{}, err
	}
	return ValidateAddressQuery{address: address, guard: guard.NewConstructorGuard()}, nil
}

func (q ValidateAddressQuery) Validate() error {
	return q.guard.Validate(ErrValidateAddressQueryIsNotConstructed)
}

func (q ValidateAddressQuery) Address() order.Address { return q.address }

// ValidateAddressQueryResponse is the address as it should be stored. Geocoded is true when
// the coordinate was filled in by the geocoder.
type ValidateAddressQueryResponse struct {
	Address  order.Address
	Geocoded bool
}
