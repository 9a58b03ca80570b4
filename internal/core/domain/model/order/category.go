package order

import (
	"fmt"
	"strings"

	"pharmacy/internal/pkg/errs"
)

// Category selects the order number prefix and the sequence the number is drawn from.
type Category string

const (
	CategoryMedicine     Category = "medicine"
	CategoryPrescription Category = "prescription"
	CategoryLabTest      Category = "lab_test"
)

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (c Category) Validate() error {
	if _, err := c.Prefix(); err != nil {
		return err
	}
	return nil
}

// Prefix returns the order number prefix of the category.
func (c Category) Prefix() (string, error) {
	switch c {
	case CategoryMedicine:
		return "MED", nil
	case CategoryPrescription:
		return "RX", nil
	case CategoryLabTest:
		return "LAB", nil
	}
	return "", errs.NewValueIsInvalidErrorWithCause("category", fmt.Errorf("%q is not an order category", string(c)))
}

func (c Category) String() string {
	return string(c)
}
