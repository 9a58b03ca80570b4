package order

import (
	"fmt"
	"regexp"
	"time"

	"pharmacy/internal/pkg/errs"
)

var numberPattern = regexp.MustCompile(`^(MED|RX|LAB)-\d{8}-\d{6,}$`)

// Number is the human-readable order number, e.g. "MED-20261014-000042".
// It is assigned once at first persistence and never changes.
type Number struct {
	value string
}

// NewNumber formats a number from the category prefix, the UTC issue date and a per-category sequence value.
func NewNumber(category Category, issuedAt time.Time, sequence int64) (Number, error) {
	prefix, err := category.Prefix()
	if err != nil {
		return Number{}, err
	}

	if sequence <= 0 {
		return Number{}, errs.NewValueIsOutOfRangeError("sequence", sequence, 1, "unbounded")
	}

	return Number{value: fmt.Sprintf("%s-%s-%06d", prefix, issuedAt.UTC().Format("20060102"), sequence)}, nil
}

// ParseNumber restores a stored number.
func ParseNumber(s string) (Number, error) {
	if !numberPattern.MatchString(s) {
		return Number{}, errs.NewValueIsInvalidErrorWithCause("order number", fmt.Errorf("%q does not match PREFIX-YYYYMMDD-NNNNNN", s))
	}
	return Number{value: s}, nil
}

func (n Number) String() string {
	return n.value
}

func (n Number) IsZero() bool {
	return n.value == ""
}
