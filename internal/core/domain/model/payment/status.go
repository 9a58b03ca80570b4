package payment

import (
	"fmt"
	"strings"

	"pharmacy/internal/pkg/errs"
)

// Status is the settlement state of an order's payment.
//
// Priorities drive reconciliation:
//
//	Failed, Refunded = 0 (terminal, may override anything)
//	Pending          = 1
//	Processing       = 2
//	Paid             = 3
type Status int

const (
	Unknown Status = iota
	Pending
	Processing
	Paid
	Failed
	Refunded
)

var statusNames = map[Status]string{
	Pending:    "pending",
	Processing: "processing",
	Paid:       "paid",
	Failed:     "failed",
	Refunded:   "refunded",
}

// ParseStatus maps the gateway / API spelling ("paid", "PAID") to a Status.
func ParseStatus(s string) (Status, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for status, name := range statusNames {
		if name == needle {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("payment status", fmt.Errorf("%q is not a payment status", s))
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("payment status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// Priority returns the reconciliation rank of the status. Every status must be listed here;
// a new one fails loudly until it is given an explicit place in the ordering.
func (s Status) Priority() (int, error) {
	switch s {
	case Failed, Refunded:
		return 0, nil
	case Pending:
		return 1, nil
	case Processing:
		return 2, nil
	case Paid:
		return 3, nil
	case Unknown:
		return 0, s.Validate()
	default:
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"payment status", fmt.Errorf("%d has no reconciliation priority", int(s)))
	}
}

// IsTerminalOverride reports statuses that may be applied from any state.
func (s Status) IsTerminalOverride() bool {
	return s == Failed || s == Refunded
}

// IsUnsettled reports statuses that an order cancellation forces to Failed.
func (s Status) IsUnsettled() bool {
	return s == Pending || s == Processing
}
