package order

import (
	"fmt"
	"strings"

	"pharmacy/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
// State transitions:
//
//	Pending ──> Confirmed ──> Processing ──> OutForDelivery ──> Delivered
//	   │
//	   └──> Cancelled
//
// Cancellation is reachable only from Pending. Delivered and Cancelled are terminal.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the status of a freshly checked-out order. Totals may still be recomputed.
	Pending

	// Confirmed orders have been accepted by the pharmacist. Totals are frozen from here on.
	Confirmed

	// Processing orders are being picked and packed.
	Processing

	// OutForDelivery orders are with a delivery agent.
	OutForDelivery

	// Delivered is a terminal state.
	Delivered

	// Cancelled is a terminal state, reachable only from Pending.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:        "unknown",
		Pending:        "pending",
		Confirmed:      "confirmed",
		Processing:     "processing",
		OutForDelivery: "out_for_delivery",
		Delivered:      "delivered",
		Cancelled:      "cancelled",
	}
}

// ParseStatus maps the wire spelling ("out_for_delivery") to a Status.
func ParseStatus(s string) (Status, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for status, name := range getStatusStrings() {
		if status != Unknown && name == needle {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("order status", fmt.Errorf("%q is not an order status", s))
}

// Validate checks if the Status value is one of the defined lifecycle states.
func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name of the status and is safe on invalid values.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// IsForward reports statuses reachable by operator or delivery actions.
func (s Status) IsForward() bool {
	return s >= Confirmed && s <= Delivered
}

// Cancel transitions the status to Cancelled.
//
// Valid transitions:
//   - Pending -> Cancelled
//
// Every other status, Cancelled included, is refused with a StateViolationError.
func (s Status) Cancel() (Status, error) {
	if s != Pending {
		return Unknown, errs.NewStateViolationError("cancel order", s)
	}
	return Cancelled, nil
}

// Advance moves the order forward to target.
//
// Valid transitions:
//   - any non-terminal status -> a forward status further along the happy path
//
// Invalid transitions:
//   - anything out of Delivered or Cancelled (terminal states are sticky)
//   - moving to Pending, Cancelled or Unknown
//   - moving backwards or staying in place
func (s Status) Advance(target Status) (Status, error) {
	if s.IsTerminal() {
		return Unknown, errs.NewStateViolationError("advance order to "+target.String(), s)
	}

	if !target.IsForward() {
		return Unknown, errs.NewValueIsInvalidErrorWithCause(
			"target status",
			fmt.Errorf("%s is not a forward status", target),
		)
	}

	if target <= s {
		return Unknown, errs.NewStateViolationError("move order back to "+target.String(), s)
	}

	return target, nil
}
