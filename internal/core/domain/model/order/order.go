package order

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/payment"
	"pharmacy/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrOrderNumberAlreadyAssigned is returned when AssignNumber is called twice.
	ErrOrderNumberAlreadyAssigned = errors.New("order number is already assigned")
)

// Order is the aggregate root of the checkout. It owns the fulfillment lifecycle and embeds
// the payment record, which has no lifecycle of its own.
//
// Order follows these invariants:
//   - status moves along Pending -> Confirmed -> Processing -> OutForDelivery -> Delivered
//   - Cancelled is reachable only from Pending, and cancellation fails an unsettled payment
//     in the same mutation
//   - totals are recomputed only while Pending
//   - the order number is assigned exactly once
//
// The version is the optimistic concurrency token checked by the repository on update.
type Order struct {
	id           kernel.UUID
	number       Number
	category     Category
	customerID   kernel.UUID
	items        []Item
	address      Address
	status       Status
	payment      *payment.Record
	cancellation *Cancellation
	totals       Totals
	delivery     DeliverySnapshot
	version      int64
	createdAt    time.Time
	updatedAt    time.Time

	isConstructed bool
}

// NewOrder creates a pending order with a pending payment.
//
// Parameters:
//   - id: client-supplied identifier, used for idempotent checkout
//   - category: decides the order-number prefix
//   - items: at least one line
//   - totals: computed by ComputeTotals from the same items
//   - delivery: the distance the fee was priced on
//
// Returns:
//   - *Order: the created order, without a number yet
//   - error: joined validation errors
func NewOrder(
	id kernel.UUID,
	category Category,
	customerID kernel.UUID,
	items []Item,
	address Address,
	totals Totals,
	delivery DeliverySnapshot,
	now time.Time,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		payment:       payment.NewRecord(now),
		totals:        totals,
		delivery:      delivery,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCategory(category),
		o.setCustomerID(customerID),
		o.setItems(items),
		o.setAddress(address),
	); err != nil {
		return nil, err
	}

	if err := o.VerifyTotals(); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("totals", err)
	}

	return o, nil
}

// RestoreParams carries the persisted state of an order.
type RestoreParams struct {
	ID           kernel.UUID
	Number       Number
	Category     Category
	CustomerID   kernel.UUID
	Items        []Item
	Address      Address
	Status       Status
	Payment      *payment.Record
	Cancellation *Cancellation
	Totals       Totals
	Delivery     DeliverySnapshot
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RestoreOrder rebuilds an order loaded from storage. Totals are taken as stored; call
// VerifyTotals to detect drift.
func RestoreOrder(p RestoreParams) (*Order, error) {
	o := &Order{
		number:        p.Number,
		status:        p.Status,
		totals:        p.Totals,
		delivery:      p.Delivery,
		version:       p.Version,
		createdAt:     p.CreatedAt,
		updatedAt:     p.UpdatedAt,
		isConstructed: true,
	}

	if p.Cancellation != nil {
		c := *p.Cancellation
		o.cancellation = &c
	}

	var statusErr error
	if err := p.Status.Validate(); err != nil {
		statusErr = err
	} else if p.Status == Cancelled && p.Cancellation == nil {
		statusErr = errs.NewValueIsRequiredError("cancellation of a cancelled order")
	}

	if err := errors.Join(
		o.setID(p.ID),
		o.setCategory(p.Category),
		o.setCustomerID(p.CustomerID),
		o.setItems(p.Items),
		o.setAddress(p.Address),
		o.setPayment(p.Payment),
		statusErr,
	); err != nil {
		return nil, err
	}

	return o, nil
}

func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID         { return o.id }
func (o *Order) Number() Number          { return o.number }
func (o *Order) Category() Category      { return o.category }
func (o *Order) CustomerID() kernel.UUID { return o.customerID }
func (o *Order) Address() Address        { return o.address }
func (o *Order) Status() Status          { return o.status }
func (o *Order) Totals() Totals          { return o.totals }
func (o *Order) Version() int64          { return o.version }
func (o *Order) CreatedAt() time.Time    { return o.createdAt }
func (o *Order) UpdatedAt() time.Time    { return o.updatedAt }

// Delivery returns the distance snapshot the delivery fee was priced on.
func (o *Order) Delivery() DeliverySnapshot {
	return o.delivery
}

// Items returns a copy of the order lines.
func (o *Order) Items() []Item {
	return slices.Clone(o.items)
}

// Payment returns the embedded payment record. Mutate it only through the order's methods.
func (o *Order) Payment() *payment.Record {
	return o.payment
}

// Cancellation returns nil unless the order is cancelled.
func (o *Order) Cancellation() *Cancellation {
	if o.cancellation == nil {
		return nil
	}
	c := *o.cancellation
	return &c
}

// AssignNumber sets the human-readable order number. It can be called once.
func (o *Order) AssignNumber(n Number) error {
	if n.IsZero() {
		return errs.NewValueIsRequiredError("order number")
	}
	if !o.number.IsZero() {
		return ErrOrderNumberAlreadyAssigned
	}
	o.number = n
	return nil
}

// Cancel moves a pending order to Cancelled.
//
// This method enforces the following business rules:
//   - only a Pending order may be cancelled; any other status is refused with a StateViolationError
//   - an unsettled payment (pending or processing) is forced to Failed with source user and
//     metadata cause=order_cancelled, within the same mutation
//   - a paid payment is left as is; refunds are a separate workflow
//
// Example:
//
//	if err := o.Cancel("changed my mind", "customer", time.Now()); errors.Is(err, errs.ErrStateViolation) {
//	    // refused, the order already left pending
//	}
func (o *Order) Cancel(reason, actor string, now time.Time) error {
	newStatus, err := o.status.Cancel()
	if err != nil {
		return err
	}

	cancellation, err := NewCancellation(reason, actor, now)
	if err != nil {
		return err
	}

	if o.payment.Status().IsUnsettled() {
		update, err := payment.NewStatusUpdate(payment.Failed, payment.SourceUser, map[string]any{
			"cause":  "order_cancelled",
			"reason": cancellation.Reason(),
			"actor":  cancellation.Actor(),
		}, "")
		if err != nil {
			return err
		}
		if _, err := o.payment.ApplyStatusUpdate(update, now); err != nil {
			return err
		}
	}

	o.status = newStatus
	o.cancellation = &cancellation
	o.updatedAt = now
	return nil
}

// Advance applies an operator or delivery forward transition.
// Delivered and Cancelled orders refuse every transition.
func (o *Order) Advance(target Status, now time.Time) error {
	newStatus, err := o.status.Advance(target)
	if err != nil {
		return err
	}

	o.status = newStatus
	o.updatedAt = now
	return nil
}

// RecomputeTotals re-prices the order for a new delivery address. Only pending orders can be
// re-priced; once confirmed the totals are frozen.
func (o *Order) RecomputeTotals(address Address, totals Totals, delivery DeliverySnapshot, now time.Time) error {
	if o.status != Pending {
		return errs.NewStateViolationError("recompute totals", o.status)
	}

	if err := address.Validate(); err != nil {
		return err
	}

	if err := verifyTotals(o.items, totals); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("totals", err)
	}

	o.address = address
	o.totals = totals
	o.delivery = delivery
	o.updatedAt = now
	return nil
}

// ApplyPaymentUpdate reconciles a payment status change against the embedded record.
// Stale and duplicate updates yield payment.OutcomeIgnored with a nil error.
func (o *Order) ApplyPaymentUpdate(update payment.StatusUpdate, now time.Time) (payment.Outcome, error) {
	outcome, err := o.payment.ApplyStatusUpdate(update, now)
	if err != nil {
		return payment.OutcomeIgnored, err
	}

	if outcome.Accepted() {
		o.updatedAt = now
	}
	return outcome, nil
}

// RecordPaymentAttempt appends a gateway call to the payment's diagnostic log.
func (o *Order) RecordPaymentAttempt(attempt payment.Attempt, now time.Time) error {
	if err := o.payment.RecordAttempt(attempt); err != nil {
		return err
	}
	o.updatedAt = now
	return nil
}

// VerifyTotals checks that the stored totals still add up: Total equals
// Subtotal + DeliveryCharges + Tax and Subtotal equals the sum of the line totals.
//
// Returns an error wrapping ErrTotalsDiverged on mismatch.
func (o *Order) VerifyTotals() error {
	return verifyTotals(o.items, o.totals)
}

// IncrementVersion is called by the repository once a write at the current version succeeded.
func (o *Order) IncrementVersion() {
	o.version++
}

func verifyTotals(items []Item, t Totals) error {
	expectedSubtotal := Subtotal(items).Round(2)
	if !t.subtotal.Equal(expectedSubtotal) {
		return fmt.Errorf("%w: subtotal %s, items sum to %s", ErrTotalsDiverged, t.subtotal, expectedSubtotal)
	}

	expectedTotal := t.subtotal.Add(t.deliveryCharges).Add(t.tax)
	if !t.total.Equal(expectedTotal) {
		return fmt.Errorf("%w: total %s, components sum to %s", ErrTotalsDiverged, t.total, expectedTotal)
	}

	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCategory(category Category) error {
	if err := category.Validate(); err != nil {
		return err
	}
	o.category = category
	return nil
}

func (o *Order) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer id", err)
	}
	o.customerID = customerID
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	o.items = slices.Clone(items)
	return nil
}

func (o *Order) setAddress(address Address) error {
	if err := address.Validate(); err != nil {
		return err
	}
	o.address = address
	return nil
}

func (o *Order) setPayment(record *payment.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	o.payment = record
	return nil
}
