package payment

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"pharmacy/internal/pkg/errs"
	"pharmacy/internal/pkg/guard"
)

var (
	ErrRecordIsNotConstructed       = errors.New("payment record must be created via NewRecord or RestoreRecord")
	ErrStatusUpdateIsNotConstructed = errors.New("status update must be created via NewStatusUpdate")
	ErrWebhookIDIsRequired          = errs.NewValueIsRequiredError("webhook id")
)

// Outcome is the result of reconciling one status update.
type Outcome int

const (
	// OutcomeIgnored means the update was stale, duplicate or lower priority. It is not an error.
	OutcomeIgnored Outcome = iota
	// OutcomeRefreshed means only webhook bookkeeping moved; status and history are unchanged.
	OutcomeRefreshed
	// OutcomeApplied means the status changed and a history entry was appended.
	OutcomeApplied
)

func (o Outcome) Accepted() bool {
	return o == OutcomeApplied || o == OutcomeRefreshed
}

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeRefreshed:
		return "refreshed"
	case OutcomeIgnored:
		return "ignored"
	}
	return "unknown"
}

// StatusUpdate is a requested payment status change from a user action, an admin or a gateway webhook.
type StatusUpdate struct { //nolint:recvcheck //using for validation
	status    Status
	source    Source
	metadata  map[string]any
	webhookID string

	guard guard.ConstructorGuard
}

// NewStatusUpdate validates the requested change. Webhook-sourced updates must carry the
// gateway's event id; user and admin updates may omit it.
func NewStatusUpdate(status Status, source Source, metadata map[string]any, webhookID string) (StatusUpdate, error) {
	u := StatusUpdate{
		metadata:  maps.Clone(metadata),
		webhookID: webhookID,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(u.setStatus(status), u.setSource(source)); err != nil {
		return StatusUpdate{}, err
	}

	if source == SourceWebhook && webhookID == "" {
		return StatusUpdate{}, ErrWebhookIDIsRequired
	}

	return u, nil
}

func (u StatusUpdate) Validate() error {
	return u.guard.Validate(ErrStatusUpdateIsNotConstructed)
}

func (u StatusUpdate) Status() Status    { return u.status }
func (u StatusUpdate) Source() Source    { return u.source }
func (u StatusUpdate) WebhookID() string { return u.webhookID }

func (u *StatusUpdate) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	u.status = status
	return nil
}

func (u *StatusUpdate) setSource(source Source) error {
	if err := source.Validate(); err != nil {
		return err
	}
	u.source = source
	return nil
}

// Record is the payment sub-record embedded in an order. It has no lifecycle of its own.
//
// Invariants:
//   - history and attempts are append-only and keep insertion order
//   - status only moves up the priority ladder, except for Failed/Refunded overrides
//   - lastWebhookID never moves backwards
type Record struct {
	status        Status
	history       []HistoryEntry
	attempts      []Attempt
	lastWebhookID string
	lastWebhookAt *time.Time

	guard guard.ConstructorGuard
}

// NewRecord starts a pending payment, recording the opening entry of the audit trail.
func NewRecord(now time.Time) *Record {
	return &Record{
		status: Pending,
		history: []HistoryEntry{{
			status:   Pending,
			source:   SourceUser,
			at:       now,
			metadata: map[string]any{"cause": "order_created"},
		}},
		guard: guard.NewConstructorGuard(),
	}
}

// RestoreRecord rebuilds a record from storage without re-running reconciliation.
func RestoreRecord(
	status Status,
	history []HistoryEntry,
	attempts []Attempt,
	lastWebhookID string,
	lastWebhookAt *time.Time,
) (*Record, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}

	if lastWebhookAt != nil && lastWebhookID == "" {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"payment record", fmt.Errorf("webhook timestamp %s without webhook id", lastWebhookAt))
	}

	return &Record{
		status:        status,
		history:       slices.Clone(history),
		attempts:      slices.Clone(attempts),
		lastWebhookID: lastWebhookID,
		lastWebhookAt: lastWebhookAt,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (r *Record) Validate() error {
	if r == nil {
		return ErrRecordIsNotConstructed
	}
	return r.guard.Validate(ErrRecordIsNotConstructed)
}

func (r *Record) Status() Status {
	return r.status
}

// History returns a copy of the audit trail in insertion order.
func (r *Record) History() []HistoryEntry {
	return slices.Clone(r.history)
}

// Attempts returns a copy of the gateway call log in insertion order.
func (r *Record) Attempts() []Attempt {
	return slices.Clone(r.attempts)
}

func (r *Record) LastWebhookID() string {
	return r.lastWebhookID
}

func (r *Record) LastWebhookAt() *time.Time {
	if r.lastWebhookAt == nil {
		return nil
	}
	at := *r.lastWebhookAt
	return &at
}

// ApplyStatusUpdate merges a user, admin or webhook update into the record.
//
// The update is accepted when any of these holds:
//   - its priority is higher than the current status
//   - it is Failed or Refunded
//   - it carries a webhook id greater than the last accepted one (or none was recorded yet)
//
// Only the first two rules may change the status. Acceptance through the webhook id alone
// advances bookkeeping and leaves the status untouched, so a late "processing" with a larger
// id never downgrades a "paid" record. An exact replay of the last webhook refreshes its
// timestamp. History grows by one entry per distinct status change.
//
// Returns:
//   - OutcomeApplied: status changed, history appended
//   - OutcomeRefreshed: webhook bookkeeping updated only
//   - OutcomeIgnored: stale or duplicate, nil error
//   - error: only for invalid input
func (r *Record) ApplyStatusUpdate(update StatusUpdate, now time.Time) (Outcome, error) {
	if err := errors.Join(r.Validate(), update.Validate()); err != nil {
		return OutcomeIgnored, err
	}

	currentPriority, err := r.status.Priority()
	if err != nil {
		return OutcomeIgnored, err
	}
	newPriority, err := update.status.Priority()
	if err != nil {
		return OutcomeIgnored, err
	}

	hasWebhook := update.webhookID != ""
	byPriority := newPriority > currentPriority
	byOverride := update.status.IsTerminalOverride()
	byWebhook := hasWebhook && r.isNewerWebhook(update.webhookID)
	isReplay := hasWebhook && update.webhookID == r.lastWebhookID && update.status == r.status

	if !byPriority && !byOverride && !byWebhook && !isReplay {
		return OutcomeIgnored, nil
	}

	outcome := OutcomeIgnored
	if (byPriority || byOverride) && update.status != r.status {
		r.status = update.status
		r.history = append(r.history, HistoryEntry{
			status:    update.status,
			source:    update.source,
			at:        now,
			webhookID: update.webhookID,
			metadata:  maps.Clone(update.metadata),
		})
		outcome = OutcomeApplied
	}

	if hasWebhook {
		if byWebhook {
			r.lastWebhookID = update.webhookID
		}
		at := now
		r.lastWebhookAt = &at
		if outcome == OutcomeIgnored {
			outcome = OutcomeRefreshed
		}
	}

	return outcome, nil
}

// RecordAttempt appends a gateway call to the diagnostic log. It never touches the status.
func (r *Record) RecordAttempt(attempt Attempt) error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *Record) isNewerWebhook(id string) bool {
	return r.lastWebhookID == "" || CompareWebhookIDs(id, r.lastWebhookID) > 0
}
