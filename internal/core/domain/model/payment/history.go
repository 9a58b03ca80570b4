package payment

import (
	"maps"
	"time"
)

// HistoryEntry is one accepted payment status change. Entries are values with unexported fields,
// so once appended to a Record they cannot be altered by callers.
type HistoryEntry struct {
	status    Status
	source    Source
	at        time.Time
	webhookID string
	metadata  map[string]any
}

// RestoreHistoryEntry rebuilds an entry loaded from storage.
func RestoreHistoryEntry(status Status, source Source, at time.Time, webhookID string, metadata map[string]any) HistoryEntry {
	return HistoryEntry{
		status:    status,
		source:    source,
		at:        at,
		webhookID: webhookID,
		metadata:  maps.Clone(metadata),
	}
}

func (e HistoryEntry) Status() Status    { return e.status }
func (e HistoryEntry) Source() Source    { return e.source }
func (e HistoryEntry) At() time.Time     { return e.at }
func (e HistoryEntry) WebhookID() string { return e.webhookID }

// Metadata returns a copy of the free-form details recorded with the change.
func (e HistoryEntry) Metadata() map[string]any {
	return maps.Clone(e.metadata)
}

// Attempt is one call made to the payment gateway, logged whether or not it changed the status.
type Attempt struct {
	request      map[string]any
	resultStatus Status
	err          string
	at           time.Time
}

func NewAttempt(request map[string]any, resultStatus Status, errMessage string, at time.Time) Attempt {
	return Attempt{
		request:      maps.Clone(request),
		resultStatus: resultStatus,
		err:          errMessage,
		at:           at,
	}
}

func (a Attempt) Request() map[string]any { return maps.Clone(a.request) }
func (a Attempt) ResultStatus() Status    { return a.resultStatus }
func (a Attempt) ErrorMessage() string    { return a.err }
func (a Attempt) At() time.Time           { return a.at }
