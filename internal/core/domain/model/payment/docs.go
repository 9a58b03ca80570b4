// Package payment reconciles the payment sub-record of an order.
//
// Two untrusted streams feed a Record: user/admin actions and gateway webhooks, which arrive
// at least once and in any order. Record.ApplyStatusUpdate merges both into one monotonic
// status using the priorities defined on Status, while keeping an append-only history of
// every accepted change and a separate append-only log of gateway attempts.
package payment
