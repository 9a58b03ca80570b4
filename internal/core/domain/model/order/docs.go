// Package order provides the Order aggregate of the pharmacy checkout and its lifecycle
// state machine.
//
// The package includes:
//   - Order: the aggregate root owning items, address, totals, delivery snapshot and the
//     embedded payment record
//   - Status: the fulfillment state machine
//   - Category and Number: the human-readable PREFIX-YYYYMMDD-NNNNNN order number
//   - Totals: deterministic money arithmetic on shopspring/decimal
//
// Key business rules:
//   - Pending -> Confirmed -> Processing -> OutForDelivery -> Delivered is the only forward path
//   - Cancelled is reachable only from Pending; Delivered and Cancelled are sticky
//   - cancelling fails an unsettled payment in the same mutation, never the other way around
//   - totals diverging from their components are reported, never corrected
package order
