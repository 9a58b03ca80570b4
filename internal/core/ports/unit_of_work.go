package ports

import (
	"context"
)

// UnitOfWorkFactory hands out one UnitOfWork per command attempt. Retried commands ask
// for a fresh one, so a conflicted transaction is never reused.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is the transaction around one load-mutate-save of an order.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error

	// Rollback after a successful Commit is a no-op, so handlers defer it unconditionally.
	Rollback(ctx context.Context) error

	// OrderRepository and OrderNumberSequence share the transaction opened by Begin.
	OrderRepository() OrderRepository
	OrderNumberSequence() OrderNumberSequence
}
