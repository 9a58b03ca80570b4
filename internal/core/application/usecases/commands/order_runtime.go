// Package commands contains the business operations that modify orders.
// Every command is a constructor-guarded value handled by a dedicated handler; handlers run
// load-mutate-save inside one unit of work, serialized per order and retried on
// optimistic-concurrency conflicts.
package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/ports"
	"pharmacy/internal/pkg/errs"
)

const (
	// MaxConflictAttempts bounds how often a command is re-run against fresh state after a
	// concurrent writer won the version check.
	MaxConflictAttempts = 3

	notifyTimeout = 2 * time.Second
)

// Runtime bundles the collaborators shared by all order command handlers.
// Locker and Notifier are optional: without a locker, the optimistic version check alone
// guards against lost updates; without a notifier, no events are published.
type Runtime struct {
	UoWFactory ports.UnitOfWorkFactory
	Locker     ports.OrderLocker
	Notifier   ports.Notifier
	Logger     *slog.Logger
	Clock      func() time.Time
}

func (rt Runtime) now() time.Time {
	if rt.Clock != nil {
		return rt.Clock()
	}
	return time.Now().UTC()
}

func (rt Runtime) logger() *slog.Logger {
	if rt.Logger != nil {
		return rt.Logger
	}
	return slog.Default()
}

// withOrderLock runs fn while holding the per-order lock. A failing lock backend is logged
// and fn still runs: the version check keeps the write safe, only contention gets worse.
func (rt Runtime) withOrderLock(ctx context.Context, id kernel.UUID, fn func() error) error {
	if rt.Locker == nil {
		return fn()
	}

	unlock, err := rt.Locker.Lock(ctx, "order:"+id.String())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rt.logger().WarnContext(ctx, "order lock unavailable, relying on version check",
			"order_id", id.String(), "error", err)
		return fn()
	}

	defer func() {
		if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			rt.logger().WarnContext(ctx, "failed to release order lock", "order_id", id.String(), "error", unlockErr)
		}
	}()

	return fn()
}

// retryOnConflict re-runs fn while it fails with errs.ErrConflict, at most MaxConflictAttempts times.
func retryOnConflict(ctx context.Context, fn func() error) error {
	var err error
	for range MaxConflictAttempts {
		if err = fn(); !errors.Is(err, errs.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

// mutation changes a loaded order. Returning false skips the write and the transaction is
// rolled back.
type mutation func(o *order.Order, now time.Time) (bool, error)

// mutateOrder is the load-mutate-save cycle shared by every handler that changes an
// existing order. It returns the order as persisted, or as loaded when nothing was written.
func (rt Runtime) mutateOrder(ctx context.Context, id kernel.UUID, mutate mutation) (*order.Order, bool, error) {
	var (
		result  *order.Order
		written bool
	)

	err := rt.withOrderLock(ctx, id, func() error {
		var err error
		result, written, err = rt.mutateWithRetry(ctx, id, mutate)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return result, written, nil
}

// mutateWithRetry is mutateOrder for callers already holding the order lock.
func (rt Runtime) mutateWithRetry(ctx context.Context, id kernel.UUID, mutate mutation) (*order.Order, bool, error) {
	var (
		result  *order.Order
		written bool
	)

	err := retryOnConflict(ctx, func() error {
		var err error
		result, written, err = rt.mutateOnce(ctx, id, mutate)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return result, written, nil
}

func (rt Runtime) mutateOnce(ctx context.Context, id kernel.UUID, mutate mutation) (*order.Order, bool, error) {
	uow := rt.UoWFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	write, err := mutate(o, rt.now())
	if err != nil || !write {
		return o, false, err
	}

	if err = repo.Update(ctx, o); err != nil {
		return nil, false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, false, err
	}

	return o, true, nil
}

// loadOrder reads an order outside of any write.
func (rt Runtime) loadOrder(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	uow := rt.UoWFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	return uow.OrderRepository().Get(ctx, id)
}

// publish sends a committed change downstream. It never fails the command: the state
// change is already durable, so delivery problems are only logged.
func (rt Runtime) publish(ctx context.Context, eventType ports.OrderEventType, o *order.Order) {
	if rt.Notifier == nil || o == nil {
		return
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	event := ports.OrderEvent{
		Type:          eventType,
		OrderID:       o.ID().String(),
		OrderNumber:   o.Number().String(),
		OrderStatus:   o.Status().String(),
		PaymentStatus: o.Payment().Status().String(),
		OccurredAt:    o.UpdatedAt(),
	}

	if err := rt.Notifier.Notify(notifyCtx, event); err != nil {
		rt.logger().WarnContext(ctx, "failed to publish order event",
			"event", string(eventType), "order_id", event.OrderID, "error", err)
	}
}
