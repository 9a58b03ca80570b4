package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/ports"

	"github.com/robfig/cron/v3"
)

const (
	DefaultAuditSchedule = "0 */10 * * * *"
	DefaultAuditLookback = 24 * time.Hour

	auditPageSize = 200
	auditMaxPages = 50
)

// AuditReport summarizes one audit run. Checked counts distinct orders: rows re-read on
// the inclusive page boundary are skipped.
type AuditReport struct {
	Checked  int
	Diverged int
}

// OrderTotalsAuditJob re-verifies the stored totals of orders changed since its previous run.
// Divergent orders are logged at error level and left untouched.
type OrderTotalsAuditJob struct {
	uowFactory ports.UnitOfWorkFactory
	schedule   string
	cron       *cron.Cron
	logger     *slog.Logger

	mu    sync.Mutex
	since time.Time
}

// NewOrderTotalsAuditJob builds the job. The first run covers DefaultAuditLookback before
// start; an empty schedule means DefaultAuditSchedule (a six-field cron spec, seconds first).
func NewOrderTotalsAuditJob(
	uowFactory ports.UnitOfWorkFactory,
	schedule string,
	now time.Time,
	logger *slog.Logger,
) *OrderTotalsAuditJob {
	if schedule == "" {
		schedule = DefaultAuditSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OrderTotalsAuditJob{
		uowFactory: uowFactory,
		schedule:   schedule,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "order_totals_audit_job"),
		since:      now.Add(-DefaultAuditLookback).UTC(),
	}
}

// Start registers the audit with the scheduler.
func (j *OrderTotalsAuditJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx := context.Background()
		if _, err := j.RunOnce(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Order totals audit failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Order totals audit job started", "schedule", j.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running audit to finish.
func (j *OrderTotalsAuditJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Order totals audit job stopped")
}

// RunOnce audits every order updated since the previous run. Orders sharing the watermark
// timestamp are checked again on the next run.
func (j *OrderTotalsAuditJob) RunOnce(ctx context.Context) (AuditReport, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var report AuditReport
	since := j.since
	seen := make(map[string]struct{})

	for range auditMaxPages {
		orders, err := j.loadPage(ctx, since)
		if err != nil {
			return report, err
		}

		for _, o := range orders {
			if _, ok := seen[o.ID().String()]; ok {
				continue
			}
			seen[o.ID().String()] = struct{}{}

			report.Checked++
			if err := o.VerifyTotals(); err != nil {
				if !errors.Is(err, order.ErrTotalsDiverged) {
					return report, err
				}
				report.Diverged++
				j.logger.ErrorContext(ctx, "Order totals diverged",
					"order_id", o.ID().String(),
					"order_number", o.Number().String(),
					"subtotal", o.Totals().Subtotal().StringFixed(2),
					"delivery_charges", o.Totals().DeliveryCharges().StringFixed(2),
					"tax", o.Totals().Tax().StringFixed(2),
					"total", o.Totals().Total().StringFixed(2),
					"error", err,
				)
			}
		}

		if len(orders) == 0 {
			break
		}
		last := orders[len(orders)-1].UpdatedAt()
		done := len(orders) < auditPageSize || !last.After(since)
		since = last
		if done {
			break
		}
	}

	j.since = since
	if report.Checked > 0 {
		j.logger.InfoContext(ctx, "Order totals audit finished", "checked", report.Checked, "diverged", report.Diverged)
	}
	return report, nil
}

func (j *OrderTotalsAuditJob) loadPage(ctx context.Context, since time.Time) ([]*order.Order, error) {
	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	return uow.OrderRepository().GetAllUpdatedSince(ctx, since, auditPageSize)
}
