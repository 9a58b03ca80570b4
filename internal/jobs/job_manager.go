package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"pharmacy/internal/core/ports"
)

// Job is a scheduled task that can be started and stopped.
type Job interface {
	Start() error
	Stop()
}

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	jobs  []namedJob
	ready []namedJob
}

type namedJob struct {
	name string
	job  Job
}

// NewJobManager creates the manager with the order totals audit registered.
func NewJobManager(
	uowFactory ports.UnitOfWorkFactory,
	auditSchedule string,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		jobs: []namedJob{
			{name: "order totals audit", job: NewOrderTotalsAuditJob(uowFactory, auditSchedule, time.Now(), logger)},
		},
	}
}

// StartAll starts all scheduled jobs. If one fails, the ones already started are stopped.
func (jm *JobManager) StartAll() error {
	for _, nj := range jm.jobs {
		if err := nj.job.Start(); err != nil {
			jm.StopAll()
			return fmt.Errorf("failed to start %s job: %w", nj.name, err)
		}
		jm.ready = append(jm.ready, nj)
	}
	return nil
}

// StopAll stops started jobs in reverse order.
func (jm *JobManager) StopAll() {
	for i := len(jm.ready) - 1; i >= 0; i-- {
		jm.ready[i].job.Stop()
	}
	jm.ready = nil
}
