// Package jobs provides scheduled background tasks built on github.com/robfig/cron/v3.
//
// # Available Jobs
//
// OrderTotalsAuditJob re-verifies the stored totals of recently changed orders and logs any
// divergence at error level. Totals are never corrected automatically.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(uowFactory, cfg.AuditSchedule, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Schedules are six-field cron specs with a leading seconds field, e.g. "0 */10 * * * *".
package jobs
