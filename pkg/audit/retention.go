package audit

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/caseflow-io/caseflow/pkg/observability"
)

// RetentionJob prunes old audit entries on a cron schedule
type RetentionJob struct {
	logger    *observability.Logger
	dbLogger  *DBLogger
	retention time.Duration
	cron      *cron.Cron
}

// NewRetentionJob creates the cleanup job. Call Start to schedule it.
func NewRetentionJob(dbLogger *DBLogger, retention time.Duration, logger *observability.Logger) *RetentionJob {
	return &RetentionJob{
		logger:    logger,
		dbLogger:  dbLogger,
		retention: retention,
		cron:      cron.New(),
	}
}

// Start schedules the cleanup with the given cron expression
func (j *RetentionJob) Start(schedule string) error {
	_, err := j.cron.AddFunc(schedule, j.run)
	if err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running cleanup to finish
func (j *RetentionJob) Stop(ctx context.Context) error {
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *RetentionJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := j.dbLogger.DeleteOlderThan(ctx, j.retention)
	if err != nil {
		j.logger.WithError(err).Error("Audit retention cleanup failed")
		return
	}
	j.logger.WithField("deleted", deleted).Info("Audit retention cleanup complete")
}
