package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/caseflow-io/caseflow/pkg/contextkeys"
	"github.com/caseflow-io/caseflow/pkg/observability"
)

// DBLogger writes audit events to the audit_logs table. Insert
// failures are logged and swallowed so that auditing never fails the
// audited request.
type DBLogger struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewDBLogger creates a database-backed audit logger
func NewDBLogger(db *sql.DB, logger *observability.Logger) *DBLogger {
	return &DBLogger{db: db, logger: logger}
}

// Log inserts one audit event
func (l *DBLogger) Log(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = contextkeys.GetRequestID(ctx)
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO audit_logs
			(occurred_at, actor_id, actor_role, action, resource_type, resource_id, outcome, detail, request_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.OccurredAt, event.ActorID, event.ActorRole, event.Action,
		event.ResourceType, event.ResourceID, event.Outcome, event.Detail,
		event.RequestID,
	)
	if err != nil {
		l.logger.WithError(err).WithField("action", string(event.Action)).
			Error("Failed to write audit log")
	}
}

// DeleteOlderThan removes audit entries past the retention period and
// returns the number deleted.
func (l *DBLogger) DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM audit_logs WHERE occurred_at < $1`,
		time.Now().Add(-retention),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
