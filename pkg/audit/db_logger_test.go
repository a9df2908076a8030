package audit

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow-io/caseflow/pkg/auth"
	"github.com/caseflow-io/caseflow/pkg/contextkeys"
	"github.com/caseflow-io/caseflow/pkg/observability"
)

func newMockLogger(t *testing.T) (*DBLogger, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDBLogger(db, observability.NewLogger(observability.ErrorLevel, io.Discard)), mock
}

func TestDBLoggerLog(t *testing.T) {
	l, mock := newMockLogger(t)

	actorID := int64(42)
	resourceID := int64(10)
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(sqlmock.AnyArg(), &actorID, auth.RoleOfficer, ActionDelete,
			"check_in", &resourceID, OutcomeDenied, "officer delete restricted", "req-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	ctx := contextkeys.WithRequestID(context.Background(), "req-1")
	l.Log(ctx, Event{
		ActorID:      &actorID,
		ActorRole:    auth.RoleOfficer,
		Action:       ActionDelete,
		ResourceType: "check_in",
		ResourceID:   &resourceID,
		Outcome:      OutcomeDenied,
		Detail:       "officer delete restricted",
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Audit failure must not panic or surface to the request
func TestDBLoggerLogSwallowsFailure(t *testing.T) {
	l, mock := newMockLogger(t)

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnError(errors.New("table gone"))

	assert.NotPanics(t, func() {
		l.Log(context.Background(), Event{Action: ActionLogin, Outcome: OutcomeSuccess})
	})
}

func TestDeleteOlderThan(t *testing.T) {
	l, mock := newMockLogger(t)

	mock.ExpectExec(`DELETE FROM audit_logs WHERE occurred_at <`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 7))

	deleted, err := l.DeleteOlderThan(context.Background(), 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
}
