// Package audit records security-relevant events: logins, denied
// access, and destructive operations.
package audit

import (
	"context"
	"time"

	"github.com/caseflow-io/caseflow/pkg/auth"
)

// Action names the operation being audited
type Action string

const (
	ActionLogin         Action = "login"
	ActionRemoteCheckIn Action = "remote_check_in"
	ActionAccessDenied  Action = "access_denied"
	ActionDelete        Action = "delete"
)

// Outcome is the result of the audited operation
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeFailure Outcome = "failure"
)

// Event is one audit trail entry
type Event struct {
	ID           int64
	OccurredAt   time.Time
	ActorID      *int64
	ActorRole    auth.Role
	Action       Action
	ResourceType string
	ResourceID   *int64
	Outcome      Outcome
	Detail       string
	RequestID    string
}

// Logger records audit events. Implementations must never block the
// request path on audit failure.
type Logger interface {
	Log(ctx context.Context, event Event)
}

// NopLogger discards events. Used in tests and when auditing is
// disabled.
type NopLogger struct{}

func (NopLogger) Log(ctx context.Context, event Event) {}
