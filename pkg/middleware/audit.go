package middleware

import (
	"net/http"

	"github.com/caseflow-io/caseflow/pkg/audit"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// DenialAudit records an audit event for every request that ends in
// 403. Mounted inside the auth middleware, so the principal is on the
// context for staff routes.
func DenialAudit(auditLog audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status != http.StatusForbidden {
				return
			}
			event := audit.Event{
				Action:  audit.ActionAccessDenied,
				Outcome: audit.OutcomeDenied,
				Detail:  r.Method + " " + r.URL.Path,
			}
			if p := GetPrincipal(r); p != nil {
				event.ActorID = &p.ID
				event.ActorRole = p.Role
			}
			auditLog.Log(r.Context(), event)
		})
	}
}
