package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/caseflow-io/caseflow/pkg/audit"
	"github.com/caseflow-io/caseflow/pkg/auth"
	"github.com/caseflow-io/caseflow/pkg/authz"
	"github.com/caseflow-io/caseflow/pkg/httputil"
	"github.com/caseflow-io/caseflow/pkg/middleware"
	"github.com/caseflow-io/caseflow/pkg/observability"
	"github.com/caseflow-io/caseflow/pkg/users"
)

var validate = validator.New()

// AuthHandlers exposes login and session introspection
type AuthHandlers struct {
	users   *users.Service
	tokens  *auth.TokenManager
	metrics *observability.Metrics
	audit   audit.Logger
}

// NewAuthHandlers creates authentication handlers. metrics may be nil.
func NewAuthHandlers(userSvc *users.Service, tokens *auth.TokenManager, metrics *observability.Metrics, auditLog audit.Logger) *AuthHandlers {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &AuthHandlers{users: userSvc, tokens: tokens, metrics: metrics, audit: auditLog}
}

// LoginRequest is the credential payload
type LoginRequest struct {
	EmployeeNo string `json:"employee_no" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// LoginResponse carries the bearer token and the authenticated account
type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *auth.User `json:"user"`
}

// RegisterRoutes registers authentication routes. The login route is
// public; callers wrap it with rate limiting at composition time.
func (h *AuthHandlers) RegisterRoutes(router *mux.Router, loginMiddleware ...mux.MiddlewareFunc) {
	login := http.Handler(http.HandlerFunc(h.login))
	for i := len(loginMiddleware) - 1; i >= 0; i-- {
		login = loginMiddleware[i](login)
	}
	router.Handle("/auth/login", login).Methods("POST")
}

// RegisterProtectedRoutes registers routes that require a principal
func (h *AuthHandlers) RegisterProtectedRoutes(router *mux.Router) {
	router.HandleFunc("/me", h.me).Methods("GET")
}

func (h *AuthHandlers) countLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
	}
}

// login exchanges staff credentials for a signed token. Bad employee
// numbers and bad passwords produce the same response.
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, "employee_no and password are required")
		return
	}

	u, err := h.users.GetByEmployeeNo(r.Context(), req.EmployeeNo)
	if err != nil && !errors.Is(err, authz.ErrNotFound) {
		observability.FromContext(r.Context()).WithError(err).Error("Failed to load account for login")
		h.audit.Log(r.Context(), audit.Event{
			Action:  audit.ActionLogin,
			Outcome: audit.OutcomeFailure,
			Detail:  "employee_no " + req.EmployeeNo,
		})
		httputil.WriteInternalError(w)
		return
	}
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		h.countLogin("failure")
		h.audit.Log(r.Context(), audit.Event{
			Action:  audit.ActionLogin,
			Outcome: audit.OutcomeDenied,
			Detail:  "employee_no " + req.EmployeeNo,
		})
		httputil.WriteUnauthorized(w, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(u.Principal())
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("Failed to issue token")
		httputil.WriteInternalError(w)
		return
	}

	h.countLogin("success")
	h.audit.Log(r.Context(), audit.Event{
		ActorID:   &u.ID,
		ActorRole: u.Role,
		Action:    audit.ActionLogin,
		Outcome:   audit.OutcomeSuccess,
	})
	httputil.WriteSuccess(w, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.tokens.TTL()),
		User:      u,
	})
}

// me returns the account behind the current token
func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	u, err := h.users.Get(r.Context(), *p, p.ID)
	if err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to load current user")
		}
		return
	}
	httputil.WriteSuccess(w, u)
}
