package api

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/caseflow-io/caseflow/pkg/audit"
	"github.com/caseflow-io/caseflow/pkg/auth"
	"github.com/caseflow-io/caseflow/pkg/authz"
	"github.com/caseflow-io/caseflow/pkg/clients"
	"github.com/caseflow-io/caseflow/pkg/directory"
	"github.com/caseflow-io/caseflow/pkg/middleware"
	"github.com/caseflow-io/caseflow/pkg/observability"
	"github.com/caseflow-io/caseflow/pkg/users"
)

// Server is the composed HTTP API. Public routes live under /api,
// staff routes under /api/staff behind token authentication.
type Server struct {
	router *mux.Router
}

// NewServer wires services, middleware, and routes. metrics, auditLog,
// and loginLimiter may be nil; the corresponding concern is skipped.
func NewServer(db *sql.DB, tokens *auth.TokenManager, logger *observability.Logger,
	metrics *observability.Metrics, auditLog audit.Logger,
	loginLimiter *middleware.LoginRateLimiter) *Server {

	// a nil *Metrics must stay a nil interface, otherwise the recorder
	// would be called on a nil receiver
	var decisions authz.DecisionRecorder
	if metrics != nil {
		decisions = metrics
	}

	resolver := authz.NewResolver(db)
	dirSvc := directory.NewService(db, resolver, auditLog, decisions)
	userSvc := users.NewService(db, dirSvc, auditLog)
	clientSvc := clients.NewService(db, resolver, dirSvc, auditLog, decisions)

	authHandlers := NewAuthHandlers(userSvc, tokens, metrics, auditLog)
	dirHandlers := directory.NewHandlers(dirSvc)
	userHandlers := users.NewHandlers(userSvc)
	clientHandlers := clients.NewHandlers(clientSvc, metrics)

	router := mux.NewRouter()
	router.Use(middleware.RequestID(logger))
	if metrics != nil {
		router.Use(metrics.Middleware)
	}
	router.Use(middleware.RequestLogger(logger))

	apiRouter := router.PathPrefix("/api").Subrouter()

	var loginMiddleware []mux.MiddlewareFunc
	if loginLimiter != nil {
		loginMiddleware = append(loginMiddleware, loginLimiter.Handler)
	}
	authHandlers.RegisterRoutes(apiRouter, loginMiddleware...)
	clientHandlers.RegisterPublicRoutes(apiRouter)

	staff := apiRouter.PathPrefix("/staff").Subrouter()
	staff.Use(middleware.NewAuthMiddleware(tokens).Handler)
	if auditLog != nil {
		staff.Use(middleware.DenialAudit(auditLog))
	}
	authHandlers.RegisterProtectedRoutes(staff)
	dirHandlers.RegisterRoutes(staff)
	userHandlers.RegisterRoutes(staff)
	clientHandlers.RegisterRoutes(staff)

	return &Server{router: router}
}

// Router exposes the underlying router for composition in tests
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
