package users

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/caseflow-io/caseflow/pkg/auth"
	"github.com/caseflow-io/caseflow/pkg/httputil"
	"github.com/caseflow-io/caseflow/pkg/middleware"
	"github.com/caseflow-io/caseflow/pkg/observability"
)

// Handlers exposes staff account endpoints
type Handlers struct {
	service *Service
}

// NewHandlers creates user handlers
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers user routes on the protected router
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users", h.create).Methods("POST")
	router.HandleFunc("/users", h.list).Methods("GET")
	router.HandleFunc("/users/{id}", h.get).Methods("GET")
	router.HandleFunc("/users/{id}", h.update).Methods("PATCH")
	router.HandleFunc("/users/{id}", h.delete).Methods("DELETE")
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	var req CreateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	u, err := h.service.Create(r.Context(), *p, req)
	if err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to create user")
		}
		return
	}
	httputil.WriteCreated(w, u)
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var filter ListFilter
	if filter.LocalOfficeID, err = httputil.ParseQueryInt64(r, "local_office_id"); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if filter.RegionID, err = httputil.ParseQueryInt64(r, "region_id"); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if roleStr := httputil.ParseQueryString(r, "role", ""); roleStr != "" {
		role := auth.Role(roleStr)
		if !role.Valid() {
			httputil.WriteBadRequest(w, "unknown role: "+roleStr)
			return
		}
		filter.Role = &role
	}

	users, err := h.service.List(r.Context(), *p, filter, page)
	if err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to list users")
		}
		return
	}
	httputil.WriteSuccess(w, users)
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	u, err := h.service.Get(r.Context(), *p, id)
	if err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to get user")
		}
		return
	}
	httputil.WriteSuccess(w, u)
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	u, err := h.service.Update(r.Context(), *p, id, req)
	if err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to update user")
		}
		return
	}
	httputil.WriteSuccess(w, u)
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), *p, id); err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to delete user")
		}
		return
	}
	httputil.WriteNoContent(w)
}
