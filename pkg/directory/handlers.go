package directory

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/caseflow-io/caseflow/pkg/httputil"
	"github.com/caseflow-io/caseflow/pkg/middleware"
	"github.com/caseflow-io/caseflow/pkg/observability"
)

// Handlers exposes directory endpoints
type Handlers struct {
	service *Service
}

// NewHandlers creates directory handlers
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers directory routes on the protected router
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/regions", h.createRegion).Methods("POST")
	router.HandleFunc("/regions", h.listRegions).Methods("GET")
	router.HandleFunc("/regions/{id}", h.getRegion).Methods("GET")
	router.HandleFunc("/regions/{id}", h.updateRegion).Methods("PATCH")
	router.HandleFunc("/regions/{id}", h.deleteRegion).Methods("DELETE")

	router.HandleFunc("/offices", h.createOffice).Methods("POST")
	router.HandleFunc("/offices", h.listOffices).Methods("GET")
	router.HandleFunc("/offices/{id}", h.getOffice).Methods("GET")
	router.HandleFunc("/offices/{id}", h.updateOffice).Methods("PATCH")
	router.HandleFunc("/offices/{id}", h.deleteOffice).Methods("DELETE")
}

func (h *Handlers) createRegion(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	var req CreateRegionRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	reg, err := h.service.CreateRegion(r.Context(), *p, req)
	if err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to create region")
		}
		return
	}
	httputil.WriteCreated(w, reg)
}

func (h *Handlers) listRegions(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	regions, err := h.service.ListRegions(r.Context(), page)
	if err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to list regions")
		}
		return
	}
	httputil.WriteSuccess(w, regions)
}

func (h *Handlers) getRegion(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	reg, err := h.service.GetRegion(r.Context(), id)
	if err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to get region")
		}
		return
	}
	httputil.WriteSuccess(w, reg)
}

func (h *Handlers) updateRegion(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req UpdateRegionRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	reg, err := h.service.UpdateRegion(r.Context(), *p, id, req)
	if err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to update region")
		}
		return
	}
	httputil.WriteSuccess(w, reg)
}

func (h *Handlers) deleteRegion(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteRegion(r.Context(), *p, id); err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to delete region")
		}
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) createOffice(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	var req CreateLocalOfficeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	off, err := h.service.CreateLocalOffice(r.Context(), *p, req)
	if err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to create office")
		}
		return
	}
	httputil.WriteCreated(w, off)
}

func (h *Handlers) listOffices(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	regionID, err := httputil.ParseQueryInt64(r, "region_id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	offices, err := h.service.ListLocalOffices(r.Context(), regionID, page)
	if err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to list offices")
		}
		return
	}
	httputil.WriteSuccess(w, offices)
}

func (h *Handlers) getOffice(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	off, err := h.service.GetLocalOffice(r.Context(), id)
	if err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to get office")
		}
		return
	}
	httputil.WriteSuccess(w, off)
}

func (h *Handlers) updateOffice(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req UpdateLocalOfficeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	off, err := h.service.UpdateLocalOffice(r.Context(), *p, id, req)
	if err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to update office")
		}
		return
	}
	httputil.WriteSuccess(w, off)
}

func (h *Handlers) deleteOffice(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteLocalOffice(r.Context(), *p, id); err != nil {
		if !httputil.WriteServiceError(w, err) {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to delete office")
		}
		return
	}
	httputil.WriteNoContent(w)
}
