package clients

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/caseflow-io/caseflow/pkg/httputil"
	"github.com/caseflow-io/caseflow/pkg/middleware"
	"github.com/caseflow-io/caseflow/pkg/observability"
)

// Handlers exposes case record endpoints
type Handlers struct {
	service *Service
	metrics *observability.Metrics
}

// NewHandlers creates client handlers. metrics may be nil.
func NewHandlers(service *Service, metrics *observability.Metrics) *Handlers {
	return &Handlers{service: service, metrics: metrics}
}

// RegisterRoutes registers staff-facing case record routes on the
// protected router.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/clients", h.create).Methods("POST")
	router.HandleFunc("/clients", h.list).Methods("GET")
	router.HandleFunc("/clients/{id}", h.get).Methods("GET")
	router.HandleFunc("/clients/{id}", h.update).Methods("PATCH")
	router.HandleFunc("/clients/{id}", h.delete).Methods("DELETE")
	router.HandleFunc("/clients/{id}/access", h.updateAccess).Methods("PATCH")

	router.HandleFunc("/clients/{id}/intakes", h.createIntake).Methods("POST")
	router.HandleFunc("/clients/{id}/intakes", h.listIntakes).Methods("GET")
	router.HandleFunc("/intakes/{id}", h.getIntake).Methods("GET")
	router.HandleFunc("/intakes/{id}", h.updateIntake).Methods("PATCH")
	router.HandleFunc("/intakes/{id}", h.deleteIntake).Methods("DELETE")

	router.HandleFunc("/clients/{id}/legal-histories", h.createLegalHistory).Methods("POST")
	router.HandleFunc("/clients/{id}/legal-histories", h.listLegalHistories).Methods("GET")
	router.HandleFunc("/legal-histories/{id}", h.updateLegalHistory).Methods("PATCH")
	router.HandleFunc("/legal-histories/{id}", h.deleteLegalHistory).Methods("DELETE")

	router.HandleFunc("/clients/{id}/reintegration-services", h.createReintegrationService).Methods("POST")
	router.HandleFunc("/clients/{id}/reintegration-services", h.listReintegrationServices).Methods("GET")
	router.HandleFunc("/reintegration-services/{id}", h.updateReintegrationService).Methods("PATCH")
	router.HandleFunc("/reintegration-services/{id}", h.deleteReintegrationService).Methods("DELETE")

	router.HandleFunc("/intakes/{id}/legal-processes", h.createLegalProcess).Methods("POST")
	router.HandleFunc("/intakes/{id}/legal-processes", h.listLegalProcesses).Methods("GET")
	router.HandleFunc("/legal-processes/{id}", h.updateLegalProcess).Methods("PATCH")
	router.HandleFunc("/legal-processes/{id}", h.deleteLegalProcess).Methods("DELETE")

	router.HandleFunc("/clients/{id}/checkins", h.recordCheckIn).Methods("POST")
	router.HandleFunc("/clients/{id}/checkins/kiosk", h.recordKioskCheckIn).Methods("POST")
	router.HandleFunc("/clients/{id}/checkins", h.listCheckIns).Methods("GET")
	router.HandleFunc("/checkins/{id}", h.deleteCheckIn).Methods("DELETE")
}

// RegisterPublicRoutes registers the unattended check-in route, which
// carries no staff session.
func (h *Handlers) RegisterPublicRoutes(router *mux.Router) {
	router.HandleFunc("/remote/clients/{id}/checkins", h.recordRemoteCheckIn).Methods("POST")
}

func (h *Handlers) countCheckIn(method CheckInMethod) {
	if h.metrics != nil {
		h.metrics.CheckInsRecordedTotal.WithLabelValues(string(method)).Inc()
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if !httputil.WriteServiceError(w, err) {
		observability.FromContext(r.Context()).WithError(err).Error(msg)
	}
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	var req CreateClientRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	c, err := h.service.Create(r.Context(), *p, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to create client")
		return
	}
	httputil.WriteCreated(w, c)
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var filter ListFilter
	if filter.AssignedOfficerID, err = httputil.ParseQueryInt64(r, "assigned_officer_id"); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if filter.LocalOfficeID, err = httputil.ParseQueryInt64(r, "local_office_id"); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if filter.RegionID, err = httputil.ParseQueryInt64(r, "region_id"); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if status := httputil.ParseQueryString(r, "status", ""); status != "" {
		filter.Status = &status
	}
	if search := httputil.ParseQueryString(r, "search", ""); search != "" {
		filter.Search = &search
	}

	clients, err := h.service.List(r.Context(), *p, filter, page)
	if err != nil {
		h.writeError(w, r, err, "Failed to list clients")
		return
	}
	httputil.WriteSuccess(w, clients)
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), *p, id)
	if err != nil {
		h.writeError(w, r, err, "Failed to get client")
		return
	}
	httputil.WriteSuccess(w, c)
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req UpdateClientRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	c, err := h.service.Update(r.Context(), *p, id, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to update client")
		return
	}
	httputil.WriteSuccess(w, c)
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), *p, id); err != nil {
		h.writeError(w, r, err, "Failed to delete client")
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) updateAccess(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req UpdateAccessRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := h.service.UpdateAccess(r.Context(), *p, id, req); err != nil {
		h.writeError(w, r, err, "Failed to update client access")
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) createIntake(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	clientID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req IntakeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	rec, err := h.service.CreateIntake(r.Context(), *p, clientID, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to create intake")
		return
	}
	httputil.WriteCreated(w, rec)
}

func (h *Handlers) listIntakes(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	clientID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	records, err := h.service.ListIntakes(r.Context(), *p, clientID)
	if err != nil {
		h.writeError(w, r, err, "Failed to list intakes")
		return
	}
	httputil.WriteSuccess(w, records)
}

func (h *Handlers) getIntake(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	rec, err := h.service.GetIntake(r.Context(), *p, id)
	if err != nil {
		h.writeError(w, r, err, "Failed to get intake")
		return
	}
	httputil.WriteSuccess(w, rec)
}

func (h *Handlers) updateIntake(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req IntakeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	rec, err := h.service.UpdateIntake(r.Context(), *p, id, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to update intake")
		return
	}
	httputil.WriteSuccess(w, rec)
}

func (h *Handlers) deleteIntake(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteIntake(r.Context(), *p, id); err != nil {
		h.writeError(w, r, err, "Failed to delete intake")
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) createLegalHistory(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	clientID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req LegalHistoryRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	rec, err := h.service.CreateLegalHistory(r.Context(), *p, clientID, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to create legal history")
		return
	}
	httputil.WriteCreated(w, rec)
}

func (h *Handlers) listLegalHistories(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	clientID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	records, err := h.service.ListLegalHistories(r.Context(), *p, clientID)
	if err != nil {
		h.writeError(w, r, err, "Failed to list legal histories")
		return
	}
	httputil.WriteSuccess(w, records)
}

func (h *Handlers) updateLegalHistory(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req LegalHistoryRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	rec, err := h.service.UpdateLegalHistory(r.Context(), *p, id, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to update legal history")
		return
	}
	httputil.WriteSuccess(w, rec)
}

func (h *Handlers) deleteLegalHistory(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteLegalHistory(r.Context(), *p, id); err != nil {
		h.writeError(w, r, err, "Failed to delete legal history")
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) createReintegrationService(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	clientID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req ReintegrationServiceRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	rec, err := h.service.CreateReintegrationService(r.Context(), *p, clientID, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to create reintegration service")
		return
	}
	httputil.WriteCreated(w, rec)
}

func (h *Handlers) listReintegrationServices(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	clientID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	records, err := h.service.ListReintegrationServices(r.Context(), *p, clientID)
	if err != nil {
		h.writeError(w, r, err, "Failed to list reintegration services")
		return
	}
	httputil.WriteSuccess(w, records)
}

func (h *Handlers) updateReintegrationService(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req ReintegrationServiceRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	rec, err := h.service.UpdateReintegrationService(r.Context(), *p, id, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to update reintegration service")
		return
	}
	httputil.WriteSuccess(w, rec)
}

func (h *Handlers) deleteReintegrationService(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteReintegrationService(r.Context(), *p, id); err != nil {
		h.writeError(w, r, err, "Failed to delete reintegration service")
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) createLegalProcess(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	intakeID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req LegalProcessRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	rec, err := h.service.CreateLegalProcess(r.Context(), *p, intakeID, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to create legal process")
		return
	}
	httputil.WriteCreated(w, rec)
}

func (h *Handlers) listLegalProcesses(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	intakeID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	records, err := h.service.ListLegalProcesses(r.Context(), *p, intakeID)
	if err != nil {
		h.writeError(w, r, err, "Failed to list legal processes")
		return
	}
	httputil.WriteSuccess(w, records)
}

func (h *Handlers) updateLegalProcess(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req LegalProcessRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	rec, err := h.service.UpdateLegalProcess(r.Context(), *p, id, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to update legal process")
		return
	}
	httputil.WriteSuccess(w, rec)
}

func (h *Handlers) deleteLegalProcess(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteLegalProcess(r.Context(), *p, id); err != nil {
		h.writeError(w, r, err, "Failed to delete legal process")
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) recordCheckIn(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	clientID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req CheckInRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	c, err := h.service.RecordStaffCheckIn(r.Context(), *p, clientID, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to record check-in")
		return
	}
	h.countCheckIn(CheckInMethodOfficer)
	httputil.WriteCreated(w, c)
}

func (h *Handlers) recordKioskCheckIn(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	clientID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req CheckInRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	c, err := h.service.RecordKioskCheckIn(r.Context(), *p, clientID, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to record kiosk check-in")
		return
	}
	h.countCheckIn(CheckInMethodKiosk)
	httputil.WriteCreated(w, c)
}

func (h *Handlers) recordRemoteCheckIn(w http.ResponseWriter, r *http.Request) {
	clientID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req RemoteCheckInRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	c, err := h.service.RecordRemoteCheckIn(r.Context(), clientID, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to record remote check-in")
		return
	}
	h.countCheckIn(CheckInMethodRemote)
	httputil.WriteCreated(w, c)
}

func (h *Handlers) listCheckIns(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	clientID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	checkIns, err := h.service.ListCheckIns(r.Context(), *p, clientID, page)
	if err != nil {
		h.writeError(w, r, err, "Failed to list check-ins")
		return
	}
	httputil.WriteSuccess(w, checkIns)
}

func (h *Handlers) deleteCheckIn(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCheckIn(r.Context(), *p, id); err != nil {
		h.writeError(w, r, err, "Failed to delete check-in")
		return
	}
	httputil.WriteNoContent(w)
}
