package handlers

import (
	"net/http"

	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/BerylCAtieno/health-records-api/internal/services"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
	"github.com/gorilla/mux"
)

type SharedReportHandler struct {
	responder
	service services.AssignmentService
}

func NewSharedReportHandler(service services.AssignmentService, logger *utils.Logger) *SharedReportHandler {
	return &SharedReportHandler{responder: responder{logger: logger}, service: service}
}

// AssignDoctor matches an uploaded report to a doctor and opens a pending
// relationship with them.
func (h *SharedReportHandler) AssignDoctor(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req models.AssignDoctorRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.PatientID == "" {
		req.PatientID = actor.UserID
	}

	resp, err := h.service.AssignDoctor(r.Context(), actor, req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	status := http.StatusCreated
	if resp.AlreadyAssigned {
		status = http.StatusOK
	}
	h.respondJSON(w, status, resp)
}

func (h *SharedReportHandler) ApproveDoctor(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	sr, err := h.service.ApproveDoctor(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"sharedReport": sr})
}

func (h *SharedReportHandler) ListSharedReports(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListForPatient(r.Context(), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"sharedReports": list})
}

func (h *SharedReportHandler) DoctorPatients(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	patients, err := h.service.DoctorPatients(r.Context(), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"patients": patients})
}

func (h *SharedReportHandler) PendingApprovals(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	pending, err := h.service.PendingApprovals(r.Context(), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"pendingApprovals": pending})
}

func (h *SharedReportHandler) ViewSharedReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	detail, err := h.service.ViewSharedReport(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, detail)
}

func (h *SharedReportHandler) CompleteTreatment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	sr, err := h.service.CompleteTreatment(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"sharedReport": sr})
}

func (h *SharedReportHandler) HideFromDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	sr, err := h.service.HideFromDashboard(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"sharedReport": sr})
}
