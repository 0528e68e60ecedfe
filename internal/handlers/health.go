package handlers

import (
	"net/http"

	"github.com/BerylCAtieno/health-records-api/internal/services"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
	"github.com/gorilla/mux"
)

type HealthHandler struct {
	responder
	health      services.HealthService
	medications services.MedicationService
}

func NewHealthHandler(health services.HealthService, medications services.MedicationService, logger *utils.Logger) *HealthHandler {
	return &HealthHandler{
		responder:   responder{logger: logger},
		health:      health,
		medications: medications,
	}
}

func (h *HealthHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	entries, err := h.health.Timeline(r.Context(), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"timeline": entries})
}

func (h *HealthHandler) HealthSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	summary, err := h.health.HealthSummary(r.Context(), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (h *HealthHandler) ListMedications(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	meds, err := h.medications.List(r.Context(), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"medications": meds})
}

func (h *HealthHandler) ToggleMedication(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	med, err := h.medications.Toggle(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, med)
}

func (h *HealthHandler) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	if err := h.medications.Delete(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		h.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
