package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/BerylCAtieno/health-records-api/internal/middleware"
	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
)

type responder struct {
	logger *utils.Logger
}

func (h *responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *responder) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	if appErr, ok := utils.AsAppError(err); ok {
		status = appErr.StatusCode
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request error", "status", status, "error", err)
	} else {
		h.logger.Warn("Request rejected", "status", status, "error", message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// actor returns the authenticated user, answering 401 when there is none.
func (h *responder) actor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.respondError(w, utils.NewUnauthorizedError("Not authenticated"))
	}
	return actor, ok
}

func (h *responder) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, utils.NewBadRequestError("Invalid JSON body"))
		return false
	}
	return true
}
