package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"cdm/backend/services/station-service/internal/service"
)

// FaultCausesHandlers serves the fault cause catalog.
type FaultCausesHandlers struct {
	queries *service.QueryService
	logger  *zap.Logger
}

// NewFaultCausesHandlers returns handler.
func NewFaultCausesHandlers(queries *service.QueryService, logger *zap.Logger) *FaultCausesHandlers {
	return &FaultCausesHandlers{queries: queries, logger: logger}
}

// List handles GET /api/fault-causes.
func (h *FaultCausesHandlers) List(w http.ResponseWriter, r *http.Request) {
	causes, err := h.queries.ListFaultCauses(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, causes)
}

// Create handles POST /api/fault-causes.
func (h *FaultCausesHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cause, err := h.queries.CreateFaultCause(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, cause)
}
