package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"cdm/backend/services/station-service/internal/models"
	"cdm/backend/services/station-service/internal/service"
)

// StationsHandlers serves the station endpoints.
type StationsHandlers struct {
	queries     *service.QueryService
	transitions *service.TransitionService
	registry    *service.RegistrationService
	logger      *zap.Logger
}

// NewStationsHandlers returns handler.
func NewStationsHandlers(queries *service.QueryService, transitions *service.TransitionService, registry *service.RegistrationService, logger *zap.Logger) *StationsHandlers {
	return &StationsHandlers{
		queries:     queries,
		transitions: transitions,
		registry:    registry,
		logger:      logger,
	}
}

// List handles GET /api/stations.
func (h *StationsHandlers) List(w http.ResponseWriter, r *http.Request) {
	stations, err := h.queries.ListStations(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

// Create handles POST /api/stations.
func (h *StationsHandlers) Create(w http.ResponseWriter, r *http.Request) {
	type request struct {
		ID             int64                `json:"id"`
		Name           string               `json:"name"`
		Address        string               `json:"address"`
		DetailLocation string               `json:"detail_location"`
		Status         models.Status        `json:"status"`
		StatusID       models.Status        `json:"status_id"`
		FaultCauses    models.FaultCauseSet `json:"fault_cause_ids"`
	}

	var req request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status := req.Status
	if status == 0 {
		status = req.StatusID
	}

	station := models.NewStation{
		ID:             req.ID,
		Name:           req.Name,
		Address:        req.Address,
		DetailLocation: req.DetailLocation,
		Status:         status,
		FaultCauses:    req.FaultCauses,
	}
	if err := h.registry.CreateStation(r.Context(), station); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": req.ID})
}

// Transition handles PUT /api/stations/{id}.
func (h *StationsHandlers) Transition(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Status      models.Status        `json:"status"`
		StatusID    models.Status        `json:"status_id"`
		FaultCauses models.FaultCauseSet `json:"fault_cause_ids"`
	}

	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	stationID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status := req.Status
	if status == 0 {
		status = req.StatusID
	}

	result, err := h.transitions.ApplyTransition(r.Context(), service.TransitionRequest{
		ActorID:     actor.UserID,
		StationID:   stationID,
		Status:      status,
		FaultCauses: req.FaultCauses,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Delete handles DELETE /api/stations/{id}.
func (h *StationsHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.registry.DeleteStation(r.Context(), stationID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/stations/{id}/history?limit=N.
func (h *StationsHandlers) History(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}

	entries, err := h.queries.StationHistory(r.Context(), stationID, limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
