package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"cdm/backend/services/station-service/internal/service"
)

// HistoryHandlers answers "which stations did this actor touch" queries.
type HistoryHandlers struct {
	queries *service.QueryService
	logger  *zap.Logger
}

// NewHistoryHandlers returns handler.
func NewHistoryHandlers(queries *service.QueryService, logger *zap.Logger) *HistoryHandlers {
	return &HistoryHandlers{queries: queries, logger: logger}
}

// Me handles GET /api/history/me.
func (h *HistoryHandlers) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	h.writeTouched(w, r, actor.UserID)
}

// Actor handles GET /api/history/actors/{id}.
func (h *HistoryHandlers) Actor(w http.ResponseWriter, r *http.Request) {
	actorID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeTouched(w, r, actorID)
}

func (h *HistoryHandlers) writeTouched(w http.ResponseWriter, r *http.Request, actorID int64) {
	ids, err := h.queries.StationsTouchedBy(r.Context(), actorID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":     actorID,
		"station_ids": ids,
	})
}
