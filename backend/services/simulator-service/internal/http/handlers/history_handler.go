package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"evtelemetry/backend/services/simulator-service/internal/models"
	"evtelemetry/backend/services/simulator-service/internal/repository"
)

// HistoryReader reads stored history sessions.
type HistoryReader interface {
	ListSessions(ctx context.Context, vehicleID, variant string) ([]models.SessionSummary, error)
	GetSession(ctx context.Context, id int64) (*models.HistorySession, error)
}

// NewHistoryListHandler returns GET /history/{vehicleId} handler. ?variant= narrows the list.
func NewHistoryListHandler(reader HistoryReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicleID := r.PathValue("vehicleId")
		sessions, err := reader.ListSessions(r.Context(), vehicleID, r.URL.Query().Get("variant"))
		if err != nil {
			logger.Error("list history failed", zap.String("vehicle_id", vehicleID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch history")
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

// NewHistorySessionHandler returns GET /history/session/{historyId} handler.
func NewHistorySessionHandler(reader HistoryReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("historyId"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid history id")
			return
		}
		session, err := reader.GetSession(r.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusNotFound, "History not found")
				return
			}
			logger.Error("get history session failed", zap.Int64("history_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch history session")
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}
