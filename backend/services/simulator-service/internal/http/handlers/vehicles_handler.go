package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"evtelemetry/backend/services/simulator-service/internal/models"
	"evtelemetry/backend/services/simulator-service/internal/repository"
)

// VehicleReader reads current vehicle state.
type VehicleReader interface {
	List(ctx context.Context) ([]models.Vehicle, error)
	Get(ctx context.Context, id string) (*models.Vehicle, error)
}

// NewVehiclesHandler returns GET /cars and GET /compare handler.
func NewVehiclesHandler(reader VehicleReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicles, err := reader.List(r.Context())
		if err != nil {
			logger.Error("list vehicles failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch vehicles")
			return
		}
		writeJSON(w, http.StatusOK, vehicles)
	}
}

// NewVehicleHandler returns GET /cars/{id} and GET /compare/{id} handler.
func NewVehicleHandler(reader VehicleReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		vehicle, err := reader.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusNotFound, "vehicle not found")
				return
			}
			logger.Error("get vehicle failed", zap.String("vehicle_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch vehicle")
			return
		}
		writeJSON(w, http.StatusOK, vehicle)
	}
}
