package simulation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"evtelemetry/backend/services/simulator-service/internal/metrics"
	"evtelemetry/backend/services/simulator-service/internal/models"
)

// VehicleStore reads and writes current vehicle state.
type VehicleStore interface {
	List(ctx context.Context) ([]models.Vehicle, error)
	Save(ctx context.Context, v *models.Vehicle) error
}

// AmbientSource resolves the ambient temperature of a vehicle.
type AmbientSource interface {
	Ambient(vehicleID string) float64
}

// Publisher fans a vehicle record out under a namespace.
type Publisher interface {
	PublishVehicle(ctx context.Context, namespace string, v *models.Vehicle) error
}

// Recorder persists a tick's log entry into the vehicle's history.
type Recorder interface {
	Record(ctx context.Context, vehicleID string, entry models.LogEntry, reset bool) (int64, error)
}

// Variant names an engine instance and the topic namespace it publishes on.
type Variant struct {
	Name      string
	Namespace string
}

// EngineOptions groups Engine collaborators.
type EngineOptions struct {
	Variant   Variant
	Vehicles  VehicleStore
	Model     BatteryModel
	Ambient   AmbientSource
	Sessions  Recorder
	Publisher Publisher
	Interval  time.Duration
	Now       func() time.Time
	Logger    *zap.Logger
}

// Engine advances every vehicle of one variant once per tick.
type Engine struct {
	variant   Variant
	vehicles  VehicleStore
	model     BatteryModel
	ambient   AmbientSource
	sessions  Recorder
	publisher Publisher
	interval  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewEngine builds an engine. A nil Ambient runs the model with DefaultAmbient.
func NewEngine(opts EngineOptions) *Engine {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		variant:   opts.Variant,
		vehicles:  opts.Vehicles,
		model:     opts.Model,
		ambient:   opts.Ambient,
		sessions:  opts.Sessions,
		publisher: opts.Publisher,
		interval:  interval,
		now:       now,
		logger:    logger.With(zap.String("variant", opts.Variant.Name)),
	}
}

// Run ticks until ctx is done. Ticks never overlap: a tick that outlasts the
// interval causes the missed timer firings to be dropped.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("simulation engine started", zap.Duration("interval", e.interval))
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("simulation engine stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := e.Tick(ctx); err != nil {
				e.logger.Error("simulation tick failed", zap.Error(err))
			}
		}
	}
}

// Tick processes every known vehicle once. Per-vehicle failures are logged
// and do not stop the pass; only a failure to list vehicles is returned.
func (e *Engine) Tick(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.Ticks.WithLabelValues(e.variant.Name).Inc()
		metrics.TickDuration.WithLabelValues(e.variant.Name).Observe(time.Since(start).Seconds())
	}()

	vehicles, err := e.vehicles.List(ctx)
	if err != nil {
		return fmt.Errorf("list vehicles: %w", err)
	}

	for i := range vehicles {
		if ctx.Err() != nil {
			return nil
		}
		v := &vehicles[i]
		if err := e.step(ctx, v); err != nil {
			metrics.VehicleUpdates.WithLabelValues(e.variant.Name, "error").Inc()
			e.logger.Warn("vehicle update failed", zap.String("vehicle_id", v.ID), zap.Error(err))
			continue
		}
		metrics.VehicleUpdates.WithLabelValues(e.variant.Name, "ok").Inc()
	}
	return nil
}

func (e *Engine) step(ctx context.Context, v *models.Vehicle) error {
	cond := Conditions{Ambient: DefaultAmbient}
	if e.ambient != nil {
		cond.Ambient = e.ambient.Ambient(v.ID)
	}

	reading := e.model.Next(*v, cond)
	now := e.now()

	v.BatterySoC = reading.SoC
	v.BatteryTemp = reading.Temp
	v.LastUpdate = now

	if err := e.vehicles.Save(ctx, v); err != nil {
		return fmt.Errorf("save vehicle: %w", err)
	}

	entry := models.LogEntry{
		BatterySoC:  reading.SoC,
		BatteryTemp: reading.Temp,
		TimeStamp:   now,
	}
	if _, err := e.sessions.Record(ctx, v.ID, entry, reading.Reset); err != nil {
		return fmt.Errorf("record history: %w", err)
	}

	if err := e.publisher.PublishVehicle(ctx, e.variant.Namespace, v); err != nil {
		e.logger.Warn("publish vehicle failed", zap.String("vehicle_id", v.ID), zap.Error(err))
	}
	return nil
}
