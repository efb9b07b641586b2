package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"evtelemetry/backend/services/simulator-service/internal/metrics"
	"evtelemetry/backend/services/simulator-service/internal/topic"
)

// Subscriber registers a handler for a topic filter.
type Subscriber interface {
	Subscribe(filter string, qos byte, handler func(topic string, payload []byte)) error
}

// Report is the inbound weather payload.
type Report struct {
	OutsideTemperature *float64 `json:"outsideTemperature"`
}

// ErrMissingTemperature is returned for payloads without outsideTemperature.
var ErrMissingTemperature = errors.New("weather: outsideTemperature missing")

// ParsePayload decodes payload and returns the outside temperature.
func ParsePayload(payload []byte) (float64, error) {
	var report Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return 0, fmt.Errorf("weather: decode payload: %w", err)
	}
	if report.OutsideTemperature == nil {
		return 0, ErrMissingTemperature
	}
	t := *report.OutsideTemperature
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("weather: invalid temperature %v", t)
	}
	return t, nil
}

// Listener feeds weather reports from the broker into Cache.
type Listener struct {
	cache  *Cache
	sub    Subscriber
	filter string
	qos    byte
	now    func() time.Time
	logger *zap.Logger
}

// NewListener builds listener subscribing to filter.
func NewListener(cache *Cache, sub Subscriber, filter string, qos byte, logger *zap.Logger) *Listener {
	return &Listener{
		cache:  cache,
		sub:    sub,
		filter: filter,
		qos:    qos,
		now:    time.Now,
		logger: logger,
	}
}

// Start subscribes to weather reports.
func (l *Listener) Start() error {
	if err := l.sub.Subscribe(l.filter, l.qos, l.Handle); err != nil {
		return fmt.Errorf("weather: subscribe %s: %w", l.filter, err)
	}
	l.logger.Info("listening for weather reports", zap.String("topic", l.filter))
	return nil
}

// Handle processes one inbound message. Malformed input is logged and dropped.
func (l *Listener) Handle(t string, payload []byte) {
	vehicleID, ok := topic.VehicleID(t)
	if !ok {
		metrics.WeatherSamples.WithLabelValues("rejected").Inc()
		l.logger.Warn("weather report on unexpected topic", zap.String("topic", t))
		return
	}

	temperature, err := ParsePayload(payload)
	if err != nil {
		metrics.WeatherSamples.WithLabelValues("rejected").Inc()
		l.logger.Warn("discarding weather report",
			zap.String("vehicle_id", vehicleID),
			zap.Error(err),
		)
		return
	}

	l.cache.Set(vehicleID, temperature, l.now())
	metrics.WeatherSamples.WithLabelValues("accepted").Inc()
	l.logger.Debug("weather updated",
		zap.String("vehicle_id", vehicleID),
		zap.Float64("outside_temperature", temperature),
	)
}
