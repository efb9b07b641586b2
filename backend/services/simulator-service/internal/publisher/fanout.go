package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"evtelemetry/backend/services/simulator-service/internal/metrics"
	"evtelemetry/backend/services/simulator-service/internal/models"
	"evtelemetry/backend/services/simulator-service/internal/topic"
)

// Sink delivers a serialized record to one transport.
type Sink interface {
	Name() string
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Fanout serializes vehicle records and hands them to every sink.
// Delivery is fire-and-forget: failures are counted and returned, never retried.
type Fanout struct {
	sinks []Sink
}

// NewFanout builds fanout over sinks.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// PublishVehicle sends v on <namespace>/<id>/data.
func (f *Fanout) PublishVehicle(ctx context.Context, namespace string, v *models.Vehicle) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal vehicle %s: %w", v.ID, err)
	}
	t := topic.NewBuilder(namespace).Data(v.ID)

	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, t, payload); err != nil {
			metrics.PublishFailures.WithLabelValues(sink.Name()).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
