package publisher

import (
	"context"
	"time"
)

// MQTTPublisher is the subset of the broker client used for fanout.
type MQTTPublisher interface {
	Publish(ctx context.Context, topic string, qos byte, retain bool, payload []byte) error
}

// MQTTSink publishes records to the broker.
type MQTTSink struct {
	client  MQTTPublisher
	qos     byte
	timeout time.Duration
}

// NewMQTTSink builds sink. A zero timeout leaves the deadline to ctx.
func NewMQTTSink(client MQTTPublisher, qos byte, timeout time.Duration) *MQTTSink {
	return &MQTTSink{client: client, qos: qos, timeout: timeout}
}

// Name implements Sink.
func (s *MQTTSink) Name() string {
	return "mqtt"
}

// Publish implements Sink.
func (s *MQTTSink) Publish(ctx context.Context, topic string, payload []byte) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.client.Publish(ctx, topic, s.qos, false, payload)
}
