package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evtelemetry/backend/services/simulator-service/internal/models"
)

type recordingSink struct {
	name    string
	topics  []string
	payload [][]byte
	err     error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, topic string, payload []byte) error {
	s.topics = append(s.topics, topic)
	s.payload = append(s.payload, payload)
	return s.err
}

type fakeBroker struct {
	topic    string
	qos      byte
	deadline bool
}

func (b *fakeBroker) Publish(ctx context.Context, topic string, qos byte, _ bool, _ []byte) error {
	b.topic = topic
	b.qos = qos
	_, b.deadline = ctx.Deadline()
	return nil
}

func TestFanoutPublishesToEverySink(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	f := NewFanout(a, b)

	v := &models.Vehicle{ID: "v1", BatterySoC: 55.25, BatteryTemp: 31}
	require.NoError(t, f.PublishVehicle(context.Background(), "carCompare", v))

	for _, s := range []*recordingSink{a, b} {
		require.Len(t, s.topics, 1)
		assert.Equal(t, "carCompare/v1/data", s.topics[0])

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(s.payload[0], &decoded))
		assert.Equal(t, "v1", decoded["_id"])
		assert.Equal(t, 55.25, decoded["battery_soc"])
	}
}

func TestFanoutContinuesAfterSinkFailure(t *testing.T) {
	bad := &recordingSink{name: "bad", err: errors.New("offline")}
	good := &recordingSink{name: "good"}
	f := NewFanout(bad, good)

	err := f.PublishVehicle(context.Background(), "car", &models.Vehicle{ID: "v1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Len(t, good.topics, 1)
}

func TestMQTTSinkAppliesTimeoutAndQoS(t *testing.T) {
	broker := &fakeBroker{}
	sink := NewMQTTSink(broker, 1, time.Second)

	require.NoError(t, sink.Publish(context.Background(), "car/v1/data", []byte(`{}`)))
	assert.Equal(t, "car/v1/data", broker.topic)
	assert.Equal(t, byte(1), broker.qos)
	assert.True(t, broker.deadline)
	assert.Equal(t, "mqtt", sink.Name())
}
