package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBrokerURL(t *testing.T) {
	got, err := brokerURL(" localhost:1883 ")
	require.NoError(t, err)
	assert.Equal(t, "tcp://localhost:1883", got)

	got, err = brokerURL("ssl://broker.example.com:8883")
	require.NoError(t, err)
	assert.Equal(t, "ssl://broker.example.com:8883", got)

	_, err = brokerURL("  ")
	assert.Error(t, err)
}

func TestNewClientRejectsEmptyBroker(t *testing.T) {
	_, err := NewClient(Options{}, zap.NewNop())
	assert.Error(t, err)
}
