package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	Ticks.WithLabelValues("test").Inc()

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `simulator_ticks_total{variant="test"}`)
}

func TestWeatherSamplesCounter(t *testing.T) {
	before := testutil.ToFloat64(WeatherSamples.WithLabelValues("rejected"))
	WeatherSamples.WithLabelValues("rejected").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(WeatherSamples.WithLabelValues("rejected")))
}
