package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every simulator collector plus Go runtime metrics.
var Registry = prometheus.NewRegistry()

var (
	// Ticks counts completed passes over the vehicle population.
	Ticks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulator_ticks_total",
			Help: "Total number of simulation ticks executed.",
		},
		[]string{"variant"},
	)

	// TickDuration records wall time of one full tick.
	TickDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simulator_tick_duration_seconds",
			Help:    "Duration of a simulation tick across all vehicles.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"variant"},
	)

	// VehicleUpdates counts per-vehicle outcomes; result is ok or error.
	VehicleUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulator_vehicle_updates_total",
			Help: "Total number of per-vehicle updates by result.",
		},
		[]string{"variant", "result"},
	)

	// SessionsStarted counts new history sessions.
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulator_history_sessions_started_total",
			Help: "Total number of history sessions opened.",
		},
		[]string{"variant"},
	)

	// PublishFailures counts failed fanout deliveries per sink.
	PublishFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulator_publish_failures_total",
			Help: "Total number of failed vehicle publishes.",
		},
		[]string{"sink"},
	)

	// WeatherSamples counts inbound weather reports; result is accepted or rejected.
	WeatherSamples = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulator_weather_samples_total",
			Help: "Total number of ambient temperature reports received.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Ticks,
		TickDuration,
		VehicleUpdates,
		SessionsStarted,
		PublishFailures,
		WeatherSamples,
	)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
