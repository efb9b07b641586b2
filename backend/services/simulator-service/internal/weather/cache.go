package weather

import (
	"sync"
	"time"

	"evtelemetry/backend/services/simulator-service/internal/models"
)

// Cache keeps the latest ambient temperature per vehicle. Last writer wins.
type Cache struct {
	mu       sync.RWMutex
	samples  map[string]models.WeatherSample
	fallback float64
}

// NewCache returns an empty cache answering fallback for unknown vehicles.
func NewCache(fallback float64) *Cache {
	return &Cache{
		samples:  make(map[string]models.WeatherSample),
		fallback: fallback,
	}
}

// Set overwrites the sample for vehicleID.
func (c *Cache) Set(vehicleID string, temperature float64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples[vehicleID] = models.WeatherSample{
		VehicleID:          vehicleID,
		OutsideTemperature: temperature,
		ReceivedAt:         at,
	}
}

// Get returns the cached sample, if any.
func (c *Cache) Get(vehicleID string) (models.WeatherSample, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.samples[vehicleID]
	return s, ok
}

// Ambient returns the cached temperature or the fallback.
// A cached 0 °C is a real reading and is returned as is.
func (c *Cache) Ambient(vehicleID string) float64 {
	if s, ok := c.Get(vehicleID); ok {
		return s.OutsideTemperature
	}
	return c.fallback
}
