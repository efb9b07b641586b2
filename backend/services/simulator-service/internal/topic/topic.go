package topic

import (
	"fmt"
	"strings"
)

// Namespaces separating the two simulation variants on the broker.
const (
	NamespacePlain   = "car"
	NamespaceCompare = "carCompare"
)

const (
	suffixData    = "data"
	suffixWeather = "weather"
)

// Builder constructs per-vehicle topics under one namespace.
// Structure: {namespace}/{vehicleID}/{suffix}
type Builder struct {
	namespace string
}

// NewBuilder returns a builder rooted at namespace.
func NewBuilder(namespace string) *Builder {
	return &Builder{namespace: namespace}
}

// Namespace returns the root segment.
func (b *Builder) Namespace() string {
	return b.namespace
}

// Data returns the topic carrying full vehicle records.
func (b *Builder) Data(vehicleID string) string {
	return b.build(vehicleID, suffixData)
}

// Weather returns the topic an external reporter publishes ambient temperature on.
func (b *Builder) Weather(vehicleID string) string {
	return b.build(vehicleID, suffixWeather)
}

// WeatherWildcard matches weather reports for every vehicle.
func (b *Builder) WeatherWildcard() string {
	return b.build("+", suffixWeather)
}

// DataWildcard matches data records for every vehicle.
func (b *Builder) DataWildcard() string {
	return b.build("+", suffixData)
}

func (b *Builder) build(vehicleID, suffix string) string {
	return fmt.Sprintf("%s/%s/%s", b.namespace, vehicleID, suffix)
}

// VehicleID extracts the vehicle segment from a three segment topic.
func VehicleID(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Match reports whether topic satisfies an MQTT filter with + and # wildcards.
func Match(filter, topic string) bool {
	if filter == topic {
		return true
	}
	if !strings.Contains(filter, "+") && !strings.Contains(filter, "#") {
		return false
	}

	filterParts := strings.Split(filter, "/")
	topicParts := strings.Split(topic, "/")

	for i, part := range filterParts {
		if part == "#" {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if part != "+" && part != topicParts[i] {
			return false
		}
	}

	return len(filterParts) == len(topicParts)
}
