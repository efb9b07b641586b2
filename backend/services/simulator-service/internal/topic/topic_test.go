package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder(t *testing.T) {
	plain := NewBuilder(NamespacePlain)
	compare := NewBuilder(NamespaceCompare)

	assert.Equal(t, "car/42/data", plain.Data("42"))
	assert.Equal(t, "carCompare/42/data", compare.Data("42"))
	assert.Equal(t, "car/42/weather", plain.Weather("42"))
	assert.Equal(t, "car/+/weather", plain.WeatherWildcard())
}

func TestVehicleID(t *testing.T) {
	id, ok := VehicleID("car/abc/weather")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = VehicleID("car//weather")
	assert.False(t, ok)

	_, ok = VehicleID("car/abc")
	assert.False(t, ok)
}

func TestMatch(t *testing.T) {
	cases := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"car/+/weather", "car/1/weather", true},
		{"car/+/weather", "car/1/data", false},
		{"car/+/weather", "carCompare/1/weather", false},
		{"car/#", "car/1/data", true},
		{"carCompare/+/data", "carCompare/7/data", true},
		{"car/1/data", "car/1/data", true},
		{"car/+", "car/1/data", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Match(tc.filter, tc.topic), "%s vs %s", tc.filter, tc.topic)
	}
}
