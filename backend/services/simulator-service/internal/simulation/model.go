package simulation

import (
	"math"
	"math/rand/v2"

	"evtelemetry/backend/services/simulator-service/internal/models"
)

const (
	// ResetThreshold is the SoC below which a vehicle is considered recharged.
	ResetThreshold = 20.0
	// RechargeTarget is the SoC a reset re-seeds to.
	RechargeTarget = 100.0
	// DefaultAmbient is used when no weather sample exists for a vehicle.
	DefaultAmbient = 25.0
)

// RandomSource supplies uniform draws to battery models.
type RandomSource interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// NewRandomSource returns a deterministic PCG source for seed.
func NewRandomSource(seed int64) RandomSource {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// Conditions carries inputs a model may consult besides vehicle state.
type Conditions struct {
	Ambient float64
}

// Reading is the next battery state produced by a model.
type Reading struct {
	SoC   float64
	Temp  float64
	Reset bool
}

// BatteryModel computes the next battery reading for one vehicle.
type BatteryModel interface {
	Next(v models.Vehicle, c Conditions) Reading
}

// PlainModel samples temperature from a fixed integer window of 15-45 °C.
type PlainModel struct {
	rnd RandomSource
}

// NewPlainModel builds PlainModel.
func NewPlainModel(rnd RandomSource) *PlainModel {
	return &PlainModel{rnd: rnd}
}

// Next implements BatteryModel.
func (m *PlainModel) Next(v models.Vehicle, _ Conditions) Reading {
	soc, reset := nextSoC(v.BatterySoC, m.rnd.Float64())
	return Reading{
		SoC:   soc,
		Temp:  float64(15 + m.rnd.IntN(31)),
		Reset: reset,
	}
}

// WeatherModel picks a temperature window from the ambient temperature.
type WeatherModel struct {
	rnd RandomSource
}

// NewWeatherModel builds WeatherModel.
func NewWeatherModel(rnd RandomSource) *WeatherModel {
	return &WeatherModel{rnd: rnd}
}

// Next implements BatteryModel. The temperature is rounded to two decimals
// after sampling, so a draw close to 1 may report the window's upper bound.
func (m *WeatherModel) Next(v models.Vehicle, c Conditions) Reading {
	soc, reset := nextSoC(v.BatterySoC, m.rnd.Float64())
	return Reading{
		SoC:   soc,
		Temp:  round2(TemperatureFor(c.Ambient, m.rnd.Float64())),
		Reset: reset,
	}
}

// TemperatureFor maps ambient temperature and a uniform draw u in [0, 1)
// onto the battery temperature window selected by ambient. Boundaries
// belong to the lower window.
func TemperatureFor(ambient, u float64) float64 {
	switch {
	case ambient <= 10:
		return ambient + 6 + u*2
	case ambient <= 20:
		return 15 + u*10
	case ambient <= 30:
		return 25 + u*10
	case ambient <= 40:
		return 35 + u*7
	default:
		return 40 + u*10
	}
}

func nextSoC(prior, decrement float64) (float64, bool) {
	soc := prior - decrement
	if soc < ResetThreshold {
		return RechargeTarget, true
	}
	return round2(soc), false
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
