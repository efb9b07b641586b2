package models

import "time"

// WeatherSample is the latest ambient temperature reported for a vehicle's location.
type WeatherSample struct {
	VehicleID          string    `json:"vehicle_id"`
	OutsideTemperature float64   `json:"outside_temperature"`
	ReceivedAt         time.Time `json:"received_at"`
}
