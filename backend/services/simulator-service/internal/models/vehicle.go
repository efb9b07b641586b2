package models

import "time"

// Vehicle is the current simulated battery state of one tracked vehicle.
// The `_id` JSON key is what dashboard subscribers index incoming updates by.
type Vehicle struct {
	ID             string    `db:"id" json:"_id"`
	VehicleType    string    `db:"vehicle_type" json:"vehicle_type"`
	ModelName      string    `db:"model_name" json:"model_name"`
	BatterySize    float64   `db:"battery_size" json:"battery_size"`
	BatterySoC     float64   `db:"battery_soc" json:"battery_soc"`
	BatteryTemp    float64   `db:"battery_temp" json:"battery_temp"`
	BatteryHealth  float64   `db:"battery_health" json:"battery_health"`
	CurrentState   string    `db:"current_state" json:"current_state"`
	LastUpdate     time.Time `db:"last_update" json:"last_update"`
	FleetID        *int64    `db:"fleet_id" json:"fleet_id,omitempty"`
	FleetVehicleID *int64    `db:"fleet_vehicle_id" json:"fleet_vehicle_id,omitempty"`
	Latitude       float64   `db:"latitude" json:"latitude"`
	Longitude      float64   `db:"longitude" json:"longitude"`
}
