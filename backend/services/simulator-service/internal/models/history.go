package models

import "time"

// LogEntry is a single immutable sample appended to a history session.
type LogEntry struct {
	BatterySoC  float64   `db:"battery_soc" json:"battery_soc"`
	BatteryTemp float64   `db:"battery_temp" json:"battery_temp"`
	TimeStamp   time.Time `db:"time_stamp" json:"time_stamp"`
}

// HistorySession is one charge/discharge cycle of a vehicle with its logs in tick order.
type HistorySession struct {
	ID             int64      `db:"id" json:"_id"`
	VehicleID      string     `db:"vehicle_id" json:"vehicle_id"`
	Variant        string     `db:"variant" json:"variant"`
	CycleStartTime time.Time  `db:"cycle_start_time" json:"cycle_start_time"`
	Logs           []LogEntry `json:"logs"`
}

// SessionSummary lists a session without its logs.
type SessionSummary struct {
	ID             int64     `db:"id" json:"_id"`
	Variant        string    `db:"variant" json:"variant"`
	CycleStartTime time.Time `db:"cycle_start_time" json:"cycle_start_time"`
}
