package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"evtelemetry/backend/services/simulator-service/internal/models"
)

// ErrNotFound indicates a missing vehicle or session.
var ErrNotFound = errors.New("not found")

// VehicleTable selects which vehicle population a repository serves.
type VehicleTable string

const (
	// TableCars holds vehicles driven by the plain simulation.
	TableCars VehicleTable = "cars"
	// TableCompare holds vehicles driven by the weather-aware simulation.
	TableCompare VehicleTable = "compare_vehicles"
)

const vehicleColumns = `id, vehicle_type, model_name, battery_size, battery_soc, battery_temp, battery_health,
	current_state, last_update, fleet_id, fleet_vehicle_id, latitude, longitude`

type rowScanner interface {
	Scan(dest ...any) error
}

// VehicleRepository handles persistence of current vehicle state.
type VehicleRepository struct {
	db    *sql.DB
	table VehicleTable
}

// NewVehicleRepository returns repository bound to table.
func NewVehicleRepository(db *sql.DB, table VehicleTable) *VehicleRepository {
	return &VehicleRepository{db: db, table: table}
}

// List returns every vehicle ordered by id.
func (r *VehicleRepository) List(ctx context.Context) ([]models.Vehicle, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, vehicleColumns, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := make([]models.Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// Get returns vehicle by id.
func (r *VehicleRepository) Get(ctx context.Context, id string) (*models.Vehicle, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, vehicleColumns, r.table)
	v, err := scanVehicle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Save writes the mutable state of v back by id.
func (r *VehicleRepository) Save(ctx context.Context, v *models.Vehicle) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET battery_soc = $2,
		    battery_temp = $3,
		    battery_health = $4,
		    current_state = $5,
		    last_update = $6,
		    latitude = $7,
		    longitude = $8
		WHERE id = $1
	`, r.table)
	result, err := r.db.ExecContext(ctx, query,
		v.ID,
		v.BatterySoC,
		v.BatteryTemp,
		v.BatteryHealth,
		v.CurrentState,
		v.LastUpdate,
		v.Latitude,
		v.Longitude,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Insert creates v unless a vehicle with the same id exists. It reports whether a row was added.
func (r *VehicleRepository) Insert(ctx context.Context, v *models.Vehicle) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`, r.table, vehicleColumns)
	result, err := r.db.ExecContext(ctx, query,
		v.ID,
		v.VehicleType,
		v.ModelName,
		v.BatterySize,
		v.BatterySoC,
		v.BatteryTemp,
		v.BatteryHealth,
		v.CurrentState,
		v.LastUpdate,
		v.FleetID,
		v.FleetVehicleID,
		v.Latitude,
		v.Longitude,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanVehicle(row rowScanner) (models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(
		&v.ID,
		&v.VehicleType,
		&v.ModelName,
		&v.BatterySize,
		&v.BatterySoC,
		&v.BatteryTemp,
		&v.BatteryHealth,
		&v.CurrentState,
		&v.LastUpdate,
		&v.FleetID,
		&v.FleetVehicleID,
		&v.Latitude,
		&v.Longitude,
	)
	return v, err
}
