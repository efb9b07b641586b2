package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"evtelemetry/backend/services/simulator-service/internal/models"
)

// HistoryRepository stores history sessions and their append-only logs.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository returns repository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// CreateSession opens a session with its first log entry in one transaction.
func (r *HistoryRepository) CreateSession(ctx context.Context, vehicleID, variant string, start time.Time, first models.LogEntry) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const insertSession = `
		INSERT INTO history_sessions (vehicle_id, variant, cycle_start_time)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var id int64
	if err := tx.QueryRowContext(ctx, insertSession, vehicleID, variant, start).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}

	if err := insertLog(ctx, tx, id, first); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// AppendLog adds entry to the end of a session.
func (r *HistoryRepository) AppendLog(ctx context.Context, sessionID int64, entry models.LogEntry) error {
	return insertLog(ctx, r.db, sessionID, entry)
}

// ListSessions returns sessions of a vehicle oldest first. An empty variant lists all variants.
func (r *HistoryRepository) ListSessions(ctx context.Context, vehicleID, variant string) ([]models.SessionSummary, error) {
	const query = `
		SELECT id, variant, cycle_start_time
		FROM history_sessions
		WHERE vehicle_id = $1 AND ($2::text = '' OR variant = $2)
		ORDER BY cycle_start_time, id
	`
	rows, err := r.db.QueryContext(ctx, query, vehicleID, variant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.SessionSummary, 0)
	for rows.Next() {
		var s models.SessionSummary
		if err := rows.Scan(&s.ID, &s.Variant, &s.CycleStartTime); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession returns a session with all of its logs in insertion order.
func (r *HistoryRepository) GetSession(ctx context.Context, id int64) (*models.HistorySession, error) {
	const sessionQuery = `
		SELECT id, vehicle_id, variant, cycle_start_time
		FROM history_sessions
		WHERE id = $1
	`
	var s models.HistorySession
	err := r.db.QueryRowContext(ctx, sessionQuery, id).Scan(&s.ID, &s.VehicleID, &s.Variant, &s.CycleStartTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	const logsQuery = `
		SELECT battery_soc, battery_temp, time_stamp
		FROM history_logs
		WHERE session_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, logsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s.Logs = make([]models.LogEntry, 0)
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.BatterySoC, &e.BatteryTemp, &e.TimeStamp); err != nil {
			return nil, err
		}
		s.Logs = append(s.Logs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LatestSession returns the most recently opened session of a vehicle for variant.
func (r *HistoryRepository) LatestSession(ctx context.Context, vehicleID, variant string) (int64, bool, error) {
	const query = `
		SELECT id
		FROM history_sessions
		WHERE vehicle_id = $1 AND variant = $2
		ORDER BY id DESC
		LIMIT 1
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, vehicleID, variant).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertLog(ctx context.Context, db execer, sessionID int64, entry models.LogEntry) error {
	const query = `
		INSERT INTO history_logs (session_id, battery_soc, battery_temp, time_stamp)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := db.ExecContext(ctx, query, sessionID, entry.BatterySoC, entry.BatteryTemp, entry.TimeStamp); err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}
