package repository

// Schema creates the vehicle and history tables. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS cars (
	id               TEXT PRIMARY KEY,
	vehicle_type     TEXT NOT NULL DEFAULT '',
	model_name       TEXT NOT NULL DEFAULT '',
	battery_size     DOUBLE PRECISION NOT NULL DEFAULT 0,
	battery_soc      DOUBLE PRECISION NOT NULL DEFAULT 100 CHECK (battery_soc BETWEEN 0 AND 100),
	battery_temp     DOUBLE PRECISION NOT NULL DEFAULT 25,
	battery_health   DOUBLE PRECISION NOT NULL DEFAULT 100,
	current_state    TEXT NOT NULL DEFAULT 'idle',
	last_update      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	fleet_id         BIGINT,
	fleet_vehicle_id BIGINT,
	latitude         DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude        DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS compare_vehicles (LIKE cars INCLUDING ALL);

CREATE TABLE IF NOT EXISTS history_sessions (
	id               BIGSERIAL PRIMARY KEY,
	vehicle_id       TEXT NOT NULL,
	variant          TEXT NOT NULL,
	cycle_start_time TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS history_sessions_vehicle_idx
	ON history_sessions (vehicle_id, variant, id DESC);

CREATE TABLE IF NOT EXISTS history_logs (
	id           BIGSERIAL PRIMARY KEY,
	session_id   BIGINT NOT NULL REFERENCES history_sessions (id) ON DELETE CASCADE,
	battery_soc  DOUBLE PRECISION NOT NULL,
	battery_temp DOUBLE PRECISION NOT NULL,
	time_stamp   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS history_logs_session_idx
	ON history_logs (session_id, id);
`
