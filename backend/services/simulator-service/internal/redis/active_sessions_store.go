package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveSession stored in redis for quick access.
type ActiveSession struct {
	SessionID int64     `json:"session_id"`
	VehicleID string    `json:"vehicle_id"`
	Variant   string    `json:"variant"`
	OpenedAt  time.Time `json:"opened_at"`
}

// Store keeps the active-session index of one engine variant in redis,
// so a restarted process resumes the sessions it left open.
// With a ttl, a key lives ttl past the last read or append of its session.
type Store struct {
	client  *redis.Client
	variant string
	ttl     time.Duration
	now     func() time.Time
}

// NewStore returns redis-backed store. A zero ttl keeps keys forever.
func NewStore(client *redis.Client, variant string, ttl time.Duration) *Store {
	return &Store{client: client, variant: variant, ttl: ttl, now: time.Now}
}

func (s *Store) key(vehicleID string) string {
	return fmt.Sprintf("history:active:%s:%s", s.variant, vehicleID)
}

// Save caches session.
func (s *Store) Save(ctx context.Context, session ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.VehicleID), data, s.ttl).Err()
}

// Get returns cached session, or redis.Nil when none is tracked. A hit renews the ttl.
func (s *Store) Get(ctx context.Context, vehicleID string) (*ActiveSession, error) {
	var cmd *redis.StringCmd
	if s.ttl > 0 {
		cmd = s.client.GetEx(ctx, s.key(vehicleID), s.ttl)
	} else {
		cmd = s.client.Get(ctx, s.key(vehicleID))
	}
	result, err := cmd.Result()
	if err != nil {
		return nil, err
	}
	var session ActiveSession
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Active implements simulation.SessionIndex.
func (s *Store) Active(ctx context.Context, vehicleID string) (int64, bool, error) {
	session, err := s.Get(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return session.SessionID, true, nil
}

// SetActive implements simulation.SessionIndex.
func (s *Store) SetActive(ctx context.Context, vehicleID string, sessionID int64) error {
	return s.Save(ctx, ActiveSession{
		SessionID: sessionID,
		VehicleID: vehicleID,
		Variant:   s.variant,
		OpenedAt:  s.now().UTC(),
	})
}

// Touch implements simulation.SessionIndex by pushing the expiry ttl into the future.
func (s *Store) Touch(ctx context.Context, vehicleID string) error {
	if s.ttl <= 0 {
		return nil
	}
	return s.client.Expire(ctx, s.key(vehicleID), s.ttl).Err()
}
