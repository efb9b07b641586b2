package redisstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	libredis "evtelemetry/backend/libs/redis"
	"evtelemetry/backend/services/simulator-service/internal/models"
	"evtelemetry/backend/services/simulator-service/internal/simulation"
)

func openTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := libredis.NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestStoreActiveRoundTrip(t *testing.T) {
	client, _ := openTestClient(t)
	ctx := context.Background()
	store := NewStore(client, "plain", time.Minute)

	_, ok, err := store.Active(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetActive(ctx, "v1", 42))

	id, ok, err := store.Active(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	session, err := store.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "plain", session.Variant)
	assert.Equal(t, "v1", session.VehicleID)
}

func TestStoreVariantsDoNotCollide(t *testing.T) {
	client, _ := openTestClient(t)
	ctx := context.Background()
	plain := NewStore(client, "plain", time.Minute)
	compare := NewStore(client, "compare", time.Minute)

	require.NoError(t, plain.SetActive(ctx, "v1", 1))
	_, ok, err := compare.Active(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreEntryExpiresWithoutActivity(t *testing.T) {
	client, mr := openTestClient(t)
	ctx := context.Background()
	store := NewStore(client, "plain", time.Minute)

	require.NoError(t, store.SetActive(ctx, "v1", 7))
	mr.FastForward(61 * time.Second)

	_, ok, err := store.Active(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreTouchRenewsExpiry(t *testing.T) {
	client, mr := openTestClient(t)
	ctx := context.Background()
	store := NewStore(client, "plain", time.Minute)

	require.NoError(t, store.SetActive(ctx, "v1", 7))
	for i := 0; i < 3; i++ {
		mr.FastForward(40 * time.Second)
		require.NoError(t, store.Touch(ctx, "v1"))
	}
	assert.Equal(t, time.Minute, mr.TTL(store.key("v1")))

	id, ok, err := store.Active(ctx, "v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestStoreActiveHitRenewsExpiry(t *testing.T) {
	client, mr := openTestClient(t)
	ctx := context.Background()
	store := NewStore(client, "plain", time.Minute)

	require.NoError(t, store.SetActive(ctx, "v1", 7))
	mr.FastForward(50 * time.Second)

	_, ok, err := store.Active(ctx, "v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL(store.key("v1")))
}

func TestStoreWithoutTTLKeepsKeys(t *testing.T) {
	client, mr := openTestClient(t)
	ctx := context.Background()
	store := NewStore(client, "plain", 0)

	require.NoError(t, store.SetActive(ctx, "v1", 3))
	require.NoError(t, store.Touch(ctx, "v1"))
	mr.FastForward(24 * time.Hour)

	_, ok, err := store.Active(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, mr.TTL(store.key("v1")))
}

func TestStoreKeyLayout(t *testing.T) {
	store := NewStore(nil, "compare", 0)
	assert.Equal(t, "history:active:compare:v1", store.key("v1"))
}

type memoryHistory struct {
	mu     sync.Mutex
	nextID int64
	logs   map[int64]int
}

func (m *memoryHistory) CreateSession(context.Context, string, string, time.Time, models.LogEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.logs[m.nextID] = 1
	return m.nextID, nil
}

func (m *memoryHistory) AppendLog(_ context.Context, sessionID int64, _ models.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[sessionID]++
	return nil
}

func TestTrackerKeepsLongSessionIndexed(t *testing.T) {
	client, mr := openTestClient(t)
	ctx := context.Background()
	history := &memoryHistory{logs: make(map[int64]int)}
	store := NewStore(client, "plain", time.Minute)
	tracker := simulation.NewSessionTracker("plain", history, store, zap.NewNop())

	entry := models.LogEntry{BatterySoC: 80, BatteryTemp: 30, TimeStamp: time.Now()}
	first, err := tracker.Record(ctx, "v1", entry, false)
	require.NoError(t, err)

	// Five minutes of ticks against a one minute ttl.
	for i := 0; i < 10; i++ {
		mr.FastForward(30 * time.Second)
		id, err := tracker.Record(ctx, "v1", entry, false)
		require.NoError(t, err)
		assert.Equal(t, first, id)
	}

	// A fresh process sees the session the first one kept extending.
	restarted := simulation.NewSessionTracker("plain", history, NewStore(client, "plain", time.Minute), zap.NewNop())
	id, err := restarted.Record(ctx, "v1", entry, false)
	require.NoError(t, err)
	assert.Equal(t, first, id)
	assert.Equal(t, 12, history.logs[first])
}
