package simulation

import (
	"context"
	"errors"
	"sync"
	"time"

	"evtelemetry/backend/services/simulator-service/internal/models"
)

var errBoom = errors.New("boom")

// scriptedRandom replays fixed draws and repeats the last one when exhausted.
type scriptedRandom struct {
	floats []float64
	ints   []int
}

func (s *scriptedRandom) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	if len(s.floats) > 1 {
		s.floats = s.floats[1:]
	}
	return v
}

func (s *scriptedRandom) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	if len(s.ints) > 1 {
		s.ints = s.ints[1:]
	}
	return v % n
}

type fakeHistory struct {
	mu        sync.Mutex
	nextID    int64
	sessions  map[int64][]models.LogEntry
	owners    map[int64]string
	createErr error
	appendErr error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		sessions: make(map[int64][]models.LogEntry),
		owners:   make(map[int64]string),
	}
}

func (f *fakeHistory) CreateSession(_ context.Context, vehicleID, _ string, _ time.Time, first models.LogEntry) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	f.sessions[f.nextID] = []models.LogEntry{first}
	f.owners[f.nextID] = vehicleID
	return f.nextID, nil
}

func (f *fakeHistory) AppendLog(_ context.Context, sessionID int64, entry models.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	if _, ok := f.sessions[sessionID]; !ok {
		return errors.New("unknown session")
	}
	f.sessions[sessionID] = append(f.sessions[sessionID], entry)
	return nil
}

func (f *fakeHistory) LatestSession(_ context.Context, vehicleID, _ string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest int64
	for id, owner := range f.owners {
		if owner == vehicleID && id > latest {
			latest = id
		}
	}
	return latest, latest != 0, nil
}

func (f *fakeHistory) logs(sessionID int64) []models.LogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.LogEntry(nil), f.sessions[sessionID]...)
}

func (f *fakeHistory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeVehicles struct {
	mu       sync.Mutex
	vehicles map[string]models.Vehicle
	order    []string
	listErr  error
	saveErr  map[string]error
	saves    int
}

func newFakeVehicles(vs ...models.Vehicle) *fakeVehicles {
	f := &fakeVehicles{vehicles: make(map[string]models.Vehicle), saveErr: make(map[string]error)}
	for _, v := range vs {
		f.vehicles[v.ID] = v
		f.order = append(f.order, v.ID)
	}
	return f
}

func (f *fakeVehicles) List(context.Context) ([]models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Vehicle, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.vehicles[id])
	}
	return out, nil
}

func (f *fakeVehicles) Save(_ context.Context, v *models.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.saveErr[v.ID]; err != nil {
		return err
	}
	f.vehicles[v.ID] = *v
	f.saves++
	return nil
}

func (f *fakeVehicles) get(id string) models.Vehicle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vehicles[id]
}

type published struct {
	namespace string
	vehicle   models.Vehicle
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakePublisher) PublishVehicle(_ context.Context, namespace string, v *models.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{namespace: namespace, vehicle: *v})
	return f.err
}

func (f *fakePublisher) all() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.sent...)
}

type fixedAmbient map[string]float64

func (a fixedAmbient) Ambient(vehicleID string) float64 {
	if t, ok := a[vehicleID]; ok {
		return t
	}
	return DefaultAmbient
}

// recordingIndex counts index writes on top of a MemoryIndex.
type recordingIndex struct {
	*MemoryIndex
	mu       sync.Mutex
	touches  map[string]int
	touchErr error
}

func newRecordingIndex() *recordingIndex {
	return &recordingIndex{MemoryIndex: NewMemoryIndex(), touches: make(map[string]int)}
}

func (r *recordingIndex) Touch(ctx context.Context, vehicleID string) error {
	r.mu.Lock()
	r.touches[vehicleID]++
	err := r.touchErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.MemoryIndex.Touch(ctx, vehicleID)
}

func (r *recordingIndex) touched(vehicleID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touches[vehicleID]
}
