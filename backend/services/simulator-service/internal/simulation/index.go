package simulation

import (
	"context"
	"sync"
)

// SessionIndex tracks the open history session per vehicle for one engine variant.
// Touch is called on every append so indexes with expiring entries keep
// a live session for as long as it receives logs.
type SessionIndex interface {
	Active(ctx context.Context, vehicleID string) (int64, bool, error)
	SetActive(ctx context.Context, vehicleID string, sessionID int64) error
	Touch(ctx context.Context, vehicleID string) error
}

// MemoryIndex keeps active sessions in process memory. A restart forgets them.
type MemoryIndex struct {
	mu       sync.RWMutex
	sessions map[string]int64
}

// NewMemoryIndex returns an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{sessions: make(map[string]int64)}
}

// Active implements SessionIndex.
func (m *MemoryIndex) Active(_ context.Context, vehicleID string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.sessions[vehicleID]
	return id, ok, nil
}

// SetActive implements SessionIndex.
func (m *MemoryIndex) SetActive(_ context.Context, vehicleID string, sessionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[vehicleID] = sessionID
	return nil
}

// Touch implements SessionIndex. Entries never expire.
func (m *MemoryIndex) Touch(context.Context, string) error {
	return nil
}

// LatestSessionFinder looks up the most recent stored session of a vehicle.
type LatestSessionFinder interface {
	LatestSession(ctx context.Context, vehicleID, variant string) (int64, bool, error)
}

// ResumingIndex falls back to the history store the first time a vehicle is
// seen, so sessions opened before a restart keep receiving appends.
type ResumingIndex struct {
	inner   SessionIndex
	finder  LatestSessionFinder
	variant string

	mu      sync.Mutex
	checked map[string]struct{}
}

// NewResumingIndex wraps inner.
func NewResumingIndex(inner SessionIndex, finder LatestSessionFinder, variant string) *ResumingIndex {
	return &ResumingIndex{
		inner:   inner,
		finder:  finder,
		variant: variant,
		checked: make(map[string]struct{}),
	}
}

// Active implements SessionIndex.
func (r *ResumingIndex) Active(ctx context.Context, vehicleID string) (int64, bool, error) {
	id, ok, err := r.inner.Active(ctx, vehicleID)
	if err != nil || ok {
		return id, ok, err
	}

	r.mu.Lock()
	_, seen := r.checked[vehicleID]
	r.mu.Unlock()
	if seen {
		return 0, false, nil
	}

	id, ok, err = r.finder.LatestSession(ctx, vehicleID, r.variant)
	if err != nil {
		return 0, false, err
	}
	r.markChecked(vehicleID)
	if !ok {
		return 0, false, nil
	}
	if err := r.inner.SetActive(ctx, vehicleID, id); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// SetActive implements SessionIndex.
func (r *ResumingIndex) SetActive(ctx context.Context, vehicleID string, sessionID int64) error {
	r.markChecked(vehicleID)
	return r.inner.SetActive(ctx, vehicleID, sessionID)
}

// Touch implements SessionIndex.
func (r *ResumingIndex) Touch(ctx context.Context, vehicleID string) error {
	return r.inner.Touch(ctx, vehicleID)
}

func (r *ResumingIndex) markChecked(vehicleID string) {
	r.mu.Lock()
	r.checked[vehicleID] = struct{}{}
	r.mu.Unlock()
}
