package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"evtelemetry/backend/services/simulator-service/internal/metrics"
	"evtelemetry/backend/services/simulator-service/internal/models"
)

// Session states.
const (
	StateNoActiveSession = "no_active_session"
	StateActiveSession   = "active_session"
)

// Session events.
const (
	EventOpen   = "open"
	EventRotate = "rotate"
	EventAppend = "append"
)

const metaSessionID = "session_id"

// HistoryStore persists sessions and their log entries.
type HistoryStore interface {
	CreateSession(ctx context.Context, vehicleID, variant string, start time.Time, first models.LogEntry) (int64, error)
	AppendLog(ctx context.Context, sessionID int64, entry models.LogEntry) error
}

// SessionTracker decides for every tick whether a vehicle's log entry
// continues its open session or starts a new one. Each vehicle has its own
// state machine; the index is only read the first time a vehicle is seen
// and written through afterwards so other processes can resume.
type SessionTracker struct {
	variant string
	store   HistoryStore
	index   SessionIndex
	logger  *zap.Logger

	mu       sync.Mutex
	machines map[string]*fsm.FSM
}

// NewSessionTracker builds a tracker for one engine variant.
func NewSessionTracker(variant string, store HistoryStore, index SessionIndex, logger *zap.Logger) *SessionTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionTracker{
		variant:  variant,
		store:    store,
		index:    index,
		logger:   logger,
		machines: make(map[string]*fsm.FSM),
	}
}

// Record stores entry for vehicleID and returns the id of the session it landed in.
// A reset always opens a new session; the previous one stops receiving appends.
// When the store write fails the transition is cancelled and the state is left as it was.
func (t *SessionTracker) Record(ctx context.Context, vehicleID string, entry models.LogEntry, reset bool) (int64, error) {
	machine, err := t.machine(ctx, vehicleID)
	if err != nil {
		return 0, err
	}

	var event string
	switch {
	case machine.Can(EventOpen):
		event = EventOpen
	case reset:
		event = EventRotate
	default:
		event = EventAppend
	}

	if err := machine.Event(ctx, event, vehicleID, entry); err != nil {
		var canceled fsm.CanceledError
		if errors.As(err, &canceled) {
			return activeSessionID(machine), fmt.Errorf("session %s: %w", event, canceled.Err)
		}
		if isFSMError(err) {
			return activeSessionID(machine), fmt.Errorf("session %s: %w", event, err)
		}
	}
	return activeSessionID(machine), nil
}

// State returns the tracked session state of vehicleID.
func (t *SessionTracker) State(vehicleID string) string {
	t.mu.Lock()
	m, ok := t.machines[vehicleID]
	t.mu.Unlock()
	if !ok {
		return StateNoActiveSession
	}
	return m.Current()
}

// machine returns the state machine of vehicleID, seeding it from the index on first use.
// A failed lookup is not cached so the next tick asks again.
func (t *SessionTracker) machine(ctx context.Context, vehicleID string) (*fsm.FSM, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if m, ok := t.machines[vehicleID]; ok {
		return m, nil
	}

	active, ok, err := t.index.Active(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("lookup active session: %w", err)
	}

	initial := StateNoActiveSession
	if ok {
		initial = StateActiveSession
	}

	m := fsm.NewFSM(
		initial,
		fsm.Events{
			{Name: EventOpen, Src: []string{StateNoActiveSession}, Dst: StateActiveSession},
			{Name: EventRotate, Src: []string{StateActiveSession}, Dst: StateActiveSession},
			{Name: EventAppend, Src: []string{StateActiveSession}, Dst: StateActiveSession},
		},
		fsm.Callbacks{
			"before_" + EventOpen:   wrapEvent(t.openSession),
			"before_" + EventRotate: wrapEvent(t.openSession),
			"before_" + EventAppend: wrapEvent(t.appendLog),
			"after_" + EventOpen:    t.onSessionStarted,
			"after_" + EventRotate:  t.onSessionStarted,
		},
	)
	if ok {
		m.SetMetadata(metaSessionID, active)
	}
	t.machines[vehicleID] = m
	return m, nil
}

// openSession creates the session a transition into active_session points at.
func (t *SessionTracker) openSession(ctx context.Context, e *fsm.Event) error {
	vehicleID, entry := eventArgs(e)
	id, err := t.store.CreateSession(ctx, vehicleID, t.variant, entry.TimeStamp, entry)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	e.FSM.SetMetadata(metaSessionID, id)

	if err := t.index.SetActive(ctx, vehicleID, id); err != nil {
		t.logger.Warn("failed to persist active session",
			zap.String("variant", t.variant),
			zap.String("vehicle_id", vehicleID),
			zap.Int64("session_id", id),
			zap.Error(err),
		)
	}
	return nil
}

// appendLog extends the open session and keeps its index entry alive.
func (t *SessionTracker) appendLog(ctx context.Context, e *fsm.Event) error {
	vehicleID, entry := eventArgs(e)
	id := activeSessionID(e.FSM)
	if err := t.store.AppendLog(ctx, id, entry); err != nil {
		return fmt.Errorf("append to session %d: %w", id, err)
	}

	if err := t.index.Touch(ctx, vehicleID); err != nil {
		t.logger.Warn("failed to refresh active session",
			zap.String("variant", t.variant),
			zap.String("vehicle_id", vehicleID),
			zap.Int64("session_id", id),
			zap.Error(err),
		)
	}
	return nil
}

func (t *SessionTracker) onSessionStarted(_ context.Context, e *fsm.Event) {
	metrics.SessionsStarted.WithLabelValues(t.variant).Inc()
	vehicleID, _ := eventArgs(e)
	t.logger.Debug("history session started",
		zap.String("variant", t.variant),
		zap.String("event", e.Event),
		zap.String("vehicle_id", vehicleID),
		zap.Int64("session_id", activeSessionID(e.FSM)),
	)
}

// wrapEvent turns a failing guard into a cancelled transition.
func wrapEvent(fn func(ctx context.Context, e *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, e *fsm.Event) {
		if err := fn(ctx, e); err != nil {
			e.Cancel(err)
		}
	}
}

func eventArgs(e *fsm.Event) (string, models.LogEntry) {
	vehicleID, _ := e.Args[0].(string)
	entry, _ := e.Args[1].(models.LogEntry)
	return vehicleID, entry
}

func activeSessionID(m *fsm.FSM) int64 {
	v, ok := m.Metadata(metaSessionID)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}

// isFSMError filters the self-transition result rotate and append always produce.
func isFSMError(err error) bool {
	var noTransition fsm.NoTransitionError
	return !errors.As(err, &noTransition)
}
