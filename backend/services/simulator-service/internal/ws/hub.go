package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"evtelemetry/backend/services/simulator-service/internal/topic"
)

// Message is the envelope pushed to subscribers.
type Message struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Hub tracks dashboard subscribers and forwards published records to them.
type Hub struct {
	mu           sync.RWMutex
	connections  map[uint64]*Connection
	nextID       atomic.Uint64
	pingInterval time.Duration
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
	logger       *zap.Logger
}

// NewHub builds hub.
func NewHub(pingInterval, writeTimeout time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Hub{
		connections:  make(map[uint64]*Connection),
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS upgrades GET /ws?topic=<filter>. Without a filter every topic is delivered.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("topic")
	if filter == "" {
		filter = "#"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	connection := NewConnection(h.nextID.Add(1), filter, conn, h.writeTimeout, h.logger, func(id uint64) {
		h.remove(id)
		cancel()
	})
	h.add(connection)

	go connection.Start(ctx)
	h.logger.Info("subscriber connected", zap.Uint64("conn_id", connection.ID()), zap.String("topic", filter))
}

// ServeHTTP implements http.Handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleWS(w, r)
}

// Name implements publisher.Sink.
func (h *Hub) Name() string {
	return "websocket"
}

// Publish implements publisher.Sink by queueing the record for every matching subscriber.
func (h *Hub) Publish(_ context.Context, t string, payload []byte) error {
	msg, err := json.Marshal(Message{Topic: t, Payload: payload})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.connections {
		if topic.Match(conn.Filter(), t) {
			conn.Send(msg)
		}
	}
	return nil
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Start runs the keepalive loop until ctx is done, then disconnects everyone.
func (h *Hub) Start(ctx context.Context) error {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case <-ticker.C:
			h.mu.RLock()
			for _, conn := range h.connections {
				if err := conn.Ping(); err != nil {
					h.logger.Debug("ping failed", zap.Uint64("conn_id", conn.ID()), zap.Error(err))
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) add(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn.ID()] = conn
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, id)
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connections))
	for _, conn := range h.connections {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}
