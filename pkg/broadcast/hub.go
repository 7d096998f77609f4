// Package broadcast is the Broadcast Adapter: it fans typed simulation,
// ingest, and generation events out to every client subscribed to a
// scenario's room over WebSocket. Unlike the teacher's events.ConnectionManager,
// there is no Postgres LISTEN/NOTIFY layer here — a scenario's simulation
// runs in a single process, so the room a connection subscribes to is
// simply an in-memory fan-out set, no cross-process signaling required.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/neg-0/overwatch/pkg/metrics"
)

// Envelope is the wire shape of every event the hub sends: a named event
// type, a scenario room, and an arbitrary JSON payload.
type Envelope struct {
	Event      string         `json:"event"`
	ScenarioID string         `json:"scenarioId"`
	Payload    map[string]any `json:"payload,omitempty"`
	Time       time.Time      `json:"time"`
}

// connection is a single subscribed WebSocket client. room is fixed at
// registration time — a client reconnects to switch scenarios, rather than
// resubscribing in place, keeping the hub's bookkeeping to one map lookup
// per broadcast instead of a second subscription layer.
type connection struct {
	id     string
	room   string
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
}

// Hub tracks every live connection, grouped by scenario room, and fans
// broadcasts out to each room's subscribers.
type Hub struct {
	connections map[string]*connection
	mu          sync.RWMutex

	rooms   map[string]map[string]bool // scenarioID -> connection IDs
	roomMu  sync.RWMutex

	writeTimeout time.Duration
	log          *slog.Logger
}

// New creates a Hub. writeTimeout bounds how long a single slow client may
// block a broadcast to its room.
func New(writeTimeout time.Duration, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		connections:  make(map[string]*connection),
		rooms:        make(map[string]map[string]bool),
		writeTimeout: writeTimeout,
		log:          log,
	}
}

// HandleConnection manages one WebSocket client's lifecycle in scenarioID's
// room. Blocks until the connection closes; the caller runs it from the
// gin handler goroutine after upgrading.
func (h *Hub) HandleConnection(parentCtx context.Context, ws *websocket.Conn, scenarioID string) {
	ctx, cancel := context.WithCancel(parentCtx)
	c := &connection{
		id:     uuid.NewString(),
		room:   scenarioID,
		conn:   ws,
		ctx:    ctx,
		cancel: cancel,
	}

	h.register(c)
	defer h.unregister(c)

	h.sendJSON(c, map[string]string{"type": "connection.established", "connection_id": c.id})

	// The read loop exists only to detect client-initiated close; this hub
	// has no subscribe/unsubscribe protocol since room membership is fixed
	// at connect time.
	for {
		if _, _, err := ws.Read(ctx); err != nil {
			return
		}
	}
}

// ActiveConnections reports the number of live connections, for /metrics.
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Emit marshals and broadcasts one event to every connection in
// scenarioID's room. Best-effort: a marshal failure or empty room is not
// an error, mirroring the rest of the module's best-effort broadcast
// conventions.
func (h *Hub) Emit(ctx context.Context, scenarioID, event string, payload map[string]any) error {
	env := Envelope{Event: event, ScenarioID: scenarioID, Payload: payload, Time: time.Now().UTC()}
	data, err := json.Marshal(env)
	if err != nil {
		return nil
	}
	h.broadcastRoom(scenarioID, data)
	return nil
}

// EmitScenarioEvent satisfies pkg/scenario.Broadcaster.
func (h *Hub) EmitScenarioEvent(ctx context.Context, scenarioID, event string, payload map[string]any) error {
	return h.Emit(ctx, scenarioID, event, payload)
}

// EmitIngestEvent satisfies pkg/ingest.Broadcaster.
func (h *Hub) EmitIngestEvent(ctx context.Context, scenarioID, event string, payload map[string]any) error {
	return h.Emit(ctx, scenarioID, event, payload)
}

func (h *Hub) broadcastRoom(scenarioID string, data []byte) {
	h.roomMu.RLock()
	ids, ok := h.rooms[scenarioID]
	if !ok {
		h.roomMu.RUnlock()
		return
	}
	snapshot := make([]string, 0, len(ids))
	for id := range ids {
		snapshot = append(snapshot, id)
	}
	h.roomMu.RUnlock()

	// Resolve connection pointers under a separate, shorter-held lock so a
	// slow client's write doesn't stall register/unregister of others.
	h.mu.RLock()
	conns := make([]*connection, 0, len(snapshot))
	for _, id := range snapshot {
		if c, ok := h.connections[id]; ok {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := h.sendRaw(c, data); err != nil {
			h.log.Warn("broadcast: send failed", "connection_id", c.id, "room", scenarioID, "error", err)
		}
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	h.connections[c.id] = c
	h.mu.Unlock()

	h.roomMu.Lock()
	if h.rooms[c.room] == nil {
		h.rooms[c.room] = make(map[string]bool)
	}
	h.rooms[c.room][c.id] = true
	h.roomMu.Unlock()

	metrics.ConnectionOpened()
}

func (h *Hub) unregister(c *connection) {
	h.roomMu.Lock()
	if subs, ok := h.rooms[c.room]; ok {
		delete(subs, c.id)
		if len(subs) == 0 {
			delete(h.rooms, c.room)
		}
	}
	h.roomMu.Unlock()

	h.mu.Lock()
	delete(h.connections, c.id)
	h.mu.Unlock()

	metrics.ConnectionClosed()

	c.cancel()
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Hub) sendJSON(c *connection, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.sendRaw(c, data); err != nil {
		h.log.Warn("broadcast: send failed", "connection_id", c.id, "error", err)
	}
}

func (h *Hub) sendRaw(c *connection, data []byte) error {
	writeCtx, cancel := context.WithTimeout(c.ctx, h.writeTimeout)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}
