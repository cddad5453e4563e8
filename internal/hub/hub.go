// Package hub pushes interpreted telemetry to browser dashboards over
// websockets and accepts their control commands.
package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dastsc/nexus/internal/pipeline"
)

// sendBuffer is how many frames a client may fall behind before frames are
// dropped for it. Dashboards only care about the latest state, so a shallow
// buffer is enough.
const sendBuffer = 8

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the set of connected dashboards. Results broadcast through it
// reach every client that can keep up; clients that fall behind skip frames
// rather than stall the pipeline.
type Hub struct {
	engine   *pipeline.Engine
	lg       *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
}

// New creates a Hub broadcasting results from the given engine.
func New(engine *pipeline.Engine, lg *slog.Logger) *Hub {
	if lg == nil {
		lg = slog.Default()
	}
	return &Hub{
		engine: engine,
		lg:     lg,
		upgrader: websocket.Upgrader{
			// Dashboards are served from other origins during development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// profileInfo is the subset of a profile sent to dashboards.
type profileInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// ServeHTTP upgrades the connection, sends the INIT frame, and then relays
// commands until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.lg.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	id := uuid.NewString()

	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	h.lg.Info("dashboard connected", "id", id, "remote", r.RemoteAddr)

	if frame, err := h.initFrame(); err == nil {
		c.conn.WriteMessage(websocket.TextMessage, frame)
	} else {
		h.lg.Warn("building init frame", "error", err)
	}

	go h.writeLoop(c)
	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
	close(c.send)
	conn.Close()
	h.lg.Info("dashboard disconnected", "id", id)
}

// initFrame builds the first message a new client receives: the profile
// catalog, the manual selection if any, and the fields of the most recent
// result flattened in alongside them.
func (h *Hub) initFrame() ([]byte, error) {
	frame := map[string]json.RawMessage{}
	if last, ok := h.engine.LastResult(); ok {
		raw, err := json.Marshal(last)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, err
		}
	}

	cat := h.engine.Catalog()
	infos := []profileInfo{}
	for _, p := range cat.Profiles() {
		infos = append(infos, profileInfo{ID: p.ID, Name: p.Name, Unit: p.Unit()})
	}

	merge := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		frame[key] = raw
		return nil
	}
	if err := merge("type", "INIT"); err != nil {
		return nil, err
	}
	if err := merge("available_profiles", infos); err != nil {
		return nil, err
	}
	activeID := ""
	if manual := cat.Manual(); manual != nil {
		activeID = manual.ID
	}
	if err := merge("active_profile", activeID); err != nil {
		return nil, err
	}
	if err := merge("isConnected", true); err != nil {
		return nil, err
	}
	return json.Marshal(frame)
}

func (h *Hub) writeLoop(c *client) {
	for frame := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}

// command is an inbound control message from a dashboard.
type command struct {
	Type      string   `json:"type"`
	ProfileID string   `json:"profile_id,omitempty"`
	LimitMPH  *float64 `json:"limit_mph,omitempty"`
	LengthM   *float64 `json:"length_m,omitempty"`
}

func (h *Hub) readLoop(c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			h.lg.Warn("bad dashboard command", "error", err)
			continue
		}
		h.apply(cmd)
	}
}

func (h *Hub) apply(cmd command) {
	switch cmd.Type {
	case "select_profile":
		if err := h.engine.SelectProfile(cmd.ProfileID); err != nil {
			h.lg.Warn("profile selection rejected", "id", cmd.ProfileID, "error", err)
		}
	case "set_limit_override":
		if cmd.LimitMPH == nil {
			h.engine.ClearLimitOverride()
		} else {
			h.engine.SetLimitOverride(*cmd.LimitMPH)
		}
	case "clear_limit_override":
		h.engine.ClearLimitOverride()
	case "set_train_length":
		if cmd.LengthM != nil {
			h.engine.SetTrainLength(*cmd.LengthM)
		}
	default:
		h.lg.Warn("unknown dashboard command", "type", cmd.Type)
	}
}

// Broadcast sends an interpreted result to every connected dashboard.
func (h *Hub) Broadcast(res pipeline.Result) {
	frame, err := json.Marshal(res)
	if err != nil {
		h.lg.Error("marshaling result", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- frame:
		default:
			// Behind by sendBuffer frames; drop this one for them.
		}
	}
}

// ClientCount reports the number of connected dashboards.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
