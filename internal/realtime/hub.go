// Package realtime fans typed envelopes out to connected websocket peers.
// Delivery is best effort: no ordering, persistence or acknowledgement.
package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	EnvelopeChat    = "chat"
	EnvelopeMessage = "message"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 32
)

// Envelope is the wire frame: {"type": ..., "payload": ...}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type peer struct {
	id     string
	userID int64
	conn   *websocket.Conn
	send   chan []byte
}

type Hub struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	peers map[*peer]struct{}
}

// NewHub accepts upgrades from the given origins; with none, only same-host requests are allowed.
func NewHub(allowedOrigins ...string) *Hub {
	h := &Hub{peers: make(map[*peer]struct{})}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if len(allowedOrigins) > 0 {
		allowed := make(map[string]bool, len(allowedOrigins))
		for _, o := range allowedOrigins {
			allowed[o] = true
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		}
	}
	return h
}

// PublishTo marshals payload into an envelope of the given type and sends it to
// the listed users only.
func (h *Hub) PublishTo(envelopeType string, payload any, userIDs ...int64) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", envelopeType, err)
	}
	return h.SendTo(Envelope{Type: envelopeType, Payload: raw}, userIDs...)
}

// SendTo queues env for every connection of the listed users. Anonymous peers
// (user id 0) never match.
func (h *Hub) SendTo(env Envelope, userIDs ...int64) error {
	frame, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	targets := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		if id != 0 {
			targets[id] = true
		}
	}
	if len(targets) == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for p := range h.peers {
		if targets[p.userID] {
			h.queueLocked(p, frame)
		}
	}
	return nil
}

// Broadcast queues env for every peer. Only relayed chat frames go through here.
func (h *Hub) Broadcast(env Envelope) error {
	frame, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for p := range h.peers {
		h.queueLocked(p, frame)
	}
	return nil
}

// queueLocked drops peers whose buffer is full.
func (h *Hub) queueLocked(p *peer, frame []byte) {
	select {
	case p.send <- frame:
	default:
		slog.Warn("dropping slow websocket peer", "conn_id", p.id, "user_id", p.userID)
		h.removeLocked(p)
	}
}

// Count returns the number of connected peers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Close disconnects every peer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.peers {
		h.removeLocked(p)
	}
}

// ServeWS upgrades the request and pumps frames until the peer disconnects.
// userID is 0 for anonymous peers.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	p := &peer{id: uuid.NewString(), userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()

	slog.Debug("websocket peer connected", "conn_id", p.id, "user_id", userID)

	go h.writePump(p)
	h.readPump(p)
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(p)
}

func (h *Hub) removeLocked(p *peer) {
	if _, ok := h.peers[p]; !ok {
		return
	}
	delete(h.peers, p)
	close(p.send)
}

func (h *Hub) readPump(p *peer) {
	defer func() {
		h.remove(p)
		_ = p.conn.Close()
		slog.Debug("websocket peer disconnected", "conn_id", p.id, "user_id", p.userID)
	}()

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "error", err, "conn_id", p.id, "user_id", p.userID)
			}
			return
		}

		var env Envelope
		err = json.Unmarshal(data, &env)
		if err != nil {
			slog.Debug("dropping malformed websocket frame", "error", err, "user_id", p.userID)
			continue
		}

		switch env.Type {
		case EnvelopeChat:
			err = h.Broadcast(env)
			if err != nil {
				slog.Warn("chat rebroadcast failed", "error", err)
			}
		default:
			slog.Debug("dropping websocket frame", "type", env.Type, "user_id", p.userID)
		}
	}
}

func (h *Hub) writePump(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			err := p.conn.WriteMessage(websocket.TextMessage, frame)
			if err != nil {
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := p.conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				return
			}
		}
	}
}
