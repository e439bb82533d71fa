package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/apexquant/topoarb/pkg/logger"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second

	equityHistoryLimit = 4096
	subscriberBuffer   = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub holds the latest evaluation snapshot and streams new ones to
// websocket subscribers. Slow subscribers are dropped rather than
// allowed to stall the publisher.
type Hub struct {
	logger *logger.Logger

	mu          sync.RWMutex
	latest      *StepSnapshot
	equity      []EquityTick
	subscribers map[*subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger:      log,
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Publish records a snapshot and broadcasts it.
func (h *Hub) Publish(snap *StepSnapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal snapshot")
		return
	}

	h.mu.Lock()
	h.latest = snap
	h.equity = append(h.equity, EquityTick{
		Timestamp: snap.Timestamp,
		Equity:    snap.Equity,
		Status:    snap.Status,
	})
	if len(h.equity) > equityHistoryLimit {
		h.equity = h.equity[len(h.equity)-equityHistoryLimit:]
	}

	for sub := range h.subscribers {
		select {
		case sub.send <- payload:
		default:
			delete(h.subscribers, sub)
			close(sub.send)
			h.logger.Warn("Dropped slow websocket subscriber")
		}
	}
	h.mu.Unlock()
}

// Latest returns the most recent snapshot, nil before the first step.
func (h *Hub) Latest() *StepSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// EquityHistory returns a copy of the recorded equity ticks.
func (h *Hub) EquityHistory() []EquityTick {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]EquityTick, len(h.equity))
	copy(out, h.equity)
	return out
}

// SubscriberCount reports currently attached websocket clients.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// HandleWS upgrades the request and streams snapshots until the client
// disconnects. The latest snapshot, when present, is sent immediately.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, subscriberBuffer)}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	if h.latest != nil {
		if payload, err := json.Marshal(h.latest); err == nil {
			sub.send <- payload
		}
	}
	h.mu.Unlock()

	go h.writeLoop(sub)
	h.readLoop(sub)
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so pongs and close frames are seen.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.detach(sub)

	sub.conn.SetReadLimit(512)
	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		sub.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) detach(sub *subscriber) {
	h.mu.Lock()
	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(sub.send)
	}
	h.mu.Unlock()
	sub.conn.Close()
}
