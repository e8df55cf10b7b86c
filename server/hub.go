package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Blessan-Alex/MalRag/core"
)

const (
	writeWait       = 10 * time.Second
	broadcastBuffer = 256
)

type jobUpdateMessage struct {
	Type string   `json:"type"`
	Job  core.Job `json:"job"`
}

type initialJobsMessage struct {
	Type string     `json:"type"`
	Jobs []core.Job `json:"jobs"`
}

// Hub fans job updates out to websocket clients. A new client first
// receives a snapshot of every job and then each update published after it.
type Hub struct {
	snapshot   func() []core.Job
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn

	// Overflow when broadcast is full: latest update per job, flushed by
	// the loop in first-seen order.
	pendingMu sync.Mutex
	pending   map[string][]byte
	order     []string
	flush     chan struct{}

	unregister chan *websocket.Conn
	done       chan struct{}
	once       sync.Once
	logger     *slog.Logger
}

// NewHub creates a hub that greets clients with the jobs returned by
// snapshot. Call Start before serving clients.
func NewHub(snapshot func() []core.Job, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		snapshot:   snapshot,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		pending:    make(map[string][]byte),
		flush:      make(chan struct{}, 1),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger.With("component", "ws-hub"),
	}
}

// Start runs the hub until ctx is cancelled.
func (h *Hub) Start(ctx context.Context) {
	go func() {
		defer h.shutdown()
		for {
			select {
			case <-ctx.Done():
				return
			case conn := <-h.register:
				// Greeting from the loop orders the snapshot before any
				// update the client will see.
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				err := conn.WriteJSON(initialJobsMessage{Type: "initial_jobs", Jobs: h.snapshot()})
				if err != nil {
					conn.Close()
					continue
				}
				h.clients[conn] = true
				h.logger.Debug("client connected", "clients", len(h.clients))
			case conn := <-h.unregister:
				if h.clients[conn] {
					delete(h.clients, conn)
					conn.Close()
				}
				h.logger.Debug("client disconnected", "clients", len(h.clients))
			case message := <-h.broadcast:
				h.send(message)
			case <-h.flush:
				h.flushPending()
			}
		}
	}()
}

func (h *Hub) send(message []byte) {
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Debug("dropping client after write error", "err", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// flushPending sends everything still queued in broadcast, which is older
// than any overflow entry, and then the overflow itself.
func (h *Hub) flushPending() {
drain:
	for {
		select {
		case message := <-h.broadcast:
			h.send(message)
		default:
			break drain
		}
	}

	h.pendingMu.Lock()
	pending, order := h.pending, h.order
	h.pending = make(map[string][]byte)
	h.order = nil
	h.pendingMu.Unlock()

	for _, id := range order {
		h.send(pending[id])
	}
}

func (h *Hub) shutdown() {
	h.once.Do(func() { close(h.done) })
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// Publish queues a job update for every client. It never blocks. When the
// queue is full only the latest update per job is kept until the hub
// catches up, so intermediate progress may be skipped but a job's final
// state always reaches clients. Publish is a jobs.Observer.
func (h *Hub) Publish(job core.Job) {
	data, err := json.Marshal(jobUpdateMessage{Type: "job_update", Job: job})
	if err != nil {
		h.logger.Error("failed to marshal job update", "err", err)
		return
	}

	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()
	if len(h.pending) == 0 {
		select {
		case h.broadcast <- data:
			return
		default:
			h.logger.Debug("broadcast queue full, coalescing job updates", "job_id", job.ID)
		}
	}
	if _, ok := h.pending[job.ID]; !ok {
		h.order = append(h.order, job.ID)
	}
	h.pending[job.ID] = data
	select {
	case h.flush <- struct{}{}:
	default:
	}
}

// Serve registers conn and blocks until the client goes away.
func (h *Hub) Serve(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	// Clients only listen; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}
