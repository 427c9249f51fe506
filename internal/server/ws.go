package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wavedeck/wavedeck/internal/track"
)

// broadcastBuffer is how many events may queue before Publish starts
// dropping.
const broadcastBuffer = 64

// Hub fans track events out to connected WebSocket clients. It implements
// track.Notifier: Publish never blocks, dropping events when the broadcast
// buffer is full.
type Hub struct {
	upgrader  websocket.Upgrader
	logger    *slog.Logger
	broadcast chan track.Event
	done      chan struct{}

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	closed  bool

	once sync.Once
}

var _ track.Notifier = (*Hub)(nil)

// NewHub creates a Hub and starts its broadcast loop.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the CORS middleware.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:    logger,
		broadcast: make(chan track.Event, broadcastBuffer),
		done:      make(chan struct{}),
		clients:   make(map[*websocket.Conn]bool),
	}
	go h.run()
	return h
}

// Publish queues an event for delivery to every connected client.
func (h *Hub) Publish(event track.Event) {
	select {
	case h.broadcast <- event:
	case <-h.done:
	default:
		h.logger.Warn("event dropped, broadcast buffer full",
			slog.String("type", string(event.Type)),
			slog.String("track_id", event.TrackID),
		)
	}
}

// ServeWS handles GET /ws requests, upgrading the connection and keeping it
// registered until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("error", err.Error()),
		)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", slog.Int("clients", count))

	// Drain the connection. Clients only listen, but reading is what
	// surfaces close frames and broken connections.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Shutdown stops the broadcast loop and disconnects every client.
func (h *Hub) Shutdown() {
	h.once.Do(func() {
		close(h.done)

		h.mu.Lock()
		h.closed = true
		conns := make([]*websocket.Conn, 0, len(h.clients))
		for conn := range h.clients {
			conns = append(conns, conn)
		}
		h.clients = make(map[*websocket.Conn]bool)
		h.mu.Unlock()

		deadline := time.Now().Add(time.Second)
		for _, conn := range conns {
			// WriteControl is safe alongside an in-flight broadcast write.
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), deadline)
			conn.Close()
		}
	})
}

// run delivers queued events until Shutdown.
func (h *Hub) run() {
	for {
		select {
		case event := <-h.broadcast:
			for _, conn := range h.snapshot() {
				if err := conn.WriteJSON(event); err != nil {
					h.logger.Debug("dropping websocket client",
						slog.String("error", err.Error()),
					)
					h.remove(conn)
				}
			}
		case <-h.done:
			return
		}
	}
}

// snapshot copies the client set so broadcasting happens outside the lock.
func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	return conns
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}
