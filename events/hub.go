package events

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	clientBuffer = 256
	writeTimeout = 5 * time.Second
)

// Hub broadcasts events as JSON to connected websocket clients. Clients that
// connect mid-run first receive the latest event of every flight.
type Hub struct {
	logger   *zap.SugaredLogger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*hubClient]struct{}
	latest  map[string]Event
	closed  bool

	server   *http.Server
	listener net.Listener
}

type hubClient struct {
	conn *websocket.Conn
	send chan Event
	once sync.Once
}

func (c *hubClient) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// NewHub creates a hub without a listener. Use ServeHTTP directly or call Listen.
func NewHub(logger *zap.SugaredLogger) *Hub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local progress feed, any origin may watch
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*hubClient]struct{}),
		latest:  make(map[string]Event),
	}
}

// Listen serves the hub on addr at /events and returns the bound address
func (h *Hub) Listen(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}

	mux := http.NewServeMux()
	mux.Handle("/events", h)

	h.mu.Lock()
	h.listener = ln
	h.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	server := h.server
	h.mu.Unlock()

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Errorw("event hub stopped", "error", err)
		}
	}()

	h.logger.Infow("event hub listening", "addr", ln.Addr().String())
	return ln.Addr().String(), nil
}

// ServeHTTP upgrades the request and registers the connection as a client
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("failed to upgrade event client", "error", err)
		return
	}

	c := &hubClient{conn: conn, send: make(chan Event, clientBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	for _, e := range h.snapshotLocked() {
		c.send <- e
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debugw("event client connected", "remote", r.RemoteAddr)

	go h.writeLoop(c)
	go h.readLoop(c)
}

// snapshotLocked returns the latest event per flight, capped to the client buffer
func (h *Hub) snapshotLocked() []Event {
	out := make([]Event, 0, len(h.latest))
	for _, e := range h.latest {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	if len(out) > clientBuffer {
		out = out[len(out)-clientBuffer:]
	}
	return out
}

func (h *Hub) writeLoop(c *hubClient) {
	defer c.conn.Close()
	for e := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(e); err != nil {
			h.logger.Debugw("failed to send event to client", "error", err)
			h.remove(c)
			// Drain so remove never races a blocked sender
			for range c.send {
			}
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

// readLoop discards client messages and notices disconnects
func (h *Hub) readLoop(c *hubClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}

// Publish sends an event to every client. Clients whose buffer is full miss it.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	h.latest[e.Key()] = e
	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			h.logger.Debugw("event client is slow, dropping event", "status", e.Status)
		}
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and stops the listener, if any
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	server := h.server
	h.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
