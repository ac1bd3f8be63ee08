// Package stream pushes committed account events to websocket clients.
package stream

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/efreitasn/simledger/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 64
	pingInterval = 45 * time.Second
	readTimeout  = 90 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(*http.Request) bool { return true },
	EnableCompression: true,
}

type client struct {
	conn      *websocket.Conn
	accountID string
	out       chan any
	done      chan struct{}
}

// Hub fans account events out to the websocket clients watching that
// account. Publishing never blocks: a client whose buffer is full misses
// the event.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Publish sends e to every client subscribed to e.AccountID.
func (h *Hub) Publish(e domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.accountID != e.AccountID {
			continue
		}
		select {
		case c.out <- e:
		default:
			h.logger.Warn("stream client too slow, event dropped",
				slog.String("account_id", e.AccountID),
				slog.String("event", e.Type),
			)
		}
	}
}

// Clients returns the number of clients watching accountID.
func (h *Hub) Clients(accountID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.clients {
		if c.accountID == accountID {
			n++
		}
	}
	return n
}

// Serve upgrades the request and streams accountID's events until the
// client disconnects. The client is registered before hello is called, so
// a snapshot taken by hello misses no event: anything committed after it
// is queued behind it. hello may be nil; a nil result sends nothing.
// Clients only receive; any inbound message other than control frames is
// ignored.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, accountID string, hello func() any) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	cl := &client{
		conn:      conn,
		accountID: accountID,
		out:       make(chan any, sendBuffer),
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, cl)
		h.mu.Unlock()
	}()

	// The write loop is not running yet, so this is the only writer.
	if hello != nil {
		if v := hello(); v != nil {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(v); err != nil {
				return
			}
		}
	}

	go h.writeLoop(cl)

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	close(cl.done)
}

func (h *Hub) writeLoop(cl *client) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case v := <-cl.out:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cl.conn.WriteJSON(v); err != nil {
				cl.conn.Close()
				return
			}
		case <-ping.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.conn.Close()
				return
			}
		case <-cl.done:
			return
		}
	}
}
