package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"lab-checkout/internal/domain/access"
	"lab-checkout/internal/domain/user"
	"lab-checkout/internal/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Hub streams events to connected websocket clients. A client that cannot
// keep up with its send buffer is disconnected. Clients below the elevated
// tier see only what the computer list shows them; see visibleTo.
type Hub struct {
	mu       sync.Mutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
}

type wsClient struct {
	conn     *websocket.Conn
	send     chan []byte
	viewerID string
	elevated bool
}

// NewHub accepts connections from allowedOrigins, or from the serving host
// only when the list is empty. "*" allows any origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{clients: make(map[*wsClient]struct{})}
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
			return origin == "" || allowed["*"] || allowed[origin]
		}
	}
	return h
}

func (h *Hub) Publish(_ context.Context, e Event) error {
	full, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		msg := full
		if !c.elevated {
			scoped, ok := visibleTo(e, c.viewerID)
			if !ok {
				continue
			}
			if scoped != e {
				if msg, err = json.Marshal(scoped); err != nil {
					return fmt.Errorf("failed to encode event: %w", err)
				}
			}
		}
		select {
		case c.send <- msg:
		default:
			h.dropLocked(c)
		}
	}
	return nil
}

// visibleTo scopes e for a non-elevated viewer. Reservation changes go out
// with other people's ids removed, since the list hides who held a machine.
// Everything else reaches the viewer only when it is about them.
func visibleTo(e Event, viewerID string) (Event, bool) {
	switch e.Type {
	case ComputerCheckedOut, ComputerCheckedIn, ReservationExtended, ComputerMadeAvailable:
		if e.UserID != viewerID {
			e.UserID, e.ActorID = "", ""
		}
		return e, true
	default:
		return e, e.UserID != "" && e.UserID == viewerID
	}
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and blocks until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, viewer *user.Viewer) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %w", err)
	}

	c := &wsClient{
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		viewerID: viewer.ID,
		elevated: access.CanSeeAllDeviceStates(viewer.Role),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	logger.Debug("Event stream opened", zap.String("user_id", viewer.ID), zap.Bool("elevated", c.elevated))

	go h.writePump(c)
	h.readPump(c)
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
}

func (h *Hub) dropLocked(c *wsClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.mu.Lock()
		h.dropLocked(c)
		h.mu.Unlock()
		_ = c.conn.Close()
		logger.Debug("Event stream closed", zap.String("user_id", c.viewerID))
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
