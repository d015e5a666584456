package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrNoClients is returned when a popup has nobody to show it to.
	ErrNoClients = errors.New("no connected clients")
	// ErrBroadcastFull is returned when the broadcast buffer is saturated.
	ErrBroadcastFull = errors.New("broadcast channel full")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the app is served from a different origin in development
	},
}

// PopupEvent is an in-app reminder pushed to every open app window.
type PopupEvent struct {
	Type             string    `json:"type"` // "reminder"
	Title            string    `json:"title"`
	Body             string    `json:"body"`
	SubscriptionID   string    `json:"subscription_id"`
	SubscriptionName string    `json:"subscription_name"`
	DaysUntil        int       `json:"days_until"`
	Tag              string    `json:"tag"`
	Timestamp        time.Time `json:"timestamp"`
}

// Hub tracks connected app windows and fans popups out to them.
type Hub struct {
	clients    map[*client]struct{}
	mu         sync.RWMutex
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	logger     *slog.Logger

	// pending holds notices raised while nobody was connected, one per
	// type, until the next client registers. Guarded by mu.
	pending map[string][]byte
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		logger:     logger,
		pending:    make(map[string][]byte),
	}
}

// Run is the hub's event loop. Call it in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			total := len(h.clients)
			held := len(h.pending)
			for typ, message := range h.pending {
				c.send <- message
				delete(h.pending, typ)
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", "total_clients", total, "held_notices", held)

		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected", "total_clients", total)

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Slow client; drop it rather than stall every other window.
					h.remove(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues a popup for every connected client. It fails when nobody
// is connected, so the caller knows the popup was not shown.
func (h *Hub) Broadcast(event PopupEvent) error {
	if h.ClientCount() == 0 {
		return ErrNoClients
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- data:
		return nil
	default:
		h.logger.Warn("websocket broadcast channel full, dropping popup", "tag", event.Tag)
		return ErrBroadcastFull
	}
}

// Notify shows a notice to connected clients, or holds it for the next one
// to connect. A held notice replaces any earlier one of the same type.
// Reports whether the notice went out now.
func (h *Hub) Notify(event PopupEvent) (bool, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return false, err
	}

	h.mu.Lock()
	if len(h.clients) == 0 {
		h.pending[event.Type] = data
		h.mu.Unlock()
		return false, nil
	}
	h.mu.Unlock()

	select {
	case h.broadcast <- data:
		return true, nil
	default:
		h.logger.Warn("websocket broadcast channel full, dropping notice", "type", event.Type)
		return false, ErrBroadcastFull
	}
}

// PendingCount returns the number of notices waiting for a client.
func (h *Hub) PendingCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.pending)
}

// HandleWebSocket upgrades the request and registers the connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.register <- c

	go c.writePump()
	go c.readPump()
}

// readPump drains the connection so pongs and close frames are processed.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
