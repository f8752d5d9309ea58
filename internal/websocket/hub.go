package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"transport-ops-backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	clientSendSize = 16
)

// Hub streams persisted alerts to connected dashboard clients. It is the
// live counterpart of the push notification channel: policy-routed pushes
// go to devices, the hub feeds whoever has the dashboard open.
type Hub struct {
	upgrader   websocket.Upgrader
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once
	count      atomic.Int64
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type streamEvent struct {
	Type string        `json:"type"`
	Data *models.Alert `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop; call once at process init.
func (h *Hub) Start() {
	go h.run()
}

// Stop disconnects all clients and ends the loop. Safe to call repeatedly.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.count.Store(int64(len(h.clients)))
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			h.count.Store(int64(len(h.clients)))
		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// slow consumer, drop it
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.count.Store(int64(len(h.clients)))
		case <-h.done:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.count.Store(0)
			return
		}
	}
}

// BroadcastAlert fans a persisted alert out to every connected client. It
// never blocks the caller: with no room in the buffer the event is dropped.
func (h *Hub) BroadcastAlert(alert *models.Alert) {
	payload, err := json.Marshal(streamEvent{Type: "alert", Data: alert})
	if err != nil {
		log.Printf("ws: failed to marshal alert %s: %v", alert.ID.Hex(), err)
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.done:
	default:
		log.Println("ws: broadcast buffer full, dropping alert event")
	}
}

// ClientCount reports connected clients; used by the health endpoint.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Handle upgrades an HTTP request to a streaming connection.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, clientSendSize),
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

func (c *client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}

	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains incoming frames so close/ping handling works, and
// unregisters the client when the connection drops.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
