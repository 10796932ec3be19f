package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
)

// Origins are checked by middleware.WebSocketCORSCheck before the upgrade.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the wire shape of every websocket message in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client is one websocket connection, subscribed to a single room.
type Client struct {
	conn *websocket.Conn
	room string
	send chan []byte
	done chan struct{}
	once sync.Once
	// onMessage receives decoded client messages; nil means inbound messages
	// are read and dropped.
	onMessage func(Message)
}

func newClient(conn *websocket.Conn, room string) *Client {
	return &Client{
		conn: conn,
		room: room,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// close stops the write pump. send is never closed, so late writers only
// need to watch done.
func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub tracks connected clients by room. Playback clients get a private room
// each; the live feed is one shared room.
type Hub struct {
	rooms      map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

// join registers c, reporting false when the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
		c.close()
	}
}

// Run serves register and unregister requests until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[c.room]; !ok {
				h.rooms[c.room] = make(map[*Client]struct{})
			}
			h.rooms[c.room][c] = struct{}{}
			size := len(h.rooms[c.room])
			h.mu.Unlock()
			log.Debugf("[WS] client joined room %s (room_size=%d)", c.room, size)

		case c := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[c.room]; ok {
				delete(room, c)
				if len(room) == 0 {
					delete(h.rooms, c.room)
				}
			}
			h.mu.Unlock()
			c.close()
			log.Debugf("[WS] client left room %s", c.room)

		case <-ctx.Done():
			close(h.quit)
			h.mu.Lock()
			for name, room := range h.rooms {
				for c := range room {
					c.close()
				}
				delete(h.rooms, name)
			}
			h.mu.Unlock()
			log.Info("[WS] hub stopped")
			return
		}
	}
}

// Broadcast sends message to every client in room. Slow clients whose buffer
// is full miss the message.
func (h *Hub) Broadcast(room string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Errorf("[WS] error marshaling message: %v", err)
		return
	}
	h.BroadcastRaw(room, data)
}

func (h *Hub) BroadcastRaw(room string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[room] {
		select {
		case c.send <- data:
		default:
			log.Warnf("[WS] send buffer full in room %s, dropping message", room)
		}
	}
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// writePump writes queued messages and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debugf("[WS] write error in room %s: %v", c.room, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debugf("[WS] ping error in room %s: %v", c.room, err)
				return
			}
		}
	}
}

// readPump reads until the connection drops, then unregisters the client.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("[WS] unexpected close in room %s: %v", c.room, err)
			}
			return
		}
		if c.onMessage == nil {
			continue
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.trySend(map[string]interface{}{"type": "error", "message": "invalid message"})
			continue
		}
		c.onMessage(msg)
	}
}

// trySend queues a message unless the buffer is full or the client is gone.
func (c *Client) trySend(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
	}
}

// sendWait queues a message, blocking until there is room. It reports false
// once the client is gone.
func (c *Client) sendWait(v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("[WS] error marshaling message: %v", err)
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	}
}
