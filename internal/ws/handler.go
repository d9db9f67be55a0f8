package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/billiards/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are checked by middleware.WebSocketCORSCheck
	},
}

// Client represents a connected WebSocket client
type Client struct {
	conn       *websocket.Conn
	id         string
	tableToken string
	player     bool // holds a player token and may drive the cue
	send       chan []byte
}

// Hub maintains the set of active clients, grouped by table
type Hub struct {
	clients    map[string]*Client            // clientID -> Client
	tableRooms map[string]map[string]*Client // tableToken -> clientID -> Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		tableRooms: make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Message types
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.id] = client
	if _, exists := h.tableRooms[client.tableToken]; !exists {
		h.tableRooms[client.tableToken] = make(map[string]*Client)
	}
	h.tableRooms[client.tableToken][client.id] = client
}

func (h *Hub) removeClient(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur, ok := h.clients[client.id]
	if !ok || cur != client {
		return false
	}
	delete(h.clients, client.id)
	if room, exists := h.tableRooms[client.tableToken]; exists {
		delete(room, client.id)
		if len(room) == 0 {
			delete(h.tableRooms, client.tableToken)
		}
	}
	close(client.send)
	return true
}

// RoomSize returns how many clients watch a table
func (h *Hub) RoomSize(tableToken string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tableRooms[tableToken])
}

// BroadcastToTable sends a message to every client watching a table
func (h *Hub) BroadcastToTable(tableToken string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.tableRooms[tableToken] {
		select {
		case client.send <- data:
		default:
			// Client's buffer is full; the next frame supersedes this one
			log.Printf("[WS] Send buffer full for client %s on table %s, dropping message", client.id, tableToken)
		}
	}
}

// SendToClient sends a message to one client
func (h *Hub) SendToClient(clientID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, exists := h.clients[clientID]; exists {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] SendToClient dropped message for %s (buffer full)", clientID)
		}
	}
}

// PublishFrame forwards a simulated frame to the table's room.
func (h *Hub) PublishFrame(tableToken string, snap game.TableSnapshot, events []game.Event) {
	if h.RoomSize(tableToken) == 0 {
		return
	}
	h.BroadcastToTable(tableToken, map[string]interface{}{
		"type":   "frame",
		"table":  snap,
		"events": events,
	})
}

// TableClosed tells every client on the table that it is gone.
func (h *Hub) TableClosed(tableToken, reason string) {
	log.Printf("[WS] Table %s closed (%s), notifying %d clients", tableToken, reason, h.RoomSize(tableToken))
	h.BroadcastToTable(tableToken, map[string]interface{}{
		"type":    "table_closed",
		"reason":  reason,
		"message": "This table has been closed",
	})
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
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
				// Channel closed; best-effort close frame
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for client %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for client %s: %v", c.id, err)
				return
			}
		}
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}

func (c *Client) sendJSON(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] Dropped direct message for client %s (buffer full)", c.id)
	}
}
