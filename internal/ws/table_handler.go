package ws

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/game"
)

// Table message data types
type AimData struct {
	Angle float64 `json:"angle"`
}

type AimAtData struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// ChargeData carries either an offset or a pointer drag in pixels.
type ChargeData struct {
	Offset *float64 `json:"offset"`
	DX     *float64 `json:"dx"`
	DY     *float64 `json:"dy"`
}

type ShootData struct {
	Angle  float64 `json:"angle"`
	Offset float64 `json:"offset"`
}

// TableHub is the single hub for all tables.
var TableHub *Hub

func init() {
	TableHub = NewHub()
	go runTableHub(TableHub)
}

func newClientID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "c_" + hex.EncodeToString(b)
}

// HandleWebSocket upgrades a table watcher. A valid player token in ?pt=
// lets the client drive the cue; without one it only receives frames.
func HandleWebSocket(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tableToken := c.Param("token")

		if game.Manager == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Tables unavailable"})
			return
		}
		t, err := game.Manager.GetTableByToken(tableToken)
		if err != nil || !t.IsActive() {
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
			return
		}

		player := false
		if pt := c.Query("pt"); pt != "" {
			if err := auth.AuthorizeTable(cfg.JWTSecret, pt, tableToken); err != nil {
				c.JSON(http.StatusForbidden, gin.H{"error": "invalid player token"})
				return
			}
			player = true
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			conn:       conn,
			id:         newClientID(),
			tableToken: tableToken,
			player:     player,
			send:       make(chan []byte, 256),
		}

		TableHub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

// runTableHub serialises joins and leaves.
func runTableHub(h *Hub) {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
			log.Printf("[WS] Client %s joined table %s (player=%v, room_size=%d)", client.id, client.tableToken, client.player, h.RoomSize(client.tableToken))

			if game.Manager == nil {
				continue
			}
			if t, err := game.Manager.GetTableByToken(client.tableToken); err == nil {
				h.SendToClient(client.id, map[string]interface{}{
					"type":  "table_state",
					"table": t.Snapshot(),
				})
			}

		case client := <-h.unregister:
			if h.removeClient(client) {
				log.Printf("[WS] Client %s left table %s", client.id, client.tableToken)
			}
		}
	}
}

// readPump reads cue input from the client.
func (c *Client) readPump() {
	defer func() {
		TableHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(8192)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close for client %s: %v", c.id, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}

		c.handleMessage(TableHub, msg)
	}
}

// handleMessage processes one incoming table message.
func (c *Client) handleMessage(h *Hub, msg WSMessage) {
	if game.Manager == nil {
		c.sendError("Tables unavailable")
		return
	}
	t, err := game.Manager.GetTableByToken(c.tableToken)
	if err != nil {
		c.sendError("Table not found")
		return
	}

	if msg.Type == "get_state" {
		c.sendJSON(map[string]interface{}{"type": "table_state", "table": t.Snapshot()})
		return
	}

	if !c.player {
		c.sendError("Spectators cannot control the cue")
		return
	}

	switch msg.Type {
	case "aim":
		var data AimData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid aim data")
			return
		}
		err = t.Aim(data.Angle)

	case "aim_at":
		var data AimAtData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid aim data")
			return
		}
		err = t.AimAt(data.X, data.Z)

	case "charge":
		var data ChargeData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid charge data")
			return
		}
		switch {
		case data.Offset != nil:
			err = t.Charge(*data.Offset)
		case data.DX != nil && data.DY != nil:
			err = t.ChargeFromDrag(*data.DX, *data.DY)
		default:
			c.sendError("offset or dx/dy is required")
			return
		}

	case "shoot":
		var data ShootData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid shot data")
			return
		}
		c.handleShoot(h, t, data)
		return

	case "rack":
		err = t.Rack()

	default:
		c.sendError("Unknown message type")
		return
	}

	if err != nil {
		c.sendError(err.Error())
		return
	}

	game.Manager.TouchTable(t)
	// spectators follow the cue while the player aims
	h.BroadcastToTable(c.tableToken, map[string]interface{}{
		"type":  "cue_update",
		"table": t.Snapshot(),
	})
}

func (c *Client) handleShoot(h *Hub, t *game.TableSession, data ShootData) {
	shot, err := t.Shoot(data.Angle, data.Offset)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	game.Manager.RecordShot(t, shot)

	h.BroadcastToTable(c.tableToken, map[string]interface{}{
		"type":        "shot",
		"shot":        shot,
		"shot_number": t.Snapshot().ShotNumber,
	})
}
