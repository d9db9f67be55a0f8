package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/game"
)

func newTestClient(id, table string, player bool) *Client {
	return &Client{id: id, tableToken: table, player: player, send: make(chan []byte, 8)}
}

func readMessage(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.send:
		var msg map[string]interface{}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad json: %v", err)
		}
		return msg
	default:
		t.Fatalf("no message for %s", c.id)
		return nil
	}
}

func TestBroadcastStaysInRoom(t *testing.T) {
	h := NewHub()
	a := newTestClient("a", "t1", true)
	b := newTestClient("b", "t1", false)
	other := newTestClient("c", "t2", false)
	h.addClient(a)
	h.addClient(b)
	h.addClient(other)

	h.BroadcastToTable("t1", map[string]interface{}{"type": "ping"})

	if readMessage(t, a)["type"] != "ping" || readMessage(t, b)["type"] != "ping" {
		t.Error("room members should receive the broadcast")
	}
	if len(other.send) != 0 {
		t.Error("other table received the broadcast")
	}
}

func TestRemoveClientCleansRoom(t *testing.T) {
	h := NewHub()
	a := newTestClient("a", "t1", true)
	h.addClient(a)

	if !h.removeClient(a) {
		t.Fatal("remove failed")
	}
	if h.RoomSize("t1") != 0 {
		t.Error("room not emptied")
	}
	if _, ok := <-a.send; ok {
		t.Error("send channel should be closed")
	}
	if h.removeClient(a) {
		t.Error("second remove should be a no-op")
	}
}

func TestPublishFrame(t *testing.T) {
	h := NewHub()
	a := newTestClient("a", "t1", false)
	h.addClient(a)

	snap := game.NewTableSession("table_x", "t1").Snapshot()
	h.PublishFrame("t1", snap, []game.Event{{Type: game.EventWall, BallID: 0, TargetID: 2}})

	msg := readMessage(t, a)
	if msg["type"] != "frame" {
		t.Fatalf("type = %v", msg["type"])
	}
	events, _ := msg["events"].([]interface{})
	if len(events) != 1 {
		t.Errorf("events = %v", msg["events"])
	}
	table, _ := msg["table"].(map[string]interface{})
	if balls, _ := table["balls"].([]interface{}); len(balls) != game.NumBalls {
		t.Errorf("balls = %d", len(balls))
	}

	// empty rooms are skipped
	h.PublishFrame("nobody", snap, nil)
}

func TestHandleTableEvent(t *testing.T) {
	h := NewHub()
	a := newTestClient("a", "t1", false)
	h.addClient(a)

	handleTableEvent(h, `{"type":"table_closed","table_token":"t1","reason":"idle"}`)
	msg := readMessage(t, a)
	if msg["type"] != "table_closed" || msg["reason"] != "idle" {
		t.Errorf("msg = %v", msg)
	}

	handleTableEvent(h, `not json`)
	handleTableEvent(h, `{"type":"table_closed"}`)
	if len(a.send) != 0 {
		t.Error("malformed events should be dropped")
	}
}

func TestHandleMessage(t *testing.T) {
	game.InitializeManager(nil, nil, &config.Config{})
	table, err := game.Manager.CreateTable()
	if err != nil {
		t.Fatal(err)
	}

	h := NewHub()
	player := newTestClient("p", table.Token, true)
	spectator := newTestClient("s", table.Token, false)
	h.addClient(player)
	h.addClient(spectator)

	spectator.handleMessage(h, WSMessage{Type: "aim", Data: json.RawMessage(`{"angle":1}`)})
	if msg := readMessage(t, spectator); msg["type"] != "error" {
		t.Errorf("spectator aim should be rejected, got %v", msg)
	}

	spectator.handleMessage(h, WSMessage{Type: "get_state"})
	if msg := readMessage(t, spectator); msg["type"] != "table_state" {
		t.Errorf("get_state = %v", msg)
	}

	player.handleMessage(h, WSMessage{Type: "aim", Data: json.RawMessage(`{"angle":1.5}`)})
	if msg := readMessage(t, spectator); msg["type"] != "cue_update" {
		t.Errorf("spectator should follow the cue, got %v", msg)
	}
	readMessage(t, player)

	player.handleMessage(h, WSMessage{Type: "charge", Data: json.RawMessage(`{"dx":30,"dy":40}`)})
	msg := readMessage(t, spectator)
	tableState, _ := msg["table"].(map[string]interface{})
	cue, _ := tableState["cue"].(map[string]interface{})
	if offset, _ := cue["offset"].(float64); offset < 0.4999 || offset > 0.5001 {
		t.Errorf("drag charge offset = %v, want 0.5", cue["offset"])
	}
	readMessage(t, player)

	player.handleMessage(h, WSMessage{Type: "charge", Data: json.RawMessage(`{}`)})
	if msg := readMessage(t, player); msg["type"] != "error" {
		t.Errorf("empty charge should error, got %v", msg)
	}

	player.handleMessage(h, WSMessage{Type: "shoot", Data: json.RawMessage(`{"angle":1.5,"offset":1}`)})
	if msg := readMessage(t, spectator); msg["type"] != "shot" {
		t.Errorf("shot broadcast = %v", msg)
	}
	readMessage(t, player)

	player.handleMessage(h, WSMessage{Type: "shoot", Data: json.RawMessage(`{"angle":0,"offset":1}`)})
	if msg := readMessage(t, player); msg["type"] != "error" {
		t.Errorf("shot in flight should error, got %v", msg)
	}

	player.handleMessage(h, WSMessage{Type: "dance"})
	if msg := readMessage(t, player); msg["type"] != "error" {
		t.Errorf("unknown type should error, got %v", msg)
	}
}

func TestNoManagerIsUnavailable(t *testing.T) {
	saved := game.Manager
	game.Manager = nil
	defer func() { game.Manager = saved }()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/tables/:token/ws", HandleWebSocket(&config.Config{JWTSecret: "s"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tables/abc/ws", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}

	c := newTestClient("a", "abc", true)
	c.handleMessage(NewHub(), WSMessage{Type: "get_state"})
	if msg := readMessage(t, c); msg["type"] != "error" {
		t.Errorf("message without manager = %v", msg)
	}
}
