package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/game"
)

func newTestRouter(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Environment:          "production",
		JWTSecret:            "test-secret",
		TableTokenTTLMinutes: 60,
		SimTickRate:          60,
	}
	game.InitializeManager(nil, nil, cfg)

	router := gin.New()
	SetupRoutes(router, nil, nil, cfg)
	return router, cfg
}

func doJSON(router *gin.Engine, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad json %q: %v", w.Body.String(), err)
	}
	return out
}

type createdTable struct {
	Table struct {
		Token string `json:"token"`
	} `json:"table"`
	PlayerToken string `json:"player_token"`
}

func createTable(t *testing.T, router *gin.Engine) createdTable {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/v1/tables", "", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	var out createdTable
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Table.Token == "" || out.PlayerToken == "" {
		t.Fatalf("create response missing tokens: %s", w.Body.String())
	}
	return out
}

func TestHealthAndConfig(t *testing.T) {
	router, _ := newTestRouter(t)
	createTable(t, router)

	w := doJSON(router, http.MethodGet, "/api/v1/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}
	if got := decode(t, w)["active_tables"]; got != float64(1) {
		t.Errorf("active_tables = %v", got)
	}

	w = doJSON(router, http.MethodGet, "/api/v1/config", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("config = %d", w.Code)
	}
	body := decode(t, w)
	if body["ball_radius"] != game.BallRadius || body["tick_rate"] != float64(60) {
		t.Errorf("config = %v", body)
	}
	if pockets, _ := body["pockets"].([]interface{}); len(pockets) != 6 {
		t.Errorf("pockets = %v", body["pockets"])
	}
}

func TestTableLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)
	tbl := createTable(t, router)
	base := "/api/v1/tables/" + tbl.Table.Token

	w := doJSON(router, http.MethodGet, base, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}

	w = doJSON(router, http.MethodPost, base+"/aim", tbl.PlayerToken, map[string]float64{"angle": 1.2})
	if w.Code != http.StatusOK {
		t.Fatalf("aim = %d %s", w.Code, w.Body.String())
	}

	w = doJSON(router, http.MethodPost, base+"/aim", tbl.PlayerToken, map[string]float64{"x": 1, "z": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("aim at = %d %s", w.Code, w.Body.String())
	}

	w = doJSON(router, http.MethodPost, base+"/aim", tbl.PlayerToken, map[string]float64{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty aim = %d", w.Code)
	}

	w = doJSON(router, http.MethodPost, base+"/charge", tbl.PlayerToken, map[string]float64{"offset": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("charge = %d %s", w.Code, w.Body.String())
	}

	w = doJSON(router, http.MethodPost, base+"/charge", tbl.PlayerToken, map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("charge without offset = %d", w.Code)
	}

	// 120px drag at 0.01 per pixel
	w = doJSON(router, http.MethodPost, base+"/charge", tbl.PlayerToken, map[string]float64{"dx": 0, "dy": 120})
	if w.Code != http.StatusOK {
		t.Fatalf("drag charge = %d %s", w.Code, w.Body.String())
	}
	table, _ := decode(t, w)["table"].(map[string]interface{})
	cue, _ := table["cue"].(map[string]interface{})
	if offset, _ := cue["offset"].(float64); math.Abs(offset-1.2) > 1e-9 {
		t.Errorf("drag offset = %v, want 1.2", cue["offset"])
	}

	w = doJSON(router, http.MethodPost, base+"/shoot", tbl.PlayerToken, map[string]float64{"angle": 0, "offset": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("shoot = %d %s", w.Code, w.Body.String())
	}
	if n := decode(t, w)["shot_number"]; n != float64(1) {
		t.Errorf("shot_number = %v", n)
	}

	w = doJSON(router, http.MethodPost, base+"/shoot", tbl.PlayerToken, map[string]float64{"angle": 0, "offset": 1})
	if w.Code != http.StatusConflict {
		t.Errorf("shot in flight = %d", w.Code)
	}

	w = doJSON(router, http.MethodPost, base+"/rack", tbl.PlayerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rack = %d", w.Code)
	}
	table, _ = decode(t, w)["table"].(map[string]interface{})
	if table["shot_number"] != float64(0) || table["total_shots"] != float64(1) {
		t.Errorf("rack counters = %v / %v", table["shot_number"], table["total_shots"])
	}
}

func TestCueInputNeedsPlayerToken(t *testing.T) {
	router, cfg := newTestRouter(t)
	tbl := createTable(t, router)
	base := "/api/v1/tables/" + tbl.Table.Token

	w := doJSON(router, http.MethodPost, base+"/aim", "", map[string]float64{"angle": 1})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d", w.Code)
	}

	w = doJSON(router, http.MethodPost, base+"/aim", "garbage", map[string]float64{"angle": 1})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token = %d", w.Code)
	}

	other, _, err := auth.IssueTableToken(cfg.JWTSecret, "someone-else", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	w = doJSON(router, http.MethodPost, base+"/aim", other, map[string]float64{"angle": 1})
	if w.Code != http.StatusForbidden {
		t.Errorf("wrong table = %d", w.Code)
	}
}

func TestMissingAndClosedTables(t *testing.T) {
	router, cfg := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/tables/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing table = %d", w.Code)
	}

	// a valid token for a table that does not exist
	pt, _, _ := auth.IssueTableToken(cfg.JWTSecret, "nope", time.Hour)
	w = doJSON(router, http.MethodPost, "/api/v1/tables/nope/rack", pt, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("rack missing table = %d", w.Code)
	}

	tbl := createTable(t, router)
	if err := game.Manager.CloseTable(tbl.Table.Token, "test"); err != nil {
		t.Fatal(err)
	}
	w = doJSON(router, http.MethodGet, "/api/v1/tables/"+tbl.Table.Token, "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("closed table = %d", w.Code)
	}
}

func TestTableLimit(t *testing.T) {
	router, cfg := newTestRouter(t)
	cfg.Update(func(c *config.Config) { c.MaxTables = 1 })
	createTable(t, router)

	w := doJSON(router, http.MethodPost, "/api/v1/tables", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("over limit = %d", w.Code)
	}
}

func TestShotHistoryWithoutDatabase(t *testing.T) {
	router, _ := newTestRouter(t)
	tbl := createTable(t, router)

	w := doJSON(router, http.MethodGet, "/api/v1/tables/"+tbl.Table.Token+"/shots", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("shots = %d", w.Code)
	}
}

func TestAdminRoutesNeedSession(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/admin/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no cookie = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/tables", nil)
	req.AddCookie(&http.Cookie{Name: "admin_session", Value: "abc"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("no session store = %d", rec.Code)
	}

	w = doJSON(router, http.MethodPost, "/api/v1/admin/login", "", map[string]string{"phone": "0700000000"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("login without token = %d", w.Code)
	}

	w = doJSON(router, http.MethodPost, "/api/v1/admin/logout", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("logout = %d", w.Code)
	}
}
