package game

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/playmatatu/billiards/internal/config"
)

type recordingPublisher struct {
	frames map[string][]TableSnapshot
	events int
}

func (p *recordingPublisher) PublishFrame(token string, snap TableSnapshot, events []Event) {
	if p.frames == nil {
		p.frames = make(map[string][]TableSnapshot)
	}
	p.frames[token] = append(p.frames[token], snap)
	p.events += len(events)
}

func TestCreateAndGetTable(t *testing.T) {
	tm := NewTableManager(nil, nil, &config.Config{MaxTables: 5})

	table, err := tm.CreateTable()
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if !strings.HasPrefix(table.ID, "table_") || len(table.Token) != 32 {
		t.Errorf("id=%q token=%q", table.ID, table.Token)
	}

	got, err := tm.GetTableByToken(table.Token)
	if err != nil || got != table {
		t.Fatalf("GetTableByToken = %v, %v", got, err)
	}
	if _, err := tm.GetTableByToken("nope"); err != ErrTableNotFound {
		t.Errorf("err = %v, want ErrTableNotFound", err)
	}
}

func TestCreateTableEnforcesLimit(t *testing.T) {
	tm := NewTableManager(nil, nil, &config.Config{MaxTables: 2})

	first, _ := tm.CreateTable()
	if _, err := tm.CreateTable(); err != nil {
		t.Fatal(err)
	}
	if _, err := tm.CreateTable(); err != ErrTableLimit {
		t.Fatalf("err = %v, want ErrTableLimit", err)
	}

	if err := tm.CloseTable(first.Token, "test"); err != nil {
		t.Fatal(err)
	}
	if _, err := tm.CreateTable(); err != nil {
		t.Errorf("closing a table should free a slot: %v", err)
	}
}

func TestCloseTable(t *testing.T) {
	tm := NewTableManager(nil, nil, nil)
	table, _ := tm.CreateTable()

	if err := tm.CloseTable(table.Token, "admin"); err != nil {
		t.Fatal(err)
	}
	if table.IsActive() {
		t.Error("closed table still active")
	}
	if tm.GetActiveTableCount() != 0 || len(tm.ActiveTables()) != 0 {
		t.Error("closed table still listed")
	}
	if err := tm.CloseTable(table.Token, "admin"); err != ErrTableNotFound {
		t.Errorf("second close err = %v", err)
	}
}

func TestCloseIdleTables(t *testing.T) {
	tm := NewTableManager(nil, nil, nil)
	idle, _ := tm.CreateTable()
	busy, _ := tm.CreateTable()
	fresh, _ := tm.CreateTable()

	if _, err := busy.Shoot(math.Pi/2, MaxCueOffset); err != nil {
		t.Fatal(err)
	}

	later := time.Now().Add(time.Hour)
	fresh.Aim(0.1)
	fresh.mu.Lock()
	fresh.LastActivity = later
	fresh.mu.Unlock()

	closed := tm.CloseIdleTables(later, 10*time.Minute)

	if len(closed) != 1 || closed[0] != idle.Token {
		t.Fatalf("closed = %v, want only %s", closed, idle.Token)
	}
	if !busy.IsActive() || !fresh.IsActive() {
		t.Error("busy or fresh table was closed")
	}
}

func TestSimulatorPublishesUntilSettled(t *testing.T) {
	tm := NewTableManager(nil, nil, nil)
	pub := &recordingPublisher{}
	sim := NewSimulator(tm, pub, 60)

	still, _ := tm.CreateTable()
	table, _ := tm.CreateTable()
	if _, err := table.Shoot(math.Pi/2, MaxCueOffset); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 20000 && table.NeedsStep(); i++ {
		sim.Tick(frameDT)
	}

	frames := pub.frames[table.Token]
	if len(frames) == 0 {
		t.Fatal("no frames published")
	}
	last := frames[len(frames)-1]
	if last.Moving || last.Cue.State != Aiming {
		t.Errorf("last frame should be the settled table: %+v", last.Cue)
	}
	if pub.events == 0 {
		t.Error("break produced no collision events")
	}
	if len(pub.frames[still.Token]) != 0 {
		t.Error("resting table should not publish")
	}
	if len(sim.pending) != 0 {
		t.Error("pending events not flushed on settle")
	}
	if sim.Tick(frameDT) != 0 {
		t.Error("tick on resting tables should publish nothing")
	}
}

func TestSimulatorFlushesTableClosedMidShot(t *testing.T) {
	tm := NewTableManager(nil, nil, nil)
	sim := NewSimulator(tm, &recordingPublisher{}, 60)

	table, _ := tm.CreateTable()
	if _, err := table.Shoot(math.Pi/2, MaxCueOffset); err != nil {
		t.Fatal(err)
	}

	// run until the break has produced collisions but is still rolling
	for i := 0; i < 2000 && len(sim.pending) == 0; i++ {
		sim.Tick(frameDT)
	}
	if len(sim.pending) == 0 || !table.IsMoving() {
		t.Fatal("expected buffered events while the break is rolling")
	}

	if err := tm.CloseTable(table.Token, "admin"); err != nil {
		t.Fatal(err)
	}
	sim.Tick(frameDT)

	if len(sim.pending) != 0 {
		t.Errorf("pending events for closed table not flushed: %d tables", len(sim.pending))
	}
}

type closedRecorder struct {
	closed chan string
}

func (r *closedRecorder) TableClosed(token, reason string) {
	r.closed <- token
}

func backdate(table *TableSession, d time.Duration) {
	table.mu.Lock()
	table.LastActivity = time.Now().Add(-d)
	table.mu.Unlock()
}

func TestIdlePassUsesCurrentTimeout(t *testing.T) {
	cfg := &config.Config{TableIdleSeconds: 900}
	tm := NewTableManager(nil, nil, cfg)
	rec := &closedRecorder{closed: make(chan string, 4)}

	table, _ := tm.CreateTable()
	backdate(table, 10*time.Second)

	if closed := runIdlePass(context.Background(), tm, nil, cfg, rec); len(closed) != 0 {
		t.Fatalf("closed %v under a 900s timeout", closed)
	}

	cfg.Update(func(c *config.Config) { c.TableIdleSeconds = 1 })

	closed := runIdlePass(context.Background(), tm, nil, cfg, rec)
	if len(closed) != 1 || closed[0] != table.Token {
		t.Fatalf("closed = %v, want %s", closed, table.Token)
	}
	if got := <-rec.closed; got != table.Token {
		t.Errorf("notified %s", got)
	}
}

func TestIdleWorkerPicksUpLoweredTimeout(t *testing.T) {
	cfg := &config.Config{TableIdleSeconds: 900, IdleWorkerPollInterval: 1}
	tm := NewTableManager(nil, nil, cfg)
	rec := &closedRecorder{closed: make(chan string, 4)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartIdleWorker(ctx, tm, nil, cfg, rec)

	table, _ := tm.CreateTable()
	backdate(table, 10*time.Second)

	// the worker is already running when the timeout drops
	cfg.Update(func(c *config.Config) { c.TableIdleSeconds = 1 })

	select {
	case got := <-rec.closed:
		if got != table.Token {
			t.Errorf("closed %s, want %s", got, table.Token)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("idle table not closed after lowering the timeout")
	}
	if table.IsActive() {
		t.Error("table still active")
	}
}

func TestCreateTableWhileConfigChanges(t *testing.T) {
	cfg := &config.Config{MaxTables: 1000}
	tm := NewTableManager(nil, nil, cfg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			cfg.Update(func(c *config.Config) {
				c.MaxTables = 1000 + i
				c.TableIdleSeconds = i
			})
		}
	}()
	for i := 0; i < 200; i++ {
		if _, err := tm.CreateTable(); err != nil {
			t.Fatal(err)
		}
	}
	<-done
}
