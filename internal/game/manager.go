package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/redis/go-redis/v9"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrTableLimit    = errors.New("table limit reached")
)

const (
	idleSetKey      = "table_idle"
	tableEventsChan = "table_events"
)

// TableManager owns every live table session
type TableManager struct {
	tables map[string]*TableSession // keyed by table token
	rdb    *redis.Client            // Redis client for snapshots and idle tracking
	db     *sqlx.DB                 // SQL DB for persistent records
	config *config.Config           // Application config
	mu     sync.RWMutex
}

var (
	// Global table manager instance
	Manager *TableManager
)

// InitializeManager initializes the global table manager with Redis, DB and config
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewTableManager(db, rdb, cfg)
}

// NewTableManager creates a new table manager
func NewTableManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *TableManager {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &TableManager{
		tables: make(map[string]*TableSession),
		rdb:    rdb,
		db:     db,
		config: cfg,
	}
}

// generateToken generates a secure random token
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// generateTableID generates a unique table ID
func generateTableID() string {
	return "table_" + generateToken(8)
}

// CreateTable racks a new table and registers it
func (tm *TableManager) CreateTable() (*TableSession, error) {
	tm.mu.Lock()
	if limit := tm.config.TableLimit(); limit > 0 && tm.activeCountLocked() >= limit {
		tm.mu.Unlock()
		return nil, ErrTableLimit
	}

	t := NewTableSession(generateTableID(), generateToken(16))
	tm.tables[t.Token] = t
	tm.mu.Unlock()

	if tm.db != nil {
		var sessionID int
		err := tm.db.QueryRowx(`INSERT INTO table_sessions (table_token, status, created_at) VALUES ($1, $2, NOW()) RETURNING id`,
			t.Token, string(StatusActive)).Scan(&sessionID)
		if err != nil {
			log.Printf("[DB] Failed to create table_session for %s: %v", t.Token, err)
		} else {
			t.mu.Lock()
			t.SessionID = sessionID
			t.mu.Unlock()
		}
	}

	tm.TouchTable(t)
	if err := tm.SaveSnapshot(t); err != nil {
		log.Printf("[TABLE] Failed to save snapshot for %s: %v", t.Token, err)
	}

	log.Printf("[TABLE] Table created: %s (token=%s)", t.ID, t.Token)
	return t, nil
}

// GetTableByToken retrieves a table by its token, restoring it from Redis
// if this process has not seen it yet
func (tm *TableManager) GetTableByToken(token string) (*TableSession, error) {
	tm.mu.RLock()
	t, ok := tm.tables[token]
	tm.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := tm.loadTableFromRedis(token)
	if err != nil {
		return nil, ErrTableNotFound
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()
	// Another caller may have restored it meanwhile
	if existing, ok := tm.tables[token]; ok {
		return existing, nil
	}
	tm.tables[token] = t
	log.Printf("[TABLE] Restored table %s from Redis at frame %d", token, t.World.Frame())
	return t, nil
}

// ActiveTables returns every table that still accepts input
func (tm *TableManager) ActiveTables() []*TableSession {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	tables := make([]*TableSession, 0, len(tm.tables))
	for _, t := range tm.tables {
		if t.IsActive() {
			tables = append(tables, t)
		}
	}
	return tables
}

// GetActiveTableCount returns the number of active tables
func (tm *TableManager) GetActiveTableCount() int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.activeCountLocked()
}

func (tm *TableManager) activeCountLocked() int {
	n := 0
	for _, t := range tm.tables {
		if t.IsActive() {
			n++
		}
	}
	return n
}

// CloseTable closes a table and forgets it. The final snapshot is written
// to the session row.
func (tm *TableManager) CloseTable(token, reason string) error {
	tm.mu.Lock()
	t, ok := tm.tables[token]
	if ok {
		delete(tm.tables, token)
	}
	tm.mu.Unlock()
	if !ok {
		return ErrTableNotFound
	}

	t.Close()
	snap := t.Snapshot()
	sessionID := t.sessionID()

	if tm.db != nil && sessionID > 0 {
		state, err := json.Marshal(snap)
		if err != nil {
			log.Printf("[DB] Failed to marshal final state for session %d: %v", sessionID, err)
		} else if _, err := tm.db.Exec(`UPDATE table_sessions SET status=$1, shot_count=$2, close_reason=$3, final_state=$4::jsonb, closed_at=NOW() WHERE id=$5`,
			string(StatusClosed), snap.TotalShots, reason, string(state), sessionID); err != nil {
			log.Printf("[DB] Failed to close table_session %d: %v", sessionID, err)
		}
	}

	if tm.rdb != nil {
		ctx := context.Background()
		tm.rdb.ZRem(ctx, idleSetKey, token)
		tm.rdb.Del(ctx, "table:"+token+":state")
	}

	log.Printf("[TABLE] Table %s closed (%s) after %d shots", token, reason, snap.TotalShots)
	return nil
}

// RecordShot records a released shot. It's best-effort and logs errors.
func (tm *TableManager) RecordShot(t *TableSession, shot Shot) {
	tm.TouchTable(t)

	if tm == nil || tm.db == nil || t == nil {
		return
	}

	t.mu.RLock()
	sessionID, shotNumber := t.SessionID, t.TotalShots
	t.mu.RUnlock()
	if sessionID == 0 {
		return
	}

	_, err := tm.db.Exec(`INSERT INTO shots (session_id, shot_number, angle, cue_offset, power, velocity_x, velocity_z, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())`,
		sessionID, shotNumber, shot.Angle, shot.Offset, shot.Power, shot.Velocity.X, shot.Velocity.Z)
	if err != nil {
		log.Printf("[DB] Failed to record shot for session %d: %v", sessionID, err)
	}
}

// RecordEvents stores collision events for a table in one transaction
func (tm *TableManager) RecordEvents(t *TableSession, events []Event) {
	if tm == nil || tm.db == nil || t == nil || len(events) == 0 {
		return
	}
	sessionID := t.sessionID()
	if sessionID == 0 {
		return
	}

	tx, err := tm.db.Beginx()
	if err != nil {
		log.Printf("[DB] Failed to begin event tx for session %d: %v", sessionID, err)
		return
	}
	defer tx.Rollback()

	for _, e := range events {
		if _, err := tx.Exec(`INSERT INTO table_events (session_id, frame, event_type, ball_id, target_id, speed, created_at) VALUES ($1,$2,$3,$4,$5,$6,NOW())`,
			sessionID, int64(e.Frame), string(e.Type), e.BallID, e.TargetID, e.Speed); err != nil {
			log.Printf("[DB] Failed to record %s event for session %d: %v", e.Type, sessionID, err)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[DB] Failed to commit events for session %d: %v", sessionID, err)
	}
}

// SaveSnapshot persists the table state to Redis
func (tm *TableManager) SaveSnapshot(t *TableSession) error {
	if tm.rdb == nil {
		return nil // No Redis client, skip
	}

	data, err := json.Marshal(t.Snapshot())
	if err != nil {
		return err
	}

	return tm.rdb.SetEx(context.Background(), "table:"+t.Token+":state", data, tm.config.SnapshotTTL()).Err()
}

// TouchTable pushes the table's idle deadline forward
func (tm *TableManager) TouchTable(t *TableSession) {
	if tm == nil || tm.rdb == nil || t == nil {
		return
	}

	tm.scheduleIdleCheck(t, time.Now())
}

// RescheduleIdleDeadlines rewrites every live table's deadline from its
// last input, so a changed idle timeout also applies to tables that were
// scheduled under the old one.
func (tm *TableManager) RescheduleIdleDeadlines() int {
	if tm == nil || tm.rdb == nil {
		return 0
	}
	tables := tm.ActiveTables()
	for _, t := range tables {
		tm.scheduleIdleCheck(t, t.IdleSince())
	}
	log.Printf("[IDLE] Rescheduled idle deadlines for %d tables", len(tables))
	return len(tables)
}

func (tm *TableManager) scheduleIdleCheck(t *TableSession, from time.Time) {
	deadline := from.Add(tm.config.TableIdleTimeout())
	if err := tm.rdb.ZAdd(context.Background(), idleSetKey, redis.Z{Score: float64(deadline.Unix()), Member: t.Token}).Err(); err != nil {
		log.Printf("[IDLE] Failed to schedule idle check for %s: %v", t.Token, err)
	}
}

// loadTableFromRedis rebuilds a table from its last saved snapshot
func (tm *TableManager) loadTableFromRedis(token string) (*TableSession, error) {
	if tm.rdb == nil {
		return nil, errors.New("no redis client")
	}

	data, err := tm.rdb.Get(context.Background(), "table:"+token+":state").Result()
	if err == redis.Nil {
		return nil, errors.New("table not found in redis")
	}
	if err != nil {
		return nil, err
	}

	var snap TableSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}
	if snap.Status != StatusActive {
		return nil, ErrTableClosed
	}

	t := NewTableSession(snap.ID, snap.Token)
	t.Restore(snap)
	return t, nil
}
