package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/playmatatu/billiards/internal/config"
	"github.com/redis/go-redis/v9"
)

// ClosedNotifier is told about tables the idle worker closes when there is
// no Redis channel to announce them on.
type ClosedNotifier interface {
	TableClosed(token, reason string)
}

// StartIdleWorker starts a background worker that closes abandoned tables.
// Deadlines live in the table_idle sorted set; without Redis the worker
// scans the in-memory tables instead. The idle timeout and poll interval
// are re-read on every poll so runtime overrides apply without a restart.
func StartIdleWorker(ctx context.Context, tm *TableManager, rdb *redis.Client, cfg *config.Config, notifier ClosedNotifier) {
	if tm == nil || cfg == nil {
		log.Println("[IDLE] Manager or config missing; idle worker not started")
		return
	}

	log.Println("[IDLE] Idle worker started")
	go func() {
		interval := cfg.IdlePollInterval()
		maxIdle := cfg.TableIdleTimeout()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Idle worker stopping")
				return
			case <-ticker.C:
				if next := cfg.TableIdleTimeout(); next != maxIdle {
					log.Printf("[IDLE] Idle timeout changed %v -> %v", maxIdle, next)
					maxIdle = next
					if rdb != nil {
						tm.RescheduleIdleDeadlines()
					}
				}

				runIdlePass(ctx, tm, rdb, cfg, notifier)

				if next := cfg.IdlePollInterval(); next != interval {
					log.Printf("[IDLE] Poll interval changed %v -> %v", interval, next)
					interval = next
					ticker.Reset(interval)
				}
			}
		}
	}()
}

// runIdlePass closes whatever is idle right now and returns the tokens.
func runIdlePass(ctx context.Context, tm *TableManager, rdb *redis.Client, cfg *config.Config, notifier ClosedNotifier) []string {
	maxIdle := cfg.TableIdleTimeout()
	if rdb == nil {
		closed := tm.CloseIdleTables(time.Now(), maxIdle)
		if notifier != nil {
			for _, token := range closed {
				notifier.TableClosed(token, "idle")
			}
		}
		return closed
	}
	return processIdleDeadlines(ctx, tm, rdb, maxIdle)
}

func processIdleDeadlines(ctx context.Context, tm *TableManager, rdb *redis.Client, maxIdle time.Duration) []string {
	now := time.Now()
	members, err := rdb.ZRangeByScore(ctx, idleSetKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now.Unix())}).Result()
	if err != nil {
		log.Printf("[IDLE] Failed to fetch idle deadlines: %v", err)
		return nil
	}

	var closed []string
	for _, token := range members {
		// Attempt to remove (race-safe)
		if removed, _ := rdb.ZRem(ctx, idleSetKey, token).Result(); removed == 0 {
			continue
		}

		t, err := tm.GetTableByToken(token)
		if err != nil {
			continue
		}
		if !tableIsIdle(t, now, maxIdle) {
			// Touched since the deadline was written; re-arm it
			tm.TouchTable(t)
			continue
		}

		if err := tm.CloseTable(token, "idle"); err != nil {
			log.Printf("[IDLE] Failed to close idle table %s: %v", token, err)
			continue
		}
		publishTableClosed(ctx, rdb, token, "idle")
		closed = append(closed, token)
	}
	return closed
}

// CloseIdleTables closes every table with no input for longer than maxIdle
// and returns their tokens.
func (tm *TableManager) CloseIdleTables(now time.Time, maxIdle time.Duration) []string {
	var closed []string
	for _, t := range tm.ActiveTables() {
		if !tableIsIdle(t, now, maxIdle) {
			continue
		}
		if err := tm.CloseTable(t.Token, "idle"); err == nil {
			closed = append(closed, t.Token)
		}
	}
	if len(closed) > 0 {
		log.Printf("[IDLE] Closed %d idle tables", len(closed))
	}
	return closed
}

// A table in motion is never idle, whatever its last input.
func tableIsIdle(t *TableSession, now time.Time, maxIdle time.Duration) bool {
	if t.NeedsStep() {
		return false
	}
	return now.Sub(t.IdleSince()) >= maxIdle
}

func publishTableClosed(ctx context.Context, rdb *redis.Client, token, reason string) {
	payload := map[string]interface{}{"type": "table_closed", "table_token": token, "reason": reason, "message": "Table closed due to inactivity"}
	b, _ := json.Marshal(payload)
	if n, err := rdb.Publish(ctx, tableEventsChan, b).Result(); err != nil {
		log.Printf("[IDLE] publish table_closed failed: table=%s err=%v", token, err)
	} else {
		log.Printf("[IDLE] published table_closed: table=%s subscribers=%d", token, n)
	}
}
