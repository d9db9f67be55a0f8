package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// Connect establishes a connection to PostgreSQL, retrying while the
// database container is still starting.
func Connect(databaseURL string) (*sqlx.DB, error) {
	return ConnectWithRetry(context.Background(), databaseURL, 5, 2*time.Second)
}

// ConnectWithRetry tries up to attempts times, waiting backoff between tries.
func ConnectWithRetry(ctx context.Context, databaseURL string, attempts int, backoff time.Duration) (*sqlx.DB, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
		if err == nil {
			// Configure connection pool
			db.SetMaxOpenConns(maxOpenConns)
			db.SetMaxIdleConns(maxIdleConns)
			db.SetConnMaxLifetime(connMaxLifetime)
			return db, nil
		}
		lastErr = err

		if i == attempts {
			break
		}
		log.Printf("[DB] Connect attempt %d/%d failed: %v", i, attempts, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("connect to postgres after %d attempts: %w", attempts, lastErr)
}
