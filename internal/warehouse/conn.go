// Package warehouse owns the PostgreSQL side: table definitions, the
// transactional full-refresh publisher and the extracts read back out.
package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/config"
)

// DB is the subset of *pgx.Conn the warehouse uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// backoffUnit scales the exponential backoff between connection attempts.
var backoffUnit = time.Second

// Connect opens a connection to the warehouse, retrying transient network
// failures up to cfg.ConnectRetries attempts. The caller owns Close.
func Connect(ctx context.Context, cfg config.Postgres) (*pgx.Conn, error) {
	var conn *pgx.Conn
	err := withRetry(ctx, cfg.ConnectRetries, "connect", func() error {
		var err error
		conn, err = pgx.Connect(ctx, cfg.ConnString())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres %s/%s: %w", cfg.Host, cfg.Database, err)
	}
	return conn, nil
}

func withRetry(ctx context.Context, maxAttempts int, label string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransientError(lastErr) {
			return lastErr
		}
		if attempt < maxAttempts {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * backoffUnit
			slog.WarnContext(ctx, "transient error, retrying",
				"op", label, "attempt", attempt, "max_attempts", maxAttempts,
				"backoff", backoff, "error", lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timed out",
	"broken pipe",
	"unexpected eof",
	"i/o timeout",
	"server closed the connection unexpectedly",
	"could not connect to server",
	"the database system is starting up",
	"too many connections",
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
