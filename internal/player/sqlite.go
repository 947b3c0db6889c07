package player

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS player_records (
	context           TEXT    NOT NULL,
	player_id         TEXT    NOT NULL,
	seq               INTEGER NOT NULL,
	points            INTEGER NOT NULL,
	unlocked          INTEGER NOT NULL,
	session_open      INTEGER NOT NULL,
	forced_exit_count INTEGER NOT NULL,
	PRIMARY KEY (context, player_id)
)`

// SQLiteBackend keeps every context in one SQLite database. A save replaces
// the context's rows in a single transaction; busy errors are retried with
// exponential backoff.
type SQLiteBackend struct {
	db         *sql.DB
	logger     *slog.Logger
	maxRetries uint64
	retryBase  time.Duration
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteBackend{db: db, logger: logger, maxRetries: 5, retryBase: 20 * time.Millisecond}, nil
}

// Close closes the database handle.
func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *SQLiteBackend) Load(ctx context.Context, key string) ([]Entry, error) {
	var entries []Entry
	err := b.withRetry(ctx, func(ctx context.Context) error {
		entries = entries[:0]
		rows, err := b.db.QueryContext(ctx,
			`SELECT player_id, points, unlocked, session_open, forced_exit_count
			   FROM player_records
			  WHERE context = ?
			  ORDER BY seq`, key)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				rawID                 string
				points, forced        int64
				unlocked, sessionOpen bool
			)
			if err := rows.Scan(&rawID, &points, &unlocked, &sessionOpen, &forced); err != nil {
				return err
			}
			id, err := uuid.Parse(rawID)
			if err != nil {
				b.logger.DebugContext(ctx, "skipped malformed player row", "context", key, "player_id", rawID)
				continue
			}
			entries = append(entries, Entry{ID: id, Record: Record{
				Points:          Clamp(points),
				Unlocked:        unlocked,
				SessionOpen:     sessionOpen,
				ForcedExitCount: Clamp(forced),
			}})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return entries, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, key string, entries []Entry) error {
	err := b.withRetry(ctx, func(ctx context.Context) error {
		tx, err := b.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback() //nolint:errcheck // no-op after commit

		if _, err := tx.ExecContext(ctx, `DELETE FROM player_records WHERE context = ?`, key); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO player_records (context, player_id, seq, points, unlocked, session_open, forced_exit_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, e := range entries {
			if _, err := stmt.ExecContext(ctx,
				key, e.ID.String(), i,
				e.Record.Points, e.Record.Unlocked, e.Record.SessionOpen, e.Record.ForcedExitCount,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (b *SQLiteBackend) withRetry(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(b.maxRetries, retry.NewExponential(b.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if isBusy(err) {
			b.logger.DebugContext(ctx, "sqlite busy, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "database is locked")
}
