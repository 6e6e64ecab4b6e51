package split

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fewshot/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes. Older databases must
// be deleted; splits are cheap to redraw.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	poolTrain      = "train"
	poolValidation = "validation"

	sqliteBusyCode          = 5
	sqliteConstraintCode    = 19
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteStore keeps partitions for every corpus in one database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLite opens or creates the split database at path.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create split db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path, logger: logging.NewComponentLogger(logger, "split-store")}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit schema: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) Load(ctx context.Context, corpus string) (Pools, bool, error) {
	var (
		pools   Pools
		created string
		found   bool
	)
	err := retryOnBusy(ctx, func() error {
		found = false
		pools = Pools{Corpus: corpus}
		row := s.db.QueryRowContext(ctx, "SELECT id, created_at FROM splits WHERE corpus = ?", corpus)
		if err := row.Scan(&pools.ID, &created); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		found = true

		rows, err := s.db.QueryContext(ctx,
			"SELECT author, pool FROM split_members WHERE split_id = ? ORDER BY pool, position", pools.ID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var author, pool string
			if err := rows.Scan(&author, &pool); err != nil {
				return err
			}
			switch pool {
			case poolTrain:
				pools.Train = append(pools.Train, author)
			case poolValidation:
				pools.Validation = append(pools.Validation, author)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return Pools{}, false, fmt.Errorf("load split for %s: %w", corpus, err)
	}
	if !found {
		return Pools{}, false, nil
	}
	if pools.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Pools{}, false, fmt.Errorf("parse split timestamp %q: %w", created, err)
	}
	return pools, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, corpus string, pools Pools) error {
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO splits (id, corpus, created_at) VALUES (?, ?, ?)",
			pools.ID, corpus, pools.CreatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			if isConstraint(err) {
				return ErrSplitExists
			}
			return err
		}
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO split_members (split_id, author, pool, position) VALUES (?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, group := range []struct {
			pool    string
			authors []string
		}{{poolTrain, pools.Train}, {poolValidation, pools.Validation}} {
			for i, author := range group.authors {
				if _, err := stmt.ExecContext(ctx, pools.ID, author, group.pool, i); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	})
	if errors.Is(err, ErrSplitExists) {
		return fmt.Errorf("%s: %w", corpus, ErrSplitExists)
	}
	if err != nil {
		return fmt.Errorf("save split for %s: %w", corpus, err)
	}
	s.logger.Debug("split stored", logging.String("split_id", pools.ID), logging.String("path", s.path))
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, corpus string) error {
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		// foreign_keys is per connection, so members are removed explicitly.
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM split_members WHERE split_id IN (SELECT id FROM splits WHERE corpus = ?)", corpus); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM splits WHERE corpus = ?", corpus); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("delete split for %s: %w", corpus, err)
	}
	return nil
}

type sqliteCoder interface{ Code() int }

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder sqliteCoder
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func isConstraint(err error) bool {
	var coder sqliteCoder
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteConstraintCode {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
