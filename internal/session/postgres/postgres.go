// Package postgres stores session keys in a session_kv table.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/salesonboard/internal/session"
	"github.com/utafrali/salesonboard/pkg/database"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	selectSQL = `SELECT value FROM session_kv WHERE profile = $1 AND key = $2`
	upsertSQL = `INSERT INTO session_kv (profile, key, value, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	deleteSQL = `DELETE FROM session_kv WHERE profile = $1 AND key = $2`
)

// Store implements session.KV on PostgreSQL.
type Store struct {
	db      database.DBTX
	profile string
}

// New creates a store for one profile.
func New(db database.DBTX, profile string) *Store {
	if profile == "" {
		profile = "default"
	}
	return &Store{db: db, profile: profile}
}

// Migrate creates the session_kv table when missing.
func Migrate(ctx context.Context, db database.DBTX, logger *slog.Logger) error {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open session migrations: %w", err)
	}
	return database.RunMigrations(ctx, db, sub, logger)
}

func (s *Store) Get(ctx context.Context, key string) (value string, err error) {
	ctx, end := database.TraceQuery(ctx, "postgresql", "session.Get", selectSQL)
	defer func() { end(err) }()

	err = s.db.QueryRow(ctx, selectSQL, s.profile, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", session.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select session key %s: %w", key, err)
	}
	return value, nil
}

// SetMany upserts every pair inside one transaction.
func (s *Store) SetMany(ctx context.Context, pairs map[string]string) (err error) {
	ctx, end := database.TraceQuery(ctx, "postgresql", "session.SetMany", upsertSQL)
	defer func() { end(err) }()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin session tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, key := range session.Keys {
		value, ok := pairs[key]
		if !ok {
			continue
		}
		if _, err = tx.Exec(ctx, upsertSQL, s.profile, key, value); err != nil {
			return fmt.Errorf("upsert session key %s: %w", key, err)
		}
	}
	for key, value := range pairs {
		if slices.Contains(session.Keys, key) {
			continue
		}
		if _, err = tx.Exec(ctx, upsertSQL, s.profile, key, value); err != nil {
			return fmt.Errorf("upsert session key %s: %w", key, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit session tx: %w", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) (err error) {
	ctx, end := database.TraceQuery(ctx, "postgresql", "session.Remove", deleteSQL)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, deleteSQL, s.profile, key); err != nil {
		return fmt.Errorf("delete session key %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}
