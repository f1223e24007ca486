// Package sqlite is the on-device store: a key/value table for preferences
// and recent searches, the favorites list, and the cached reaction per
// makgeolli.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dshills/julook/internal/catalog"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store implements catalog.Local.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ catalog.Local = (*Store)(nil)

// Open opens and migrates the database at path. ":memory:" opens a private
// in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite: storage path is required")
	}

	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if err := applyMigrations(ctx, db, migrationFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.stamp())
	if err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", key, err)
	}
	return nil
}

// IsFavorite reports whether makgeolliID is a favorite.
func (s *Store) IsFavorite(ctx context.Context, makgeolliID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM favorites WHERE makgeolli_id = ?`, makgeolliID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: is favorite: %w", err)
	}
	return true, nil
}

// SetFavorite adds or removes a favorite. Re-adding keeps the original
// position in the list.
func (s *Store) SetFavorite(ctx context.Context, makgeolliID string, favorite bool) error {
	var err error
	if favorite {
		_, err = s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO favorites (makgeolli_id, created_at) VALUES (?, ?)`,
			makgeolliID, s.stamp())
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM favorites WHERE makgeolli_id = ?`, makgeolliID)
	}
	if err != nil {
		return fmt.Errorf("sqlite: set favorite: %w", err)
	}
	return nil
}

// ListFavorites returns favorite ids, most recently added first.
func (s *Store) ListFavorites(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT makgeolli_id FROM favorites ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list favorites: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list favorites: %w", err)
	}
	return ids, nil
}

// CachedReaction returns the last reaction recorded for makgeolliID.
func (s *Store) CachedReaction(ctx context.Context, makgeolliID string) (catalog.Reaction, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT reaction FROM reactions WHERE makgeolli_id = ?`, makgeolliID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.ReactionNone, nil
	}
	if err != nil {
		return catalog.ReactionNone, fmt.Errorf("sqlite: cached reaction: %w", err)
	}
	return catalog.ParseReaction(name), nil
}

// CacheReaction records r for makgeolliID. ReactionNone clears the entry.
func (s *Store) CacheReaction(ctx context.Context, makgeolliID string, r catalog.Reaction) error {
	var err error
	if r == catalog.ReactionNone {
		_, err = s.db.ExecContext(ctx, `DELETE FROM reactions WHERE makgeolli_id = ?`, makgeolliID)
	} else {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO reactions (makgeolli_id, reaction, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(makgeolli_id) DO UPDATE SET reaction = excluded.reaction, updated_at = excluded.updated_at`,
			makgeolliID, r.String(), s.stamp())
	}
	if err != nil {
		return fmt.Errorf("sqlite: cache reaction: %w", err)
	}
	return nil
}

func (s *Store) stamp() int64 {
	return s.now().UTC().UnixMilli()
}
