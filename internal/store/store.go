// Package store persists the post cache and the history of compiled batches
// in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/serialbinder/internal/source"
)

var errNotInitialized = errors.New("store is not initialized")

// Store implements source.Cache and keeps batch history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the cached post with the given ID. Expired entries are misses.
func (s *Store) Get(ctx context.Context, id string) (source.Post, bool, error) {
	if s == nil || s.db == nil {
		return source.Post{}, false, errNotInitialized
	}

	var (
		data      string
		expiresAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx, "SELECT data, expires_at FROM posts WHERE id = ?", id).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return source.Post{}, false, nil
	}
	if err != nil {
		return source.Post{}, false, fmt.Errorf("get post %s: %w", id, err)
	}

	if expiresAt.Valid {
		exp, err := parseTime(expiresAt.String)
		if err != nil {
			return source.Post{}, false, fmt.Errorf("parse expires_at: %w", err)
		}
		if !s.now().Before(exp) {
			return source.Post{}, false, nil
		}
	}

	var p source.Post
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return source.Post{}, false, fmt.Errorf("decode post %s: %w", id, err)
	}
	return p, true, nil
}

// Set stores p under id, replacing any earlier copy. A zero ttl keeps the
// post until it is deleted.
func (s *Store) Set(ctx context.Context, id string, p source.Post, ttl time.Duration) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("id is required")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode post %s: %w", id, err)
	}

	now := s.now()
	var expiresAt sql.NullString
	if ttl > 0 {
		expiresAt = sql.NullString{String: formatTime(now.Add(ttl)), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO posts (id, author, channel, title, created_at, data, cached_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			author = excluded.author,
			channel = excluded.channel,
			title = excluded.title,
			created_at = excluded.created_at,
			data = excluded.data,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at
	`,
		id,
		p.Author,
		p.Channel,
		p.Title,
		formatTime(p.CreatedAt),
		string(data),
		formatTime(now),
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("set post %s: %w", id, err)
	}
	return nil
}

// Delete forgets the cached post. Deleting a missing post is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	return nil
}

// DeleteAuthor forgets every cached post of author and returns how many
// were removed.
func (s *Store) DeleteAuthor(ctx context.Context, author string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errNotInitialized
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE author = ? COLLATE NOCASE", author)
	if err != nil {
		return 0, fmt.Errorf("delete posts of %s: %w", author, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// PruneExpired deletes expired cache entries and returns how many were
// removed.
func (s *Store) PruneExpired(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errNotInitialized
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM posts WHERE expires_at IS NOT NULL AND expires_at <= ?", formatTime(s.now()))
	if err != nil {
		return 0, fmt.Errorf("prune expired posts: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Stats summarizes the store contents.
type Stats struct {
	CachedPosts  int
	ExpiredPosts int
	Batches      int
	LastBatch    time.Time
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	if s == nil || s.db == nil {
		return Stats{}, errNotInitialized
	}

	var (
		st   Stats
		last sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM posts),
			(SELECT COUNT(*) FROM posts WHERE expires_at IS NOT NULL AND expires_at <= ?),
			(SELECT COUNT(*) FROM batches),
			(SELECT MAX(created_at) FROM batches)
	`, formatTime(s.now())).Scan(&st.CachedPosts, &st.ExpiredPosts, &st.Batches, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("read stats: %w", err)
	}
	if last.Valid {
		st.LastBatch, err = parseTime(last.String)
		if err != nil {
			return Stats{}, fmt.Errorf("parse last batch: %w", err)
		}
	}
	return st, nil
}

// Timestamps are stored as fixed-width UTC strings so that they compare
// correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}
