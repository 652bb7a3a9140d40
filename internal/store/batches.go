package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/serialbinder/internal/source"
)

// Batch is a recorded compilation of an author's matched posts.
type Batch struct {
	ID          string
	Author      string
	Title       string
	Filename    string
	ReadCounted int
	CreatedAt   time.Time
	Posts       []BatchPost
}

type BatchPost struct {
	PostID         string
	CanonicalTitle string
}

type BatchInput struct {
	Author      string
	Title       string
	Filename    string
	ReadCounted int
	Entries     []source.Entry
}

// SaveBatch records a batch under a new random ID.
func (s *Store) SaveBatch(ctx context.Context, in BatchInput) (Batch, error) {
	if s == nil || s.db == nil {
		return Batch{}, errNotInitialized
	}
	if strings.TrimSpace(in.Author) == "" {
		return Batch{}, errors.New("author is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return Batch{}, errors.New("title is required")
	}
	if len(in.Entries) == 0 {
		return Batch{}, errors.New("batch has no posts")
	}

	b := Batch{
		ID:          uuid.NewString(),
		Author:      in.Author,
		Title:       in.Title,
		Filename:    in.Filename,
		ReadCounted: in.ReadCounted,
		CreatedAt:   s.now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Batch{}, fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO batches (id, author, title, filename, read_counted, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.ID, b.Author, b.Title, b.Filename, b.ReadCounted, formatTime(b.CreatedAt)); err != nil {
		_ = tx.Rollback()
		return Batch{}, fmt.Errorf("insert batch: %w", err)
	}

	for i, e := range in.Entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO batch_posts (batch_id, position, post_id, canonical_title)
			VALUES (?, ?, ?, ?)
		`, b.ID, i, e.Post.ID, e.CanonicalTitle); err != nil {
			_ = tx.Rollback()
			return Batch{}, fmt.Errorf("insert batch post: %w", err)
		}
		b.Posts = append(b.Posts, BatchPost{PostID: e.Post.ID, CanonicalTitle: e.CanonicalTitle})
	}

	if err := tx.Commit(); err != nil {
		return Batch{}, fmt.Errorf("commit batch: %w", err)
	}
	return b, nil
}

// ListBatches returns recorded batches newest first. An empty author lists
// every author; limit <= 0 means no limit.
func (s *Store) ListBatches(ctx context.Context, author string, limit int) ([]Batch, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}

	query := "SELECT id, author, title, filename, read_counted, created_at FROM batches"
	var args []any
	if author != "" {
		query += " WHERE author = ? COLLATE NOCASE"
		args = append(args, author)
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var batches []Batch
	for rows.Next() {
		var (
			b         Batch
			createdAt string
		)
		if err := rows.Scan(&b.ID, &b.Author, &b.Title, &b.Filename, &b.ReadCounted, &createdAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		b.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}

	for i := range batches {
		posts, err := s.batchPosts(ctx, batches[i].ID)
		if err != nil {
			return nil, err
		}
		batches[i].Posts = posts
	}
	return batches, nil
}

func (s *Store) batchPosts(ctx context.Context, batchID string) ([]BatchPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT post_id, canonical_title FROM batch_posts
		WHERE batch_id = ?
		ORDER BY position
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query batch posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []BatchPost
	for rows.Next() {
		var p BatchPost
		if err := rows.Scan(&p.PostID, &p.CanonicalTitle); err != nil {
			return nil, fmt.Errorf("scan batch post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch posts: %w", err)
	}
	return posts, nil
}
