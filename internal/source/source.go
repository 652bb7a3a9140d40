package source

import (
	"context"
	"errors"
	"time"
)

// ErrAccessDenied is returned when the upstream refuses to list an author's
// posts (suspended or banned account, or our client was banned).
var ErrAccessDenied = errors.New("access denied")

// Post is a single submission as retrieved from the feed. It is treated as
// immutable once fetched; derived values live in Entry.
type Post struct {
	ID        string    `json:"id"`         // stable upstream identifier
	Title     string    `json:"title"`      // raw title as written by the author
	CreatedAt time.Time `json:"created_at"` // authored-at timestamp
	Channel   string    `json:"channel"`    // subreddit the post was submitted to
	Author    string    `json:"author"`
	RemovedBy string    `json:"removed_by,omitempty"` // removal marker, empty when the post is live
	Pinned    bool      `json:"pinned,omitempty"`
	Liked     *bool     `json:"liked,omitempty"` // nil when the viewer has not voted
	Hidden    bool      `json:"hidden,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// IsRead reports whether the viewer already marked this post, either by
// liking or by hiding it.
func (p Post) IsRead() bool {
	return (p.Liked != nil && *p.Liked) || p.Hidden
}

// Removed reports whether the post carries a removal marker.
func (p Post) Removed() bool {
	return p.RemovedBy != ""
}

// Entry is a retained post together with the values derived while
// processing it.
type Entry struct {
	Post            Post
	CanonicalTitle  string
	ArchiveEligible bool
}

// Stream is a forward-only sequence of posts fetched from upstream one page
// at a time.
type Stream interface {
	// Next returns the next post. It returns io.EOF once the upstream has no
	// more posts, or an error wrapping ErrAccessDenied.
	Next(ctx context.Context) (Post, error)

	// PageDone reports whether the post most recently returned by Next was
	// the last one of its upstream page.
	PageDone() bool
}

// Client opens post streams for authors.
type Client interface {
	// Name returns the client identifier (e.g. "reddit").
	Name() string

	// Submissions returns the author's submissions, newest first as far as
	// the upstream guarantees it.
	Submissions(author string) Stream
}

// Cache stores fetched posts by ID.
type Cache interface {
	Get(ctx context.Context, id string) (Post, bool, error)
	Set(ctx context.Context, id string, post Post, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
