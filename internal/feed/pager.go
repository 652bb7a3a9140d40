// Package feed turns an upstream post stream into a replayable sequence in
// recency order.
//
// Reddit returns pinned submissions at the top of a user's listing no matter
// how old they are. Pager pulls one upstream page at a time, sorts that page
// newest first and appends it to a buffer that any number of cursors can
// replay. A post pinned further back than one page still surfaces early: the
// correction only reorders within a page.
package feed

import (
	"context"
	"errors"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/ppiankov/serialbinder/internal/source"
)

// Pager buffers an upstream stream page by page. It is not safe for
// concurrent use.
type Pager struct {
	stream    source.Stream
	log       *zap.Logger
	buf       []source.Post
	seen      map[string]struct{}
	pages     int
	exhausted bool
}

// New wraps stream. A nil logger discards diagnostics.
func New(stream source.Stream, log *zap.Logger) *Pager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pager{
		stream: stream,
		log:    log,
		seen:   make(map[string]struct{}),
	}
}

// Cursor returns a cursor positioned at the start of the buffer. Cursors
// share the buffer, so a page fetched for one cursor is never fetched again
// for another.
func (p *Pager) Cursor() *Cursor {
	return &Cursor{pager: p}
}

// Buffered returns the number of posts fetched so far.
func (p *Pager) Buffered() int {
	return len(p.buf)
}

// Pages returns the number of upstream pages requested so far.
func (p *Pager) Pages() int {
	return p.pages
}

// Exhausted reports whether the upstream has signalled its end.
func (p *Pager) Exhausted() bool {
	return p.exhausted
}

// fill pulls one upstream page, sorts it newest first and appends it to the
// buffer. Upstream errors are returned as is.
func (p *Pager) fill(ctx context.Context) error {
	var page []source.Post
	for {
		post, err := p.stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			p.exhausted = true
			break
		}
		if err != nil {
			return err
		}
		if _, dup := p.seen[post.ID]; !dup {
			p.seen[post.ID] = struct{}{}
			page = append(page, post)
		}
		if p.stream.PageDone() {
			break
		}
	}
	p.pages++

	if p.exhausted && len(page) > 0 {
		// Upstream quirk: the final page can end without a page boundary.
		p.log.Warn("upstream exhausted mid-page",
			zap.Int("page", p.pages),
			zap.Int("posts", len(page)))
	}

	sort.SliceStable(page, func(i, j int) bool {
		return page[i].CreatedAt.After(page[j].CreatedAt)
	})
	p.buf = append(p.buf, page...)

	p.log.Debug("fetched page",
		zap.Int("page", p.pages),
		zap.Int("posts", len(page)),
		zap.Int("buffered", len(p.buf)),
		zap.Bool("exhausted", p.exhausted))
	return nil
}

// Cursor walks a Pager's buffer from the start, fetching more pages on
// demand.
type Cursor struct {
	pager *Pager
	pos   int
}

// Next returns the next post, or io.EOF once the buffer is drained and the
// upstream is exhausted.
func (c *Cursor) Next(ctx context.Context) (source.Post, error) {
	for c.pos >= len(c.pager.buf) {
		if c.pager.exhausted {
			return source.Post{}, io.EOF
		}
		if err := c.pager.fill(ctx); err != nil {
			return source.Post{}, err
		}
	}

	post := c.pager.buf[c.pos]
	c.pos++
	return post, nil
}
