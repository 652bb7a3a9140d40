// Package sourcetest provides in-memory feed clients for tests.
package sourcetest

import (
	"context"
	"io"

	"github.com/ppiankov/serialbinder/internal/source"
)

// Stream replays fixed pages of posts. Err, when set, is returned by the
// first Next call that would start page ErrAt.
type Stream struct {
	Pages [][]source.Post
	Err   error
	ErrAt int

	page, idx int
	// Fetches counts how many pages were started.
	Fetches int
}

func (s *Stream) Next(_ context.Context) (source.Post, error) {
	for s.page < len(s.Pages) && s.idx >= len(s.Pages[s.page]) {
		s.page++
		s.idx = 0
	}
	if s.Err != nil && s.page == s.ErrAt && s.idx == 0 {
		return source.Post{}, s.Err
	}
	if s.page >= len(s.Pages) {
		return source.Post{}, io.EOF
	}
	if s.idx == 0 {
		s.Fetches++
	}
	p := s.Pages[s.page][s.idx]
	s.idx++
	return p, nil
}

func (s *Stream) PageDone() bool {
	return s.page < len(s.Pages) && s.idx == len(s.Pages[s.page])
}

// Client serves a Stream per author.
type Client struct {
	Streams map[string]*Stream
	// Opened counts Submissions calls per author.
	Opened map[string]int
}

func (c *Client) Name() string { return "test" }

func (c *Client) Submissions(author string) source.Stream {
	if c.Opened == nil {
		c.Opened = map[string]int{}
	}
	c.Opened[author]++
	if s, ok := c.Streams[author]; ok {
		return s
	}
	return &Stream{}
}
