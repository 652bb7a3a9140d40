package source

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WithCache wraps s so that every post it yields goes through c: a cached
// copy is returned when present, otherwise the fresh post is stored for ttl.
// Cache failures are logged and never fail the stream.
func WithCache(s Stream, c Cache, ttl time.Duration, log *zap.Logger) Stream {
	if c == nil {
		return s
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &cachedStream{inner: s, cache: c, ttl: ttl, log: log}
}

type cachedStream struct {
	inner Stream
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

func (s *cachedStream) Next(ctx context.Context) (Post, error) {
	p, err := s.inner.Next(ctx)
	if err != nil {
		return Post{}, err
	}

	cached, ok, err := s.cache.Get(ctx, p.ID)
	if err != nil {
		s.log.Warn("cache get failed", zap.String("post_id", p.ID), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	if err := s.cache.Set(ctx, p.ID, p, s.ttl); err != nil {
		s.log.Warn("cache set failed", zap.String("post_id", p.ID), zap.Error(err))
	}
	return p, nil
}

func (s *cachedStream) PageDone() bool {
	return s.inner.PageDone()
}
