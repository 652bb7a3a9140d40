// Package binder compiles one batch per author: it fetches the author's
// submissions once, runs every enabled subscription over them and labels the
// union with a synthesized title and filename.
package binder

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/serialbinder/internal/config"
	"github.com/ppiankov/serialbinder/internal/digest"
	"github.com/ppiankov/serialbinder/internal/feed"
	"github.com/ppiankov/serialbinder/internal/logging"
	"github.com/ppiankov/serialbinder/internal/match"
	"github.com/ppiankov/serialbinder/internal/source"
	"github.com/ppiankov/serialbinder/internal/title"
)

// Options configure a Binder. Only Client is required.
type Options struct {
	Client source.Client

	// Cache, when set, wraps every author stream. Entries are kept for
	// CacheTTL, or until deleted when CacheTTL is 0.
	Cache    source.Cache
	CacheTTL time.Duration

	Normalizer      *title.Normalizer
	ReadBudget      int
	UnlockedChannel string
	Extension       string

	Now func() time.Time
	Log *zap.Logger
}

// Binder builds author batches.
type Binder struct {
	opts Options
	log  *zap.Logger
}

// New returns a Binder. A nil Normalizer uses the built-in rules, an empty
// Extension uses title.DefaultExtension.
func New(opts Options) *Binder {
	if opts.Normalizer == nil {
		opts.Normalizer = title.Default(nil, nil)
	}
	if opts.Extension == "" {
		opts.Extension = title.DefaultExtension
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Binder{opts: opts, log: logging.OrNop(opts.Log)}
}

// Author collects the batch for one author. Errors from the feed, including
// source.ErrAccessDenied, are wrapped and returned with no batch. A
// subscription that fails to compile is a configuration error.
func (b *Binder) Author(ctx context.Context, author config.Author) (digest.Batch, error) {
	batch := digest.Batch{Author: author.Username}

	var matchers []*match.Matcher
	for _, sub := range author.Subscriptions {
		if !sub.IsEnabled() {
			continue
		}
		m, err := match.Compile(sub)
		if err != nil {
			return digest.Batch{}, fmt.Errorf("author %s: %w", author.Username, err)
		}
		matchers = append(matchers, m)
	}
	if len(matchers) == 0 {
		return batch, nil
	}

	log := b.log.With(zap.String("author", author.Username))
	stream := b.opts.Client.Submissions(author.Username)
	stream = source.WithCache(stream, b.opts.Cache, b.opts.CacheTTL, log)
	pager := feed.New(stream, log)

	opts := match.Options{
		Normalizer:      b.opts.Normalizer,
		ReadBudget:      b.opts.ReadBudget,
		UnlockedChannel: b.opts.UnlockedChannel,
		Now:             b.opts.Now(),
	}

	seen := make(map[string]struct{})
	for _, m := range matchers {
		res, err := match.Collect(ctx, pager.Cursor(), m, opts)
		if err != nil {
			return digest.Batch{}, fmt.Errorf("author %s: %s: %w", author.Username, m, err)
		}
		log.Debug("subscription collected",
			zap.Stringer("subscription", m),
			zap.Int("entries", len(res.Entries)),
			zap.Int("read", res.ReadCounted))

		for _, e := range res.Entries {
			if _, dup := seen[e.Post.ID]; dup {
				continue
			}
			seen[e.Post.ID] = struct{}{}
			batch.Entries = append(batch.Entries, e)
			if e.Post.IsRead() {
				batch.ReadCounted++
			}
		}
	}

	if len(batch.Entries) == 0 {
		return batch, nil
	}

	sort.SliceStable(batch.Entries, func(i, j int) bool {
		return batch.Entries[i].Post.CreatedAt.After(batch.Entries[j].Post.CreatedAt)
	})

	name, err := title.Synthesize(batch.Entries, log)
	if err != nil {
		return digest.Batch{}, fmt.Errorf("author %s: %w", author.Username, err)
	}
	batch.Title = name
	batch.Filename = title.Filename(name, b.opts.Extension)

	log.Info("batch compiled",
		zap.String("title", batch.Title),
		zap.Int("entries", len(batch.Entries)),
		zap.Int("read", batch.ReadCounted),
		zap.Int("pages", pager.Pages()))
	return batch, nil
}
