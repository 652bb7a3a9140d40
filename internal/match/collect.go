package match

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ppiankov/serialbinder/internal/feed"
	"github.com/ppiankov/serialbinder/internal/source"
	"github.com/ppiankov/serialbinder/internal/title"
)

// DefaultReadBudget is how many already-read posts a subscription collects
// before it stops.
const DefaultReadBudget = 10

// BatchResult is what one subscription collected from an author's feed.
type BatchResult struct {
	// Entries in feed order, unique by post ID.
	Entries []source.Entry
	// ReadCounted is how many entries were already read.
	ReadCounted int
}

// Options control Collect.
type Options struct {
	Normalizer      *title.Normalizer
	ReadBudget      int
	UnlockedChannel string
	Now             time.Time
}

// Collect walks cur and keeps every post m matches. Unread matches are
// always kept. Read matches are kept until ReadBudget of them have been
// collected; the next read match ends the walk, since everything older has
// been read too. Errors from the feed are returned as is along with what was
// collected before them.
func Collect(ctx context.Context, cur *feed.Cursor, m *Matcher, opts Options) (BatchResult, error) {
	if opts.Normalizer == nil {
		opts.Normalizer = title.Default(nil, nil)
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	var res BatchResult
	seen := make(map[string]struct{})
	for {
		p, err := cur.Next(ctx)
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, err
		}
		if !m.Matches(p) {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}

		if p.IsRead() {
			if res.ReadCounted >= opts.ReadBudget {
				return res, nil
			}
			res.ReadCounted++
		}
		seen[p.ID] = struct{}{}
		res.Entries = append(res.Entries, source.Entry{
			Post:            p,
			CanonicalTitle:  opts.Normalizer.Normalize(p),
			ArchiveEligible: ArchiveEligible(p, opts.Now, opts.UnlockedChannel),
		})
	}
}
