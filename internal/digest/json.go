package digest

import (
	"encoding/json"
	"io"
	"time"
)

type jsonDigest struct {
	Meta    jsonMeta    `json:"meta"`
	Batches []jsonBatch `json:"batches"`
}

type jsonMeta struct {
	Authors     int    `json:"authors"`
	Posts       int    `json:"posts"`
	GeneratedAt string `json:"generated_at,omitempty"`
}

type jsonBatch struct {
	Author      string     `json:"author"`
	Title       string     `json:"title,omitempty"`
	Filename    string     `json:"filename,omitempty"`
	ReadCounted int        `json:"read_counted"`
	Skipped     string     `json:"skipped,omitempty"`
	Posts       []jsonPost `json:"posts"`
}

type jsonPost struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	CanonicalTitle  string `json:"canonical_title"`
	Channel         string `json:"channel"`
	URL             string `json:"url,omitempty"`
	CreatedAt       string `json:"created_at"`
	Read            bool   `json:"read"`
	Pinned          bool   `json:"pinned,omitempty"`
	ArchiveEligible bool   `json:"archive_eligible"`
}

// JSONFormatter formats batches as JSON, the manifest handed to the
// document assembler.
type JSONFormatter struct{}

// NewJSON creates a JSON formatter.
func NewJSON() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes the batches as JSON to w.
func (f *JSONFormatter) Format(w io.Writer, input Input) error {
	out := jsonDigest{
		Meta: jsonMeta{
			Authors: len(input.Batches),
			Posts:   input.Posts(),
		},
		Batches: make([]jsonBatch, 0, len(input.Batches)),
	}
	if !input.GeneratedAt.IsZero() {
		out.Meta.GeneratedAt = input.GeneratedAt.UTC().Format(time.RFC3339)
	}

	for _, b := range input.Batches {
		jb := jsonBatch{
			Author:      b.Author,
			Title:       b.Title,
			Filename:    b.Filename,
			ReadCounted: b.ReadCounted,
			Skipped:     b.Skipped,
			Posts:       make([]jsonPost, 0, len(b.Entries)),
		}
		for _, e := range b.Entries {
			jb.Posts = append(jb.Posts, jsonPost{
				ID:              e.Post.ID,
				Title:           e.Post.Title,
				CanonicalTitle:  e.CanonicalTitle,
				Channel:         e.Post.Channel,
				URL:             e.Post.URL,
				CreatedAt:       e.Post.CreatedAt.UTC().Format(time.RFC3339),
				Read:            e.Post.IsRead(),
				Pinned:          e.Post.Pinned,
				ArchiveEligible: e.ArchiveEligible,
			})
		}
		out.Batches = append(out.Batches, jb)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
