// Package digest renders compiled batches as a manifest for the user or for
// the document assembler.
package digest

import (
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/serialbinder/internal/source"
)

// Batch is one author's compiled batch.
type Batch struct {
	Author      string
	Title       string // synthesized batch title, empty when there are no entries
	Filename    string
	ReadCounted int
	Entries     []source.Entry // newest first
	Skipped     string         // reason the author was skipped, if any
}

// Input is the full input for a digest formatter.
type Input struct {
	Batches     []Batch
	GeneratedAt time.Time
	Location    *time.Location // dates are shown in this zone, UTC when nil
}

// Posts returns the number of entries across all batches.
func (in Input) Posts() int {
	n := 0
	for _, b := range in.Batches {
		n += len(b.Entries)
	}
	return n
}

func (in Input) location() *time.Location {
	if in.Location == nil {
		return time.UTC
	}
	return in.Location
}

// Formatter writes a formatted digest to w.
type Formatter interface {
	Format(w io.Writer, input Input) error
}

// New returns the formatter for format: terminal, markdown or json.
func New(format string, color bool) (Formatter, error) {
	switch format {
	case "", "terminal":
		return NewTerminal(color), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	case "json":
		return NewJSON(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want terminal, markdown or json)", format)
	}
}

const dateLayout = "2006-01-02"
