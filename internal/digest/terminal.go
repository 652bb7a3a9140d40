package digest

import (
	"fmt"
	"io"

	"github.com/ppiankov/serialbinder/internal/source"
)

// TerminalFormatter formats batches for terminal output.
type TerminalFormatter struct {
	color bool
}

// NewTerminal creates a terminal formatter. Set color=true for ANSI colors.
func NewTerminal(color bool) *TerminalFormatter {
	return &TerminalFormatter{color: color}
}

// Format writes one section per author.
func (f *TerminalFormatter) Format(w io.Writer, input Input) error {
	header := fmt.Sprintf("serialbinder — %d authors, %d posts", len(input.Batches), input.Posts())
	fmt.Fprintln(w, f.bold(header))
	fmt.Fprintln(w)

	if len(input.Batches) == 0 {
		fmt.Fprintln(w, "No authors to collect.")
		return nil
	}

	for _, b := range input.Batches {
		fmt.Fprintln(w, f.bold("--- "+b.Author+" ---"))

		if b.Skipped != "" {
			fmt.Fprintf(w, "  %s\n\n", f.yellow("skipped: "+b.Skipped))
			continue
		}
		if len(b.Entries) == 0 {
			fmt.Fprintf(w, "  %s\n\n", f.dim("No matching posts."))
			continue
		}

		fmt.Fprintf(w, "  %s\n", f.green(f.bold(b.Title)))
		fmt.Fprintf(w, "  %s\n", f.dim(b.Filename))
		fmt.Fprintf(w, "  %s\n\n", f.dim(fmt.Sprintf("%d posts, %d already read", len(b.Entries), b.ReadCounted)))

		for _, e := range b.Entries {
			f.writeEntry(w, e, input)
		}
		fmt.Fprintln(w)
	}

	return nil
}

func (f *TerminalFormatter) writeEntry(w io.Writer, e source.Entry, input Input) {
	marker := "read"
	if !e.Post.IsRead() {
		marker = f.green("new ")
	}

	archived := ""
	if !e.ArchiveEligible {
		archived = " " + f.dim("(archived)")
	}

	fmt.Fprintf(w, "  [%s] %s %s  %s%s\n",
		marker,
		e.Post.CreatedAt.In(input.location()).Format(dateLayout),
		e.Post.Channel,
		e.CanonicalTitle,
		archived,
	)
	if e.Post.URL != "" {
		fmt.Fprintf(w, "         %s\n", f.dim(e.Post.URL))
	}
}

// ANSI helpers, no-op when color=false.

func (f *TerminalFormatter) bold(s string) string {
	if !f.color {
		return s
	}
	return "\033[1m" + s + "\033[0m"
}

func (f *TerminalFormatter) green(s string) string {
	if !f.color {
		return s
	}
	return "\033[32m" + s + "\033[0m"
}

func (f *TerminalFormatter) yellow(s string) string {
	if !f.color {
		return s
	}
	return "\033[33m" + s + "\033[0m"
}

func (f *TerminalFormatter) dim(s string) string {
	if !f.color {
		return s
	}
	return "\033[2m" + s + "\033[0m"
}
