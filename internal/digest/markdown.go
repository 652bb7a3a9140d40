package digest

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/serialbinder/internal/source"
)

// MarkdownFormatter formats batches as Markdown.
type MarkdownFormatter struct{}

// NewMarkdown creates a Markdown formatter.
func NewMarkdown() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format writes the batches as Markdown to w.
func (f *MarkdownFormatter) Format(w io.Writer, input Input) error {
	fmt.Fprintf(w, "# serialbinder batches\n\n")
	fmt.Fprintf(w, "%d authors, %d posts\n\n", len(input.Batches), input.Posts())

	if len(input.Batches) == 0 {
		fmt.Fprintln(w, "No authors to collect.")
		return nil
	}

	for _, b := range input.Batches {
		fmt.Fprintf(w, "## %s\n\n", escapeMarkdown(b.Author))

		if b.Skipped != "" {
			fmt.Fprintf(w, "*Skipped: %s*\n\n", b.Skipped)
			continue
		}
		if len(b.Entries) == 0 {
			fmt.Fprintf(w, "*No matching posts.*\n\n")
			continue
		}

		fmt.Fprintf(w, "**%s** `%s`\n\n", escapeMarkdown(b.Title), b.Filename)
		for _, e := range b.Entries {
			f.writeEntry(w, e, input)
		}
		fmt.Fprintln(w)
	}

	return nil
}

func (f *MarkdownFormatter) writeEntry(w io.Writer, e source.Entry, input Input) {
	title := escapeMarkdown(e.CanonicalTitle)
	if e.Post.URL != "" {
		title = fmt.Sprintf("[%s](%s)", title, e.Post.URL)
	}

	var flags []string
	if e.Post.IsRead() {
		flags = append(flags, "read")
	}
	if !e.ArchiveEligible {
		flags = append(flags, "archived")
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = " *(" + strings.Join(flags, ", ") + ")*"
	}

	fmt.Fprintf(w, "- %s · %s · %s%s\n",
		e.Post.CreatedAt.In(input.location()).Format(dateLayout),
		e.Post.Channel,
		title,
		suffix,
	)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"`", "\\`",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
