package digest

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/serialbinder/internal/source"
)

func makeEntry(id, canonical string, read, eligible bool) source.Entry {
	p := source.Post{
		ID:        id,
		Title:     "[OC] " + canonical,
		CreatedAt: time.Date(2026, 6, 20, 19, 0, 0, 0, time.UTC),
		Channel:   "HFY",
		Author:    "someone",
		URL:       "https://www.reddit.com/r/HFY/comments/" + id + "/",
	}
	if read {
		liked := true
		p.Liked = &liked
	}
	return source.Entry{Post: p, CanonicalTitle: canonical, ArchiveEligible: eligible}
}

func sampleInput() Input {
	return Input{
		Batches: []Batch{
			{
				Author:      "someone",
				Title:       "Story - 1-2",
				Filename:    "Story - 1-2.azw3",
				ReadCounted: 1,
				Entries: []source.Entry{
					makeEntry("p2", "Story 2", false, true),
					makeEntry("p1", "Story 1", true, false),
				},
			},
			{Author: "quiet"},
			{Author: "banned", Skipped: "access denied"},
		},
		GeneratedAt: time.Date(2026, 6, 21, 8, 0, 0, 0, time.UTC),
	}
}

func TestTerminal_FullOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTerminal(false).Format(&buf, sampleInput()); err != nil {
		t.Fatalf("format: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"3 authors, 2 posts",
		"--- someone ---",
		"Story - 1-2",
		"Story - 1-2.azw3",
		"2 posts, 1 already read",
		"[new ] 2026-06-20 HFY  Story 2",
		"[read] 2026-06-20 HFY  Story 1 (archived)",
		"https://www.reddit.com/r/HFY/comments/p1/",
		"--- quiet ---",
		"No matching posts.",
		"skipped: access denied",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Story 2 (archived)") {
		t.Error("eligible entry marked archived")
	}
	if strings.Contains(out, "\033[") {
		t.Error("ANSI codes without color")
	}
}

func TestTerminal_Color(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTerminal(true).Format(&buf, sampleInput()); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(buf.String(), "\033[1m") {
		t.Error("expected ANSI bold")
	}
}

func TestTerminal_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTerminal(false).Format(&buf, Input{}); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(buf.String(), "No authors to collect.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTerminal_Location(t *testing.T) {
	in := sampleInput()
	in.Location = time.FixedZone("UTC+8", 8*60*60)

	var buf bytes.Buffer
	if err := NewTerminal(false).Format(&buf, in); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(buf.String(), "2026-06-21 HFY") {
		t.Errorf("dates not shown in location:\n%s", buf.String())
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"", "*digest.TerminalFormatter"},
		{"terminal", "*digest.TerminalFormatter"},
		{"markdown", "*digest.MarkdownFormatter"},
		{"json", "*digest.JSONFormatter"},
	}
	for _, tt := range tests {
		f, err := New(tt.format, false)
		if err != nil {
			t.Errorf("New(%q): %v", tt.format, err)
			continue
		}
		if got := fmt.Sprintf("%T", f); got != tt.want {
			t.Errorf("New(%q) = %s, want %s", tt.format, got, tt.want)
		}
	}

	if _, err := New("html", false); err == nil {
		t.Error("expected error for unknown format")
	}
}
