package title

import (
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/serialbinder/internal/config"
	"github.com/ppiankov/serialbinder/internal/source"
)

var authored = time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC)

func rawPost(author, title string) source.Post {
	return source.Post{ID: "p", Author: author, Title: title, CreatedAt: authored}
}

func TestNormalize(t *testing.T) {
	n := Default(nil, nil)

	tests := []struct {
		name   string
		author string
		title  string
		want   string
	}{
		{"plain", "someone", "The Long Night", "The Long Night"},
		{"number words", "someone", "The Last Stand, Part Two", "The Last Stand, Part 2"},
		{"trailing periods", "someone", "It Ends Here...", "It Ends Here"},
		{"op tag", "someone", "[OP] Forty Two Days", "42 Days"},
		{"oc tag", "someone", "[OC] The Last Stand", "The Last Stand"},
		{"brackets", "someone", "Deathworlders [Part 3]", "Deathworlders Part 3"},
		{"serial tag", "someone", "[Serial] Forty Two Days", "42 Days"},
		{"story continuation", "someone", "Story Continuation: The Rest", ": The Rest"},
		{"non ascii dropped", "someone", "Café — Part Three", "Caf Part 3"},
		{"number word exception", "someone", "Seven Days of Fire, Part Two", "Seven Days of Fire, Part Two"},
		{
			"series with date",
			"someone",
			"Tales From the Terran Republic: Act One",
			"TFtTR 2026-03-04T0506 - : Act 1",
		},
		{
			"series case insensitive",
			"someone",
			"[OC] tales from the terran republic Two",
			"TFtTR 2026-03-04T0506 - 2",
		},
		{
			"first contact chapter gets prefix then cutover",
			"Ralts_Bloodthorne",
			"Chapter 12",
			"FC - 20260304T0506 - Chapter 12",
		},
		{
			"first contact titled directly",
			"Ralts_Bloodthorne",
			"First Contact - Chapter 40",
			"FC - 20260304T0506 - Chapter 40",
		},
		{"first contact marker too late", "Ralts_Bloodthorne", "The Nexus Chapter 3", "The Nexus Chapter 3"},
		{"author rules only for their author", "someone", "Chapter 12", "Chapter 12"},
		{"hunter or huntress", "Tigra21", "HoH 5", "Hunter or Huntress 5"},
		{"hunter or huntress needs more than the tag", "Tigra21", "HoH", "HoH"},
		{"tag for other author", "someone", "HoH 5", "HoH 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(rawPost(tt.author, tt.title))
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestNormalize_SeriesDateUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got := Default(nil, loc).Normalize(rawPost("someone", "Tales From the Terran Republic"))
	if !strings.HasPrefix(got, "TFtTR 2026-03-04T0706") {
		t.Errorf("got %q, want date rendered at UTC+2", got)
	}
}

func TestNormalize_DoesNotModifyPost(t *testing.T) {
	p := rawPost("someone", "[OC] Part One")
	Default(nil, nil).Normalize(p)
	if p.Title != "[OC] Part One" {
		t.Errorf("post title changed to %q", p.Title)
	}
}

func TestCompileRules(t *testing.T) {
	rules, err := CompileRules([]config.TitleRule{
		{Name: "abbrev", Author: "someone", StartsWith: "TLS", Pattern: "^TLS", Replace: "The Last Stand"},
		{Author: "someone", Within: 10, Contains: "Interlude", Prefix: "Side Story - "},
	})
	if err != nil {
		t.Fatalf("CompileRules: %v", err)
	}
	if rules[1].Name != "rule-2" {
		t.Errorf("default name = %q, want rule-2", rules[1].Name)
	}

	n := Default(rules, nil)
	if got := n.Normalize(rawPost("someone", "TLS Part Four")); got != "The Last Stand Part 4" {
		t.Errorf("pattern rule: got %q", got)
	}
	if got := n.Normalize(rawPost("someone", "Interlude: Home")); got != "Side Story - Interlude: Home" {
		t.Errorf("prefix rule: got %q", got)
	}
	if got := n.Normalize(rawPost("other", "TLS Part Four")); got != "TLS Part 4" {
		t.Errorf("rule applied to wrong author: got %q", got)
	}
}

func TestCompileRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		rule config.TitleRule
	}{
		{"bad pattern", config.TitleRule{Name: "bad", Pattern: "(["}},
		{"no action", config.TitleRule{Name: "idle", Contains: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CompileRules([]config.TitleRule{tt.rule}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRuleDatePlaceholder(t *testing.T) {
	r := Rule{Prefix: "{date} ", DateLayout: "2006"}
	if got := r.apply("x", authored); got != "2026 x" {
		t.Errorf("got %q", got)
	}
	r.DateLayout = ""
	if got := r.apply("x", authored); got != "{date} x" {
		t.Errorf("without layout got %q", got)
	}
}
