package title

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/serialbinder/internal/source"
)

func at(hour int) time.Time {
	return time.Date(2026, 6, 20, hour, 0, 0, 0, time.UTC)
}

func entry(title string, hour int) source.Entry {
	return source.Entry{
		Post:           source.Post{ID: title, Title: title, CreatedAt: at(hour)},
		CanonicalTitle: title,
	}
}

func TestCommonPrefix(t *testing.T) {
	tests := []struct {
		a, b string
		want string
	}{
		{"aa", "aa", "aa"},
		{"aa", "ab", "a"},
		{"aaa", "aaaaaaaaa", "aaa"},
		{"Story 1", "STORY 2", "Story "},
	}
	for _, tt := range tests {
		got, err := CommonPrefix(tt.a, tt.b)
		if err != nil {
			t.Errorf("CommonPrefix(%q, %q): %v", tt.a, tt.b, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CommonPrefix(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}

	if _, err := CommonPrefix("a", "b"); !errors.Is(err, ErrNoCommonPrefix) {
		t.Errorf("err = %v, want ErrNoCommonPrefix", err)
	}
}

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name    string
		entries []source.Entry
		want    string
	}{
		{"single", []source.Entry{entry("Only One 3", 19)}, "Only One 3"},
		{"simple range", []source.Entry{entry("aa 1", 19), entry("ab 2", 20)}, "a - 1-2"},
		{"reversed chronology", []source.Entry{entry("aa 1", 20), entry("ab 2", 19)}, "a - 1-2"},
		{"separator stripped", []source.Entry{entry("aa - 10", 19), entry("aa - 11", 20)}, "aa - 10-11"},
		{"prefix digits stripped", []source.Entry{entry("Abcd, Ch. 19", 19), entry("Abcd, Ch. 21", 20)}, "Abcd, Ch. - 19-21"},
		{
			"endpoints only",
			[]source.Entry{entry("ab 3", 14), entry("aa 1", 12), entry("ab 2", 13)},
			"a - 1-3",
		},
		{"no digits", []source.Entry{entry("aa", 19), entry("ab", 20)}, "aa"},
		{"hash separator", []source.Entry{entry("Log #7", 19), entry("Log #8", 20)}, "Log - 7-8"},
		{
			"last candidate on each side",
			[]source.Entry{entry("Book 2 Chapter 5", 19), entry("Book 2 Chapter 7", 20)},
			"Book Chapter - 5-7",
		},
		{"decimal chapters", []source.Entry{entry("Part 7.5", 19), entry("Part 8", 20)}, "Part - 7.5-8"},
		{"lower chapter posted later", []source.Entry{entry("Saga 12", 19), entry("Saga 4", 20)}, "Saga - 4-12"},
		{"no common prefix", []source.Entry{entry("3 Ships", 19), entry("Five 4", 20)}, "3-4 Ships"},
		{
			"cutover range",
			[]source.Entry{
				entry("FC - 20220110T1200 - Chapter 201", 19),
				entry("FC - 20220112T0800", 20),
			},
			"FC - 20220110T1200-20220112T0800 (201-XXX)",
		},
		{
			"cutover without chapters",
			[]source.Entry{entry("FC - 20220110T1200", 19), entry("FC - 20220112T0800", 20)},
			"FC - 20220110T1200-20220112T0800 (XXX-XXX)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Synthesize(tt.entries, nil)
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSynthesize_Empty(t *testing.T) {
	if _, err := Synthesize(nil, nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

func TestSynthesize_KeepsInputOrder(t *testing.T) {
	entries := []source.Entry{entry("ab 2", 20), entry("aa 1", 19)}
	if _, err := Synthesize(entries, nil); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if entries[0].CanonicalTitle != "ab 2" || entries[1].CanonicalTitle != "aa 1" {
		t.Errorf("input reordered: %q, %q", entries[0].CanonicalTitle, entries[1].CanonicalTitle)
	}
}

func TestSynthesize_FallbacksAreLogged(t *testing.T) {
	tests := []struct {
		name    string
		entries []source.Entry
		want    string
		message string
	}{
		{
			"unparseable chapter",
			[]source.Entry{entry("Version 1.2.3", 19), entry("Version 1.2.4", 20)},
			"Version 1.2.3",
			"chapter range fallback",
		},
		{
			"broken cutover title",
			[]source.Entry{entry("FC - 20220110T1200", 19), entry("FCx 3", 20)},
			"FC - 20220110T1200",
			"cutover range fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			got, err := Synthesize(tt.entries, zap.New(core))
			if err != nil {
				t.Fatalf("fallback must not fail: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if logs.FilterMessage(tt.message).Len() != 1 {
				t.Errorf("expected one %q warning, got %v", tt.message, logs.All())
			}
		})
	}
}
