// Package title turns raw post titles into canonical display titles and
// derives a single label for a batch of posts.
package title

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/ppiankov/serialbinder/internal/config"
	"github.com/ppiankov/serialbinder/internal/numword"
	"github.com/ppiankov/serialbinder/internal/source"
)

// datePlaceholder in a rule replacement is substituted with the post's
// authored-at time formatted with the rule's DateLayout.
const datePlaceholder = "{date}"

// Rule is one rewrite step. All conditions must hold for the rule to apply;
// zero-valued conditions always hold.
type Rule struct {
	Name string

	// Conditions.
	Author     string // exact author name
	Within     int    // when > 0, StartsWith and Contains only look at the first Within bytes
	StartsWith string
	Contains   string
	MinLength  int // title must be longer than MinLength bytes

	// Actions: Pattern is replaced by Replace, then Prefix is prepended.
	Pattern    *regexp.Regexp
	Replace    string
	Prefix     string
	DateLayout string
}

func (r Rule) applies(author, title string) bool {
	if r.Author != "" && r.Author != author {
		return false
	}
	if r.MinLength > 0 && len(title) <= r.MinLength {
		return false
	}
	head := title
	if r.Within > 0 && len(head) > r.Within {
		head = head[:r.Within]
	}
	if r.StartsWith != "" && !strings.HasPrefix(head, r.StartsWith) {
		return false
	}
	if r.Contains != "" && !strings.Contains(head, r.Contains) {
		return false
	}
	return true
}

func (r Rule) apply(title string, at time.Time) string {
	if r.Pattern != nil {
		title = r.Pattern.ReplaceAllString(title, r.expand(r.Replace, at))
	}
	if r.Prefix != "" {
		title = r.expand(r.Prefix, at) + title
	}
	return title
}

func (r Rule) expand(s string, at time.Time) string {
	if r.DateLayout == "" || !strings.Contains(s, datePlaceholder) {
		return s
	}
	return strings.ReplaceAll(s, datePlaceholder, at.Format(r.DateLayout))
}

// Normalizer produces canonical titles. It holds no mutable state and is
// safe for concurrent use.
type Normalizer struct {
	rules []Rule
	loc   *time.Location
}

// NewNormalizer builds a normalizer from rules, applied in order. Dates in
// rewritten titles are rendered in loc (UTC when nil).
func NewNormalizer(rules []Rule, loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{rules: rules, loc: loc}
}

// Default returns a normalizer over DefaultRules followed by extra.
func Default(extra []Rule, loc *time.Location) *Normalizer {
	rules := make([]Rule, 0, len(DefaultRules())+len(extra))
	rules = append(rules, DefaultRules()...)
	rules = append(rules, extra...)
	return NewNormalizer(rules, loc)
}

// Rules returns the normalizer's rule table in application order.
func (n *Normalizer) Rules() []Rule {
	return n.rules
}

// Normalize returns the canonical title of p:
//  1. characters outside printable ASCII are dropped
//  2. spelled-out numbers become digits
//  3. trailing periods are stripped
//  4. the rule table is applied in order
//  5. surrounding whitespace is trimmed
func (n *Normalizer) Normalize(p source.Post) string {
	t := printableASCII(p.Title)
	t = numword.Convert(t)
	t = strings.TrimRight(t, ".")

	at := p.CreatedAt.In(n.loc)
	for _, r := range n.rules {
		if r.applies(p.Author, t) {
			t = r.apply(t, at)
		}
	}
	return strings.TrimSpace(t)
}

// printableASCII keeps printable ASCII plus the ASCII whitespace controls.
func printableASCII(s string) string {
	t := runes.Remove(runes.Predicate(func(r rune) bool {
		switch r {
		case '\t', '\n', '\v', '\f', '\r':
			return false
		}
		return r < 0x20 || r > 0x7e
	}))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CompileRules converts configured rules into Rules.
func CompileRules(specs []config.TitleRule) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, s := range specs {
		r := Rule{
			Name:       s.Name,
			Author:     s.Author,
			Within:     s.Within,
			StartsWith: s.StartsWith,
			Contains:   s.Contains,
			MinLength:  s.MinLength,
			Replace:    s.Replace,
			Prefix:     s.Prefix,
			DateLayout: s.DateLayout,
		}
		if r.Name == "" {
			r.Name = fmt.Sprintf("rule-%d", i+1)
		}
		if s.Pattern != "" {
			re, err := regexp.Compile(s.Pattern)
			if err != nil {
				return nil, fmt.Errorf("title rule %s: compile pattern %q: %w", r.Name, s.Pattern, err)
			}
			r.Pattern = re
		}
		if r.Pattern == nil && r.Prefix == "" {
			return nil, fmt.Errorf("title rule %s: needs a pattern or a prefix", r.Name)
		}
		rules = append(rules, r)
	}
	return rules, nil
}
