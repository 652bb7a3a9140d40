// Package match decides which of an author's posts belong to a subscription.
package match

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/serialbinder/internal/config"
	"github.com/ppiankov/serialbinder/internal/source"
)

// ErrConfiguration reports a subscription that cannot be matched against:
// a missing or unknown mode, an invalid pattern or a bad threshold.
var ErrConfiguration = errors.New("invalid subscription")

// Mode selects how a subscription's fragment is compared with a title.
type Mode int

const (
	ModeUnset Mode = iota
	ModeLiteral
	ModeRegex
	ModeFuzzy
)

func (m Mode) String() string {
	switch m {
	case ModeLiteral:
		return "literal"
	case ModeRegex:
		return "regex"
	case ModeFuzzy:
		return "fuzzy"
	default:
		return "unset"
	}
}

// ParseMode parses a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "literal":
		return ModeLiteral, nil
	case "regex":
		return ModeRegex, nil
	case "fuzzy":
		return ModeFuzzy, nil
	case "":
		return ModeUnset, fmt.Errorf("%w: no match mode", ErrConfiguration)
	default:
		return ModeUnset, fmt.Errorf("%w: unknown match mode %q", ErrConfiguration, s)
	}
}

// Matcher is a compiled subscription.
type Matcher struct {
	Channel   string
	Fragment  string
	Mode      Mode
	Threshold int

	re *regexp.Regexp
}

// Compile validates sub and prepares it for matching.
func Compile(sub config.Subscription) (*Matcher, error) {
	mode, err := ParseMode(sub.Mode)
	if err != nil {
		return nil, fmt.Errorf("subscription %s/%q: %w", sub.Channel, sub.Fragment, err)
	}
	if strings.TrimSpace(sub.Channel) == "" {
		return nil, fmt.Errorf("%w: subscription %q has no channel", ErrConfiguration, sub.Fragment)
	}

	m := &Matcher{
		Channel:   sub.Channel,
		Fragment:  sub.Fragment,
		Mode:      mode,
		Threshold: sub.Threshold,
	}

	switch mode {
	case ModeLiteral:
		m.re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(sub.Fragment))
	case ModeRegex:
		re, err := regexp.Compile("(?i)" + sub.Fragment)
		if err != nil {
			return nil, fmt.Errorf("%w: subscription %s/%q: %v", ErrConfiguration, sub.Channel, sub.Fragment, err)
		}
		m.re = re
	case ModeFuzzy:
		if sub.Threshold < 1 || sub.Threshold > 100 {
			return nil, fmt.Errorf("%w: subscription %s/%q: fuzzy threshold %d not in 1-100",
				ErrConfiguration, sub.Channel, sub.Fragment, sub.Threshold)
		}
	}
	return m, nil
}

// Matches reports whether p is in the subscription's channel, has not been
// removed and has a matching title.
func (m *Matcher) Matches(p source.Post) bool {
	if p.Removed() || !strings.EqualFold(p.Channel, m.Channel) {
		return false
	}
	return m.MatchesTitle(p.Title)
}

// MatchesTitle compares a raw title with the fragment.
func (m *Matcher) MatchesTitle(title string) bool {
	switch m.Mode {
	case ModeLiteral, ModeRegex:
		return m.re.MatchString(title)
	case ModeFuzzy:
		return PartialRatio(m.Fragment, title) >= m.Threshold
	default:
		return false
	}
}

// Score returns the similarity of title to the fragment on a 0-100 scale.
// Literal and regex modes score either 0 or 100.
func (m *Matcher) Score(title string) int {
	if m.Mode == ModeFuzzy {
		return PartialRatio(m.Fragment, title)
	}
	if m.MatchesTitle(title) {
		return 100
	}
	return 0
}

func (m *Matcher) String() string {
	if m.Mode == ModeFuzzy {
		return fmt.Sprintf("%s %s %q >= %d", m.Channel, m.Mode, m.Fragment, m.Threshold)
	}
	return fmt.Sprintf("%s %s %q", m.Channel, m.Mode, m.Fragment)
}
