package title

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ppiankov/serialbinder/internal/source"
)

var (
	// ErrEmptyInput is returned when there is nothing to derive a title from.
	ErrEmptyInput = errors.New("no entries to title")

	// ErrNoCommonPrefix is returned by CommonPrefix when two titles share
	// no leading character.
	ErrNoCommonPrefix = errors.New("no common prefix")
)

// missingChapter stands in for a chapter number a cutover title lacks.
const missingChapter = "XXX"

var (
	chapterRe     = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)*`)
	digitsRe      = regexp.MustCompile(`[0-9]+`)
	spacesRe      = regexp.MustCompile(` {2,}`)
	trailingSepRe = regexp.MustCompile(`(?: - |#|\()$`)
	cutoverRe     = regexp.MustCompile(`^` + CutoverMarker + ` - ([0-9T]+)(?: - Chapter ([0-9]+))?`)
)

// CommonPrefix returns the longest case-insensitive common prefix of a and
// b, spelled as in a. It fails with ErrNoCommonPrefix when the first
// characters already differ.
func CommonPrefix(a, b string) (string, error) {
	ra, rb := []rune(a), []rune(b)
	n := 0
	for n < len(ra) && n < len(rb) && unicode.ToLower(ra[n]) == unicode.ToLower(rb[n]) {
		n++
	}
	if n == 0 {
		return "", ErrNoCommonPrefix
	}
	return string(ra[:n]), nil
}

// Synthesize derives one title for a batch of entries, such as
// "Story - 10-11" for chapters 10 and 11 of the same story. Entries are
// ordered by authored-at time; the oldest and newest canonical titles are
// compared. When no range can be derived the oldest title is returned and
// the reason logged.
func Synthesize(entries []source.Entry, log *zap.Logger) (string, error) {
	if len(entries) == 0 {
		return "", ErrEmptyInput
	}
	if log == nil {
		log = zap.NewNop()
	}

	sorted := make([]source.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Post.CreatedAt.Before(sorted[j].Post.CreatedAt)
	})
	first := sorted[0].CanonicalTitle
	last := sorted[len(sorted)-1].CanonicalTitle

	if len(sorted) == 1 {
		return first, nil
	}
	if strings.HasPrefix(first, CutoverMarker) && strings.HasPrefix(last, CutoverMarker) {
		return cutoverRange(first, last, log), nil
	}

	lo := chapterRe.FindAllString(first, -1)
	hi := chapterRe.FindAllString(last, -1)
	if len(lo) == 0 || len(hi) == 0 {
		log.Info("no chapter numbers, using oldest title",
			zap.String("oldest", first),
			zap.String("newest", last))
		return first, nil
	}

	a, err := parseChapter(lo[len(lo)-1])
	if err == nil {
		var b chapter
		b, err = parseChapter(hi[len(hi)-1])
		if err == nil {
			return rangeTitle(first, last, a, b), nil
		}
	}
	log.Warn("chapter range fallback",
		zap.String("oldest", first),
		zap.String("newest", last),
		zap.Error(err))
	return first, nil
}

func rangeTitle(first, last string, a, b chapter) string {
	lo, hi := a, b
	if b.value < a.value {
		lo, hi = b, a
	}
	span := lo.text + "-" + hi.text

	prefix, err := CommonPrefix(first, last)
	if errors.Is(err, ErrNoCommonPrefix) {
		loc := chapterRe.FindStringIndex(first)
		return first[:loc[0]] + span + first[loc[1]:]
	}

	stem := digitsRe.ReplaceAllString(prefix, "")
	stem = spacesRe.ReplaceAllString(stem, " ")
	stem = strings.TrimSpace(trailingSepRe.ReplaceAllString(stem, ""))
	return stem + " - " + span
}

func cutoverRange(first, last string, log *zap.Logger) string {
	fm := cutoverRe.FindStringSubmatch(first)
	lm := cutoverRe.FindStringSubmatch(last)
	if fm == nil || lm == nil {
		log.Warn("cutover range fallback",
			zap.String("oldest", first),
			zap.String("newest", last))
		return first
	}
	return fmt.Sprintf("%s - %s-%s (%s-%s)",
		CutoverMarker, fm[1], lm[1], chapterOrMissing(fm[2]), chapterOrMissing(lm[2]))
}

func chapterOrMissing(s string) string {
	if s == "" {
		return missingChapter
	}
	return s
}

type chapter struct {
	value float64
	text  string
}

// parseChapter reads "7" as an integer and "7.5" as a decimal. Multi-dot
// numbers such as "1.2.3" do not parse.
func parseChapter(s string) (chapter, error) {
	if !strings.Contains(s, ".") {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return chapter{}, fmt.Errorf("parse chapter %q: %w", s, err)
		}
		return chapter{value: float64(n), text: strconv.FormatInt(n, 10)}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return chapter{}, fmt.Errorf("parse chapter %q: %w", s, err)
	}
	text := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return chapter{value: f, text: text}, nil
}
