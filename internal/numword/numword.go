// Package numword rewrites spelled-out English numbers as digits.
package numword

import (
	"regexp"
	"strconv"
	"strings"
)

// minExceptionLen is the shortest text the exception list is checked against.
const minExceptionLen = 10

// exceptions are titles that contain number words as part of a proper noun.
// Text containing any of them is returned untouched.
var exceptions = []string{
	"Seven Days of Fire",
}

var vocabulary = map[string]int{
	"zero":      0,
	"one":       1,
	"two":       2,
	"three":     3,
	"four":      4,
	"five":      5,
	"six":       6,
	"seven":     7,
	"eight":     8,
	"nine":      9,
	"ten":       10,
	"eleven":    11,
	"twelve":    12,
	"thirteen":  13,
	"fourteen":  14,
	"fifteen":   15,
	"sixteen":   16,
	"seventeen": 17,
	"eighteen":  18,
	"nineteen":  19,
	"twenty":    20,
	"thirty":    30,
	"forty":     40,
	"fifty":     50,
	"sixty":     60,
	"seventy":   70,
	"eighty":    80,
	"ninety":    90,
	"hundred":   100,
	"thousand":  1000,
}

// Hyphenated and apostrophe words stay one token, so "forty-two" and
// "one's" are never treated as number words.
var tokenRe = regexp.MustCompile(`[A-Za-z]+(?:['-][A-Za-z]+)*`)

type span struct {
	start, end int
	words      []string
}

// Convert replaces every maximal run of number words in text with its value
// in digits. Runs may only be separated by whitespace; any other character
// ends a run. Convert is idempotent.
func Convert(text string) string {
	if len(text) > minExceptionLen {
		for _, e := range exceptions {
			if strings.Contains(text, e) {
				return text
			}
		}
	}

	runs := findRuns(text)
	if len(runs) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, r := range runs {
		b.WriteString(text[last:r.start])
		b.WriteString(strconv.Itoa(Value(r.words)))
		last = r.end
	}
	b.WriteString(text[last:])
	return b.String()
}

// Value parses a sequence of number words as a compound number:
// "forty two" is 42, "three hundred five" is 305, "two thousand ten" is 2010.
// Unknown words are ignored.
func Value(words []string) int {
	total, current := 0, 0
	for _, w := range words {
		v, ok := vocabulary[strings.ToLower(w)]
		if !ok {
			continue
		}
		switch v {
		case 100:
			if current == 0 {
				current = 1
			}
			current *= 100
		case 1000:
			if current == 0 {
				current = 1
			}
			total += current * 1000
			current = 0
		default:
			current += v
		}
	}
	return total + current
}

func findRuns(text string) []span {
	var runs []span
	open := false
	for _, loc := range tokenRe.FindAllStringIndex(text, -1) {
		word := strings.ToLower(text[loc[0]:loc[1]])
		if _, ok := vocabulary[word]; !ok {
			open = false
			continue
		}
		if open {
			last := &runs[len(runs)-1]
			if strings.TrimSpace(text[last.end:loc[0]]) == "" {
				last.end = loc[1]
				last.words = append(last.words, word)
				continue
			}
		}
		runs = append(runs, span{start: loc[0], end: loc[1], words: []string{word}})
		open = true
	}
	return runs
}
