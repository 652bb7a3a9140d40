package title

import "regexp"

// Author-specific conventions.
const (
	authorRalts = "Ralts_Bloodthorne"
	authorTigra = "Tigra21"

	// CutoverMarker opens every title of the renumbered First Contact
	// series. Ralts_Bloodthorne stopped numbering chapters on 2022-01-10, so
	// those titles carry a timestamp to stay unique and ordered when several
	// chapters land on the same day.
	CutoverMarker = "FC"
)

// DefaultRules returns the built-in rewrite table in application order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "tftr-series",
			Pattern:    regexp.MustCompile(`(?i)(.*)Tales From the Terran Republic(.*)`),
			Replace:    "TFtTR {date} - ${1} ${2}",
			DateLayout: "2006-01-02T1504",
		},
		{Name: "op-tag", Pattern: regexp.MustCompile(`\[OP\]`), Replace: " "},
		{Name: "oc-tag", Pattern: regexp.MustCompile(`\[OC\]`), Replace: " "},
		{Name: "brackets", Pattern: regexp.MustCompile(`[\[\]]`), Replace: " "},
		{Name: "spaces", Pattern: regexp.MustCompile(` +`), Replace: " "},
		{Name: "story-continuation", Pattern: regexp.MustCompile(`Story Continuation`), Replace: ""},
		{Name: "serial-tag", Pattern: regexp.MustCompile(`^ Serial `), Replace: ""},
		{
			Name:     "first-contact-prefix",
			Author:   authorRalts,
			Within:   7,
			Contains: "Chapter",
			Prefix:   "First Contact - ",
		},
		{
			Name:       "first-contact-cutover",
			Author:     authorRalts,
			Within:     13,
			Contains:   "First Contact",
			Pattern:    regexp.MustCompile(regexp.QuoteMeta("First Contact")),
			Replace:    CutoverMarker + " - {date}",
			DateLayout: "20060102T1504",
		},
		{
			Name:       "hunter-or-huntress",
			Author:     authorTigra,
			StartsWith: "HoH",
			MinLength:  3,
			Pattern:    regexp.MustCompile(`HoH`),
			Replace:    "Hunter or Huntress",
		},
	}
}
