package match

import (
	"strings"
	"time"

	"github.com/ppiankov/serialbinder/internal/source"
)

// archiveAge is how long Reddit keeps a post open for votes.
const archiveAge = 6 // months

// ArchiveEligible reports whether p can still be voted on: its authored-at
// day must fall after now minus six months. Posts in unlockedChannel, which
// has archiving disabled, are always eligible.
func ArchiveEligible(p source.Post, now time.Time, unlockedChannel string) bool {
	if unlockedChannel != "" && strings.EqualFold(p.Channel, unlockedChannel) {
		return true
	}
	created := p.CreatedAt.In(now.Location())
	day := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, now.Location())
	return day.After(now.AddDate(0, -archiveAge, 0))
}
