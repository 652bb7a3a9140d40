package match

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
)

// PartialRatio scores how well the shorter of a and b appears inside the
// longer one, from 0 to 100. Every window of the longer string with the
// shorter string's length is compared by edit distance and the best window
// wins. Comparison ignores case. An empty input scores 0.
func PartialRatio(a, b string) int {
	short, long := []rune(strings.ToLower(a)), []rune(strings.ToLower(b))
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	needle := string(short)
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		d := levenshtein.ComputeDistance(needle, string(long[i:i+len(short)]))
		score := int(math.Round(100 * (1 - float64(d)/float64(len(short)))))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}
