package identify

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity is the fuzzy backend behind partial_name_match. Without one the
// strategy falls back to exact substring containment.
type Similarity interface {
	// PartialRatio scores the shorter string against its best-aligned
	// window in the longer one, in [0,1].
	PartialRatio(a, b string) float64
}

// Levenshtein implements Similarity with edit distance over rune windows.
type Levenshtein struct{}

func (Levenshtein) PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	needle := string(short)
	if strings.Contains(string(long), needle) {
		return 1
	}

	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		d := levenshtein.ComputeDistance(needle, string(long[i:i+len(short)]))
		if r := 1 - float64(d)/float64(len(short)); r > best {
			best = r
		}
	}
	return best
}
