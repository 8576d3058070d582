package reconcile

import (
	"regexp"
	"strings"

	"github.com/teamscribe/teamscribe/transcript"
)

// Hint is a label the summary already names, as in "Спикер 1 (Анна):".
type Hint struct {
	Label string `json:"label"`
	Name  string `json:"name"`
}

var hintRe = compileHintRe(transcript.LabelWords)

func compileHintRe(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)((?:` + strings.Join(quoted, "|") + `)[ \t]+\d+)[ \t]*\(([^()\n]+)\)[ \t]*:`)
}

// Hints scrapes named labels from summary text in order of first mention.
// Labels compare case-insensitively; a later hint for the same label replaces
// the earlier name but keeps the first spelling of the label.
func Hints(summary string) []Hint {
	var hints []Hint
	index := map[string]int{}
	for _, m := range hintRe.FindAllStringSubmatch(summary, -1) {
		name := strings.TrimSpace(m[2])
		if name == "" {
			continue
		}
		key := strings.ToLower(m[1])
		if i, ok := index[key]; ok {
			hints[i].Name = name
			continue
		}
		index[key] = len(hints)
		hints = append(hints, Hint{Label: m[1], Name: name})
	}
	return hints
}
