package reconcile

import "github.com/teamscribe/teamscribe/transcript"

// Apply rewrites every mapped label in text: first "<label>:" headers, then
// bare whole-word mentions. Text without the labels is returned unchanged.
func Apply(text string, m Mapping) string {
	for _, e := range m.Entries {
		text = transcript.ReplaceHeader(text, e.Label, e.Replacement)
		text = transcript.ReplaceWord(text, e.Label, e.Replacement)
	}
	return text
}
