package team

import "strings"

// SearchTerms derives the lowercase strings usable to spot a person in text:
// the full name, each of its words, aliases and voice keywords. Duplicates
// are dropped; the first occurrence keeps its position.
func SearchTerms(fullName string, aliases, voiceKeywords []string) []string {
	var terms []string
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		terms = append(terms, s)
	}

	add(fullName)
	for _, part := range strings.Fields(fullName) {
		add(part)
	}
	for _, a := range aliases {
		add(a)
	}
	for _, k := range voiceKeywords {
		add(k)
	}
	return terms
}
