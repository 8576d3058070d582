package transcript

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ReplaceHeader rewrites "<label>:" occurrences that do not continue a
// preceding word. Matching is literal and case-sensitive.
func ReplaceHeader(text, label, name string) string {
	return replaceBounded(text, label+":", name+":", false)
}

// ReplaceWord rewrites label wherever it stands as a whole word. Word
// boundaries are Unicode-aware, unlike regexp's \b.
func ReplaceWord(text, label, name string) string {
	return replaceBounded(text, label, name, true)
}

func replaceBounded(text, old, repl string, checkAfter bool) string {
	if old == "" || !strings.Contains(text, old) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	i := 0
	for {
		j := strings.Index(text[i:], old)
		if j < 0 {
			break
		}
		j += i
		end := j + len(old)
		if boundaryBefore(text, j) && (!checkAfter || boundaryAfter(text, end)) {
			b.WriteString(text[i:j])
			b.WriteString(repl)
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[j:])
		b.WriteString(text[i : j+size])
		i = j + size
	}
	b.WriteString(text[i:])
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func boundaryBefore(text string, at int) bool {
	if at == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:at])
	return !isWordRune(r)
}

func boundaryAfter(text string, at int) bool {
	if at >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[at:])
	return !isWordRune(r)
}
