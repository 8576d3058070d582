// Package transcript splits speaker-labelled transcripts into per-speaker text
// and rewrites speaker labels.
package transcript

import (
	"regexp"
	"strings"
)

// UnknownLabel holds the whole input when no speaker header is recognized.
const UnknownLabel = "Unknown"

// LabelWords are the built-in label families, in priority order.
var LabelWords = []string{"Спикер", "Speaker", "Участник"}

// Segment is the text attributed to one speaker label.
type Segment struct {
	Label string
	Text  string
}

// Header is one recognized "<Label>:" occurrence; End is the offset right after the colon.
type Header struct {
	Label string
	Start int
	End   int
}

// Recognizer finds the speaker headers of one label family.
type Recognizer interface {
	Find(text string) []Header
}

type labelRecognizer struct {
	re *regexp.Regexp
}

// NewLabelRecognizer matches line-initial "<word> <N>:" headers, ignoring case.
func NewLabelRecognizer(word string) Recognizer {
	return labelRecognizer{re: regexp.MustCompile(`(?im)^[ \t]*(` + regexp.QuoteMeta(word) + `[ \t]+\d+)[ \t]*:`)}
}

func (r labelRecognizer) Find(text string) []Header {
	locs := r.re.FindAllStringSubmatchIndex(text, -1)
	headers := make([]Header, 0, len(locs))
	for _, loc := range locs {
		headers = append(headers, Header{Label: text[loc[2]:loc[3]], Start: loc[0], End: loc[1]})
	}
	return headers
}

func defaultRecognizers() []Recognizer {
	rs := make([]Recognizer, 0, len(LabelWords))
	for _, w := range LabelWords {
		rs = append(rs, NewLabelRecognizer(w))
	}
	return rs
}

// Extractor tries its recognizers in order; the first family with any match
// is used and the others are ignored.
type Extractor struct {
	recognizers []Recognizer
}

// NewExtractor allows extra label families; with none, the built-in ones are used.
func NewExtractor(recognizers ...Recognizer) *Extractor {
	if len(recognizers) == 0 {
		recognizers = defaultRecognizers()
	}
	return &Extractor{recognizers: recognizers}
}

var defaultExtractor = NewExtractor()

// Extract splits text with the built-in label families.
func Extract(text string) []Segment { return defaultExtractor.Extract(text) }

// Extract returns one segment per label in order of first appearance. Blocks
// of a label that speaks several times are joined with newlines.
func (e *Extractor) Extract(text string) []Segment {
	for _, r := range e.recognizers {
		if headers := r.Find(text); len(headers) > 0 {
			return collect(text, headers)
		}
	}
	return []Segment{{Label: UnknownLabel, Text: strings.TrimSpace(text)}}
}

// Labels lists the speaker labels of text in order of first appearance.
func (e *Extractor) Labels(text string) []string {
	var labels []string
	for _, s := range e.Extract(text) {
		if s.Label != UnknownLabel {
			labels = append(labels, s.Label)
		}
	}
	return labels
}

func collect(text string, headers []Header) []Segment {
	var segments []Segment
	index := map[string]int{}
	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1].Start
		}
		body := strings.TrimSpace(text[h.End:end])

		pos, seen := index[h.Label]
		if !seen {
			index[h.Label] = len(segments)
			segments = append(segments, Segment{Label: h.Label, Text: body})
			continue
		}
		switch {
		case body == "":
		case segments[pos].Text == "":
			segments[pos].Text = body
		default:
			segments[pos].Text += "\n" + body
		}
	}
	return segments
}
