// Package identify matches transcript speakers to roster members.
package identify

import (
	"math"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/teamscribe/teamscribe/config"
	"github.com/teamscribe/teamscribe/team"
	"github.com/teamscribe/teamscribe/transcript"
)

type Identifier struct {
	settings  config.IdentificationSettings
	roster    *team.Roster
	scorer    *Scorer
	format    Formatter
	extractor *transcript.Extractor
	log       logrus.FieldLogger
}

type Option func(*options)

type options struct {
	log       logrus.FieldLogger
	fuzzy     Similarity
	fuzzySet  bool
	extractor *transcript.Extractor
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithSimilarity replaces the fuzzy backend. nil forces the substring fallback.
func WithSimilarity(s Similarity) Option {
	return func(o *options) { o.fuzzy, o.fuzzySet = s, true }
}

func WithExtractor(e *transcript.Extractor) Option {
	return func(o *options) { o.extractor = e }
}

// NewIdentifier binds a team configuration and its roster. A nil tc behaves as
// disabled identification.
func NewIdentifier(tc *config.TeamConfig, roster *team.Roster, opts ...Option) *Identifier {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if tc == nil {
		tc = &config.TeamConfig{}
	}
	if !o.fuzzySet && tc.Identification.FuzzyMatching {
		o.fuzzy = Levenshtein{}
	}
	if o.extractor == nil {
		o.extractor = transcript.NewExtractor()
	}
	return &Identifier{
		settings:  tc.Identification,
		roster:    roster,
		scorer:    NewScorer(tc.Rules, o.fuzzy),
		format:    NewFormatter(tc.Output),
		extractor: o.extractor,
		log:       o.log.WithField("component", "identifier"),
	}
}

// Formatter exposes the output formatting the identifier renders with.
func (id *Identifier) Formatter() Formatter { return id.format }

// Roster returns the roster speakers are matched against.
func (id *Identifier) Roster() *team.Roster { return id.roster }

// Applies reports whether identification runs for a template type, and why
// not. An empty allow-list admits every template.
func (id *Identifier) Applies(templateType string) (bool, Reason) {
	allowed := id.settings.ApplyToTemplates
	switch {
	case !id.settings.Enabled:
		return false, ReasonDisabled
	case len(allowed) > 0 && !slices.Contains(allowed, templateType):
		return false, ReasonTemplateNotApplicable
	case id.roster.Len() == 0:
		return false, ReasonNoTeamConfig
	}
	return true, ""
}

// Identify assigns each speaker the single best roster match at or above the
// confidence threshold. Speakers with no acceptable match are omitted. The
// result depends only on its inputs and the configuration.
func (id *Identifier) Identify(text, templateType string) Result {
	if ok, reason := id.Applies(templateType); !ok {
		id.log.WithFields(logrus.Fields{"template": templateType, "reason": reason}).Info("speaker identification skipped")
		return skipped(templateType, reason)
	}
	if strings.TrimSpace(text) == "" {
		return skipped(templateType, ReasonEmptyTranscript)
	}

	segments := id.extractor.Extract(text)
	var speakers []SpeakerMatch
	active := 0
	for _, seg := range segments {
		if seg.Text == "" {
			continue
		}
		active++
		if m, ok := id.match(seg, templateType); ok {
			speakers = append(speakers, m)
		}
	}
	if active == 0 {
		return skipped(templateType, ReasonNoSpeakers)
	}

	res := Result{
		Identified:       true,
		TemplateType:     templateType,
		Speakers:         speakers,
		ConfidenceScores: map[string]float64{},
		Replacements:     map[string]string{},
	}
	for _, s := range speakers {
		res.ConfidenceScores[s.Label] = s.Confidence
		res.Replacements[s.Label] = id.format.Replacement(s.Person)
	}
	ps := people(speakers)
	res.Statistics = NewStatistics(ps)
	res.ParticipantSummary = id.format.Participants(ps)

	id.log.WithFields(logrus.Fields{
		"template":   templateType,
		"speakers":   active,
		"identified": len(speakers),
	}).Info("speaker identification finished")
	return res
}

func (id *Identifier) match(seg transcript.Segment, templateType string) (SpeakerMatch, bool) {
	var (
		best  Candidate
		owner team.Person
	)
	for _, p := range id.roster.Members() {
		c := id.scorer.Score(seg.Text, p, templateType)
		switch {
		case c.Confidence > best.Confidence:
			best, owner = c, p
		case c.Confidence > 0 && c.Confidence == best.Confidence:
			id.log.WithFields(logrus.Fields{
				"label":   seg.Label,
				"kept":    best.MemberID,
				"dropped": c.MemberID,
				"score":   c.Confidence,
			}).Debug("tied candidates, keeping roster order")
		}
	}

	if best.Confidence == 0 || best.Confidence < id.settings.ConfidenceThreshold {
		id.log.WithFields(logrus.Fields{"label": seg.Label, "best": best.Confidence}).Debug("no candidate above threshold")
		return SpeakerMatch{}, false
	}
	return SpeakerMatch{Label: seg.Label, Person: owner, Confidence: round4(best.Confidence)}, true
}

// TeamContext renders meeting composition for a template prompt. It is empty
// when nobody was identified.
func (id *Identifier) TeamContext(templateType string, res Result) string {
	if len(res.Speakers) == 0 {
		return ""
	}
	parts := []string{"**Состав встречи:**", res.ParticipantSummary}
	if teams := res.Statistics.TeamsPresent; len(teams) > 1 {
		names := make([]string, len(teams))
		for i, t := range teams {
			names[i] = id.format.TeamName(t)
		}
		parts = append(parts, "\n**Представлены команды:** "+strings.Join(names, ", "))
	}
	if templateType == "standup" {
		parts = append(parts, "\n**Формат стендапа:** что делал вчера, планы на сегодня, блокеры")
	}
	return strings.Join(parts, "\n")
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
