// Package reconcile merges the transcript and summary identification passes
// into one speaker renaming and applies it.
package reconcile

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/teamscribe/teamscribe/identify"
	"github.com/teamscribe/teamscribe/team"
	"github.com/teamscribe/teamscribe/transcript"
)

// Source records which evidence decided an entry.
type Source string

const (
	SourceTranscript   Source = "transcript"
	SourceSummary      Source = "summary"
	SourceHintRoster   Source = "hint_roster"
	SourceHintExternal Source = "hint_external"
)

const (
	RosterConfidence   = 0.95
	ExternalConfidence = 0.7
	// Unknown fills team, role and member id of external speakers.
	Unknown = "unknown"
)

type Entry struct {
	Label       string      `json:"label"`
	Replacement string      `json:"replacement"`
	Person      team.Person `json:"person"`
	Source      Source      `json:"source"`
	Confidence  float64     `json:"confidence"`
}

// External reports whether the speaker is not on the roster.
func (e Entry) External() bool { return e.Source == SourceHintExternal }

// Mapping is the authoritative label renaming for one meeting.
type Mapping struct {
	Identified         bool                    `json:"identified"`
	TemplateType       string                  `json:"template_type"`
	Entries            []Entry                 `json:"entries"`
	Replacements       map[string]string       `json:"replacements"`
	Speakers           []identify.SpeakerMatch `json:"speakers"`
	ConfidenceScores   map[string]float64      `json:"confidence_scores"`
	Statistics         identify.Statistics     `json:"statistics"`
	ParticipantSummary string                  `json:"participant_summary"`
}

type Reconciler struct {
	roster    *team.Roster
	format    identify.Formatter
	extractor *transcript.Extractor
	log       logrus.FieldLogger
}

type Option func(*Reconciler)

func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Reconciler) { r.log = l.WithField("component", "reconciler") }
}

func WithExtractor(e *transcript.Extractor) Option {
	return func(r *Reconciler) { r.extractor = e }
}

// NewReconciler resolves summary hints against roster and renders roster
// people with format. A nil roster turns every hint external.
func NewReconciler(roster *team.Roster, format identify.Formatter, opts ...Option) *Reconciler {
	r := &Reconciler{
		roster:    roster,
		format:    format,
		extractor: transcript.NewExtractor(),
		log:       logrus.StandardLogger().WithField("component", "reconciler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile decides each label by the first available of: the transcript
// match, the summary match, a summary hint naming a roster member, and a
// summary hint taken verbatim. Labels with none of these are left out. A
// label matching a transcript label up to case takes the transcript's
// spelling so it rewrites the text.
func (r *Reconciler) Reconcile(transcriptText, summaryText string, fromTranscript, fromSummary identify.Result) Mapping {
	labels := r.extractor.Labels(transcriptText)
	decided := map[string]Entry{}
	var discovered []string
	add := func(e Entry) {
		if e.Label == transcript.UnknownLabel {
			return
		}
		e.Label = canonicalLabel(labels, e.Label)
		if _, ok := decided[e.Label]; ok {
			return
		}
		decided[e.Label] = e
		discovered = append(discovered, e.Label)
	}

	for _, pass := range []struct {
		res    identify.Result
		source Source
	}{{fromTranscript, SourceTranscript}, {fromSummary, SourceSummary}} {
		if !pass.res.Identified {
			continue
		}
		for _, s := range pass.res.Speakers {
			add(r.rosterEntry(s.Label, s.Person, pass.source))
		}
	}
	for _, h := range Hints(summaryText) {
		add(r.hintEntry(h))
	}

	var entries []Entry
	placed := map[string]bool{}
	for _, label := range append(labels, discovered...) {
		if e, ok := decided[label]; ok && !placed[label] {
			placed[label] = true
			entries = append(entries, e)
		}
	}

	m := newMapping(templateType(fromTranscript, fromSummary), entries)
	for _, e := range entries {
		r.log.WithFields(logrus.Fields{
			"speaker":    e.Label,
			"name":       e.Replacement,
			"source":     e.Source,
			"confidence": e.Confidence,
		}).Debug("speaker mapped")
	}
	return m
}

func canonicalLabel(labels []string, label string) string {
	for _, l := range labels {
		if strings.EqualFold(l, label) {
			return l
		}
	}
	return label
}

func (r *Reconciler) rosterEntry(label string, p team.Person, source Source) Entry {
	return Entry{
		Label:       label,
		Replacement: r.format.Replacement(p),
		Person:      p,
		Source:      source,
		Confidence:  RosterConfidence,
	}
}

func (r *Reconciler) hintEntry(h Hint) Entry {
	if p, ok := r.roster.FindByName(h.Name); ok {
		return r.rosterEntry(h.Label, p, SourceHintRoster)
	}
	return Entry{
		Label:       h.Label,
		Replacement: h.Name,
		Person:      team.Person{MemberID: Unknown, FullName: h.Name, Role: Unknown, Team: Unknown},
		Source:      SourceHintExternal,
		Confidence:  ExternalConfidence,
	}
}

func templateType(results ...identify.Result) string {
	for _, res := range results {
		if res.TemplateType != "" {
			return res.TemplateType
		}
	}
	return Unknown
}

func newMapping(templateType string, entries []Entry) Mapping {
	m := Mapping{
		Identified:       len(entries) > 0,
		TemplateType:     templateType,
		Entries:          entries,
		Replacements:     map[string]string{},
		ConfidenceScores: map[string]float64{},
	}
	people := make([]team.Person, 0, len(entries))
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		m.Replacements[e.Label] = e.Replacement
		m.ConfidenceScores[e.Label] = e.Confidence
		m.Speakers = append(m.Speakers, identify.SpeakerMatch{Label: e.Label, Person: e.Person, Confidence: e.Confidence})
		people = append(people, e.Person)
		parts = append(parts, e.Label+" → "+e.Replacement)
	}
	m.Statistics = identify.NewStatistics(people)
	m.ParticipantSummary = identify.NoParticipants
	if len(parts) > 0 {
		m.ParticipantSummary = strings.Join(parts, "; ")
	}
	return m
}

// Summary counts roster members against external speakers.
type Summary struct {
	TotalReplacements int      `json:"total_replacements"`
	TeamMembersFound  int      `json:"team_members_found"`
	ExternalSpeakers  int      `json:"external_speakers"`
	TeamsRepresented  []string `json:"teams_represented"`
	RolesRepresented  []string `json:"roles_represented"`
}

func (m Mapping) Summary() Summary {
	s := Summary{TotalReplacements: len(m.Entries)}
	var members []team.Person
	for _, e := range m.Entries {
		if e.External() {
			s.ExternalSpeakers++
			continue
		}
		s.TeamMembersFound++
		members = append(members, e.Person)
	}
	stats := identify.NewStatistics(members)
	s.TeamsRepresented, s.RolesRepresented = stats.TeamsPresent, stats.RolesPresent
	return s
}
