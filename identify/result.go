package identify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/teamscribe/teamscribe/config"
	"github.com/teamscribe/teamscribe/team"
)

// Reason explains why identification did not run.
type Reason string

const (
	ReasonDisabled              Reason = "identification_disabled"
	ReasonTemplateNotApplicable Reason = "template_not_applicable"
	ReasonNoTeamConfig          Reason = "no_team_config"
	ReasonEmptyTranscript       Reason = "empty_transcript"
	ReasonNoSpeakers            Reason = "no_speakers"
)

// NoParticipants is the summary rendered when nobody was identified.
const NoParticipants = "Участники не определены"

type SpeakerMatch struct {
	Label      string      `json:"label"`
	Person     team.Person `json:"person"`
	Confidence float64     `json:"confidence"`
}

// Statistics describes who was identified in one meeting.
type Statistics struct {
	TotalIdentified int            `json:"total_identified"`
	TeamsPresent    []string       `json:"teams_present"`
	RolesPresent    []string       `json:"roles_present"`
	TeamBreakdown   map[string]int `json:"team_breakdown"`
}

// Result is the outcome of Identify. Identified is false only when the run was
// skipped, in which case Reason says why. A run that matched nobody is still
// Identified with no speakers.
type Result struct {
	Identified         bool               `json:"identified"`
	Reason             Reason             `json:"reason,omitempty"`
	TemplateType       string             `json:"template_type"`
	Speakers           []SpeakerMatch     `json:"speakers"`
	ConfidenceScores   map[string]float64 `json:"confidence_scores"`
	Statistics         Statistics         `json:"statistics"`
	Replacements       map[string]string  `json:"replacements"`
	ParticipantSummary string             `json:"participant_summary"`
}

// Speaker returns the match for a label.
func (r Result) Speaker(label string) (SpeakerMatch, bool) {
	for _, s := range r.Speakers {
		if s.Label == label {
			return s, true
		}
	}
	return SpeakerMatch{}, false
}

func skipped(templateType string, reason Reason) Result {
	return Result{
		Reason:             reason,
		TemplateType:       templateType,
		ConfidenceScores:   map[string]float64{},
		Statistics:         NewStatistics(nil),
		Replacements:       map[string]string{},
		ParticipantSummary: NoParticipants,
	}
}

// NewStatistics aggregates people in order of first appearance.
func NewStatistics(people []team.Person) Statistics {
	s := Statistics{TotalIdentified: len(people), TeamBreakdown: map[string]int{}}
	roles := map[string]bool{}
	for _, p := range people {
		if _, ok := s.TeamBreakdown[p.Team]; !ok {
			s.TeamsPresent = append(s.TeamsPresent, p.Team)
		}
		s.TeamBreakdown[p.Team]++
		if !roles[p.Role] {
			roles[p.Role] = true
			s.RolesPresent = append(s.RolesPresent, p.Role)
		}
	}
	return s
}

// Formatter renders names and participant lists per output_formatting.
type Formatter struct {
	out config.OutputFormatting
}

func NewFormatter(out config.OutputFormatting) Formatter {
	return Formatter{out: out}
}

// Replacement is the text a speaker label is rewritten to.
func (f Formatter) Replacement(p team.Person) string {
	if f.out.IncludeRoles {
		return p.FullName + " (" + p.Role + ")"
	}
	return p.FullName
}

// TeamName returns the configured display name, or the key title-cased.
func (f Formatter) TeamName(key string) string {
	if name, ok := f.out.TeamDisplayNames[key]; ok && name != "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return string(unicode.ToUpper(r)) + key[size:]
}

// Participants renders the human-readable participant list.
func (f Formatter) Participants(people []team.Person) string {
	if len(people) == 0 {
		return NoParticipants
	}
	if !f.out.GroupByTeams {
		lines := make([]string, 0, len(people))
		for _, p := range people {
			lines = append(lines, "• "+p.FullName+" - "+p.Role)
		}
		return strings.Join(lines, "\n")
	}

	var order []string
	byTeam := map[string][]team.Person{}
	for _, p := range people {
		if _, ok := byTeam[p.Team]; !ok {
			order = append(order, p.Team)
		}
		byTeam[p.Team] = append(byTeam[p.Team], p)
	}

	blocks := make([]string, 0, len(order))
	for _, t := range order {
		var b strings.Builder
		b.WriteString("**" + f.TeamName(t) + ":**")
		for _, p := range byTeam[t] {
			name := p.FullName
			if f.out.HighlightTeamLeads && p.IsLead() {
				name = "**" + name + "**"
			}
			b.WriteString("\n• " + name + " - " + p.Role)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func people(speakers []SpeakerMatch) []team.Person {
	out := make([]team.Person, 0, len(speakers))
	for _, s := range speakers {
		out = append(out, s.Person)
	}
	return out
}
