package identify

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamscribe/teamscribe/config"
	"github.com/teamscribe/teamscribe/team"
)

const standupTranscript = `Спикер 0: Владислав, как дела с фронтендом?

Спикер 1: Юлия на связи, тесты зелёные.

Спикер 2: Погода хорошая.`

func teamConfig(threshold float64, strategies ...config.Strategy) *config.TeamConfig {
	return &config.TeamConfig{
		Identification: config.IdentificationSettings{
			Enabled:             true,
			ApplyToTemplates:    []string{"standup", "project"},
			ConfidenceThreshold: threshold,
			FuzzyMatching:       true,
		},
		Teams: []config.TeamSection{
			{Name: "development", Members: []config.MemberConfig{{
				ID: "vlad", FullName: "Владислав Ульянов", Role: "Team Lead",
				Aliases: []string{"Влад"}, VoiceKeywords: []string{"фронтенд"},
			}}},
			{Name: "testing", Members: []config.MemberConfig{{
				ID: "yulia", FullName: "Юлия Петрова", Role: "QA Engineer",
				Aliases: []string{"Юля"}, VoiceKeywords: []string{"тестирование"},
			}}},
		},
		Rules: config.Rules{Strategies: strategies},
		Output: config.OutputFormatting{
			GroupByTeams:       true,
			HighlightTeamLeads: true,
			TeamDisplayNames:   map[string]string{"development": "Разработка"},
		},
	}
}

func partialOnly() config.Strategy {
	return config.Strategy{Name: config.StrategyPartialName, Weight: 1}
}

func newIdentifier(t *testing.T, tc *config.TeamConfig, opts ...Option) *Identifier {
	t.Helper()
	roster, err := team.NewRoster(tc.Teams)
	require.NoError(t, err)
	logger, _ := logtest.NewNullLogger()
	return NewIdentifier(tc, roster, append([]Option{WithLogger(logger)}, opts...)...)
}

func TestIdentifyStandup(t *testing.T) {
	id := newIdentifier(t, teamConfig(0.6, partialOnly()))

	res := id.Identify(standupTranscript, "standup")

	require.True(t, res.Identified)
	assert.Empty(t, res.Reason)
	require.Len(t, res.Speakers, 2)
	assert.Equal(t, "Спикер 0", res.Speakers[0].Label)
	assert.Equal(t, "vlad", res.Speakers[0].Person.MemberID)
	assert.Equal(t, 0.7, res.Speakers[0].Confidence)
	assert.Equal(t, "Спикер 1", res.Speakers[1].Label)
	assert.Equal(t, "yulia", res.Speakers[1].Person.MemberID)

	_, ok := res.Speaker("Спикер 2")
	assert.False(t, ok)

	assert.Equal(t, map[string]float64{"Спикер 0": 0.7, "Спикер 1": 0.7}, res.ConfidenceScores)
	assert.Equal(t, map[string]string{"Спикер 0": "Владислав Ульянов", "Спикер 1": "Юлия Петрова"}, res.Replacements)
	assert.Equal(t, Statistics{
		TotalIdentified: 2,
		TeamsPresent:    []string{"development", "testing"},
		RolesPresent:    []string{"Team Lead", "QA Engineer"},
		TeamBreakdown:   map[string]int{"development": 1, "testing": 1},
	}, res.Statistics)
	assert.Equal(t, "**Разработка:**\n• **Владислав Ульянов** - Team Lead\n\n**Testing:**\n• Юлия Петрова - QA Engineer", res.ParticipantSummary)
}

func TestIdentifyPartialFirstName(t *testing.T) {
	id := newIdentifier(t, teamConfig(0.6, partialOnly()))

	res := id.Identify("Спикер 0: Владислав, как дела?", "standup")

	require.Len(t, res.Speakers, 1)
	assert.Equal(t, "Владислав Ульянов", res.Speakers[0].Person.FullName)
	assert.GreaterOrEqual(t, res.ConfidenceScores["Спикер 0"], 0.6)
}

func TestIdentifyAlias(t *testing.T) {
	id := newIdentifier(t, teamConfig(0.6, config.Strategy{Name: config.StrategyAlias, Weight: 1}))

	res := id.Identify("Спикер 0: Влад, привет", "standup")

	require.Len(t, res.Speakers, 1)
	assert.Equal(t, "vlad", res.Speakers[0].Person.MemberID)
	assert.Equal(t, 0.9, res.Speakers[0].Confidence)
}

func TestIdentifySkipped(t *testing.T) {
	disabled := teamConfig(0.6)
	disabled.Identification.Enabled = false

	tests := []struct {
		name     string
		id       *Identifier
		text     string
		template string
		want     Reason
	}{
		{"disabled", newIdentifier(t, disabled), standupTranscript, "standup", ReasonDisabled},
		{"nil config", NewIdentifier(nil, nil), standupTranscript, "standup", ReasonDisabled},
		{"template", newIdentifier(t, teamConfig(0.6)), standupTranscript, "review", ReasonTemplateNotApplicable},
		{"no roster", NewIdentifier(teamConfig(0.6), nil), standupTranscript, "standup", ReasonNoTeamConfig},
		{"empty", newIdentifier(t, teamConfig(0.6)), " \n\t", "standup", ReasonEmptyTranscript},
		{"only headers", newIdentifier(t, teamConfig(0.6)), "Спикер 0:\nСпикер 1:", "standup", ReasonNoSpeakers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.id.Identify(tt.text, tt.template)
			assert.False(t, res.Identified)
			assert.Equal(t, tt.want, res.Reason)
			assert.Equal(t, tt.template, res.TemplateType)
			assert.Empty(t, res.Speakers)
			assert.Empty(t, res.Replacements)
			assert.Equal(t, NoParticipants, res.ParticipantSummary)
		})
	}
}

func TestIdentifyEmptyAllowListAppliesEverywhere(t *testing.T) {
	tc := teamConfig(0.6, partialOnly())
	tc.Identification.ApplyToTemplates = nil
	id := newIdentifier(t, tc)

	ok, reason := id.Applies("review")
	assert.True(t, ok)
	assert.Empty(t, reason)
	assert.True(t, id.Identify(standupTranscript, "review").Identified)
}

func TestIdentifyNobodyMatched(t *testing.T) {
	id := newIdentifier(t, teamConfig(0.6, partialOnly()))

	res := id.Identify("Спикер 0: Погода хорошая.", "standup")

	assert.True(t, res.Identified)
	assert.Empty(t, res.Speakers)
	assert.Zero(t, res.Statistics.TotalIdentified)
	assert.Equal(t, NoParticipants, res.ParticipantSummary)
}

func TestIdentifyWithoutLabels(t *testing.T) {
	id := newIdentifier(t, teamConfig(0.6, partialOnly()))

	res := id.Identify("Владислав рассказал про релиз", "standup")

	require.Len(t, res.Speakers, 1)
	assert.Equal(t, "Unknown", res.Speakers[0].Label)
}

func TestIdentifyIsDeterministic(t *testing.T) {
	id := newIdentifier(t, teamConfig(0.3))
	assert.Equal(t, id.Identify(standupTranscript, "standup"), id.Identify(standupTranscript, "standup"))
}

func TestIdentifyThresholdMonotonic(t *testing.T) {
	text := standupTranscript + "\n\nСпикер 3: Влад и Юля, фронтенд и тестирование готовы"
	var previous map[string]float64
	for _, threshold := range []float64{0.05, 0.2, 0.35, 0.5, 0.65, 0.8, 0.95} {
		res := newIdentifier(t, teamConfig(threshold)).Identify(text, "standup")
		for label := range res.ConfidenceScores {
			if previous != nil {
				assert.Contains(t, previous, label, "threshold %v", threshold)
			}
		}
		for _, s := range res.Speakers {
			assert.GreaterOrEqual(t, s.Confidence, threshold)
		}
		previous = res.ConfidenceScores
	}
}

func TestIdentifyTieKeepsRosterOrder(t *testing.T) {
	tc := teamConfig(0.5, config.Strategy{Name: config.StrategyAlias, Weight: 1})
	tc.Teams[0].Members[0].Aliases = []string{"Саша"}
	tc.Teams[1].Members[0].Aliases = []string{"Саша"}
	roster, err := team.NewRoster(tc.Teams)
	require.NoError(t, err)

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	id := NewIdentifier(tc, roster, WithLogger(logger))

	res := id.Identify("Спикер 0: Саша, привет", "standup")

	require.Len(t, res.Speakers, 1)
	assert.Equal(t, "vlad", res.Speakers[0].Person.MemberID)

	var tie *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "tied candidates, keeping roster order" {
			tie = e
		}
	}
	require.NotNil(t, tie)
	assert.Equal(t, "yulia", tie.Data["dropped"])
}

func TestIdentifyFuzzyDisabled(t *testing.T) {
	tc := teamConfig(0.6, partialOnly())
	tc.Teams[0].Members[0].Aliases = nil
	tc.Teams[0].Members[0].VoiceKeywords = nil
	text := "Спикер 0: Владеслав, привет"

	assert.Len(t, newIdentifier(t, tc).Identify(text, "standup").Speakers, 1)

	tc.Identification.FuzzyMatching = false
	assert.Empty(t, newIdentifier(t, tc).Identify(text, "standup").Speakers)

	tc.Identification.FuzzyMatching = true
	assert.Empty(t, newIdentifier(t, tc, WithSimilarity(nil)).Identify(text, "standup").Speakers)
}

func TestIdentifyIncludeRoles(t *testing.T) {
	tc := teamConfig(0.6, partialOnly())
	tc.Output.IncludeRoles = true

	res := newIdentifier(t, tc).Identify(standupTranscript, "standup")

	assert.Equal(t, "Владислав Ульянов (Team Lead)", res.Replacements["Спикер 0"])
}

func TestTeamContext(t *testing.T) {
	id := newIdentifier(t, teamConfig(0.6, partialOnly()))
	res := id.Identify(standupTranscript, "standup")

	got := id.TeamContext("standup", res)

	assert.Equal(t, "**Состав встречи:**\n"+res.ParticipantSummary+
		"\n\n**Представлены команды:** Разработка, Testing"+
		"\n\n**Формат стендапа:** что делал вчера, планы на сегодня, блокеры", got)

	assert.NotContains(t, id.TeamContext("project", res), "стендапа")
	assert.Empty(t, id.TeamContext("standup", Result{}))
}

func TestIdentifyExactNameBeatsSharedFirstName(t *testing.T) {
	tc := &config.TeamConfig{
		Identification: config.IdentificationSettings{
			Enabled:             true,
			ConfidenceThreshold: 0.3,
			FuzzyMatching:       true,
		},
		Teams: []config.TeamSection{
			{Name: "development", Members: []config.MemberConfig{
				{ID: "smirnov", FullName: "Александр Смирнов", Role: "Backend", Aliases: []string{"Саша"}},
				{ID: "petrov", FullName: "Александр Петров", Role: "Frontend", Aliases: []string{"Саша"}},
			}},
		},
	}
	id := newIdentifier(t, tc)

	res := id.Identify("Спикер 0: Сегодня докладывает Александр Петров.\n\nСпикер 1: Александр Смирнов, бэкенд готов.", "standup")

	require.Len(t, res.Speakers, 2)
	assert.Equal(t, "petrov", res.Speakers[0].Person.MemberID)
	assert.Equal(t, "smirnov", res.Speakers[1].Person.MemberID)
	assert.InDelta(t, (1.0+0.7*0.7)/4.0, res.Speakers[0].Confidence, 1e-4)
}
