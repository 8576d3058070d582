package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Names of the matching strategies understood by the scorer.
const (
	StrategyExactName    = "exact_name_match"
	StrategyAlias        = "alias_match"
	StrategyVoiceKeyword = "voice_keyword_match"
	StrategyPartialName  = "partial_name_match"
	StrategyRoleContext  = "role_context_match"
)

// DefaultConfidenceThreshold applies when team_identification omits confidence_threshold.
const DefaultConfidenceThreshold = 0.7

var ErrInvalidTeamConfig = errors.New("invalid team configuration")

type Strategy struct {
	Name   string  `yaml:"strategy"`
	Weight float64 `yaml:"weight"`
}

// DefaultStrategies is the strategy list used when none is configured.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: StrategyExactName, Weight: 1.0},
		{Name: StrategyAlias, Weight: 0.9},
		{Name: StrategyVoiceKeyword, Weight: 0.8},
		{Name: StrategyPartialName, Weight: 0.7},
		{Name: StrategyRoleContext, Weight: 0.6},
	}
}

type MemberConfig struct {
	ID            string   `yaml:"-"`
	FullName      string   `yaml:"full_name"`
	Role          string   `yaml:"role"`
	Team          string   `yaml:"team"`
	Aliases       []string `yaml:"aliases"`
	VoiceKeywords []string `yaml:"voice_keywords"`
}

// TeamSection is one entry of team_members, in declaration order.
type TeamSection struct {
	Name    string
	Members []MemberConfig
}

type IdentificationSettings struct {
	Enabled             bool
	ApplyToTemplates    []string
	ConfidenceThreshold float64
	FuzzyMatching       bool
}

type Rules struct {
	Strategies []Strategy
	// ContextKeywords maps template type -> team -> keywords.
	ContextKeywords map[string]map[string][]string
}

type OutputFormatting struct {
	IncludeRoles       bool
	GroupByTeams       bool
	HighlightTeamLeads bool
	TeamDisplayNames   map[string]string
}

// TeamConfig is the validated form of team_config.json.
type TeamConfig struct {
	Identification IdentificationSettings
	Teams          []TeamSection
	Rules          Rules
	Output         OutputFormatting
}

var defaultTeamDisplayNames = map[string]string{
	"management":  "Руководство",
	"development": "Разработка",
	"testing":     "Тестирование",
	"analytics":   "Аналитика",
}

// LoadTeamConfig reads, validates and decodes a team configuration file.
// The report is returned even when err is non-nil so callers can print it.
func LoadTeamConfig(path string) (*TeamConfig, *ValidationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read team config %q: %w", path, err)
	}
	return ParseTeamConfig(data)
}

// ParseTeamConfig accepts JSON or YAML.
func ParseTeamConfig(data []byte) (*TeamConfig, *ValidationReport, error) {
	doc, err := parseDocument(data)
	if err != nil {
		rep := &ValidationReport{Errors: []string{fmt.Sprintf("parse error: %v", err)}}
		return nil, rep, rep.Err()
	}
	rep := Validate(doc)
	if !rep.Valid() {
		return nil, rep, rep.Err()
	}
	tc, err := decodeTeamConfig(rootMapping(doc))
	if err != nil {
		return nil, rep, fmt.Errorf("%w: %v", ErrInvalidTeamConfig, err)
	}
	return tc, rep, nil
}

type identificationYAML struct {
	Enabled             *bool    `yaml:"enabled"`
	ApplyToTemplates    []string `yaml:"apply_to_templates"`
	ConfidenceThreshold *float64 `yaml:"confidence_threshold"`
	FuzzyMatching       *bool    `yaml:"fuzzy_matching"`
}

type rulesYAML struct {
	Strategies      []Strategy                     `yaml:"matching_strategies"`
	ContextKeywords map[string]map[string][]string `yaml:"context_keywords"`
}

type outputYAML struct {
	IncludeRoles       *bool             `yaml:"include_roles"`
	GroupByTeams       *bool             `yaml:"group_by_teams"`
	HighlightTeamLeads *bool             `yaml:"highlight_team_leads"`
	TeamDisplayNames   map[string]string `yaml:"team_display_names"`
}

func decodeTeamConfig(root *yaml.Node) (*TeamConfig, error) {
	tc := &TeamConfig{}

	var ident identificationYAML
	if n := mappingValue(root, "team_identification"); n != nil {
		if err := n.Decode(&ident); err != nil {
			return nil, fmt.Errorf("team_identification: %w", err)
		}
	}
	tc.Identification = IdentificationSettings{
		Enabled:             boolOr(ident.Enabled, false),
		ApplyToTemplates:    ident.ApplyToTemplates,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		FuzzyMatching:       boolOr(ident.FuzzyMatching, true),
	}
	if ident.ConfidenceThreshold != nil {
		tc.Identification.ConfidenceThreshold = *ident.ConfidenceThreshold
	}

	if n := mappingValue(root, "team_members"); n != nil {
		for _, tp := range pairs(n) {
			section := TeamSection{Name: tp.key}
			for _, mp := range pairs(tp.value) {
				var m MemberConfig
				if err := mp.value.Decode(&m); err != nil {
					return nil, fmt.Errorf("member %s.%s: %w", tp.key, mp.key, err)
				}
				m.ID = mp.key
				section.Members = append(section.Members, m)
			}
			tc.Teams = append(tc.Teams, section)
		}
	}

	var rules rulesYAML
	if n := mappingValue(root, "identification_rules"); n != nil {
		if err := n.Decode(&rules); err != nil {
			return nil, fmt.Errorf("identification_rules: %w", err)
		}
	}
	tc.Rules = Rules{Strategies: rules.Strategies, ContextKeywords: rules.ContextKeywords}
	if len(tc.Rules.Strategies) == 0 {
		tc.Rules.Strategies = DefaultStrategies()
	}

	var out outputYAML
	if n := mappingValue(root, "output_formatting"); n != nil {
		if err := n.Decode(&out); err != nil {
			return nil, fmt.Errorf("output_formatting: %w", err)
		}
	}
	tc.Output = OutputFormatting{
		IncludeRoles:       boolOr(out.IncludeRoles, false),
		GroupByTeams:       boolOr(out.GroupByTeams, true),
		HighlightTeamLeads: boolOr(out.HighlightTeamLeads, true),
		TeamDisplayNames:   map[string]string{},
	}
	for k, v := range defaultTeamDisplayNames {
		tc.Output.TeamDisplayNames[k] = v
	}
	for k, v := range out.TeamDisplayNames {
		tc.Output.TeamDisplayNames[k] = v
	}

	return tc, nil
}

// MemberCount is the number of members across all teams.
func (tc *TeamConfig) MemberCount() int {
	n := 0
	for _, t := range tc.Teams {
		n += len(t.Members)
	}
	return n
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

type pair struct {
	key   string
	value *yaml.Node
}

// pairs returns the entries of a mapping node in document order.
func pairs(n *yaml.Node) []pair {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, pair{key: n.Content[i].Value, value: n.Content[i+1]})
	}
	return out
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	for _, p := range pairs(n) {
		if p.key == key {
			return p.value
		}
	}
	return nil
}

func rootMapping(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}
