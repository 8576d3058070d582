package identify

import (
	"strings"
	"unicode/utf8"

	"github.com/teamscribe/teamscribe/config"
	"github.com/teamscribe/teamscribe/team"
)

const (
	aliasScore        = 0.9
	voiceKeywordScore = 0.8
	partialNameFactor = 0.7
	// Fuzzy hits at or below this similarity are ignored.
	minFuzzySimilarity = 0.8
	// Search terms this short (in runes) match too much text to be useful.
	minTermLength = 3
)

// StrategyScore is one strategy's contribution to a candidate.
type StrategyScore struct {
	Strategy string  `json:"strategy"`
	Weight   float64 `json:"weight"`
	Score    float64 `json:"score"`
}

// Candidate is the result of scoring one speaker's text against one person.
type Candidate struct {
	MemberID   string          `json:"member_id"`
	Raw        float64         `json:"raw"`
	Breakdown  []StrategyScore `json:"breakdown"`
	Confidence float64         `json:"confidence"`
}

type strategyFunc func(s *Scorer, text string, p team.Person, contextType string) float64

var strategyFuncs = map[string]strategyFunc{
	config.StrategyExactName:    (*Scorer).exactName,
	config.StrategyAlias:        (*Scorer).alias,
	config.StrategyVoiceKeyword: (*Scorer).voiceKeyword,
	config.StrategyPartialName:  (*Scorer).partialName,
	config.StrategyRoleContext:  (*Scorer).roleContext,
}

// Scorer computes a normalized weighted confidence in [0,1]. It is pure and
// safe for concurrent use.
type Scorer struct {
	strategies      []config.Strategy
	contextKeywords map[string]map[string][]string
	fuzzy           Similarity
}

// NewScorer uses rules.Strategies in order, or the default list when empty.
// A nil fuzzy backend selects the substring fallback for partial_name_match.
func NewScorer(rules config.Rules, fuzzy Similarity) *Scorer {
	strategies := rules.Strategies
	if len(strategies) == 0 {
		strategies = config.DefaultStrategies()
	}
	return &Scorer{
		strategies:      append([]config.Strategy(nil), strategies...),
		contextKeywords: rules.ContextKeywords,
		fuzzy:           fuzzy,
	}
}

// Fuzzy reports whether a fuzzy backend is configured.
func (s *Scorer) Fuzzy() bool { return s.fuzzy != nil }

func (s *Scorer) Score(text string, p team.Person, contextType string) Candidate {
	lower := strings.ToLower(text)
	c := Candidate{MemberID: p.MemberID, Breakdown: make([]StrategyScore, 0, len(s.strategies))}

	var totalWeight float64
	for _, st := range s.strategies {
		var sub float64
		if fn, ok := strategyFuncs[st.Name]; ok {
			sub = fn(s, lower, p, contextType)
		}
		c.Breakdown = append(c.Breakdown, StrategyScore{Strategy: st.Name, Weight: st.Weight, Score: sub})
		c.Raw += sub * st.Weight
		totalWeight += st.Weight
	}

	if totalWeight > 0 {
		c.Confidence = clamp(c.Raw / totalWeight)
	}
	return c
}

func (s *Scorer) exactName(text string, p team.Person, _ string) float64 {
	name := strings.ToLower(p.FullName)
	if name != "" && strings.Contains(text, name) {
		return 1
	}
	return 0
}

func (s *Scorer) alias(text string, p team.Person, _ string) float64 {
	if containsAny(text, p.Aliases) {
		return aliasScore
	}
	return 0
}

func (s *Scorer) voiceKeyword(text string, p team.Person, _ string) float64 {
	if containsAny(text, p.VoiceKeywords) {
		return voiceKeywordScore
	}
	return 0
}

func (s *Scorer) partialName(text string, p team.Person, _ string) float64 {
	var score float64
	for _, term := range p.SearchTerms {
		if utf8.RuneCountInString(term) < minTermLength {
			continue
		}
		if s.fuzzy == nil {
			if strings.Contains(text, term) {
				score = partialNameFactor
			}
			continue
		}
		if sim := s.fuzzy.PartialRatio(term, text); sim > minFuzzySimilarity {
			score = max(score, sim*partialNameFactor)
		}
	}
	return score
}

// roleContext is the share of the person's team keywords for this meeting
// type that occur in the text.
func (s *Scorer) roleContext(text string, p team.Person, contextType string) float64 {
	keywords := s.contextKeywords[contextType][p.Team]
	if len(keywords) == 0 {
		return 0
	}
	hits := 0
	for _, k := range keywords {
		if k != "" && strings.Contains(text, strings.ToLower(k)) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n = strings.ToLower(n); n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
