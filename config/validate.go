package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidationReport collects configuration errors (fatal) and warnings.
type ValidationReport struct {
	Errors   []string
	Warnings []string
}

func (r *ValidationReport) Valid() bool { return len(r.Errors) == 0 }

// Err returns nil for a valid report, otherwise an error wrapping ErrInvalidTeamConfig.
func (r *ValidationReport) Err() error {
	if r.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidTeamConfig, strings.Join(r.Errors, "; "))
}

func (r *ValidationReport) errorf(format string, a ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, a...))
}

func (r *ValidationReport) warnf(format string, a ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, a...))
}

var (
	knownTemplates  = []string{"standup", "project", "review", "business", "standard"}
	knownStrategies = []string{StrategyExactName, StrategyAlias, StrategyVoiceKeyword, StrategyPartialName, StrategyRoleContext}
)

const maxReasonableMembers = 100

// Validate checks a parsed team configuration document before any roster is built.
func Validate(doc *yaml.Node) *ValidationReport {
	rep := &ValidationReport{}
	root := rootMapping(doc)
	if root == nil || root.Kind != yaml.MappingNode {
		rep.errorf("root must be an object")
		return rep
	}

	for _, section := range []string{"team_identification", "team_members"} {
		if mappingValue(root, section) == nil {
			rep.errorf("missing required section %s", section)
		}
	}

	enabled := validateIdentification(rep, mappingValue(root, "team_identification"))
	total := validateMembers(rep, mappingValue(root, "team_members"))
	validateRules(rep, mappingValue(root, "identification_rules"))
	validateOutput(rep, mappingValue(root, "output_formatting"))

	if mappingValue(root, "team_members") != nil && total == 0 {
		rep.errorf("configuration declares no team members")
		if enabled {
			rep.errorf("identification is enabled but the roster is empty")
		}
	}
	return rep
}

func validateIdentification(rep *ValidationReport, n *yaml.Node) (enabled bool) {
	if n == nil {
		return false
	}
	if n.Kind != yaml.MappingNode {
		rep.errorf("team_identification must be an object")
		return false
	}

	switch en := mappingValue(n, "enabled"); {
	case en == nil:
		rep.errorf("team_identification.enabled is not set")
	case !isBool(en):
		rep.errorf("team_identification.enabled must be a boolean")
	default:
		enabled = en.Value == "true"
	}

	if tpl := mappingValue(n, "apply_to_templates"); tpl != nil {
		if tpl.Kind != yaml.SequenceNode {
			rep.errorf("team_identification.apply_to_templates must be an array")
		} else {
			for _, item := range tpl.Content {
				if !contains(knownTemplates, item.Value) {
					rep.warnf("unknown template %q in apply_to_templates", item.Value)
				}
			}
		}
	}

	if th := mappingValue(n, "confidence_threshold"); th != nil {
		var v float64
		if !isNumber(th) || th.Decode(&v) != nil {
			rep.errorf("team_identification.confidence_threshold must be a number")
		} else if v < 0 || v > 1 {
			rep.errorf("team_identification.confidence_threshold must be between 0.0 and 1.0")
		}
	}

	for _, f := range []string{"fuzzy_matching", "partial_name_matching"} {
		if v := mappingValue(n, f); v != nil && !isBool(v) {
			rep.errorf("team_identification.%s must be a boolean", f)
		}
	}
	return enabled
}

func validateMembers(rep *ValidationReport, n *yaml.Node) int {
	if n == nil {
		return 0
	}
	if n.Kind != yaml.MappingNode {
		rep.errorf("team_members must be an object")
		return 0
	}
	teams := pairs(n)
	if len(teams) == 0 {
		rep.warnf("team_members is empty, nobody will be identified")
	}

	total := 0
	sizes := map[string]int{}
	names := newOccurrences()
	aliases := newOccurrences()
	ids := newOccurrences()

	for _, tp := range teams {
		if tp.value.Kind != yaml.MappingNode {
			rep.errorf("team %s must be an object", tp.key)
			continue
		}
		members := pairs(tp.value)
		if len(members) == 0 {
			rep.warnf("team %s is empty", tp.key)
		}
		sizes[tp.key] = len(members)
		total += len(members)

		for _, mp := range members {
			path := tp.key + "." + mp.key
			ids.add(mp.key, path)
			validateMember(rep, tp.key, path, mp.value)
			if mp.value.Kind != yaml.MappingNode {
				continue
			}
			if fn := mappingValue(mp.value, "full_name"); fn != nil && isString(fn) && fn.Value != "" {
				names.add(fn.Value, path)
			}
			if al := mappingValue(mp.value, "aliases"); al != nil && al.Kind == yaml.SequenceNode {
				for _, a := range al.Content {
					aliases.add(a.Value, path)
				}
			}
		}
	}

	if total > maxReasonableMembers {
		rep.warnf("very large roster (%d members), matching may be slow", total)
	}
	if len(sizes) > 1 {
		lo, hi := -1, 0
		for _, s := range sizes {
			if lo < 0 || s < lo {
				lo = s
			}
			if s > hi {
				hi = s
			}
		}
		if hi > lo*10 {
			rep.warnf("team sizes are very unbalanced")
		}
	}

	for _, d := range names.duplicates() {
		rep.errorf("duplicate full name %q: %s", d.value, strings.Join(d.paths, ", "))
	}
	for _, d := range ids.duplicates() {
		rep.errorf("duplicate member id %q: %s", d.value, strings.Join(d.paths, ", "))
	}
	for _, d := range aliases.duplicates() {
		rep.warnf("duplicate alias %q: %s", d.value, strings.Join(d.paths, ", "))
	}
	return total
}

func validateMember(rep *ValidationReport, teamName, path string, n *yaml.Node) {
	if n.Kind != yaml.MappingNode {
		rep.errorf("member %s must be an object", path)
		return
	}
	for _, f := range []string{"full_name", "role"} {
		v := mappingValue(n, f)
		switch {
		case v == nil:
			rep.errorf("member %s: missing %s", path, f)
		case !isString(v) || strings.TrimSpace(v.Value) == "":
			rep.errorf("member %s: %s must be a non-empty string", path, f)
		}
	}
	if t := mappingValue(n, "team"); t != nil && t.Value != teamName {
		rep.errorf("member %s: team field (%s) does not match team %s", path, t.Value, teamName)
	}
	for _, f := range []string{"aliases", "voice_keywords"} {
		v := mappingValue(n, f)
		if v == nil {
			continue
		}
		if v.Kind != yaml.SequenceNode {
			rep.errorf("member %s: %s must be an array", path, f)
			continue
		}
		for _, item := range v.Content {
			if !isString(item) {
				rep.errorf("member %s: %s items must be strings", path, f)
				break
			}
		}
	}
	if isEmptyList(mappingValue(n, "aliases")) && isEmptyList(mappingValue(n, "voice_keywords")) {
		rep.warnf("member %s has no aliases or voice_keywords, identification may be unreliable", path)
	}
}

func validateRules(rep *ValidationReport, n *yaml.Node) {
	if n == nil {
		rep.warnf("identification_rules is missing, default strategies will be used")
		return
	}
	if n.Kind != yaml.MappingNode {
		rep.errorf("identification_rules must be an object")
		return
	}
	if sm := mappingValue(n, "speaker_mapping"); sm != nil {
		for _, f := range []string{"enabled", "auto_replace_speakers", "create_participant_summary"} {
			if v := mappingValue(sm, f); v != nil && !isBool(v) {
				rep.errorf("identification_rules.speaker_mapping.%s must be a boolean", f)
			}
		}
	}
	if ss := mappingValue(n, "matching_strategies"); ss != nil {
		if ss.Kind != yaml.SequenceNode {
			rep.errorf("identification_rules.matching_strategies must be an array")
		} else {
			validateStrategies(rep, ss.Content)
		}
	}
	if ck := mappingValue(n, "context_keywords"); ck != nil {
		if ck.Kind != yaml.MappingNode {
			rep.errorf("identification_rules.context_keywords must be an object")
			return
		}
		for _, tpl := range pairs(ck) {
			if tpl.value.Kind != yaml.MappingNode {
				rep.errorf("context_keywords.%s must be an object", tpl.key)
				continue
			}
			for _, team := range pairs(tpl.value) {
				if team.value.Kind != yaml.SequenceNode {
					rep.errorf("context_keywords.%s.%s must be an array", tpl.key, team.key)
				}
			}
		}
	}
}

func validateStrategies(rep *ValidationReport, items []*yaml.Node) {
	for i, s := range items {
		if s.Kind != yaml.MappingNode {
			rep.errorf("strategy %d must be an object", i)
			continue
		}
		name := mappingValue(s, "strategy")
		weight := mappingValue(s, "weight")
		if name == nil {
			rep.errorf("strategy %d: missing field strategy", i)
		} else if !contains(knownStrategies, name.Value) {
			rep.errorf("strategy %d: unknown strategy %s", i, name.Value)
		}
		if weight == nil {
			rep.errorf("strategy %d: missing field weight", i)
			continue
		}
		var w float64
		if !isNumber(weight) || weight.Decode(&w) != nil {
			rep.errorf("strategy %d: weight must be a number", i)
		} else if w < 0 {
			rep.errorf("strategy %d: weight cannot be negative", i)
		}
	}
}

func validateOutput(rep *ValidationReport, n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind != yaml.MappingNode {
		rep.errorf("output_formatting must be an object")
		return
	}
	for _, f := range []string{"use_full_names", "include_roles", "group_by_teams", "add_team_structure", "highlight_team_leads"} {
		if v := mappingValue(n, f); v != nil && !isBool(v) {
			rep.errorf("output_formatting.%s must be a boolean", f)
		}
	}
	if dn := mappingValue(n, "team_display_names"); dn != nil && dn.Kind != yaml.MappingNode {
		rep.errorf("output_formatting.team_display_names must be an object")
	}
}

func isBool(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!bool"
}

func isNumber(n *yaml.Node) bool {
	if n.Kind != yaml.ScalarNode {
		return false
	}
	t := n.ShortTag()
	return t == "!!int" || t == "!!float"
}

func isString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}

func isEmptyList(n *yaml.Node) bool {
	return n == nil || n.Kind != yaml.SequenceNode || len(n.Content) == 0
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// occurrences records where each value was seen, keeping first-seen order.
type occurrences struct {
	order []string
	seen  map[string][]string
}

type duplicate struct {
	value string
	paths []string
}

func newOccurrences() *occurrences {
	return &occurrences{seen: map[string][]string{}}
}

func (o *occurrences) add(value, path string) {
	if _, ok := o.seen[value]; !ok {
		o.order = append(o.order, value)
	}
	o.seen[value] = append(o.seen[value], path)
}

func (o *occurrences) duplicates() []duplicate {
	var out []duplicate
	for _, v := range o.order {
		if paths := o.seen[v]; len(paths) > 1 {
			out = append(out, duplicate{value: v, paths: paths})
		}
	}
	return out
}
