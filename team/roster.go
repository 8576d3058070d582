// Package team holds the roster of known people that speakers are matched against.
package team

import (
	"fmt"
	"strings"

	"github.com/teamscribe/teamscribe/config"
)

// Person is one roster member. Values are copied out of the roster, never shared.
type Person struct {
	MemberID      string   `json:"member_id"`
	FullName      string   `json:"full_name"`
	Role          string   `json:"role"`
	Team          string   `json:"team"`
	Aliases       []string `json:"aliases,omitempty"`
	VoiceKeywords []string `json:"voice_keywords,omitempty"`
	SearchTerms   []string `json:"-"`
}

func (p Person) clone() Person {
	p.Aliases = append([]string(nil), p.Aliases...)
	p.VoiceKeywords = append([]string(nil), p.VoiceKeywords...)
	p.SearchTerms = append([]string(nil), p.SearchTerms...)
	return p
}

// IsLead reports whether the role marks a team lead.
func (p Person) IsLead() bool {
	return strings.Contains(strings.ToLower(p.Role), "lead")
}

// Roster is an ordered, read-only directory of people. Iteration order is the
// declaration order of the configuration and decides ties during matching.
type Roster struct {
	members []Person
	byID    map[string]int
}

// NewRoster flattens validated team sections. It fails on structurally
// invalid members instead of guessing defaults.
func NewRoster(teams []config.TeamSection) (*Roster, error) {
	r := &Roster{byID: map[string]int{}}
	for _, t := range teams {
		for _, m := range t.Members {
			if strings.TrimSpace(m.FullName) == "" {
				return nil, fmt.Errorf("member %s.%s: empty full_name", t.Name, m.ID)
			}
			if strings.TrimSpace(m.Role) == "" {
				return nil, fmt.Errorf("member %s.%s: empty role", t.Name, m.ID)
			}
			if _, dup := r.byID[m.ID]; dup {
				return nil, fmt.Errorf("member %s.%s: duplicate member id", t.Name, m.ID)
			}
			teamName := t.Name
			if m.Team != "" {
				teamName = m.Team
			}
			p := Person{
				MemberID:      m.ID,
				FullName:      m.FullName,
				Role:          m.Role,
				Team:          teamName,
				Aliases:       append([]string(nil), m.Aliases...),
				VoiceKeywords: append([]string(nil), m.VoiceKeywords...),
				SearchTerms:   SearchTerms(m.FullName, m.Aliases, m.VoiceKeywords),
			}
			r.byID[m.ID] = len(r.members)
			r.members = append(r.members, p)
		}
	}
	return r, nil
}

func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.members)
}

// Members returns a copy of the roster in declaration order.
func (r *Roster) Members() []Person {
	if r == nil {
		return nil
	}
	out := make([]Person, len(r.members))
	for i, p := range r.members {
		out[i] = p.clone()
	}
	return out
}

func (r *Roster) Get(memberID string) (Person, bool) {
	if r == nil {
		return Person{}, false
	}
	i, ok := r.byID[memberID]
	if !ok {
		return Person{}, false
	}
	return r.members[i].clone(), true
}

// FindByFullName looks up a member by exact canonical name.
func (r *Roster) FindByFullName(name string) (Person, bool) {
	if r == nil {
		return Person{}, false
	}
	for _, p := range r.members {
		if p.FullName == name {
			return p.clone(), true
		}
	}
	return Person{}, false
}

// FindByName resolves a free-form name, as written by a summary, to a member.
// Per member, full name is tried before aliases and voice keywords; a hit is
// case-insensitive containment in either direction.
func (r *Roster) FindByName(name string) (Person, bool) {
	q := strings.ToLower(strings.TrimSpace(name))
	if r == nil || q == "" {
		return Person{}, false
	}
	for _, p := range r.members {
		if overlaps(q, p.FullName) || anyOverlaps(q, p.Aliases) || anyOverlaps(q, p.VoiceKeywords) {
			return p.clone(), true
		}
	}
	return Person{}, false
}

func overlaps(q, candidate string) bool {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if c == "" {
		return false
	}
	return strings.Contains(c, q) || strings.Contains(q, c)
}

func anyOverlaps(q string, candidates []string) bool {
	for _, c := range candidates {
		if overlaps(q, c) {
			return true
		}
	}
	return false
}
