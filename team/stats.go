package team

// Stats describes the configured roster, not a meeting.
type Stats struct {
	TotalMembers  int                 `json:"total_members"`
	Teams         []string            `json:"teams"`
	TeamSizes     map[string]int      `json:"team_sizes"`
	TeamBreakdown map[string][]string `json:"team_breakdown"`
}

func (r *Roster) Stats() Stats {
	s := Stats{TeamSizes: map[string]int{}, TeamBreakdown: map[string][]string{}}
	for _, p := range r.Members() {
		if _, ok := s.TeamSizes[p.Team]; !ok {
			s.Teams = append(s.Teams, p.Team)
		}
		s.TeamSizes[p.Team]++
		s.TeamBreakdown[p.Team] = append(s.TeamBreakdown[p.Team], p.MemberID)
		s.TotalMembers++
	}
	return s
}
