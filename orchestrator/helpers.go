package orchestrator

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

const ruler = "--------------------------------------------------------------------------------"

// averageConfidence is 0 for an empty mapping.
func averageConfidence(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	vals := make([]float64, 0, len(scores))
	for _, v := range scores {
		vals = append(vals, v)
	}
	// fixed summation order keeps the mean reproducible
	sort.Float64s(vals)
	return stat.Mean(vals, nil)
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func baseName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.TrimSuffix(name, "_transcript")
}

func (p *Pipeline) teamNames(keys []string) string {
	f := p.identifier.Formatter()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = f.TeamName(k)
	}
	return strings.Join(names, ", ")
}

func (p *Pipeline) renderTranscript(r *Report) string {
	var b strings.Builder
	b.WriteString("ТРАНСКРИПТ ВСТРЕЧИ\n")
	fmt.Fprintf(&b, "Дата: %s\n", r.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Время: %s\n", r.GeneratedAt.Format("15:04"))
	fmt.Fprintf(&b, "Файл: %s\n", baseName(r.Input.source()))
	fmt.Fprintf(&b, "Шаблон: %s\n", r.TemplateType)
	if r.Mapping.Identified {
		b.WriteString("Идентификация команды: ✅ Включена\n")
		fmt.Fprintf(&b, "Участников определено: %d\n", r.Mapping.Statistics.TotalIdentified)
		fmt.Fprintf(&b, "Команды: %s\n", p.teamNames(r.Mapping.Statistics.TeamsPresent))
		fmt.Fprintf(&b, "Средняя точность: %s\n", percent(r.AverageConfidence))
	} else {
		b.WriteString("Идентификация команды: ❌ Отключена или не применялась\n")
	}
	b.WriteString("\n" + ruler + "\n\n")
	b.WriteString(r.Transcript)
	return b.String()
}

func (p *Pipeline) renderTeamInfo(r *Report) string {
	m := r.Mapping
	s := r.MappingSummary

	var b strings.Builder
	b.WriteString("ИНФОРМАЦИЯ О КОМАНДЕ\n")
	fmt.Fprintf(&b, "Дата: %s\n", r.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Время: %s\n", r.GeneratedAt.Format("15:04"))
	fmt.Fprintf(&b, "Файл: %s\n", filepath.Base(r.Input.source()))
	fmt.Fprintf(&b, "Шаблон: %s\n\n", r.TemplateType)

	if ctx := p.identifier.TeamContext(r.TemplateType, r.FromTranscript); ctx != "" {
		b.WriteString(ctx + "\n\n")
	}
	b.WriteString(m.ParticipantSummary + "\n\n")

	b.WriteString("СТАТИСТИКА ИДЕНТИФИКАЦИИ:\n")
	fmt.Fprintf(&b, "- Всего участников определено: %d\n", m.Statistics.TotalIdentified)
	fmt.Fprintf(&b, "- Из команды: %d, внешних: %d\n", s.TeamMembersFound, s.ExternalSpeakers)
	fmt.Fprintf(&b, "- Команды на встрече: %s\n", p.teamNames(s.TeamsRepresented))
	fmt.Fprintf(&b, "- Средняя точность определения: %s\n\n", percent(r.AverageConfidence))

	b.WriteString("ДЕТАЛИЗАЦИЯ ПО УЧАСТНИКАМ:\n")
	for _, e := range m.Entries {
		teamName := "неизвестно"
		if !e.External() {
			teamName = p.identifier.Formatter().TeamName(e.Person.Team)
		}
		fmt.Fprintf(&b, "\n%s:\n", e.Label)
		fmt.Fprintf(&b, "  - Имя: %s\n", e.Person.FullName)
		fmt.Fprintf(&b, "  - Роль: %s\n", e.Person.Role)
		fmt.Fprintf(&b, "  - Команда: %s\n", teamName)
		fmt.Fprintf(&b, "  - Источник: %s\n", e.Source)
		fmt.Fprintf(&b, "  - Точность определения: %s\n", percent(e.Confidence))
	}

	b.WriteString("\nЗАМЕНЫ В ТРАНСКРИПТЕ:\n")
	for _, e := range m.Entries {
		fmt.Fprintf(&b, "- %s → %s\n", e.Label, e.Replacement)
	}
	return b.String()
}
