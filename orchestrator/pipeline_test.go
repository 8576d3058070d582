package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamscribe/teamscribe/clients"
	"github.com/teamscribe/teamscribe/config"
	"github.com/teamscribe/teamscribe/reconcile"
	"github.com/teamscribe/teamscribe/team"
)

const teamJSON = `{
  "team_identification": {"enabled": true, "apply_to_templates": ["standup"], "confidence_threshold": 0.6},
  "team_members": {
    "development": {"vlad": {"full_name": "Владислав Ульянов", "role": "Team Lead", "aliases": ["Влад"]}},
    "testing": {"yulia": {"full_name": "Юлия Петрова", "role": "QA Engineer", "aliases": ["Юля"]}}
  },
  "identification_rules": {"matching_strategies": [{"strategy": "partial_name_match", "weight": 1.0}]}
}`

const meeting = "Спикер 0: Владислав, как дела?\n\nСпикер 1: Всё по плану.\n\nСпикер 2: Я Юлия, тесты готовы."

var fixedNow = time.Date(2026, 10, 18, 9, 15, 0, 0, time.UTC)

type fixture struct {
	dir  string
	root *config.Root
	tc   *config.TeamConfig
	r    *team.Roster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tc, _, err := config.ParseTeamConfig([]byte(teamJSON))
	require.NoError(t, err)
	roster, err := team.NewRoster(tc.Teams)
	require.NoError(t, err)

	dir := t.TempDir()
	root := &config.Root{
		Paths:          config.Paths{Outputs: filepath.Join(dir, "out")},
		Identification: config.Identification{TemplateType: "standup"},
	}
	return &fixture{dir: dir, root: root, tc: tc, r: roster}
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) pipeline(opts ...Option) *Pipeline {
	logger, _ := logtest.NewNullLogger()
	return NewPipeline(f.root, f.tc, f.r, append([]Option{WithLogger(logger), WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRunWithSummaryFile(t *testing.T) {
	f := newFixture(t)
	in := Input{
		TranscriptPath: f.write(t, "daily_transcript.txt", meeting),
		SummaryPath:    f.write(t, "summary.md", "Спикер 1 (Александр Смирнов): рассказал про план"),
	}

	r, err := f.pipeline().Run(context.Background(), in)
	require.NoError(t, err)

	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, "standup", r.TemplateType)
	assert.Equal(t, SummaryFromFile, r.SummarySource)
	assert.Equal(t, TranscriptFromFile, r.TranscriptSource)
	assert.Equal(t, map[string]string{
		"Спикер 0": "Владислав Ульянов",
		"Спикер 1": "Александр Смирнов",
		"Спикер 2": "Юлия Петрова",
	}, r.Mapping.Replacements)
	assert.Equal(t, reconcile.Summary{
		TotalReplacements: 3,
		TeamMembersFound:  2,
		ExternalSpeakers:  1,
		TeamsRepresented:  []string{"development", "testing"},
		RolesRepresented:  []string{"Team Lead", "QA Engineer"},
	}, r.MappingSummary)
	assert.InDelta(t, (0.95+0.7+0.95)/3, r.AverageConfidence, 1e-9)
	assert.Equal(t, "Владислав Ульянов: Владислав, как дела?\n\nАлександр Смирнов: Всё по плану.\n\nЮлия Петрова: Я Юлия, тесты готовы.", r.Transcript)

	wantDir := filepath.Join(f.root.Paths.Outputs, "session_20261018-091500")
	assert.Equal(t, wantDir, r.Artifacts.Dir)

	transcript := readFile(t, r.Artifacts.Transcript)
	assert.Contains(t, transcript, "ТРАНСКРИПТ ВСТРЕЧИ\nДата: 2026-10-18\nВремя: 09:15\nФайл: daily\nШаблон: standup\n")
	assert.Contains(t, transcript, "Участников определено: 3\n")
	assert.Contains(t, transcript, "Команды: Разработка, Unknown, Тестирование\n")
	assert.Contains(t, transcript, "Средняя точность: 87%\n")
	assert.Contains(t, transcript, ruler+"\n\n"+r.Transcript)

	info := readFile(t, r.Artifacts.TeamInfo)
	assert.Contains(t, info, "**Состав встречи:**")
	assert.Contains(t, info, "- Из команды: 2, внешних: 1\n")
	assert.Contains(t, info, "Спикер 1:\n  - Имя: Александр Смирнов\n  - Роль: unknown\n  - Команда: неизвестно\n  - Источник: hint_external\n  - Точность определения: 70%\n")
	assert.Contains(t, info, "ЗАМЕНЫ В ТРАНСКРИПТЕ:\n- Спикер 0 → Владислав Ульянов\n- Спикер 1 → Александр Смирнов\n- Спикер 2 → Юлия Петрова\n")

	var persisted map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFile(t, r.Artifacts.Report)), &persisted))
	assert.Equal(t, r.RunID, persisted["run_id"])
	assert.Equal(t, "session_20261018-091500", persisted["artifacts"].(map[string]any)["session_id"])
	assert.NotContains(t, persisted, "Transcript")
}

func TestRunFetchesSummaryFromService(t *testing.T) {
	f := newFixture(t)
	var got clients.SummaryReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(clients.SummaryResp{Summary: "Спикер 1 (Юля): всё по плану"})
	}))
	defer srv.Close()
	f.root.Services.Summary.URL = srv.URL

	r, err := f.pipeline().Run(context.Background(), Input{TranscriptPath: f.write(t, "m.txt", meeting)})
	require.NoError(t, err)

	assert.Equal(t, SummaryFromService, r.SummarySource)
	assert.Equal(t, meeting, got.Text)
	assert.Equal(t, "standup", got.TemplateType)
	assert.Contains(t, got.TeamContext, "**Состав встречи:**")
	assert.Equal(t, "Юлия Петрова", r.Mapping.Replacements["Спикер 1"])
	assert.Equal(t, reconcile.SourceHintRoster, r.Mapping.Entries[1].Source)
}

func TestRunSurvivesSummaryServiceFailure(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	f.root.Services.Summary.URL = srv.URL

	r, err := f.pipeline().Run(context.Background(), Input{TranscriptPath: f.write(t, "m.txt", meeting)})
	require.NoError(t, err)

	assert.Equal(t, SummaryNone, r.SummarySource)
	assert.Len(t, r.Mapping.Entries, 2)
}

func TestRunNotApplicable(t *testing.T) {
	f := newFixture(t)

	r, err := f.pipeline().Run(context.Background(), Input{
		TranscriptPath: f.write(t, "m.txt", meeting),
		TemplateType:   "review",
	})
	require.NoError(t, err)

	assert.False(t, r.Mapping.Identified)
	assert.Equal(t, meeting, r.Transcript)
	assert.Empty(t, r.Artifacts.TeamInfo)
	assert.NoFileExists(t, filepath.Join(r.Artifacts.Dir, "team_info.txt"))
	assert.Contains(t, readFile(t, r.Artifacts.Transcript), "Идентификация команды: ❌ Отключена или не применялась")
}

func TestRunPublishes(t *testing.T) {
	f := newFixture(t)
	var got clients.PublishReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(clients.PublishResp{Status: "ok", URL: "https://wiki.example/p/7"})
	}))
	defer srv.Close()
	f.root.Services.Publish.URL = srv.URL

	r, err := f.pipeline().Run(context.Background(), Input{TranscriptPath: f.write(t, "m.txt", meeting)})
	require.NoError(t, err)

	assert.Equal(t, "https://wiki.example/p/7", r.PublishedURL)
	assert.Equal(t, r.RunID, got.RunID)
	assert.Equal(t, "standup 2026-10-18", got.Title)
	assert.Equal(t, r.Transcript, got.Transcript)
}

func TestRunTranscribesAudio(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		zero, two := 0, 2
		_ = json.NewEncoder(w).Encode(clients.ASRResp{Segments: []clients.TransSeg{
			{Speaker: &zero, Text: "Владислав, как дела?"},
			{Speaker: &two, Text: "Я Юлия, тесты готовы."},
		}})
	}))
	defer srv.Close()
	f.root.Services.ASR.URL = srv.URL

	r, err := f.pipeline().Run(context.Background(), Input{AudioPath: f.write(t, "daily.wav", "RIFF")})
	require.NoError(t, err)

	assert.Equal(t, TranscriptFromASR, r.TranscriptSource)
	assert.Equal(t, "Владислав Ульянов: Владислав, как дела?\n\nЮлия Петрова: Я Юлия, тесты готовы.", r.Transcript)
	assert.Contains(t, readFile(t, r.Artifacts.Transcript), "Файл: daily\n")
}

func TestRunAudioErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline().Run(context.Background(), Input{})
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = f.pipeline().Run(context.Background(), Input{AudioPath: f.write(t, "a.wav", "RIFF")})
	assert.ErrorIs(t, err, ErrNoASR)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	f.root.Services.ASR.URL = srv.URL
	_, err = f.pipeline().Run(context.Background(), Input{AudioPath: f.write(t, "a.wav", "RIFF")})
	assert.ErrorContains(t, err, "asr 503")
}

func TestRunMissingInputs(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline().Run(context.Background(), Input{TranscriptPath: filepath.Join(f.dir, "nope.txt")})
	assert.ErrorContains(t, err, "read transcript")

	_, err = f.pipeline().Run(context.Background(), Input{
		TranscriptPath: f.write(t, "m.txt", meeting),
		SummaryPath:    filepath.Join(f.dir, "nope.md"),
	})
	assert.ErrorContains(t, err, "read summary")
}

func TestAverageConfidence(t *testing.T) {
	assert.Zero(t, averageConfidence(nil))
	assert.InDelta(t, 0.825, averageConfidence(map[string]float64{"a": 0.95, "b": 0.7}), 1e-9)
}
