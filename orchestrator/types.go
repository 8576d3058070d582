package orchestrator

import (
	"time"

	"github.com/teamscribe/teamscribe/identify"
	"github.com/teamscribe/teamscribe/reconcile"
)

// Input names the files of one meeting. AudioPath is transcribed by the ASR
// service when TranscriptPath is empty. Empty TemplateType falls back to
// identification.template_type.
type Input struct {
	TranscriptPath string `json:"transcript_path,omitempty"`
	AudioPath      string `json:"audio_path,omitempty"`
	SummaryPath    string `json:"summary_path,omitempty"`
	TemplateType   string `json:"template_type,omitempty"`
}

// source is the file the meeting text was taken from.
func (in Input) source() string {
	if in.TranscriptPath != "" {
		return in.TranscriptPath
	}
	return in.AudioPath
}

// Where the transcript text came from.
const (
	TranscriptFromFile = "file"
	TranscriptFromASR  = "asr"
)

// Where the summary text came from.
const (
	SummaryFromFile    = "file"
	SummaryFromService = "service"
	SummaryNone        = "none"
)

type Artifacts struct {
	SessionID  string `json:"session_id"`
	Dir        string `json:"dir"`
	Transcript string `json:"transcript"`
	TeamInfo   string `json:"team_info,omitempty"`
	Report     string `json:"report"`
}

// Report is everything one run decided. It is persisted as report.json.
type Report struct {
	RunID             string            `json:"run_id"`
	GeneratedAt       time.Time         `json:"generated_at"`
	TemplateType      string            `json:"template_type"`
	Input             Input             `json:"input"`
	TranscriptSource  string            `json:"transcript_source"`
	SummarySource     string            `json:"summary_source"`
	Summary           string            `json:"summary,omitempty"`
	FromTranscript    identify.Result   `json:"transcript_identification"`
	FromSummary       identify.Result   `json:"summary_identification"`
	Mapping           reconcile.Mapping `json:"mapping"`
	MappingSummary    reconcile.Summary `json:"mapping_summary"`
	AverageConfidence float64           `json:"average_confidence"`
	Artifacts         Artifacts         `json:"artifacts"`
	PublishedURL      string            `json:"published_url,omitempty"`

	// Transcript is the rewritten transcript body.
	Transcript string `json:"-"`
}
