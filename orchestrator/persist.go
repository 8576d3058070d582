package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

func mkSessionDir(outputsRoot string, at time.Time) (string, string, error) {
	ts := at.Format("20060102-150405")
	sid := "session_" + ts
	dir := filepath.Join(outputsRoot, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	return sid, dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeText(path, text string) error {
	return os.WriteFile(path, []byte(text), 0o644)
}

// persist writes transcript.txt, team_info.txt (only when somebody was
// identified) and report.json into a fresh session directory, recording
// their paths in r.
func (p *Pipeline) persist(r *Report) error {
	sid, dir, err := mkSessionDir(p.cfg.Paths.Outputs, r.GeneratedAt)
	if err != nil {
		return err
	}
	r.Artifacts = Artifacts{
		SessionID:  sid,
		Dir:        dir,
		Transcript: filepath.Join(dir, "transcript.txt"),
		Report:     filepath.Join(dir, "report.json"),
	}

	if err := writeText(r.Artifacts.Transcript, p.renderTranscript(r)); err != nil {
		return err
	}
	if r.Mapping.Identified {
		r.Artifacts.TeamInfo = filepath.Join(dir, "team_info.txt")
		if err := writeText(r.Artifacts.TeamInfo, p.renderTeamInfo(r)); err != nil {
			return err
		}
	}
	return writeJSON(r.Artifacts.Report, r)
}
