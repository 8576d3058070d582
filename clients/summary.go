package clients

import (
	"context"
	"errors"
)

// --- Summary (/summarize) ---
type SummaryReq struct {
	Text         string `json:"text"`
	TemplateType string `json:"template_type"`
	TeamContext  string `json:"team_context,omitempty"`
}
type SummaryResp struct {
	Summary string `json:"summary"`
	Model   string `json:"model,omitempty"`
}

var ErrEmptySummary = errors.New("summary service returned no text")

func (h *HTTP) Summarize(ctx context.Context, url string, req SummaryReq) (*SummaryResp, error) {
	var out SummaryResp
	if err := h.postJSON(ctx, "summary", url, "/summarize", req, &out); err != nil {
		return nil, err
	}
	if out.Summary == "" {
		return nil, ErrEmptySummary
	}
	return &out, nil
}
