package clients

import "context"

// --- Publishing (/publish) ---
type PublishReq struct {
	RunID        string `json:"run_id"`
	Title        string `json:"title"`
	TemplateType string `json:"template_type"`
	Transcript   string `json:"transcript"`
	Summary      string `json:"summary,omitempty"`
	Participants string `json:"participants"`
}
type PublishResp struct {
	Status string `json:"status"`
	URL    string `json:"url"`
}

func (h *HTTP) Publish(ctx context.Context, url string, req PublishReq) (*PublishResp, error) {
	var out PublishResp
	if err := h.postJSON(ctx, "publish", url, "/publish", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
