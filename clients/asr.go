package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// --- ASR (/transcribe) ---

// TransSeg is one recognised stretch of speech. Speaker is the diarization
// index, nil when the service could not attribute it.
type TransSeg struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker *int    `json:"speaker,omitempty"`
	Text    string  `json:"text"`
}
type ASRResp struct {
	Segments   []TransSeg `json:"segments"`
	Language   string     `json:"language"`
	Transcript string     `json:"transcript,omitempty"`
}

var ErrEmptyTranscript = errors.New("asr returned no text")

// SpeakerWord starts every label of a labelled transcript.
const SpeakerWord = "Спикер"

func (h *HTTP) ASR(ctx context.Context, url, audioPath string) (*ASRResp, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(url, "/")+"/transcribe", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("asr %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out ASRResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("asr decode: %w", err)
	}
	return &out, nil
}

// Transcribe sends an audio file to the ASR service and returns the
// "Спикер N:" labelled transcript.
func (h *HTTP) Transcribe(ctx context.Context, url, audioPath string) (string, error) {
	resp, err := h.ASR(ctx, url, audioPath)
	if err != nil {
		return "", err
	}
	text := resp.Labelled()
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

// Labelled joins consecutive segments of the same speaker into
// "Спикер N: text" paragraphs. Unattributed segments continue the current
// paragraph. Without any diarization the plain transcript is returned.
func (r *ASRResp) Labelled() string {
	type turn struct {
		speaker *int
		words   []string
	}
	var turns []turn
	diarized := false
	for _, s := range r.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if s.Speaker != nil {
			diarized = true
		}
		if n := len(turns); n > 0 && (s.Speaker == nil || sameSpeaker(turns[n-1].speaker, s.Speaker)) {
			turns[n-1].words = append(turns[n-1].words, text)
			continue
		}
		turns = append(turns, turn{speaker: s.Speaker, words: []string{text}})
	}

	if !diarized {
		if t := strings.TrimSpace(r.Transcript); t != "" {
			return t
		}
	}
	paragraphs := make([]string, 0, len(turns))
	for _, t := range turns {
		body := strings.Join(t.words, " ")
		if t.speaker != nil {
			body = SpeakerWord + " " + strconv.Itoa(*t.speaker) + ": " + body
		}
		paragraphs = append(paragraphs, body)
	}
	return strings.Join(paragraphs, "\n\n")
}

func sameSpeaker(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
