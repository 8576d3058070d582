// Package orchestrator runs one meeting through identification, reconciliation
// and output.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/teamscribe/teamscribe/clients"
	"github.com/teamscribe/teamscribe/config"
	"github.com/teamscribe/teamscribe/identify"
	"github.com/teamscribe/teamscribe/reconcile"
	"github.com/teamscribe/teamscribe/team"
)

var (
	ErrNoInput = errors.New("no transcript or audio file given")
	ErrNoASR   = errors.New("audio input needs services.asr.url")
)

type Pipeline struct {
	cfg        *config.Root
	identifier *identify.Identifier
	reconciler *reconcile.Reconciler
	http       *clients.HTTP
	log        logrus.FieldLogger
	now        func() time.Time
}

type Option func(*Pipeline)

func WithLogger(l logrus.FieldLogger) Option { return func(p *Pipeline) { p.log = l } }

func WithHTTP(h *clients.HTTP) Option { return func(p *Pipeline) { p.http = h } }

// WithClock fixes the time used for session directories and headers.
func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

func NewPipeline(c *config.Root, tc *config.TeamConfig, roster *team.Roster, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: c, http: clients.NewHTTP(), log: logrus.StandardLogger(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	p.identifier = identify.NewIdentifier(tc, roster, identify.WithLogger(p.log))
	p.reconciler = reconcile.NewReconciler(roster, p.identifier.Formatter(), reconcile.WithLogger(p.log))
	return p
}

func (p *Pipeline) Run(ctx context.Context, in Input) (*Report, error) {
	text, source, err := p.transcript(ctx, in)
	if err != nil {
		return nil, err
	}

	template := in.TemplateType
	if template == "" {
		template = p.cfg.Identification.TemplateType
	}
	r := &Report{
		RunID:            uuid.NewString(),
		GeneratedAt:      p.now(),
		TemplateType:     template,
		Input:            in,
		TranscriptSource: source,
	}
	log := p.log.WithFields(logrus.Fields{"run_id": r.RunID, "template": template})

	r.FromTranscript = p.identifier.Identify(text, template)

	if r.Summary, r.SummarySource, err = p.summary(ctx, log, in, text, r.FromTranscript); err != nil {
		return nil, err
	}
	r.FromSummary = p.identifier.Identify(r.Summary, template)

	r.Mapping = p.reconciler.Reconcile(text, r.Summary, r.FromTranscript, r.FromSummary)
	r.MappingSummary = r.Mapping.Summary()
	r.AverageConfidence = averageConfidence(r.Mapping.ConfidenceScores)
	r.Transcript = reconcile.Apply(text, r.Mapping)

	for _, e := range r.Mapping.Entries {
		log.WithFields(logrus.Fields{
			"speaker":    e.Label,
			"member":     e.Person.FullName,
			"source":     e.Source,
			"confidence": e.Confidence,
		}).Info("speaker identified")
	}
	if !r.Mapping.Identified {
		log.WithField("reason", r.FromTranscript.Reason).Info("no speakers identified")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.publish(ctx, log, r)

	if err := p.persist(r); err != nil {
		return nil, fmt.Errorf("persist: %w", err)
	}
	log.WithField("dir", r.Artifacts.Dir).Info("outputs written")
	return r, nil
}

// transcript reads the transcript file, or has the ASR service transcribe the
// audio file when no transcript is given.
func (p *Pipeline) transcript(ctx context.Context, in Input) (string, string, error) {
	switch {
	case in.TranscriptPath != "":
		b, err := os.ReadFile(in.TranscriptPath)
		if err != nil {
			return "", "", fmt.Errorf("read transcript: %w", err)
		}
		return string(b), TranscriptFromFile, nil
	case in.AudioPath == "":
		return "", "", ErrNoInput
	case p.cfg.Services.ASR.URL == "":
		return "", "", ErrNoASR
	}
	text, err := p.http.Transcribe(ctx, p.cfg.Services.ASR.URL, in.AudioPath)
	if err != nil {
		return "", "", fmt.Errorf("transcribe %s: %w", in.AudioPath, err)
	}
	p.log.WithField("audio", in.AudioPath).Info("audio transcribed")
	return text, TranscriptFromASR, nil
}

// summary reads the summary file, or asks the summary service when no file
// is given. A failing service degrades to no summary.
func (p *Pipeline) summary(ctx context.Context, log logrus.FieldLogger, in Input, text string, fromTranscript identify.Result) (string, string, error) {
	if in.SummaryPath != "" {
		b, err := os.ReadFile(in.SummaryPath)
		if err != nil {
			return "", "", fmt.Errorf("read summary: %w", err)
		}
		return string(b), SummaryFromFile, nil
	}

	url := p.cfg.Services.Summary.URL
	if url == "" {
		return "", SummaryNone, nil
	}
	template := fromTranscript.TemplateType
	resp, err := p.http.Summarize(ctx, url, clients.SummaryReq{
		Text:         text,
		TemplateType: template,
		TeamContext:  p.identifier.TeamContext(template, fromTranscript),
	})
	if err != nil {
		log.WithError(err).Warn("summary service failed, continuing without summary")
		return "", SummaryNone, nil
	}
	return resp.Summary, SummaryFromService, nil
}

func (p *Pipeline) publish(ctx context.Context, log logrus.FieldLogger, r *Report) {
	url := p.cfg.Services.Publish.URL
	if url == "" {
		return
	}
	resp, err := p.http.Publish(ctx, url, clients.PublishReq{
		RunID:        r.RunID,
		Title:        fmt.Sprintf("%s %s", r.TemplateType, r.GeneratedAt.Format("2006-01-02")),
		TemplateType: r.TemplateType,
		Transcript:   r.Transcript,
		Summary:      r.Summary,
		Participants: r.Mapping.ParticipantSummary,
	})
	if err != nil {
		log.WithError(err).Warn("publish failed")
		return
	}
	r.PublishedURL = resp.URL
}
