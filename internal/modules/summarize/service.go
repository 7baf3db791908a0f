package summarize

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	appcfg "github.com/notebrief/core/internal/config"
	"github.com/notebrief/core/internal/extract"
	"github.com/notebrief/core/internal/pkg/mdrender"
	"go.uber.org/zap"
)

const (
	msgMissingCredential = "Cannot summarize without a Gemini API key. Please check your setup."
	msgNoContent         = "Could not extract text from the document. Please try another file."
)

// generateFunc is the outbound text-generation call. Tests swap it out
// for a stub.
type generateFunc func(ctx context.Context, provider *appcfg.AIProvider, systemPrompt, prompt string, maxTokens int) (string, error)

// Service runs the upload → extract → summarize pipeline. It keeps no
// state between requests: every upload is read, extracted and
// summarized from scratch, and nothing is written to disk.
type Service struct {
	cfg      *appcfg.AppConfig
	provider *appcfg.AIProvider
	logger   *zap.Logger
	generate generateFunc
}

type ServiceOption func(*Service)

// WithLogger sets the logger for the summarize service.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("SummarizeService")
		}
	}
}

// NewService resolves the provider once at construction; a missing
// credential surfaces on the first summarize attempt, not mid-pipeline.
func NewService(cfg *appcfg.AppConfig, opts ...ServiceOption) *Service {
	s := &Service{
		cfg:      cfg,
		provider: selectProvider(cfg),
		logger:   zap.NewNop(),
		generate: callProvider,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SummarizeUpload runs the full pipeline for one uploaded document and
// returns the summary payload or a pipeline error.
func (s *Service) SummarizeUpload(ctx context.Context, filename string, data []byte) (*summaryResult, error) {
	started := time.Now()
	log := s.logger.With(
		zap.String("interaction", uuid.NewString()),
		zap.String("file", filename),
	)
	log.Info("document received", zap.Int("bytes", len(data)))

	fail := func(stage pipelineStage, kind failureKind, err error) (*summaryResult, error) {
		log.Warn("summarize failed",
			zap.String("stage", string(stage)),
			zap.String("reason", string(kind)),
			zap.Error(err),
		)
		return nil, failAt(stage, kind, err)
	}

	if strings.TrimSpace(filename) == "" {
		return fail(stageReceived, failInvalidInput, errors.New("uploaded file has no name"))
	}
	format, err := extract.DetectFormat(filename)
	if err != nil {
		return fail(stageReceived, failUnsupportedFormat, err)
	}
	if len(data) == 0 {
		return fail(stageReceived, failInvalidInput, errors.New("uploaded file is empty"))
	}
	if s.provider == nil || strings.TrimSpace(s.provider.APIKey) == "" {
		return fail(stageReceived, failMissingCredential, errors.New(msgMissingCredential))
	}

	log.Info("extracting text", zap.String("stage", string(stageExtracting)), zap.String("format", format.String()))
	text, err := extract.Text(data, format)
	if err != nil {
		return fail(stageExtracting, failExtraction, err)
	}
	if strings.TrimSpace(text) == "" {
		return fail(stageExtracted, failNoContent, errors.New(msgNoContent))
	}
	chars := utf8.RuneCountInString(text)
	log.Info("text extracted", zap.String("stage", string(stageExtracted)), zap.Int("chars", chars))

	log.Info("summarizing",
		zap.String("stage", string(stageSummarizing)),
		zap.String("provider", s.provider.ID),
		zap.String("model", s.provider.DefaultModel),
	)
	summary, err := s.Summarize(ctx, text)
	if err != nil {
		var perr *pipelineError
		if !errors.As(err, &perr) {
			perr = failAt(stageSummarizing, failAPI, err)
		}
		log.Warn("summarize failed",
			zap.String("stage", string(perr.stage)),
			zap.String("reason", string(perr.kind)),
			zap.Error(perr.Unwrap()),
		)
		return nil, perr
	}

	result := &summaryResult{
		FileName:       filename,
		Format:         format.String(),
		Summary:        summary,
		SummaryHTML:    mdrender.Render(summary),
		DownloadName:   buildDownloadName(filename),
		ExtractedChars: chars,
		ElapsedMS:      time.Since(started).Milliseconds(),
	}
	log.Info("summary ready",
		zap.String("stage", string(stageReady)),
		zap.String("download", result.DownloadName),
		zap.Int64("elapsed_ms", result.ElapsedMS),
	)
	return result, nil
}

// Summarize issues one summarization call for already-extracted text
// and returns the model's reply verbatim. Retries happen only when
// explicitly enabled in config, and only for transient failures.
func (s *Service) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", failAt(stageSummarizing, failInvalidInput, errors.New("nothing to summarize"))
	}
	provider := s.provider
	if provider == nil || strings.TrimSpace(provider.APIKey) == "" {
		return "", failAt(stageSummarizing, failMissingCredential, errors.New(msgMissingCredential))
	}

	prompt := buildSummaryPrompt(text, s.cfg.Summary.MaxInputChars)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Summary.RequestTimeout())
	defer cancel()

	attempts := 1
	if s.cfg.Summary.Retry.Enabled && s.cfg.Summary.Retry.MaxAttempts > attempts {
		attempts = s.cfg.Summary.Retry.MaxAttempts
	}

	var summary string
	var err error
	for attempt := 1; ; attempt++ {
		summary, err = s.generate(callCtx, provider, "", prompt, s.cfg.Summary.MaxOutputTokens)
		if err == nil || attempt >= attempts || !retryableProviderError(err) {
			break
		}
		s.logger.Warn("summarization attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-callCtx.Done():
			err = callCtx.Err()
		case <-time.After(s.cfg.Summary.Retry.Backoff()):
			continue
		}
		break
	}
	if err != nil {
		return "", failAt(stageSummarizing, failAPI,
			fmt.Errorf("Error generating summary from %s: %w", provider.Name, err))
	}

	if strings.TrimSpace(summary) == "" {
		return "", failAt(stageSummarizing, failAPI, errors.New("empty response from AI"))
	}
	return summary, nil
}

// ListModels reports the usable providers and their models. refresh
// queries each provider's live catalog instead of echoing the
// configured default.
func (s *Service) ListModels(ctx context.Context, refresh bool) []providerModelsResponse {
	out := make([]providerModelsResponse, 0, len(s.cfg.AI.Providers))
	for _, p := range s.cfg.AI.Providers {
		if !p.Enabled || strings.TrimSpace(p.APIKey) == "" {
			continue
		}
		entry := providerModelsResponse{
			ProviderID:   p.ID,
			ProviderName: p.Name,
			ProviderType: p.Type,
			Models:       modelsFromProvider(p),
		}
		if refresh {
			models, err := fetchModelsFromProvider(ctx, p)
			if err != nil {
				entry.Error = err.Error()
			} else {
				entry.Models = models
			}
		}
		out = append(out, entry)
	}
	return out
}

func retryableProviderError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !isPermanentProviderError(err)
}

// buildDownloadName derives the .txt attachment name offered for a
// summary of the named upload.
func buildDownloadName(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = sanitizeFilename(base)
	if base == "" || base == "." {
		base = "notes"
	}
	return "summarized_notes_" + base + ".txt"
}

// sanitizeFilename replaces characters that would break a
// Content-Disposition header or smuggle path segments.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '"' || r == '\\' || r == '/' || r < 0x20 {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
