// Package analysis runs the voice-phishing pipeline: normalize, transcribe,
// score, decide and, for flagged transcripts, verify with an LLM.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/status"

	"voice-phishing-detector/internal/audio"
	"voice-phishing-detector/internal/models"
	"voice-phishing-detector/internal/observability/logging"
	"voice-phishing-detector/internal/observability/metrics"
	"voice-phishing-detector/internal/service/classifier"
	"voice-phishing-detector/internal/service/policy"
	"voice-phishing-detector/internal/service/stt"
	"voice-phishing-detector/internal/service/verifier"
)

var (
	// ErrNoSpeech means the recording held nothing the recognizer could
	// transcribe.
	ErrNoSpeech = errors.New("no speech recognized")
	// ErrEmptyText means /analyze_text was called without text.
	ErrEmptyText = errors.New("text is empty")
)

// STTError wraps a speech service failure.
type STTError struct {
	Provider string
	Err      error
}

func (e *STTError) Error() string {
	return fmt.Sprintf("speech recognition failed (%s): %v", e.Provider, e.Err)
}

func (e *STTError) Unwrap() error { return e.Err }

// Normalizer stores an upload and returns a recognizer-ready WAV.
type Normalizer interface {
	Normalize(ctx context.Context, r io.Reader, filename string) (*audio.Artifact, error)
}

// EventPublisher receives one event per completed analysis.
type EventPublisher interface {
	PublishAnalysis(ctx context.Context, event models.AnalysisEvent) error
}

// Deps are the collaborators of a Service.
type Deps struct {
	Normalizer Normalizer
	STT        stt.Adapter
	Classifier classifier.Classifier
	Verifier   verifier.Verifier
	Events     EventPublisher   // optional
	Metrics    *metrics.Metrics // optional
}

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	normalizer Normalizer
	stt        stt.Adapter
	classifier classifier.Classifier
	verifier   verifier.Verifier
	events     EventPublisher
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// New builds a Service from d.
func New(d Deps) *Service {
	m := d.Metrics
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Service{
		normalizer: d.Normalizer,
		stt:        d.STT,
		classifier: d.Classifier,
		verifier:   d.Verifier,
		events:     d.Events,
		metrics:    m,
		logger:     logging.WithComponent("analysis"),
	}
}

// AnalyzeAudio runs the full pipeline on an uploaded recording. Every temp
// file it creates is removed before it returns.
func (s *Service) AnalyzeAudio(ctx context.Context, r io.Reader, filename string) (*models.AnalysisResponse, error) {
	start := time.Now()

	t := time.Now()
	art, err := s.normalizer.Normalize(ctx, r, filename)
	s.metrics.ObserveStage(metrics.StageTranscode, time.Since(t).Seconds())
	if err != nil {
		var te *audio.TranscodeError
		if errors.As(err, &te) {
			s.metrics.RecordTranscodeFailure()
		}
		return nil, err
	}
	defer art.Cleanup()
	s.metrics.RecordUpload(art.Size)

	t = time.Now()
	res := stt.TranscribeFile(ctx, s.stt, art.Path)
	s.metrics.ObserveStage(metrics.StageSTT, time.Since(t).Seconds())
	s.recordSTT(res)

	switch res.Outcome {
	case stt.NoSpeech:
		return nil, ErrNoSpeech
	case stt.ServiceError:
		return nil, &STTError{Provider: s.stt.Name(), Err: res.Err}
	}

	return s.assess(ctx, "audio", res.Text, start)
}

// AnalyzeText scores text directly, skipping normalization and STT.
func (s *Service) AnalyzeText(ctx context.Context, text string) (*models.AnalysisResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	return s.assess(ctx, "text", text, time.Now())
}

func (s *Service) assess(ctx context.Context, source, text string, start time.Time) (*models.AnalysisResponse, error) {
	t := time.Now()
	score, err := s.classifier.Score(ctx, text)
	s.metrics.ObserveStage(metrics.StageClassify, time.Since(t).Seconds())
	if err != nil {
		return nil, fmt.Errorf("score transcript: %w", err)
	}

	decision := policy.Decide(score)
	s.metrics.RecordScore(score, decision.Verdict.Code())

	llm := models.LLMVerdictSkipped
	if decision.Escalate {
		t = time.Now()
		llm = s.verifier.Verify(ctx, text)
		s.metrics.ObserveStage(metrics.StageVerify, time.Since(t).Seconds())
	}
	s.metrics.RecordLLMVerdict(llm.Code())

	resp := &models.AnalysisResponse{
		RecognizedText: text,
		RiskScore:      score,
		ModelResult:    decision.Verdict,
		LLMResult:      llm,
	}

	id := uuid.NewString()
	s.logger.Info().
		Str("analysisId", id).
		Str("source", source).
		Float64("riskScore", score).
		Str("modelResult", decision.Verdict.Code()).
		Str("llmResult", llm.Code()).
		Int("textLength", len([]rune(text))).
		Dur("duration", time.Since(start)).
		Msg("Analysis completed")

	s.publish(ctx, models.AnalysisEvent{
		EventType:   models.EventTypeAnalysisCompleted,
		AnalysisID:  id,
		Source:      source,
		Timestamp:   time.Now().UnixMilli(),
		RiskScore:   score,
		ModelResult: decision.Verdict.Code(),
		LLMResult:   llm.Code(),
		TextLength:  len([]rune(text)),
		DurationMs:  time.Since(start).Milliseconds(),
	})

	return resp, nil
}

// publish never fails the request; the publisher logs and counts errors.
func (s *Service) publish(ctx context.Context, event models.AnalysisEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishAnalysis(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("analysisId", event.AnalysisID).Msg("Analysis event not published")
	}
}

func (s *Service) recordSTT(res stt.Result) {
	code := ""
	if res.Outcome == stt.ServiceError {
		code = status.Code(res.Err).String()
		s.logger.Error().Err(res.Err).Str("provider", s.stt.Name()).Msg("Speech recognition failed")
	}
	s.metrics.RecordSTTOutcome(s.stt.Name(), res.Outcome.String(), code)
}
