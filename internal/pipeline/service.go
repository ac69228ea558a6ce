package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"meetscribe/internal/config"
	"meetscribe/internal/history"
	"meetscribe/internal/logging"
	"meetscribe/internal/media/audio"
	"meetscribe/internal/preflight"
	"meetscribe/internal/services"
	"meetscribe/internal/services/huggingface"
	"meetscribe/internal/services/pyannote"
	"meetscribe/internal/services/whisperx"
	"meetscribe/internal/timeline"
)

// Transcriber produces timed text spans for a prepared recording.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]timeline.TranscribedSpan, error)
}

// Diarizer produces speaker turns for a prepared recording.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]timeline.DiarizationTurn, error)
}

// AudioPreparer converts a recording into an engine-ready WAV.
type AudioPreparer interface {
	Prepare(ctx context.Context, src string) (*audio.Prepared, error)
}

// TokenValidator checks the Hugging Face token before models are fetched.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (huggingface.Account, error)
}

// HistoryRecorder persists run outcomes.
type HistoryRecorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Option customises the Service.
type Option func(*Service)

// WithTranscriber overrides the speech engine (primarily for tests).
func WithTranscriber(t Transcriber) Option {
	return func(s *Service) {
		if t != nil {
			s.transcriber = t
		}
	}
}

// WithDiarizer overrides the diarization engine (primarily for tests).
func WithDiarizer(d Diarizer) Option {
	return func(s *Service) {
		if d != nil {
			s.diarizer = d
		}
	}
}

// WithAudioPreparer overrides audio conversion.
func WithAudioPreparer(p AudioPreparer) Option {
	return func(s *Service) {
		if p != nil {
			s.preparer = p
		}
	}
}

// WithTokenValidator overrides the Hugging Face token check. Passing nil
// disables it.
func WithTokenValidator(v TokenValidator) Option {
	return func(s *Service) {
		s.validator = v
	}
}

// WithHistory records every run in the given store.
func WithHistory(h HistoryRecorder) Option {
	return func(s *Service) {
		s.history = h
	}
}

// WithoutDependencyCheck skips the ffmpeg/uvx and directory preflight.
func WithoutDependencyCheck() Option {
	return func(s *Service) {
		s.skipPreflight = true
	}
}

// Service runs recordings through the transcription pipeline.
type Service struct {
	cfg    *config.Config
	logger *slog.Logger

	transcriber Transcriber
	diarizer    Diarizer
	preparer    AudioPreparer
	validator   TokenValidator
	history     HistoryRecorder
	writer      *ArtifactWriter

	skipPreflight bool
	readyOnce     sync.Once
	readyErr      error
}

// NewService constructs a pipeline bound to cfg. Engines default to the
// WhisperX and pyannote adapters configured from cfg.
func NewService(cfg *config.Config, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Service{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		writer: NewArtifactWriter(cfg.Paths.OutputDir, cfg.Output),
	}
	if cfg.HuggingFace.Validate {
		s.validator = huggingface.NewClient()
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transcriber == nil {
		s.transcriber = whisperx.NewService(whisperx.Config{
			Model:       cfg.Models.WhisperModel,
			Device:      cfg.Models.Device,
			ComputeType: cfg.Models.ComputeType,
			BatchSize:   cfg.Models.BatchSize,
			Language:    cfg.Models.Language,
			VADMethod:   cfg.Models.VADMethod,
			HFToken:     cfg.HuggingFace.Token,
			WorkDir:     cfg.Paths.WorkDir,
		}, cfg.UVXBinary(), logger)
	}
	if s.diarizer == nil {
		s.diarizer = pyannote.NewService(pyannote.Config{
			Model:       cfg.Models.DiarizationModel,
			HFToken:     cfg.HuggingFace.Token,
			Device:      cfg.Models.Device,
			MinSpeakers: cfg.Models.MinSpeakers,
			MaxSpeakers: cfg.Models.MaxSpeakers,
			WorkDir:     cfg.Paths.WorkDir,
		}, cfg.UVXBinary(), logger)
	}
	if s.preparer == nil {
		s.preparer = audio.NewPreparer(audio.PreparerConfig{
			FFmpegBinary:  cfg.FFmpegBinary(),
			FFprobeBinary: cfg.FFprobeBinary(),
			WorkDir:       cfg.Paths.WorkDir,
			SampleRate:    cfg.Audio.SampleRate,
		}, logger)
	}
	return s
}

// ensureReady runs the one-time checks shared by every recording in this
// Service's lifetime.
func (s *Service) ensureReady(ctx context.Context) error {
	s.readyOnce.Do(func() {
		s.readyErr = s.checkReady(ctx)
	})
	return s.readyErr
}

func (s *Service) checkReady(ctx context.Context) error {
	if !s.skipPreflight {
		results := preflight.RunAll(ctx, s.cfg)
		if failed := preflight.Failed(results); len(failed) > 0 {
			return services.Wrap(services.ErrConfiguration, "preflight", "dependencies", preflight.Summary(results), nil)
		}
	}

	token := strings.TrimSpace(s.cfg.HuggingFace.Token)
	if token == "" {
		return services.Wrap(services.ErrConfiguration, "preflight", "huggingface", "no Hugging Face token configured (set [huggingface] token or HF_TOKEN)", nil)
	}
	if s.validator == nil {
		return nil
	}
	account, err := s.validator.Validate(ctx, token)
	switch {
	case err == nil:
		s.logger.Debug("hugging face token verified", logging.String("account", account.Name))
		return nil
	case errors.Is(err, huggingface.ErrUnauthorized), errors.Is(err, services.ErrConfiguration):
		return err
	default:
		// Offline runs with cached models still work; only a definite rejection stops them.
		logging.WarnWithContext(s.logger, "hugging face token could not be verified", "token_check_skipped",
			logging.Error(err),
			logging.String(logging.FieldImpact, "diarization will fail later if the token is invalid"),
			logging.String(logging.FieldErrorHint, "run `meetscribe token check` once the network is available"),
		)
		return nil
	}
}
