package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"meetscribe/internal/align"
	"meetscribe/internal/history"
	"meetscribe/internal/logging"
	"meetscribe/internal/media/audio"
	"meetscribe/internal/projection"
	"meetscribe/internal/services"
	"meetscribe/internal/textutil"
	"meetscribe/internal/timeline"
)

// Request identifies one recording to process.
type Request struct {
	AudioPath string
	// OutputName overrides the artifact base name. Defaults to the recording's
	// file name without extension.
	OutputName string
}

// Result is the outcome of a successful run.
type Result struct {
	RunID      string
	Recording  string
	Utterances []timeline.AlignedUtterance
	Artifacts  []Artifact
	Summary    Summary
	Elapsed    time.Duration
}

// OutputName derives the artifact base name for a request.
func OutputName(req Request) string {
	name := strings.TrimSpace(req.OutputName)
	if name == "" {
		base := filepath.Base(req.AudioPath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	name = textutil.SanitizeFileName(name)
	if name == "" || name == "." {
		return "recording"
	}
	return name
}

// Process runs one recording end to end. Every run that gets past request
// validation is recorded in history, failed or not.
func (s *Service) Process(ctx context.Context, req Request) (result Result, err error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "process", "request", "audio path required", nil)
	}
	name := OutputName(req)
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithRecording(ctx, name)
	logger := logging.WithContext(ctx, s.logger)
	started := time.Now()

	run := history.Run{
		ID:               runID,
		Recording:        name,
		AudioPath:        req.AudioPath,
		WhisperModel:     s.cfg.Models.WhisperModel,
		DiarizationModel: s.cfg.Models.DiarizationModel,
		StartedAt:        started,
	}
	defer func() {
		run.FinishedAt = time.Now()
		if err != nil {
			run.Status = services.FailureStatus(err)
			run.ErrorMessage = err.Error()
			logging.ErrorWithContext(logger, "recording failed", "recording_failed",
				logging.Error(err),
				logging.String("error_class", services.Class(err)),
			)
		} else {
			run.Status = history.StatusCompleted
		}
		s.recordHistory(ctx, logger, run)
	}()

	if err := s.checkSource(req.AudioPath); err != nil {
		return Result{}, err
	}
	if err := s.ensureReady(ctx); err != nil {
		return Result{}, err
	}
	logger.Info("processing recording",
		logging.String("source", req.AudioPath),
		logging.String(logging.FieldEventType, "recording_started"),
	)
	logger.Debug("quality thresholds are advisory and not applied to segments",
		logging.Float64("min_speaker_duration", s.cfg.Quality.MinSpeakerDuration),
		logging.Float64("confidence_threshold", s.cfg.Quality.ConfidenceThreshold),
	)

	prepared, err := s.preparer.Prepare(services.WithStage(ctx, "prepare"), req.AudioPath)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if closeErr := prepared.Close(); closeErr != nil {
			logger.Warn("failed to remove converted audio",
				logging.Error(closeErr),
				logging.String(logging.FieldEventType, "audio_cleanup_failed"),
			)
		}
	}()

	turns, err := s.diarizer.Diarize(services.WithStage(ctx, "diarize"), prepared.Path)
	if err != nil {
		return Result{}, err
	}
	spans, err := s.transcriber.Transcribe(services.WithStage(ctx, "transcribe"), prepared.Path)
	if err != nil {
		return Result{}, err
	}

	utterances, err := align.Align(spans, turns)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "align", "timeline", "engine output rejected", err)
	}
	views, err := projection.Project(utterances, projection.Options{Subtitles: s.cfg.SubtitlesEnabled()})
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "project", "views", "render views", err)
	}
	artifacts, err := s.writer.Write(services.WithStage(ctx, "write"), name, views)
	run.Artifacts = Paths(artifacts)
	if err != nil {
		return Result{}, err
	}

	summary := Summarize(utterances)
	run.Segments = summary.Segments
	run.SpeakerCount = summary.SpeakerCount()
	run.Speakers = summary.Speakers
	run.TotalSeconds = summary.TotalSeconds

	elapsed := time.Since(started)
	logger.Info("recording complete",
		logging.Int("segments", summary.Segments),
		logging.Int("speakers", summary.SpeakerCount()),
		logging.Float64("total_seconds", summary.TotalSeconds),
		logging.Int("artifacts", len(artifacts)),
		logging.Duration("elapsed", elapsed),
		logging.String(logging.FieldEventType, "recording_complete"),
	)
	return Result{
		RunID:      runID,
		Recording:  name,
		Utterances: utterances,
		Artifacts:  artifacts,
		Summary:    summary,
		Elapsed:    elapsed,
	}, nil
}

func (s *Service) checkSource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, "process", "source", fmt.Sprintf("recording %s does not exist", path), nil)
		}
		return services.Wrap(services.ErrValidation, "process", "source", "stat recording", err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, "process", "source", fmt.Sprintf("%s is a directory", path), nil)
	}
	if !audio.Supported(path, s.cfg.Audio.SupportedFormats) {
		return services.Wrap(services.ErrValidation, "process", "source",
			fmt.Sprintf("unsupported format %q (supported: %s)", filepath.Ext(path), strings.Join(s.cfg.Audio.SupportedFormats, ", ")), nil)
	}
	return nil
}

func (s *Service) recordHistory(ctx context.Context, logger *slog.Logger, run history.Run) {
	if s.history == nil {
		return
	}
	// Record even when the run was cancelled.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.history.Record(recordCtx, run); err != nil {
		logger.Warn("failed to record run history",
			logging.Error(err),
			logging.String(logging.FieldEventType, "history_record_failed"),
		)
	}
}
