package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"meetscribe/internal/language"
)

const maxWorkers = 32

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateModels(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateQuality(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	return nil
}

func (c *Config) validateModels() error {
	if c.Models.WhisperModel == "" {
		return errors.New("models.whisper_model must be set")
	}
	if c.Models.DiarizationModel == "" {
		return errors.New("models.diarization_model must be set")
	}
	if _, ok := language.Normalize(c.Models.Language); !ok {
		return fmt.Errorf("models.language: unrecognized language %q", c.Models.Language)
	}
	switch c.Models.Device {
	case DeviceAuto, DeviceCPU, DeviceCUDA:
	default:
		return fmt.Errorf("models.device must be one of auto, cpu, cuda (got %q)", c.Models.Device)
	}
	if c.Models.BatchSize <= 0 {
		return errors.New("models.batch_size must be positive")
	}
	switch c.Models.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("models.vad_method must be silero or pyannote (got %q)", c.Models.VADMethod)
	}
	if c.Models.MinSpeakers < 0 || c.Models.MaxSpeakers < 0 {
		return errors.New("models.min_speakers and models.max_speakers must not be negative")
	}
	if c.Models.MinSpeakers > 0 && c.Models.MaxSpeakers > 0 && c.Models.MinSpeakers > c.Models.MaxSpeakers {
		return errors.New("models.min_speakers must not exceed models.max_speakers")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if len(c.Audio.SupportedFormats) == 0 {
		return errors.New("audio.supported_formats must list at least one extension")
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return fmt.Errorf("audio.sample_rate must be between 8000 and 192000 (got %d)", c.Audio.SampleRate)
	}
	return nil
}

func (c *Config) validateOutput() error {
	o := c.Output
	if !o.Transcript && !o.DetailedJSON && !o.AnalysisCSV && !o.SRTSubtitles && !o.VTTSubtitles {
		return errors.New("output: at least one artifact must be enabled")
	}
	return nil
}

func (c *Config) validateQuality() error {
	q := c.Quality
	if math.IsNaN(q.MinSpeakerDuration) || q.MinSpeakerDuration < 0 {
		return errors.New("quality.min_speaker_duration must not be negative")
	}
	if math.IsNaN(q.ConfidenceThreshold) || q.ConfidenceThreshold < 0 || q.ConfidenceThreshold > 1 {
		return errors.New("quality.confidence_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if c.Processing.Workers < 1 || c.Processing.Workers > maxWorkers {
		return fmt.Errorf("processing.workers must be between 1 and %d", maxWorkers)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error (got %q)", c.Logging.Level)
	}
	return nil
}
