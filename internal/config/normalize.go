package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"meetscribe/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeModels()
	c.normalizeHuggingFace()
	c.normalizeAudio()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.audio_dir", &c.Paths.AudioDir, defaultAudioDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.work_dir", &c.Paths.WorkDir, defaultWorkDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeModels() {
	c.Models.WhisperModel = strings.TrimSpace(c.Models.WhisperModel)
	c.Models.DiarizationModel = strings.TrimSpace(c.Models.DiarizationModel)
	if lang, ok := language.Normalize(c.Models.Language); ok {
		c.Models.Language = lang
	}
	c.Models.Device = strings.ToLower(strings.TrimSpace(c.Models.Device))
	if c.Models.Device == "" {
		c.Models.Device = DeviceAuto
	}
	c.Models.ComputeType = strings.ToLower(strings.TrimSpace(c.Models.ComputeType))
	c.Models.VADMethod = strings.ToLower(strings.TrimSpace(c.Models.VADMethod))
	if c.Models.VADMethod == "" {
		c.Models.VADMethod = defaultVADMethod
	}
}

func (c *Config) normalizeHuggingFace() {
	c.HuggingFace.Token = strings.TrimSpace(c.HuggingFace.Token)
	if isPlaceholderToken(c.HuggingFace.Token) {
		c.HuggingFace.Token = ""
	}
	if c.HuggingFace.Token == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.HuggingFace.Token = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.HuggingFace.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeAudio() {
	formats := make([]string, 0, len(c.Audio.SupportedFormats))
	for _, format := range c.Audio.SupportedFormats {
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			continue
		}
		if !strings.HasPrefix(format, ".") {
			format = "." + format
		}
		if !slices.Contains(formats, format) {
			formats = append(formats, format)
		}
	}
	c.Audio.SupportedFormats = formats
}

func (c *Config) normalizeHistory() error {
	c.History.Path = strings.TrimSpace(c.History.Path)
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.Paths.LogDir, defaultHistoryFile)
	}
	expanded, err := expandPath(c.History.Path)
	if err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	c.History.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// IsPlaceholderToken reports whether token is empty or a sample-config placeholder.
func IsPlaceholderToken(token string) bool {
	token = strings.TrimSpace(token)
	return token == "" || isPlaceholderToken(token)
}

func isPlaceholderToken(token string) bool {
	for _, placeholder := range placeholderTokens {
		if strings.EqualFold(token, placeholder) {
			return true
		}
	}
	return false
}
