package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	AudioDir  string `toml:"audio_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	WorkDir   string `toml:"work_dir"`
}

// Models selects the speech and diarization models and how they run.
type Models struct {
	WhisperModel     string `toml:"whisper_model"`
	DiarizationModel string `toml:"diarization_model"`
	Language         string `toml:"language"`
	Device           string `toml:"device"`
	BatchSize        int    `toml:"batch_size"`
	ComputeType      string `toml:"compute_type"`
	VADMethod        string `toml:"vad_method"`
	// Speaker count hints for diarization. Zero means unconstrained.
	MinSpeakers int `toml:"min_speakers"`
	MaxSpeakers int `toml:"max_speakers"`
}

// HuggingFace holds the access token for the gated pyannote models.
type HuggingFace struct {
	Token    string `toml:"token"`
	Validate bool   `toml:"validate"`
}

// Audio controls which recordings are accepted and the conversion target.
type Audio struct {
	SupportedFormats []string `toml:"supported_formats"`
	SampleRate       int      `toml:"sample_rate"`
}

// Output toggles the artifacts written for each recording.
type Output struct {
	Transcript   bool `toml:"transcript"`
	DetailedJSON bool `toml:"detailed_json"`
	AnalysisCSV  bool `toml:"analysis_csv"`
	SRTSubtitles bool `toml:"srt_subtitles"`
	VTTSubtitles bool `toml:"vtt_subtitles"`
}

// Quality holds segment thresholds. They are validated and reported but the
// aligner does not apply them.
type Quality struct {
	MinSpeakerDuration  float64 `toml:"min_speaker_duration"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
}

// Processing controls batch concurrency.
type Processing struct {
	Workers int `toml:"workers"`
}

// History controls the SQLite run log.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for meetscribe.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Models      Models      `toml:"models"`
	HuggingFace HuggingFace `toml:"huggingface"`
	Audio       Audio       `toml:"audio"`
	Output      Output      `toml:"output"`
	Quality     Quality     `toml:"quality"`
	Processing  Processing  `toml:"processing"`
	History     History     `toml:"history"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("meetscribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Output subdirectories, one per artifact family.
const (
	TranscriptsDir = "transcripts"
	DetailedDir    = "detailed"
	AnalysisDir    = "analysis"
	SubtitlesDir   = "subtitles"
)

// EnsureDirectories creates the output tree, log and work directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.WorkDir, c.Paths.OutputDir}
	for _, sub := range []string{TranscriptsDir, DetailedDir, AnalysisDir, SubtitlesDir} {
		dirs = append(dirs, filepath.Join(c.Paths.OutputDir, sub))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SubtitlesEnabled reports whether any subtitle format is requested.
func (c *Config) SubtitlesEnabled() bool {
	return c.Output.SRTSubtitles || c.Output.VTTSubtitles
}

// FFmpegBinary returns the ffmpeg executable name used for audio conversion.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used to inspect recordings.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// UVXBinary returns the uv tool runner used to launch the Python engines.
func (c *Config) UVXBinary() string {
	return "uvx"
}

// CUDAEnabled reports whether the engines should be asked to run on a GPU.
func (c *Config) CUDAEnabled() bool {
	return c.Models.Device == DeviceCUDA
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML. The Hugging Face token
// is masked.
func (c *Config) Encode() ([]byte, error) {
	clone := *c
	clone.Audio.SupportedFormats = append([]string(nil), c.Audio.SupportedFormats...)
	clone.HuggingFace.Token = MaskToken(c.HuggingFace.Token)
	data, err := toml.Marshal(clone)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// MaskToken keeps only the last four characters of a secret.
func MaskToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
