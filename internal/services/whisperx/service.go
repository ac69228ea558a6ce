package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"meetscribe/internal/logging"
	"meetscribe/internal/services"
	"meetscribe/internal/timeline"
)

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	uvxBinary     string
	logger        *slog.Logger
	commandRunner CommandRunner
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, uvxBinary string, logger *slog.Logger) *Service {
	if strings.TrimSpace(uvxBinary) == "" {
		uvxBinary = defaultUVXCommand
	}
	return &Service{
		cfg:       cfg,
		uvxBinary: uvxBinary,
		logger:    logging.NewComponentLogger(logger, "whisperx"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

func (s *Service) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Env = s.environ()
	return cmd.CombinedOutput()
}

// environ hands the Hugging Face token to the pyannote VAD through HF_TOKEN
// rather than argv.
func (s *Service) environ() []string {
	env := os.Environ()
	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv(weightsOnlyEnvVar) == "" {
		env = append(env, weightsOnlyEnvVar+"=1")
	}
	if s.vadMethod() == VADMethodPyannote {
		if token := strings.TrimSpace(s.cfg.HFToken); token != "" {
			env = append(env, "HF_TOKEN="+token)
		}
	}
	return env
}

func (s *Service) vadMethod() string {
	if s.cfg.VADMethod == "" {
		return VADMethodSilero
	}
	return s.cfg.VADMethod
}

// Transcribe runs WhisperX on a prepared WAV file and returns its segments as
// spans in engine order. Segments with an empty or reversed time range are
// widened to MinSpanSeconds so their text is kept.
func (s *Service) Transcribe(ctx context.Context, audioPath string) ([]timeline.TranscribedSpan, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "transcribe", "whisperx", "source path required", nil)
	}
	scratchRoot := s.cfg.WorkDir
	if scratchRoot == "" {
		scratchRoot = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(scratchRoot, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "whisperx", "ensure work dir", err)
	}
	outputDir, err := os.MkdirTemp(scratchRoot, scratchDirPattern)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcribe", "whisperx", "create scratch dir", err)
	}
	defer os.RemoveAll(outputDir)

	args := s.buildArgs(audioPath, outputDir)
	s.logger.Debug("launching whisperx",
		logging.String("model", s.Model()),
		logging.String("device", s.device()),
		logging.String("language", s.language()),
	)
	if output, err := s.run(ctx, s.uvxBinary, args...); err != nil {
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrTimeout, "transcribe", "whisperx", "cancelled", ctx.Err())
		}
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", summarizeOutput(output), err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	segments, err := LoadSegments(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "read output", err)
	}

	spans, widened := ToSpans(segments)
	if widened > 0 {
		s.logger.Debug("widened degenerate whisperx segments",
			logging.Int("widened", widened),
			logging.Float64("min_span_seconds", MinSpanSeconds),
		)
	}
	s.logger.Info("transcription complete",
		logging.Int("segments", len(spans)),
		logging.String(logging.FieldEventType, "transcription_complete"),
	)
	return spans, nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 32)

	if s.device() == CUDADevice {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", strconv.Itoa(batchSize),
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--no_align",
	)

	args = append(args, "--vad_method", s.vadMethod())

	if lang := s.language(); lang != autoLanguageSetting {
		args = append(args, "--language", lang)
	}

	switch s.device() {
	case CUDADevice:
		args = append(args, "--device", CUDADevice)
	case CPUDevice:
		args = append(args, "--device", CPUDevice)
	}
	args = append(args, "--compute_type", s.computeType())

	return args
}

func (s *Service) device() string {
	switch strings.ToLower(strings.TrimSpace(s.cfg.Device)) {
	case CUDADevice:
		return CUDADevice
	case CPUDevice:
		return CPUDevice
	default:
		return "auto"
	}
}

func (s *Service) computeType() string {
	if ct := strings.TrimSpace(s.cfg.ComputeType); ct != "" {
		return ct
	}
	switch s.device() {
	case CUDADevice:
		return CUDAComputeType
	case CPUDevice:
		return CPUComputeType
	default:
		return DefaultComputeType
	}
}

func (s *Service) language() string {
	lang := strings.ToLower(strings.TrimSpace(s.cfg.Language))
	if lang == "" {
		return autoLanguageSetting
	}
	return lang
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text       string   `json:"text"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	AvgLogprob *float64 `json:"avg_logprob,omitempty"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

// MinSpanSeconds is the length given to segments WhisperX reports with
// end <= start.
const MinSpanSeconds = 0.001

// ToSpans converts segments into spans. Confidence is the segment average
// log-probability, or 0 when WhisperX omitted it. Negative starts are clamped
// to zero and empty or reversed ranges are widened to MinSpanSeconds; the
// second result counts the widened segments.
func ToSpans(segments []Segment) ([]timeline.TranscribedSpan, int) {
	spans := make([]timeline.TranscribedSpan, 0, len(segments))
	widened := 0
	for _, seg := range segments {
		start := max(seg.Start, 0)
		end := seg.End
		if end <= start {
			end = start + MinSpanSeconds
			widened++
		}
		var confidence float64
		if seg.AvgLogprob != nil {
			confidence = *seg.AvgLogprob
		}
		spans = append(spans, timeline.TranscribedSpan{
			Start:      start,
			End:        end,
			Text:       seg.Text,
			Confidence: confidence,
		})
	}
	return spans, widened
}

// summarizeOutput keeps the tail of tool output, which is where Python
// tracebacks put the actual exception.
func summarizeOutput(output []byte) string {
	text := strings.TrimSpace(string(output))
	if text == "" {
		return "whisperx failed"
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}
