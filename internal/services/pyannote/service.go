package pyannote

import (
	"bytes"
	"context"
	_ "embed"
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

//go:embed diarize.py
var diarizeScript string

const (
	// DefaultModel is the pyannote pipeline used when none is configured.
	DefaultModel = "pyannote/speaker-diarization-3.1"

	cudaIndexURL      = "https://download.pytorch.org/whl/cu128"
	pypiIndexURL      = "https://pypi.org/simple"
	weightsOnlyEnvVar = "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD"
	scriptName        = "diarize.py"
	defaultUVXCommand = "uvx"
)

// Config captures runtime settings for diarization.
type Config struct {
	Model   string
	HFToken string
	// Device is "auto", "cpu" or "cuda".
	Device string
	// Speaker count hints. Zero leaves the pipeline unconstrained.
	MinSpeakers int
	MaxSpeakers int
	WorkDir     string
}

// CommandRunner executes a command and returns stdout and stderr separately.
type CommandRunner func(ctx context.Context, name string, args []string, env []string) (stdout, stderr []byte, err error)

// Service runs pyannote diarization.
type Service struct {
	cfg       Config
	uvxBinary string
	logger    *slog.Logger
	runner    CommandRunner
}

// Result is the script's stdout document.
type Result struct {
	Turns        []Turn `json:"turns"`
	SpeakerCount int    `json:"speaker_count"`
	Error        string `json:"error,omitempty"`
}

// Turn is one diarized speaker interval as emitted by the script.
type Turn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// NewService creates a diarization service.
func NewService(cfg Config, uvxBinary string, logger *slog.Logger) *Service {
	if strings.TrimSpace(uvxBinary) == "" {
		uvxBinary = defaultUVXCommand
	}
	return &Service{
		cfg:       cfg,
		uvxBinary: uvxBinary,
		logger:    logging.NewComponentLogger(logger, "pyannote"),
		runner:    execRunner,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		s.runner = runner
	}
}

// Model returns the configured pipeline name.
func (s *Service) Model() string {
	if m := strings.TrimSpace(s.cfg.Model); m != "" {
		return m
	}
	return DefaultModel
}

func execRunner(ctx context.Context, name string, args []string, env []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = env
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Diarize returns the speaker turns found in audioPath in pipeline order.
// Turns with an empty or reversed range are dropped.
func (s *Service) Diarize(ctx context.Context, audioPath string) ([]timeline.DiarizationTurn, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "diarize", "pyannote", "source path required", nil)
	}
	token := strings.TrimSpace(s.cfg.HFToken)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "diarize", "pyannote", "hugging face token required for diarization", nil)
	}

	scratchRoot := s.cfg.WorkDir
	if scratchRoot == "" {
		scratchRoot = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(scratchRoot, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "diarize", "pyannote", "ensure work dir", err)
	}
	scratch, err := os.MkdirTemp(scratchRoot, "pyannote-*")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "diarize", "pyannote", "create scratch dir", err)
	}
	defer os.RemoveAll(scratch)

	scriptPath := filepath.Join(scratch, scriptName)
	if err := os.WriteFile(scriptPath, []byte(diarizeScript), 0o644); err != nil {
		return nil, services.Wrap(services.ErrTransient, "diarize", "pyannote", "write diarization script", err)
	}

	s.logger.Debug("launching pyannote",
		logging.String("model", s.Model()),
		logging.String("device", s.device()),
		logging.Int("min_speakers", s.cfg.MinSpeakers),
		logging.Int("max_speakers", s.cfg.MaxSpeakers),
	)
	stdout, stderr, err := s.runner(ctx, s.uvxBinary, s.buildArgs(scriptPath, audioPath), s.environ())
	if err != nil {
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrTimeout, "diarize", "pyannote", "cancelled", ctx.Err())
		}
		return nil, classifyFailure(s.Model(), stderr, err)
	}

	var result Result
	if err := json.Unmarshal(stdout, &result); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "diarize", "pyannote", "parse diarization result", err)
	}
	if result.Error != "" {
		return nil, services.Wrap(services.ErrExternalTool, "diarize", "pyannote", result.Error, nil)
	}

	turns, dropped := ToTurns(result.Turns)
	if dropped > 0 {
		logging.WarnWithContext(s.logger, "dropped degenerate diarization turns", "diarization_turns_dropped",
			logging.Int("dropped", dropped),
			logging.String(logging.FieldImpact, "speech in those turns may be attributed to another speaker"),
		)
	}
	s.logger.Info("diarization complete",
		logging.Int("turns", len(turns)),
		logging.Int("speakers", result.SpeakerCount),
		logging.String(logging.FieldEventType, "diarization_complete"),
	)
	return turns, nil
}

func (s *Service) buildArgs(scriptPath, audioPath string) []string {
	// torchaudio + soundfile cover decoding where torchcodec fails.
	args := []string{
		"--quiet",
		"--with", "pyannote.audio",
		"--with", "torchaudio",
		"--with", "soundfile",
		"--with", "omegaconf",
	}
	if s.device() == "cuda" {
		args = append(args,
			"--index-url", cudaIndexURL,
			"--extra-index-url", pypiIndexURL,
		)
	}
	args = append(args, "python", scriptPath,
		"--audio", audioPath,
		"--model", s.Model(),
		"--device", s.device(),
	)
	minSpeakers, maxSpeakers := s.cfg.MinSpeakers, s.cfg.MaxSpeakers
	if minSpeakers > 0 && minSpeakers == maxSpeakers {
		return append(args, "--num-speakers", strconv.Itoa(minSpeakers))
	}
	if minSpeakers > 0 {
		args = append(args, "--min-speakers", strconv.Itoa(minSpeakers))
	}
	if maxSpeakers > 0 {
		args = append(args, "--max-speakers", strconv.Itoa(maxSpeakers))
	}
	return args
}

// environ carries the token to the script so it never appears on argv.
func (s *Service) environ() []string {
	env := append(os.Environ(), "HF_TOKEN="+strings.TrimSpace(s.cfg.HFToken))
	if os.Getenv(weightsOnlyEnvVar) == "" {
		env = append(env, weightsOnlyEnvVar+"=1")
	}
	return env
}

func (s *Service) device() string {
	switch strings.ToLower(strings.TrimSpace(s.cfg.Device)) {
	case "cuda":
		return "cuda"
	case "cpu":
		return "cpu"
	default:
		return "auto"
	}
}

// ToTurns converts script turns into diarization turns, discarding those with
// end <= start or a negative start. The second result counts discarded turns.
func ToTurns(raw []Turn) ([]timeline.DiarizationTurn, int) {
	turns := make([]timeline.DiarizationTurn, 0, len(raw))
	dropped := 0
	for _, t := range raw {
		if t.End <= t.Start || t.Start < 0 || strings.TrimSpace(t.Speaker) == "" {
			dropped++
			continue
		}
		turns = append(turns, timeline.DiarizationTurn{Start: t.Start, End: t.End, SpeakerID: t.Speaker})
	}
	return turns, dropped
}

func classifyFailure(model string, stderr []byte, err error) error {
	var result Result
	if json.Unmarshal(bytes.TrimSpace(lastLine(stderr)), &result) == nil && result.Error != "" {
		if isAccessDenied(result.Error) {
			return accessDenied(model)
		}
		return services.Wrap(services.ErrExternalTool, "diarize", "pyannote", result.Error, err)
	}
	text := string(stderr)
	if isAccessDenied(text) {
		return accessDenied(model)
	}
	return services.Wrap(services.ErrExternalTool, "diarize", "pyannote", exceptionSummary(text), err)
}

func isAccessDenied(text string) bool {
	return strings.Contains(text, "GatedRepoError") || strings.Contains(text, "401")
}

func accessDenied(model string) error {
	msg := fmt.Sprintf("hugging face model access denied; visit https://hf.co/%s and https://hf.co/pyannote/segmentation-3.0 to accept the model terms, then retry", model)
	return services.Wrap(services.ErrConfiguration, "diarize", "pyannote", msg, nil)
}

func lastLine(data []byte) []byte {
	data = bytes.TrimSpace(data)
	if idx := bytes.LastIndexByte(data, '\n'); idx >= 0 {
		return data[idx+1:]
	}
	return data
}

// exceptionSummary pulls the final Python exception out of a traceback.
func exceptionSummary(stderr string) string {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		return "diarization failed"
	}
	if idx := strings.LastIndex(msg, "Error:"); idx != -1 {
		if start := strings.LastIndex(msg[:idx], "\n"); start != -1 {
			return strings.TrimSpace(msg[start+1:])
		}
		return msg
	}
	lines := strings.Split(msg, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return msg
}
