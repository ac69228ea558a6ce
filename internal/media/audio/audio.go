package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/google/uuid"

	"meetscribe/internal/logging"
	"meetscribe/internal/media/ffprobe"
	"meetscribe/internal/services"
)

// DefaultSampleRate is the rate both engines are fed at.
const DefaultSampleRate = 16000

const (
	wavPCMFormat = 1
	pcmBitDepth  = 16
)

// Info describes a recording's audio layout.
type Info struct {
	Format     string
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// Seconds returns the duration as fractional seconds.
func (i Info) Seconds() float64 {
	return i.Duration.Seconds()
}

// Supported reports whether path has one of the accepted extensions. The
// comparison is case-insensitive; formats may be given with or without a dot.
func Supported(path string, formats []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	return slices.ContainsFunc(formats, func(f string) bool {
		f = strings.ToLower(strings.TrimSpace(f))
		if !strings.HasPrefix(f, ".") {
			f = "." + f
		}
		return f == ext
	})
}

// ProbeWAV reads the RIFF header of a WAV file.
func ProbeWAV(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return Info{}, fmt.Errorf("decode wav header: %w", err)
		}
		return Info{}, errors.New("not a valid wav file")
	}
	duration, err := dec.Duration()
	if err != nil {
		return Info{}, fmt.Errorf("wav duration: %w", err)
	}
	codec := "pcm"
	if dec.WavAudioFormat != wavPCMFormat {
		codec = "format_" + strconv.Itoa(int(dec.WavAudioFormat))
	}
	return Info{
		Format:     "wav",
		Codec:      codec,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Duration:   duration,
	}, nil
}

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ProbeFunc describes a non-WAV recording.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// PreparerConfig configures a Preparer.
type PreparerConfig struct {
	FFmpegBinary  string
	FFprobeBinary string
	WorkDir       string
	SampleRate    int
}

// Preparer turns recordings into engine-ready WAV files.
type Preparer struct {
	cfg    PreparerConfig
	logger *slog.Logger
	run    CommandRunner
	probe  ProbeFunc
}

// NewPreparer constructs a Preparer.
func NewPreparer(cfg PreparerConfig, logger *slog.Logger) *Preparer {
	if strings.TrimSpace(cfg.FFmpegBinary) == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(cfg.FFprobeBinary) == "" {
		cfg.FFprobeBinary = "ffprobe"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	return &Preparer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "audio"),
		run:    execRunner,
		probe:  ffprobe.Inspect,
	}
}

// WithCommandRunner replaces the ffmpeg runner (for testing).
func (p *Preparer) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		p.run = runner
	}
}

// WithProbe replaces the ffprobe call (for testing).
func (p *Preparer) WithProbe(probe ProbeFunc) {
	if probe != nil {
		p.probe = probe
	}
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
}

// Prepared is an engine-ready WAV file. Close removes it when it was created
// by conversion; the caller's original recording is never touched.
type Prepared struct {
	Path      string
	Source    string
	Converted bool
	// Original describes the recording before conversion.
	Original Info
	Info     Info
}

// Close removes the converted copy, if any. It is safe to call repeatedly.
func (p *Prepared) Close() error {
	if p == nil || !p.Converted || p.Path == "" {
		return nil
	}
	err := os.Remove(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	p.Path = ""
	return err
}

// Prepare validates src and returns a mono PCM WAV at the configured rate.
func (p *Preparer) Prepare(ctx context.Context, src string) (*Prepared, error) {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "prepare", "audio", fmt.Sprintf("recording %s does not exist", src), nil)
		}
		return nil, services.Wrap(services.ErrValidation, "prepare", "audio", "stat recording", err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "prepare", "audio", fmt.Sprintf("%s is a directory", src), nil)
	}
	if info.Size() == 0 {
		return nil, services.Wrap(services.ErrValidation, "prepare", "audio", fmt.Sprintf("%s is empty", src), nil)
	}

	original, probeErr := p.describe(ctx, src)
	if errors.Is(probeErr, services.ErrValidation) {
		return nil, probeErr
	}
	if probeErr != nil {
		p.logger.Debug("audio probe failed; converting unconditionally",
			logging.String("source", src),
			logging.Error(probeErr),
		)
	} else if p.ready(original) {
		p.logger.Debug("recording already engine ready",
			logging.String("source", src),
			logging.Int("sample_rate", original.SampleRate),
		)
		return &Prepared{Path: src, Source: src, Original: original, Info: original}, nil
	}

	dest, err := p.convert(ctx, src)
	if err != nil {
		return nil, err
	}
	converted, err := ProbeWAV(dest)
	if err != nil {
		_ = os.Remove(dest)
		return nil, services.Wrap(services.ErrExternalTool, "prepare", "ffmpeg", "converted file is not a readable wav", err)
	}
	p.logger.Info("recording converted",
		logging.String("source", src),
		logging.String("source_format", original.Format),
		logging.Int("source_channels", original.Channels),
		logging.Int("source_sample_rate", original.SampleRate),
		logging.Duration("duration", converted.Duration),
		logging.String(logging.FieldEventType, "audio_converted"),
	)
	return &Prepared{Path: dest, Source: src, Converted: true, Original: original, Info: converted}, nil
}

func (p *Preparer) describe(ctx context.Context, src string) (Info, error) {
	if strings.EqualFold(filepath.Ext(src), ".wav") {
		return ProbeWAV(src)
	}
	result, err := p.probe(ctx, p.cfg.FFprobeBinary, src)
	if err != nil {
		return Info{}, err
	}
	stream, ok := result.PrimaryAudio()
	if !ok {
		return Info{}, services.Wrap(services.ErrValidation, "prepare", "audio", fmt.Sprintf("%s has no audio stream", src), nil)
	}
	return Info{
		Format:     strings.TrimPrefix(strings.ToLower(filepath.Ext(src)), "."),
		Codec:      stream.CodecName,
		SampleRate: stream.SampleRateHz(),
		Channels:   stream.Channels,
		BitDepth:   stream.BitsPerSample,
		Duration:   time.Duration(result.DurationSeconds() * float64(time.Second)),
	}, nil
}

func (p *Preparer) ready(info Info) bool {
	return info.Format == "wav" &&
		info.Codec == "pcm" &&
		info.Channels == 1 &&
		info.BitDepth == pcmBitDepth &&
		info.SampleRate == p.cfg.SampleRate
}

func (p *Preparer) convert(ctx context.Context, src string) (string, error) {
	workDir := p.cfg.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "prepare", "audio", "ensure work dir", err)
	}
	dest := filepath.Join(workDir, "prepared-"+uuid.NewString()+".wav")
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", src,
		"-ac", "1",
		"-ar", strconv.Itoa(p.cfg.SampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
	if output, err := p.run(ctx, p.cfg.FFmpegBinary, args...); err != nil {
		_ = os.Remove(dest)
		if ctx.Err() != nil {
			return "", services.Wrap(services.ErrTimeout, "prepare", "ffmpeg", "cancelled", ctx.Err())
		}
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = "conversion failed"
		}
		return "", services.Wrap(services.ErrExternalTool, "prepare", "ffmpeg", detail, err)
	}
	return dest, nil
}
