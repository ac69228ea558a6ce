package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"meetscribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The output tree is created so preflight checks pass without further setup.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.AudioDir = filepath.Join(base, "audio")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.History.Path = filepath.Join(base, "logs", "history.db")
	cfgVal.HuggingFace.Token = "hf_test_token"
	cfgVal.HuggingFace.Validate = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithOutputs enables exactly the listed artifact kinds: "transcript",
// "json", "csv", "srt" and "vtt".
func WithOutputs(kinds ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output = config.Output{}
		for _, kind := range kinds {
			switch kind {
			case "transcript":
				b.cfg.Output.Transcript = true
			case "json":
				b.cfg.Output.DetailedJSON = true
			case "csv":
				b.cfg.Output.AnalysisCSV = true
			case "srt":
				b.cfg.Output.SRTSubtitles = true
			case "vtt":
				b.cfg.Output.VTTSubtitles = true
			default:
				b.t.Fatalf("unknown output kind %q", kind)
			}
		}
	}
}

// WithHistoryDisabled turns off the run history store.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithStubbedBinaries puts no-op executables for names first on PATH for the
// rest of the test. With no names, ffmpeg and uvx are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "uvx"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
