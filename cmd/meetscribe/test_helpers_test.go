package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"meetscribe/internal/config"
	"meetscribe/internal/pipeline"
	"meetscribe/internal/testsupport"
	"meetscribe/internal/timeline"
)

type stubTranscriber struct {
	spans []timeline.TranscribedSpan
	err   error
}

func (s stubTranscriber) Transcribe(context.Context, string) ([]timeline.TranscribedSpan, error) {
	return s.spans, s.err
}

type stubDiarizer struct {
	turns []timeline.DiarizationTurn
	err   error
}

func (s stubDiarizer) Diarize(context.Context, string) ([]timeline.DiarizationTurn, error) {
	return s.turns, s.err
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	options    []pipeline.Option
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	if err := os.MkdirAll(cfg.Paths.AudioDir, 0o755); err != nil {
		t.Fatalf("mkdir audio dir: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		options: []pipeline.Option{
			pipeline.WithoutDependencyCheck(),
			pipeline.WithTokenValidator(nil),
			pipeline.WithTranscriber(stubTranscriber{spans: []timeline.TranscribedSpan{
				{Start: 0, End: 4, Text: "Welcome to the planning call.", Confidence: -0.2},
				{Start: 4, End: 7.5, Text: "Thanks, glad to be here.", Confidence: -0.4},
				{Start: 7.5, End: 9, Text: "Let's begin.", Confidence: -0.1},
			}}),
			pipeline.WithDiarizer(stubDiarizer{turns: []timeline.DiarizationTurn{
				{Start: 0, End: 4.1, SpeakerID: "SPEAKER_00"},
				{Start: 4.1, End: 7.4, SpeakerID: "SPEAKER_01"},
				{Start: 7.4, End: 9, SpeakerID: "SPEAKER_00"},
			}}),
		},
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (env *cliTestEnv) recording(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(env.cfg.Paths.AudioDir, name)
	testsupport.WriteWAV(t, path, 16000, 1, 16000)
	return path
}

// run executes the CLI against the env's config file.
func (env *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", env.configPath}, args...), env.options...)
}

func runCLI(t *testing.T, args []string, opts ...pipeline.Option) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(opts...)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", needle, haystack)
	}
}
