package pyannote

import (
	"context"
	"errors"
	"os"
	"slices"
	"strings"
	"testing"

	"meetscribe/internal/services"
)

func argValue(args []string, flag string) string {
	idx := slices.Index(args, flag)
	if idx < 0 || idx+1 >= len(args) {
		return ""
	}
	return args[idx+1]
}

func TestDiarizeParsesTurns(t *testing.T) {
	work := t.TempDir()
	var gotArgs, gotEnv []string
	svc := NewService(Config{HFToken: "hf_real", WorkDir: work, Device: "cpu"}, "uvx-test", nil)
	svc.WithCommandRunner(func(ctx context.Context, name string, args []string, env []string) ([]byte, []byte, error) {
		if name != "uvx-test" {
			t.Fatalf("unexpected binary %q", name)
		}
		gotArgs, gotEnv = args, env
		script := argValue(args, "python")
		data, err := os.ReadFile(script)
		if err != nil {
			t.Fatalf("script not written: %v", err)
		}
		if !strings.Contains(string(data), "itertracks") {
			t.Fatalf("unexpected script contents")
		}
		stdout := `{"turns":[{"start":0,"end":4.2,"speaker":"SPEAKER_01"},{"start":4.2,"end":4.2,"speaker":"SPEAKER_00"},{"start":4.2,"end":9,"speaker":"SPEAKER_00"}],"speaker_count":2}`
		return []byte(stdout), nil, nil
	})

	turns, err := svc.Diarize(context.Background(), "/audio/meeting.wav")
	if err != nil {
		t.Fatalf("Diarize: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %+v", turns)
	}
	if turns[0].SpeakerID != "SPEAKER_01" || turns[1].Start != 4.2 || turns[1].End != 9 {
		t.Fatalf("unexpected turns %+v", turns)
	}
	if argValue(gotArgs, "--audio") != "/audio/meeting.wav" || argValue(gotArgs, "--model") != DefaultModel {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	if argValue(gotArgs, "--device") != "cpu" || slices.Contains(gotArgs, "--index-url") {
		t.Fatalf("cpu run should use default index: %v", gotArgs)
	}
	if !slices.Contains(gotEnv, "HF_TOKEN=hf_real") {
		t.Fatal("expected HF_TOKEN in environment")
	}
	for _, arg := range gotArgs {
		if strings.Contains(arg, "hf_real") || arg == "--hf-token" {
			t.Fatalf("token leaked into argv: %v", gotArgs)
		}
	}
}

func TestBuildArgsSpeakerHints(t *testing.T) {
	svc := NewService(Config{HFToken: "t", MinSpeakers: 2, MaxSpeakers: 2}, "", nil)
	args := svc.buildArgs("/s.py", "/a.wav")
	if argValue(args, "--num-speakers") != "2" || slices.Contains(args, "--min-speakers") {
		t.Fatalf("equal bounds should pin the count: %v", args)
	}

	svc = NewService(Config{HFToken: "t", MinSpeakers: 2, MaxSpeakers: 5, Device: "cuda", Model: "acme/diar"}, "", nil)
	args = svc.buildArgs("/s.py", "/a.wav")
	if argValue(args, "--min-speakers") != "2" || argValue(args, "--max-speakers") != "5" {
		t.Fatalf("expected bounds: %v", args)
	}
	if argValue(args, "--index-url") != cudaIndexURL || argValue(args, "--model") != "acme/diar" {
		t.Fatalf("unexpected cuda args: %v", args)
	}

	svc = NewService(Config{HFToken: "t"}, "", nil)
	args = svc.buildArgs("/s.py", "/a.wav")
	for _, flag := range []string{"--num-speakers", "--min-speakers", "--max-speakers"} {
		if slices.Contains(args, flag) {
			t.Fatalf("unexpected %s in %v", flag, args)
		}
	}
}

func TestDiarizeRequiresToken(t *testing.T) {
	svc := NewService(Config{WorkDir: t.TempDir()}, "", nil)
	_, err := svc.Diarize(context.Background(), "/a.wav")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestDiarizeGatedModel(t *testing.T) {
	svc := NewService(Config{HFToken: "hf_x", WorkDir: t.TempDir()}, "", nil)
	svc.WithCommandRunner(func(ctx context.Context, name string, args []string, env []string) ([]byte, []byte, error) {
		return nil, []byte("huggingface_hub.errors.GatedRepoError: 403 Client Error"), errors.New("exit status 1")
	})
	_, err := svc.Diarize(context.Background(), "/a.wav")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "accept the model terms") {
		t.Fatalf("expected actionable message, got %v", err)
	}
}

func TestDiarizeScriptError(t *testing.T) {
	svc := NewService(Config{HFToken: "hf_x", WorkDir: t.TempDir()}, "", nil)
	svc.WithCommandRunner(func(ctx context.Context, name string, args []string, env []string) ([]byte, []byte, error) {
		return nil, []byte("some warning\n{\"error\": \"out of memory\"}\n"), errors.New("exit status 1")
	})
	_, err := svc.Diarize(context.Background(), "/a.wav")
	if !errors.Is(err, services.ErrExternalTool) || !strings.Contains(err.Error(), "out of memory") {
		t.Fatalf("expected script error, got %v", err)
	}
}

func TestDiarizeMalformedOutput(t *testing.T) {
	svc := NewService(Config{HFToken: "hf_x", WorkDir: t.TempDir()}, "", nil)
	svc.WithCommandRunner(func(ctx context.Context, name string, args []string, env []string) ([]byte, []byte, error) {
		return []byte("not json"), nil, nil
	})
	if _, err := svc.Diarize(context.Background(), "/a.wav"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestExceptionSummary(t *testing.T) {
	trace := "Traceback (most recent call last):\n  File \"x.py\", line 3\nValueError: bad sample rate\n"
	if got := exceptionSummary(trace); got != "ValueError: bad sample rate" {
		t.Fatalf("exceptionSummary = %q", got)
	}
	if got := exceptionSummary("  "); got != "diarization failed" {
		t.Fatalf("empty summary = %q", got)
	}
	if got := exceptionSummary("line one\nlast line\n"); got != "last line" {
		t.Fatalf("fallback summary = %q", got)
	}
}
