package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"meetscribe/internal/media/ffprobe"
	"meetscribe/internal/services"
	"meetscribe/internal/testsupport"
)

// fakeFFmpeg writes a mono 16 kHz file to the output argument.
func fakeFFmpeg(t *testing.T, calls *[][]string) CommandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, args)
		testsupport.WriteWAV(t, args[len(args)-1], 16000, 1, 8000)
		return nil, nil
	}
}

func TestSupported(t *testing.T) {
	formats := []string{".wav", "mp3", ".M4A"}
	cases := map[string]bool{
		"standup.wav":  true,
		"standup.WAV":  true,
		"call.mp3":     true,
		"call.m4a":     true,
		"notes.txt":    false,
		"no-extension": false,
	}
	for path, want := range cases {
		if got := Supported(path, formats); got != want {
			t.Errorf("Supported(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestProbeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	testsupport.WriteWAV(t, path, 16000, 1, 32000)

	info, err := ProbeWAV(path)
	if err != nil {
		t.Fatalf("ProbeWAV: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 1 || info.BitDepth != 16 || info.Codec != "pcm" {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Seconds() != 2 {
		t.Fatalf("expected 2s, got %v", info.Duration)
	}
}

func TestProbeWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ProbeWAV(path); err == nil {
		t.Fatal("expected error for invalid wav")
	}
}

func TestPrepareUsesReadyWAVInPlace(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "ready.wav")
	testsupport.WriteWAV(t, src, 16000, 1, 16000)

	p := NewPreparer(PreparerConfig{WorkDir: filepath.Join(dir, "work")}, nil)
	p.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		t.Fatalf("ffmpeg should not run for a ready file")
		return nil, nil
	})
	prepared, err := p.Prepare(context.Background(), src)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if prepared.Path != src || prepared.Converted {
		t.Fatalf("expected passthrough, got %+v", prepared)
	}
	if err := prepared.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source must survive Close: %v", err)
	}
}

func TestPrepareConvertsStereoWAV(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "stereo.wav")
	testsupport.WriteWAV(t, src, 44100, 2, 4410)
	work := filepath.Join(dir, "work")

	var calls [][]string
	p := NewPreparer(PreparerConfig{FFmpegBinary: "ffmpeg-test", WorkDir: work}, nil)
	p.WithCommandRunner(fakeFFmpeg(t, &calls))

	prepared, err := p.Prepare(context.Background(), src)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !prepared.Converted || filepath.Dir(prepared.Path) != work {
		t.Fatalf("expected converted file in work dir, got %+v", prepared)
	}
	if prepared.Original.Channels != 2 || prepared.Original.SampleRate != 44100 {
		t.Fatalf("unexpected original info %+v", prepared.Original)
	}
	if prepared.Info.SampleRate != 16000 || prepared.Info.Channels != 1 {
		t.Fatalf("unexpected converted info %+v", prepared.Info)
	}
	if len(calls) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(calls))
	}
	args := calls[0]
	for _, want := range []string{"-ac", "1", "-ar", "16000", "pcm_s16le", src} {
		if !slices.Contains(args, want) {
			t.Fatalf("ffmpeg args missing %q: %v", want, args)
		}
	}

	path := prepared.Path
	if err := prepared.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("converted file should be removed, stat err=%v", err)
	}
	if err := prepared.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestPrepareProbesOtherContainers(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "call.m4a")
	if err := os.WriteFile(src, []byte("fake m4a"), 0o644); err != nil {
		t.Fatal(err)
	}
	var calls [][]string
	p := NewPreparer(PreparerConfig{WorkDir: dir}, nil)
	p.WithCommandRunner(fakeFFmpeg(t, &calls))
	p.WithProbe(func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "audio", CodecName: "aac", SampleRate: "48000", Channels: 2}},
			Format:  ffprobe.Format{Duration: "12.5"},
		}, nil
	})

	prepared, err := p.Prepare(context.Background(), src)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer prepared.Close()
	if prepared.Original.Codec != "aac" || prepared.Original.Format != "m4a" || prepared.Original.Seconds() != 12.5 {
		t.Fatalf("unexpected original info %+v", prepared.Original)
	}
	if len(calls) != 1 {
		t.Fatalf("expected conversion, got %d calls", len(calls))
	}
}

func TestPrepareRejectsFileWithoutAudio(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "slides.mp3")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := NewPreparer(PreparerConfig{WorkDir: dir}, nil)
	p.WithProbe(func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}}}, nil
	})
	if _, err := p.Prepare(context.Background(), src); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPrepareMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	p := NewPreparer(PreparerConfig{WorkDir: dir}, nil)
	if _, err := p.Prepare(context.Background(), filepath.Join(dir, "absent.wav")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	empty := filepath.Join(dir, "empty.wav")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Prepare(context.Background(), empty); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPrepareConversionFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.wav")
	if err := os.WriteFile(src, []byte("RIFF but not really"), 0o644); err != nil {
		t.Fatal(err)
	}
	work := filepath.Join(dir, "work")
	p := NewPreparer(PreparerConfig{WorkDir: work}, nil)
	p.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("Invalid data found when processing input"), errors.New("exit status 1")
	})
	_, err := p.Prepare(context.Background(), src)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	entries, _ := os.ReadDir(work)
	if len(entries) != 0 {
		t.Fatalf("expected no leftovers in work dir, found %d", len(entries))
	}
}
