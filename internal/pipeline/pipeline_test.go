package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"meetscribe/internal/config"
	"meetscribe/internal/history"
	"meetscribe/internal/media/audio"
	"meetscribe/internal/projection"
	"meetscribe/internal/services"
	"meetscribe/internal/services/huggingface"
	"meetscribe/internal/testsupport"
	"meetscribe/internal/timeline"
)

type fakeTranscriber struct {
	spans []timeline.TranscribedSpan
	err   error
	calls atomic.Int32
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) ([]timeline.TranscribedSpan, error) {
	f.calls.Add(1)
	return f.spans, f.err
}

type fakeDiarizer struct {
	turns  []timeline.DiarizationTurn
	err    error
	failOn string
}

func (f *fakeDiarizer) Diarize(ctx context.Context, path string) ([]timeline.DiarizationTurn, error) {
	if f.failOn != "" && strings.Contains(filepath.Base(path), f.failOn) {
		return nil, services.Wrap(services.ErrExternalTool, "diarize", "fake", "engine crashed", nil)
	}
	return f.turns, f.err
}

type trackingPreparer struct {
	mu       sync.Mutex
	prepared []*audio.Prepared
}

// Prepare copies the source into a converted file so cleanup can be observed.
func (p *trackingPreparer) Prepare(ctx context.Context, src string) (*audio.Prepared, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	dest := src + ".prepared.wav"
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return nil, err
	}
	prepared := &audio.Prepared{Path: dest, Source: src, Converted: true}
	p.mu.Lock()
	p.prepared = append(p.prepared, prepared)
	p.mu.Unlock()
	return prepared, nil
}

type countingValidator struct {
	err   error
	calls atomic.Int32
}

func (v *countingValidator) Validate(ctx context.Context, token string) (huggingface.Account, error) {
	v.calls.Add(1)
	return huggingface.Account{Name: "tester"}, v.err
}

func meetingSpans() []timeline.TranscribedSpan {
	return []timeline.TranscribedSpan{
		{Start: 0, End: 3, Text: " Good morning everyone. ", Confidence: -0.2},
		{Start: 3, End: 5, Text: "Let's start.", Confidence: -0.3},
		{Start: 5, End: 9, Text: "Thanks, I have an update.", Confidence: -0.1},
		{Start: 20, End: 22, Text: "(silence)"},
	}
}

func meetingTurns() []timeline.DiarizationTurn {
	return []timeline.DiarizationTurn{
		{Start: 0, End: 5.2, SpeakerID: "SPEAKER_00"},
		{Start: 5.2, End: 12, SpeakerID: "SPEAKER_01"},
	}
}

func openHistory(t *testing.T, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.Open(context.Background(), cfg.History.Path)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func writeRecording(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	path := filepath.Join(cfg.Paths.AudioDir, name)
	testsupport.WriteWAV(t, path, 16000, 1, 1600)
	return path
}

func newTestService(cfg *config.Config, opts ...Option) *Service {
	base := []Option{
		WithoutDependencyCheck(),
		WithTokenValidator(nil),
		WithTranscriber(&fakeTranscriber{spans: meetingSpans()}),
		WithDiarizer(&fakeDiarizer{turns: meetingTurns()}),
	}
	return NewService(cfg, nil, append(base, opts...)...)
}

func TestProcessWritesArtifactsAndHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOutputs("transcript", "json", "csv", "srt", "vtt"))
	store := openHistory(t, cfg)
	src := writeRecording(t, cfg, "Weekly Sync.wav")

	svc := newTestService(cfg, WithHistory(store))
	result, err := svc.Process(context.Background(), Request{AudioPath: src})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.Recording != "Weekly Sync" || result.RunID == "" {
		t.Fatalf("unexpected result identity %+v", result)
	}
	if len(result.Utterances) != 4 {
		t.Fatalf("expected one utterance per span, got %d", len(result.Utterances))
	}
	if result.Utterances[0].Text != "Good morning everyone." || result.Utterances[3].Speaker != timeline.UnknownSpeaker {
		t.Fatalf("unexpected utterances %+v", result.Utterances)
	}
	if got := result.Summary; got.Segments != 4 || got.TotalSeconds != 22 || strings.Join(got.Speakers, ",") != "Speaker_00,Speaker_01,Unknown" {
		t.Fatalf("unexpected summary %+v", got)
	}
	if len(result.Artifacts) != 5 {
		t.Fatalf("expected 5 artifacts, got %+v", result.Artifacts)
	}

	transcript, err := os.ReadFile(ArtifactPath(cfg.Paths.OutputDir, "Weekly Sync", ArtifactTranscript))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if !strings.Contains(string(transcript), "\n[0:00:00] Speaker_00:\nGood morning everyone.\nLet's start.\n") {
		t.Fatalf("unexpected transcript:\n%s", transcript)
	}

	detailed, err := os.ReadFile(ArtifactPath(cfg.Paths.OutputDir, "Weekly Sync", ArtifactDetailed))
	if err != nil {
		t.Fatalf("read detailed: %v", err)
	}
	parsed, err := projection.ParseStructured(detailed)
	if err != nil {
		t.Fatalf("ParseStructured: %v", err)
	}
	if len(parsed) != 4 || parsed[2].Speaker != "Speaker_01" {
		t.Fatalf("structured record mismatch: %+v", parsed)
	}

	csvData, err := os.ReadFile(ArtifactPath(cfg.Paths.OutputDir, "Weekly Sync", ArtifactAnalysis))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(csvData), projection.TableHeader[0]) {
		t.Fatalf("unexpected csv header:\n%s", csvData)
	}

	run, err := store.Get(context.Background(), result.RunID)
	if err != nil || run == nil {
		t.Fatalf("history Get: %v %v", run, err)
	}
	if run.Status != history.StatusCompleted || run.Segments != 4 || run.SpeakerCount != 3 || len(run.Artifacts) != 5 {
		t.Fatalf("unexpected history run %+v", run)
	}
}

func TestProcessHonoursOutputNameAndToggles(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOutputs("transcript"))
	src := writeRecording(t, cfg, "raw.wav")

	result, err := newTestService(cfg).Process(context.Background(), Request{AudioPath: src, OutputName: "board/meeting"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(result.Artifacts) != 1 || result.Artifacts[0].Kind != ArtifactTranscript {
		t.Fatalf("expected only the transcript, got %+v", result.Artifacts)
	}
	if filepath.Base(result.Artifacts[0].Path) != "board-meeting_transcript.txt" {
		t.Fatalf("unexpected artifact name %s", result.Artifacts[0].Path)
	}
	if _, err := os.Stat(ArtifactPath(cfg.Paths.OutputDir, "board-meeting", ArtifactDetailed)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("disabled artifact should not be written")
	}
}

func TestProcessMissingRecording(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := openHistory(t, cfg)
	svc := newTestService(cfg, WithHistory(store))

	_, err := svc.Process(context.Background(), Request{AudioPath: filepath.Join(cfg.Paths.AudioDir, "absent.wav")})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	runs, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != history.StatusRejected || runs[0].ErrorMessage == "" {
		t.Fatalf("expected a rejected run, got %+v", runs)
	}
}

func TestProcessUnsupportedFormat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(cfg.Paths.AudioDir, "notes.txt")
	testsupport.WriteFile(t, src, 10)
	if _, err := newTestService(cfg).Process(context.Background(), Request{AudioPath: src}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProcessEngineFailureCleansUp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := openHistory(t, cfg)
	src := writeRecording(t, cfg, "bad-call.wav")
	preparer := &trackingPreparer{}
	transcriber := &fakeTranscriber{spans: meetingSpans()}

	svc := newTestService(cfg,
		WithHistory(store),
		WithAudioPreparer(preparer),
		WithTranscriber(transcriber),
		WithDiarizer(&fakeDiarizer{failOn: "bad"}),
	)
	_, err := svc.Process(context.Background(), Request{AudioPath: src})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if transcriber.calls.Load() != 0 {
		t.Fatal("transcription should not run after diarization fails")
	}
	if len(preparer.prepared) != 1 {
		t.Fatalf("expected one prepared file, got %d", len(preparer.prepared))
	}
	if _, statErr := os.Stat(src + ".prepared.wav"); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("converted audio should be removed on failure, stat err=%v", statErr)
	}
	runs, _ := store.List(context.Background(), 10)
	if len(runs) != 1 || runs[0].Status != history.StatusFailed {
		t.Fatalf("expected a failed run, got %+v", runs)
	}
}

func TestProcessRejectsInvalidEngineOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := writeRecording(t, cfg, "call.wav")
	svc := newTestService(cfg, WithTranscriber(&fakeTranscriber{spans: []timeline.TranscribedSpan{
		{Start: 0, End: 1, Text: "fine"},
		{Start: 4, End: 2, Text: "reversed"},
	}}))

	_, err := svc.Process(context.Background(), Request{AudioPath: src})
	if !errors.Is(err, services.ErrValidation) || !errors.Is(err, timeline.ErrInvalidInterval) {
		t.Fatalf("expected invalid interval, got %v", err)
	}
	var spanErr *timeline.InvalidSpanError
	if !errors.As(err, &spanErr) || spanErr.Index != 1 {
		t.Fatalf("expected span error at index 1, got %v", err)
	}
	if _, err := os.Stat(ArtifactPath(cfg.Paths.OutputDir, "call", ArtifactTranscript)); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("no artifacts should be written for rejected input")
	}
}

func TestProcessEmptyEngineOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOutputs("json", "transcript"))
	src := writeRecording(t, cfg, "silence.wav")
	svc := newTestService(cfg,
		WithTranscriber(&fakeTranscriber{}),
		WithDiarizer(&fakeDiarizer{}),
	)
	result, err := svc.Process(context.Background(), Request{AudioPath: src})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Summary.Segments != 0 || len(result.Summary.Speakers) != 0 {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}
	data, err := os.ReadFile(ArtifactPath(cfg.Paths.OutputDir, "silence", ArtifactDetailed))
	if err != nil {
		t.Fatalf("read detailed: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("expected empty array, got %q", data)
	}
}

func TestTokenValidatedOnceAndRejectionStops(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := writeRecording(t, cfg, "a.wav")

	validator := &countingValidator{}
	svc := newTestService(cfg, WithTokenValidator(validator))
	for range 2 {
		if _, err := svc.Process(context.Background(), Request{AudioPath: src}); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}
	if validator.calls.Load() != 1 {
		t.Fatalf("expected one token check, got %d", validator.calls.Load())
	}

	rejecting := &countingValidator{err: huggingface.ErrUnauthorized}
	svc = newTestService(cfg, WithTokenValidator(rejecting))
	if _, err := svc.Process(context.Background(), Request{AudioPath: src}); !errors.Is(err, huggingface.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	offline := &countingValidator{err: services.Wrap(services.ErrTransient, "huggingface", "validate token", "contact Hugging Face", errors.New("dial tcp: no route"))}
	svc = newTestService(cfg, WithTokenValidator(offline))
	if _, err := svc.Process(context.Background(), Request{AudioPath: src}); err != nil {
		t.Fatalf("network failures should not block processing: %v", err)
	}
}

func TestProcessRequiresToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.HuggingFace.Token = ""
	src := writeRecording(t, cfg, "a.wav")
	if _, err := newTestService(cfg).Process(context.Background(), Request{AudioPath: src}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestProcessDependencyCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	src := writeRecording(t, cfg, "a.wav")
	svc := NewService(cfg, nil,
		WithTokenValidator(nil),
		WithTranscriber(&fakeTranscriber{spans: meetingSpans()}),
		WithDiarizer(&fakeDiarizer{turns: meetingTurns()}),
	)
	if _, err := svc.Process(context.Background(), Request{AudioPath: src}); err != nil {
		t.Fatalf("expected stubbed binaries to satisfy preflight: %v", err)
	}

	missing := testsupport.NewConfig(t)
	t.Setenv("PATH", t.TempDir())
	src = writeRecording(t, missing, "a.wav")
	svc = NewService(missing, nil, WithTokenValidator(nil))
	_, err := svc.Process(context.Background(), Request{AudioPath: src})
	if !errors.Is(err, services.ErrConfiguration) || !strings.Contains(err.Error(), "FFmpeg") {
		t.Fatalf("expected missing dependency error, got %v", err)
	}
}

func TestProcessFolderContinuesAfterFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOutputs("transcript"))
	cfg.Processing.Workers = 2
	writeRecording(t, cfg, "c-standup.wav")
	writeRecording(t, cfg, "a-planning.wav")
	writeRecording(t, cfg, "b-bad.wav")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.AudioDir, "readme.txt"), 4)
	if err := os.MkdirAll(filepath.Join(cfg.Paths.AudioDir, "nested.wav"), 0o755); err != nil {
		t.Fatal(err)
	}

	svc := newTestService(cfg, WithDiarizer(&fakeDiarizer{turns: meetingTurns(), failOn: "bad"}))
	outcomes, err := svc.ProcessFolder(context.Background(), cfg.Paths.AudioDir)
	if err != nil {
		t.Fatalf("ProcessFolder: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	names := []string{"a-planning.wav", "b-bad.wav", "c-standup.wav"}
	for i, o := range outcomes {
		if filepath.Base(o.Path) != names[i] {
			t.Fatalf("outcome %d is %s, want %s", i, o.Path, names[i])
		}
	}
	if !outcomes[0].Succeeded() || outcomes[1].Succeeded() || !outcomes[2].Succeeded() {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
	if _, err := os.Stat(ArtifactPath(cfg.Paths.OutputDir, "c-standup", ArtifactTranscript)); err != nil {
		t.Fatalf("expected artifacts after a failed sibling: %v", err)
	}
}

func TestProcessFolderDisambiguatesSharedStems(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOutputs("transcript"))
	cfg.Processing.Workers = 2
	writeRecording(t, cfg, "meeting.wav")
	writeRecording(t, cfg, "meeting.m4a")

	svc := newTestService(cfg, WithAudioPreparer(&trackingPreparer{}))
	outcomes, err := svc.ProcessFolder(context.Background(), cfg.Paths.AudioDir)
	if err != nil {
		t.Fatalf("ProcessFolder: %v", err)
	}
	for _, o := range outcomes {
		if !o.Succeeded() {
			t.Fatalf("%s failed: %v", o.Path, o.Err)
		}
	}
	for _, name := range []string{"meeting_m4a", "meeting_wav"} {
		if _, err := os.Stat(ArtifactPath(cfg.Paths.OutputDir, name, ArtifactTranscript)); err != nil {
			t.Fatalf("expected artifacts for %s: %v", name, err)
		}
	}
	if _, err := os.Stat(ArtifactPath(cfg.Paths.OutputDir, "meeting", ArtifactTranscript)); err == nil {
		t.Fatal("expected no artifacts under the shared stem")
	}
}

func TestBatchOutputNames(t *testing.T) {
	got := BatchOutputNames([]string{
		"/in/Meeting.m4a",
		"/in/meeting.wav",
		"/in/meeting_wav.mp3",
		"/in/standup.wav",
	})
	want := []string{"Meeting_m4a", "meeting_wav", "meeting_wav_2", "standup"}
	if !slices.Equal(got, want) {
		t.Fatalf("BatchOutputNames = %v, want %v", got, want)
	}
}

func TestProcessFolderMissingDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := newTestService(cfg).ProcessFolder(context.Background(), filepath.Join(cfg.Paths.AudioDir, "nope"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestArtifactWriterWaitsForLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	held := flock.New(filepath.Join(cfg.Paths.OutputDir, LockFileName))
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer held.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()
	writer := NewArtifactWriter(cfg.Paths.OutputDir, cfg.Output)
	_, err := writer.Write(ctx, "locked", projection.Projection{Structured: []byte("[]")})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout while another process holds the lock, got %v", err)
	}
}

func TestArtifactWriterNoOutputs(t *testing.T) {
	writer := NewArtifactWriter(t.TempDir(), config.Output{})
	if _, err := writer.Write(context.Background(), "x", projection.Projection{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]timeline.AlignedUtterance{
		{Start: 0, End: 4, Speaker: "Speaker_01"},
		{Start: 4, End: 12.5, Speaker: "Speaker_00"},
		{Start: 12.5, End: 10, Speaker: "Speaker_01"},
	})
	if summary.Segments != 3 || summary.TotalSeconds != 12.5 || summary.SpeakerCount() != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Speakers[0] != "Speaker_00" {
		t.Fatalf("expected sorted speakers, got %v", summary.Speakers)
	}
	if empty := Summarize(nil); empty.Segments != 0 || empty.TotalSeconds != 0 || empty.Speakers == nil {
		t.Fatalf("unexpected empty summary %+v", empty)
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		req  Request
		want string
	}{
		{Request{AudioPath: "/a/Weekly Sync.m4a"}, "Weekly Sync"},
		{Request{AudioPath: "/a/x.wav", OutputName: " Q3: review "}, "Q3- review"},
		{Request{AudioPath: "/a/.wav"}, "recording"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.req); got != tt.want {
			t.Errorf("OutputName(%+v) = %q, want %q", tt.req, got, tt.want)
		}
	}
}
