package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"meetscribe/internal/config"
	"meetscribe/internal/fileutil"
	"meetscribe/internal/projection"
	"meetscribe/internal/services"
)

// ArtifactKind names one persisted view.
type ArtifactKind string

const (
	ArtifactDetailed   ArtifactKind = "detailed_json"
	ArtifactTranscript ArtifactKind = "transcript"
	ArtifactAnalysis   ArtifactKind = "analysis_csv"
	ArtifactSRT        ArtifactKind = "srt"
	ArtifactVTT        ArtifactKind = "vtt"
)

// LockFileName is the advisory lock guarding the output tree.
const LockFileName = ".meetscribe.lock"

const lockRetryDelay = 250 * time.Millisecond

// Artifact is a written output file.
type Artifact struct {
	Kind ArtifactKind
	Path string
}

// ArtifactPath returns where kind is stored for a recording named name.
func ArtifactPath(outputDir, name string, kind ArtifactKind) string {
	switch kind {
	case ArtifactDetailed:
		return filepath.Join(outputDir, config.DetailedDir, name+"_detailed.json")
	case ArtifactTranscript:
		return filepath.Join(outputDir, config.TranscriptsDir, name+"_transcript.txt")
	case ArtifactAnalysis:
		return filepath.Join(outputDir, config.AnalysisDir, name+"_analysis.csv")
	case ArtifactSRT:
		return filepath.Join(outputDir, config.SubtitlesDir, name+".srt")
	case ArtifactVTT:
		return filepath.Join(outputDir, config.SubtitlesDir, name+".vtt")
	default:
		return ""
	}
}

// ArtifactWriter persists projections under an output directory. Writes are
// serialized within the process and guarded across processes by a file lock.
type ArtifactWriter struct {
	outputDir string
	output    config.Output
	mu        sync.Mutex
}

// NewArtifactWriter returns a writer for the enabled outputs.
func NewArtifactWriter(outputDir string, output config.Output) *ArtifactWriter {
	return &ArtifactWriter{outputDir: outputDir, output: output}
}

// Write stores every enabled view of p for the recording name. Files are
// replaced atomically; a failure part way leaves earlier files in place and
// reports which one failed.
func (w *ArtifactWriter) Write(ctx context.Context, name string, p projection.Projection) ([]Artifact, error) {
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "write", "artifacts", "empty output name", nil)
	}
	contents, err := w.render(p)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "write", "artifacts", "create output dir", err)
	}
	lock := flock.New(filepath.Join(w.outputDir, LockFileName))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrTimeout, "write", "artifacts", "waiting for output lock", ctx.Err())
		}
		return nil, services.Wrap(services.ErrTransient, "write", "artifacts", "acquire output lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrTransient, "write", "artifacts", "output directory is locked by another meetscribe process", nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	written := make([]Artifact, 0, len(contents))
	for _, item := range contents {
		path := ArtifactPath(w.outputDir, name, item.kind)
		if err := fileutil.WriteFileAtomic(path, item.data, 0o644); err != nil {
			return written, services.Wrap(services.ErrTransient, "write", string(item.kind), path, err)
		}
		written = append(written, Artifact{Kind: item.kind, Path: path})
	}
	return written, nil
}

type renderedArtifact struct {
	kind ArtifactKind
	data []byte
}

func (w *ArtifactWriter) render(p projection.Projection) ([]renderedArtifact, error) {
	var out []renderedArtifact
	if w.output.DetailedJSON {
		out = append(out, renderedArtifact{ArtifactDetailed, append(append([]byte(nil), p.Structured...), '\n')})
	}
	if w.output.Transcript {
		out = append(out, renderedArtifact{ArtifactTranscript, []byte(p.Transcript)})
	}
	if w.output.AnalysisCSV {
		var buf bytes.Buffer
		if err := p.Table.WriteCSV(&buf); err != nil {
			return nil, services.Wrap(services.ErrTransient, "write", "analysis_csv", "encode csv", err)
		}
		out = append(out, renderedArtifact{ArtifactAnalysis, buf.Bytes()})
	}
	if w.output.SRTSubtitles {
		out = append(out, renderedArtifact{ArtifactSRT, []byte(p.SRT)})
	}
	if w.output.VTTSubtitles {
		out = append(out, renderedArtifact{ArtifactVTT, []byte(p.WebVTT)})
	}
	if len(out) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "write", "artifacts", fmt.Sprintf("no outputs enabled for %s", w.outputDir), nil)
	}
	return out, nil
}

// Paths returns the artifact paths without the kinds.
func Paths(artifacts []Artifact) []string {
	paths := make([]string, len(artifacts))
	for i, a := range artifacts {
		paths[i] = a.Path
	}
	return paths
}
