package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"meetscribe/internal/logging"
	"meetscribe/internal/media/audio"
	"meetscribe/internal/services"
)

// FileOutcome is the per-recording result of a folder run.
type FileOutcome struct {
	Path   string
	Result Result
	Err    error
}

// Succeeded reports whether the recording produced artifacts.
func (o FileOutcome) Succeeded() bool {
	return o.Err == nil
}

// ListRecordings returns the supported recordings directly inside dir,
// sorted by file name.
func ListRecordings(dir string, formats []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "batch", "list", fmt.Sprintf("directory %s does not exist", dir), nil)
		}
		return nil, services.Wrap(services.ErrValidation, "batch", "list", "read directory", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !audio.Supported(entry.Name(), formats) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

// BatchOutputNames assigns artifact base names to recordings processed
// together. Recordings whose names would collide, compared case-insensitively,
// get their extension appended ("meeting_m4a"); a numeric suffix settles any
// collision that remains.
func BatchOutputNames(paths []string) []string {
	key := func(name string) string { return strings.ToLower(name) }
	counts := make(map[string]int, len(paths))
	for _, path := range paths {
		counts[key(OutputName(Request{AudioPath: path}))]++
	}

	names := make([]string, len(paths))
	used := make(map[string]bool, len(paths))
	for i, path := range paths {
		name := OutputName(Request{AudioPath: path})
		if counts[key(name)] > 1 {
			if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
				name = OutputName(Request{OutputName: name + "_" + strings.ToLower(ext)})
			}
		}
		candidate := name
		for n := 2; used[key(candidate)]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		used[key(candidate)] = true
		names[i] = candidate
	}
	return names
}

// ProcessFolder processes every supported recording in dir with up to
// processing.workers recordings in flight. A failed recording does not stop
// the others; outcomes are returned in file-name order. Artifact names come
// from BatchOutputNames so recordings sharing a stem never overwrite each
// other. The error is non-nil
// only when the folder itself cannot be read or ctx is cancelled.
func (s *Service) ProcessFolder(ctx context.Context, dir string) ([]FileOutcome, error) {
	paths, err := ListRecordings(dir, s.cfg.Audio.SupportedFormats)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		s.logger.Info("no recordings found", logging.String("dir", dir))
		return nil, nil
	}

	workers := s.cfg.Processing.Workers
	if workers < 1 {
		workers = 1
	}
	s.logger.Info("batch started",
		logging.String("dir", dir),
		logging.Int("recordings", len(paths)),
		logging.Int("workers", workers),
		logging.String(logging.FieldEventType, "batch_started"),
	)

	names := BatchOutputNames(paths)
	for i, path := range paths {
		if name := OutputName(Request{AudioPath: path}); name != names[i] {
			s.logger.Warn("recording name collides with another in the batch",
				logging.String("recording", filepath.Base(path)),
				logging.String("output_name", names[i]),
				logging.String(logging.FieldEventType, "batch_name_collision"),
				logging.String(logging.FieldImpact, "artifacts use a disambiguated name"),
			)
		}
	}

	outcomes := make([]FileOutcome, len(paths))
	var group errgroup.Group
	group.SetLimit(workers)
	for i, path := range paths {
		if ctx.Err() != nil {
			outcomes[i] = FileOutcome{Path: path, Err: services.Wrap(services.ErrTimeout, "batch", "schedule", "cancelled", ctx.Err())}
			continue
		}
		group.Go(func() error {
			result, err := s.Process(ctx, Request{AudioPath: path, OutputName: names[i]})
			outcomes[i] = FileOutcome{Path: path, Result: result, Err: err}
			return nil
		})
	}
	_ = group.Wait()

	failed := 0
	for _, o := range outcomes {
		if !o.Succeeded() {
			failed++
		}
	}
	s.logger.Info("batch complete",
		logging.Int("succeeded", len(outcomes)-failed),
		logging.Int("failed", failed),
		logging.String(logging.FieldEventType, "batch_complete"),
	)
	if err := ctx.Err(); err != nil {
		return outcomes, services.Wrap(services.ErrTimeout, "batch", "process", "cancelled", err)
	}
	return outcomes, nil
}
