package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"meetscribe/internal/config"
	"meetscribe/internal/pipeline"
)

type transcribeSummary struct {
	RunID        string   `json:"run_id"`
	Recording    string   `json:"recording"`
	Segments     int      `json:"segments"`
	TotalSeconds float64  `json:"total_seconds"`
	SpeakerCount int      `json:"speaker_count"`
	Speakers     []string `json:"speakers"`
	Artifacts    []string `json:"artifacts"`
	ElapsedMS    int64    `json:"elapsed_ms"`
}

func newTranscribeSummary(result pipeline.Result) transcribeSummary {
	return transcribeSummary{
		RunID:        result.RunID,
		Recording:    result.Recording,
		Segments:     result.Summary.Segments,
		TotalSeconds: result.Summary.TotalSeconds,
		SpeakerCount: result.Summary.SpeakerCount(),
		Speakers:     result.Summary.Speakers,
		Artifacts:    pipeline.Paths(result.Artifacts),
		ElapsedMS:    result.Elapsed.Milliseconds(),
	}
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var name string
	var outputDir string
	var noHistory bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "transcribe <audio>",
		Short: "Transcribe one recording and write transcript artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err = withOutputDir(cfg, outputDir)
			if err != nil {
				return err
			}

			svc, closeFn, err := ctx.newPipeline(cmd.Context(), cfg, !noHistory)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := svc.Process(cmd.Context(), pipeline.Request{AudioPath: args[0], OutputName: name})
			if err != nil {
				return fmt.Errorf("transcribe %s: %w", args[0], err)
			}
			if asJSON {
				return writeJSON(cmd, newTranscribeSummary(result))
			}
			printTranscribeSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Base name for output files (defaults to the recording name)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Write artifacts under this directory instead of paths.output_dir")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history database")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

// withOutputDir returns a copy of cfg writing under dir.
func withOutputDir(cfg *config.Config, dir string) (*config.Config, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return cfg, nil
	}
	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	clone := *cfg
	clone.Paths.OutputDir = expanded
	if err := clone.EnsureDirectories(); err != nil {
		return nil, err
	}
	return &clone, nil
}

func printTranscribeSummary(out io.Writer, result pipeline.Result) {
	summary := result.Summary
	speakers := "none"
	if len(summary.Speakers) > 0 {
		speakers = strings.Join(summary.Speakers, ", ")
	}
	fmt.Fprintf(out, "Transcription complete: %s\n", result.Recording)
	fmt.Fprintf(out, "  Run ID:    %s\n", result.RunID)
	fmt.Fprintf(out, "  Segments:  %d\n", summary.Segments)
	fmt.Fprintf(out, "  Duration:  %s\n", formatSeconds(summary.TotalSeconds))
	fmt.Fprintf(out, "  Speakers:  %d (%s)\n", summary.SpeakerCount(), speakers)
	fmt.Fprintf(out, "  Elapsed:   %s\n", formatElapsed(result.Elapsed))
	fmt.Fprintln(out, "  Artifacts:")
	for _, artifact := range result.Artifacts {
		fmt.Fprintf(out, "    %-14s %s\n", artifact.Kind, artifact.Path)
	}
}
