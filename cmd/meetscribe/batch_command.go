package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"meetscribe/internal/pipeline"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var workers int
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "batch [dir]",
		Short: "Transcribe every supported recording in a folder",
		Long: "Transcribe every supported recording directly inside dir (default paths.audio_dir).\n" +
			"A failed recording does not stop the rest; the command exits non-zero if any failed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err = withOutputDir(cfg, outputDir)
			if err != nil {
				return err
			}
			if workers > 0 {
				clone := *cfg
				clone.Processing.Workers = workers
				cfg = &clone
			}
			dir := cfg.Paths.AudioDir
			if len(args) == 1 {
				dir = args[0]
			}

			svc, closeFn, err := ctx.newPipeline(cmd.Context(), cfg, !noHistory)
			if err != nil {
				return err
			}
			defer closeFn()

			outcomes, err := svc.ProcessFolder(cmd.Context(), dir)
			if err != nil && len(outcomes) == 0 {
				return err
			}
			out := cmd.OutOrStdout()
			if len(outcomes) == 0 {
				fmt.Fprintf(out, "No supported recordings found in %s\n", dir)
				return nil
			}

			rows := make([][]string, 0, len(outcomes))
			failed := 0
			for _, o := range outcomes {
				if o.Succeeded() {
					rows = append(rows, []string{
						filepath.Base(o.Path),
						"ok",
						strconv.Itoa(o.Result.Summary.Segments),
						strconv.Itoa(o.Result.Summary.SpeakerCount()),
						"",
					})
					continue
				}
				failed++
				rows = append(rows, []string{filepath.Base(o.Path), "failed", "-", "-", o.Err.Error()})
			}
			fmt.Fprintln(out, renderTableSpec(tableSpec{
				headers:   []string{"Recording", "Status", "Segments", "Speakers", "Error"},
				rows:      rows,
				aligns:    []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				wrap:      map[int]bool{4: true},
				wrapWidth: 60,
				caption:   fmt.Sprintf("%d of %d recordings transcribed", len(outcomes)-failed, len(outcomes)),
			}))
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d recordings failed: %s", failed, len(outcomes), failedNames(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Write artifacts under this directory instead of paths.output_dir")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Recordings processed concurrently (overrides processing.workers)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record these runs in the history database")
	return cmd
}

func failedNames(outcomes []pipeline.FileOutcome) string {
	var names []string
	for _, o := range outcomes {
		if !o.Succeeded() {
			names = append(names, filepath.Base(o.Path))
		}
	}
	return strings.Join(names, ", ")
}
