package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"meetscribe/internal/pipeline"
	"meetscribe/internal/projection"
	"meetscribe/internal/services"
	"meetscribe/internal/timeline"
)

// loadStructured reads a detailed JSON record back into utterances.
func loadStructured(path string) ([]timeline.AlignedUtterance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "render", "read", "detailed record not found: "+path, err)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	utterances, err := projection.ParseStructured(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "render", "parse", path, err)
	}
	return utterances, nil
}

// recordingName derives the base name from a detailed record path.
func recordingName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, "_detailed.json")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var name string

	cmd := &cobra.Command{
		Use:   "render <detailed.json>",
		Short: "Re-render transcript, table and subtitle files from a detailed record",
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
			utterances, err := loadStructured(args[0])
			if err != nil {
				return err
			}
			proj, err := projection.Project(utterances, projection.Options{Subtitles: cfg.SubtitlesEnabled()})
			if err != nil {
				return err
			}
			if strings.TrimSpace(name) == "" {
				name = recordingName(args[0])
			}
			name = pipeline.OutputName(pipeline.Request{OutputName: name})

			writer := pipeline.NewArtifactWriter(cfg.Paths.OutputDir, cfg.Output)
			artifacts, err := writer.Write(cmd.Context(), name, proj)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rendered %d utterances from %s\n", len(utterances), args[0])
			for _, artifact := range artifacts {
				fmt.Fprintf(out, "  %-14s %s\n", artifact.Kind, artifact.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Write artifacts under this directory instead of paths.output_dir")
	cmd.Flags().StringVar(&name, "name", "", "Base name for output files (defaults to the record name)")
	return cmd
}
