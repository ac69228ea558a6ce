package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meetscribe/internal/pipeline"
	"meetscribe/internal/projection"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var transcript bool

	cmd := &cobra.Command{
		Use:   "show <detailed.json>",
		Short: "Display a detailed record as a table or readable transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			utterances, err := loadStructured(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if transcript {
				fmt.Fprint(out, projection.ReadableTranscript(utterances))
				return nil
			}

			rows := make([][]string, 0, len(utterances))
			for _, u := range utterances {
				rows = append(rows, []string{
					projection.FormatClock(u.Start),
					projection.FormatClock(u.End),
					u.Speaker,
					u.Text,
					formatConfidence(u.Confidence),
				})
			}
			summary := pipeline.Summarize(utterances)
			fmt.Fprintln(out, renderTableSpec(tableSpec{
				headers:   []string{"Start", "End", "Speaker", "Text", "Confidence"},
				rows:      rows,
				aligns:    []columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight},
				wrap:      map[int]bool{3: true},
				wrapWidth: 72,
				caption: fmt.Sprintf("%d segments, %d speakers, %s",
					summary.Segments, summary.SpeakerCount(), formatSeconds(summary.TotalSeconds)),
			}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&transcript, "transcript", false, "Print the readable transcript instead of a table")
	return cmd
}
