package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"meetscribe/internal/history"
)

type historyEntry struct {
	ID               string   `json:"id"`
	Recording        string   `json:"recording"`
	AudioPath        string   `json:"audio_path"`
	Status           string   `json:"status"`
	Segments         int      `json:"segments"`
	SpeakerCount     int      `json:"speaker_count"`
	Speakers         []string `json:"speakers"`
	TotalSeconds     float64  `json:"total_seconds"`
	WhisperModel     string   `json:"whisper_model"`
	DiarizationModel string   `json:"diarization_model"`
	Artifacts        []string `json:"artifacts"`
	Error            string   `json:"error,omitempty"`
	StartedAt        string   `json:"started_at"`
	FinishedAt       string   `json:"finished_at"`
	ElapsedMS        int64    `json:"elapsed_ms"`
}

func newHistoryEntry(run history.Run) historyEntry {
	speakers := run.Speakers
	if speakers == nil {
		speakers = []string{}
	}
	artifacts := run.Artifacts
	if artifacts == nil {
		artifacts = []string{}
	}
	return historyEntry{
		ID:               run.ID,
		Recording:        run.Recording,
		AudioPath:        run.AudioPath,
		Status:           string(run.Status),
		Segments:         run.Segments,
		SpeakerCount:     run.SpeakerCount,
		Speakers:         speakers,
		TotalSeconds:     run.TotalSeconds,
		WhisperModel:     run.WhisperModel,
		DiarizationModel: run.DiarizationModel,
		Artifacts:        artifacts,
		Error:            run.ErrorMessage,
		StartedAt:        run.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:       run.FinishedAt.UTC().Format(time.RFC3339),
		ElapsedMS:        run.Elapsed().Milliseconds(),
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recent transcription runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("history is disabled ([history] enabled = false)")
			}
			defer store.Close()

			if len(args) == 1 {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				if asJSON {
					return writeJSON(cmd, newHistoryEntry(*run))
				}
				printRun(cmd, *run)
				return nil
			}

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				entries := make([]historyEntry, 0, len(runs))
				for _, run := range runs {
					entries = append(entries, newHistoryEntry(run))
				}
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.Recording,
					string(run.Status),
					strconv.Itoa(run.Segments),
					strconv.Itoa(run.SpeakerCount),
					formatSeconds(run.TotalSeconds),
					humanize.Time(run.FinishedAt),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Recording", "Status", "Segments", "Speakers", "Duration", "Finished"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	return cmd
}

func printRun(cmd *cobra.Command, run history.Run) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:        %s\n", run.ID)
	fmt.Fprintf(out, "Recording:  %s\n", run.Recording)
	fmt.Fprintf(out, "Audio:      %s\n", run.AudioPath)
	fmt.Fprintf(out, "Status:     %s\n", run.Status)
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:      %s\n", run.ErrorMessage)
	}
	fmt.Fprintf(out, "Segments:   %d\n", run.Segments)
	fmt.Fprintf(out, "Speakers:   %d %v\n", run.SpeakerCount, run.Speakers)
	fmt.Fprintf(out, "Duration:   %s\n", formatSeconds(run.TotalSeconds))
	fmt.Fprintf(out, "Models:     %s / %s\n", run.WhisperModel, run.DiarizationModel)
	fmt.Fprintf(out, "Started:    %s (%s)\n", run.StartedAt.Local().Format(time.DateTime), humanize.Time(run.StartedAt))
	fmt.Fprintf(out, "Elapsed:    %s\n", formatElapsed(run.Elapsed()))
	for _, artifact := range run.Artifacts {
		fmt.Fprintf(out, "Artifact:   %s\n", artifact)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
