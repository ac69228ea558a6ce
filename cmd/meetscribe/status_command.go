package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"meetscribe/internal/config"
	"meetscribe/internal/language"
	"meetscribe/internal/preflight"
	"meetscribe/internal/services/huggingface"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var verifyToken bool
	var endpoint string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration, external tools and directory health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p := newStatusPrinter(cmd.OutOrStdout())

			p.section("Configuration")
			configPath := ctx.configPath
			if !ctx.configSeen {
				configPath += " (not found, using defaults)"
			}
			p.line("Config file", statusInfo, configPath)
			p.line("Whisper model", statusInfo, cfg.Models.WhisperModel)
			p.line("Diarization model", statusInfo, cfg.Models.DiarizationModel)
			p.line("Language", statusInfo, describeLanguage(cfg.Models.Language))
			p.line("Device", statusInfo, cfg.Models.Device)
			p.line("Workers", statusInfo, strconv.Itoa(cfg.Processing.Workers))
			p.line("Outputs", statusInfo, describeOutputs(cfg.Output))
			history := "disabled"
			if cfg.History.Enabled {
				history = cfg.History.Path
			}
			p.line("History", statusInfo, history)
			p.blank()

			p.section("External tools")
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				p.dependency(status)
			}
			p.blank()

			p.section("Directories")
			p.result(preflight.CheckDirectoryAccess("Audio directory", cfg.Paths.AudioDir))
			p.result(preflight.CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
			p.result(preflight.CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
			p.result(preflight.CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
			p.blank()

			p.section("Hugging Face")
			var validator preflight.TokenValidator
			if verifyToken {
				validator = newHuggingFaceClient(endpoint)
			}
			p.result(preflight.CheckHuggingFace(cmd.Context(), cfg.HuggingFace.Token, validator))

			if p.problems > 0 {
				return fmt.Errorf("%d status check(s) failed", p.problems)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verifyToken, "verify-token", false, "Validate the Hugging Face token online")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Override the Hugging Face whoami endpoint")
	_ = cmd.Flags().MarkHidden("endpoint")
	return cmd
}

func newHuggingFaceClient(endpoint string) *huggingface.Client {
	if strings.TrimSpace(endpoint) == "" {
		return huggingface.NewClient()
	}
	return huggingface.NewClient(huggingface.WithEndpoint(endpoint))
}

func describeLanguage(code string) string {
	if code == "" || code == language.Auto {
		return "auto-detect"
	}
	return fmt.Sprintf("%s (%s)", language.DisplayName(code), code)
}

func describeOutputs(output config.Output) string {
	var enabled []string
	if output.Transcript {
		enabled = append(enabled, "transcript")
	}
	if output.DetailedJSON {
		enabled = append(enabled, "json")
	}
	if output.AnalysisCSV {
		enabled = append(enabled, "csv")
	}
	if output.SRTSubtitles {
		enabled = append(enabled, "srt")
	}
	if output.VTTSubtitles {
		enabled = append(enabled, "vtt")
	}
	if len(enabled) == 0 {
		return "none"
	}
	return strings.Join(enabled, ", ")
}
