package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"meetscribe/internal/config"
	"meetscribe/internal/services"
	"meetscribe/internal/services/huggingface"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Hugging Face token utilities",
	}
	tokenCmd.AddCommand(newTokenCheckCommand(ctx))
	return tokenCmd
}

func newTokenCheckCommand(ctx *commandContext) *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the configured Hugging Face token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			token := strings.TrimSpace(cfg.HuggingFace.Token)
			if token == "" {
				return services.Wrap(services.ErrConfiguration, "token", "check",
					"no Hugging Face token configured (set [huggingface] token or HF_TOKEN)", nil)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Token:   %s\n", config.MaskToken(token))
			account, err := newHuggingFaceClient(endpoint).Validate(cmd.Context(), token)
			if err != nil {
				if errors.Is(err, huggingface.ErrUnauthorized) {
					fmt.Fprintln(out, "Status:  rejected")
				} else {
					fmt.Fprintln(out, "Status:  unverified")
				}
				return err
			}
			fmt.Fprintln(out, "Status:  valid")
			fmt.Fprintf(out, "Account: %s\n", account.Name)
			if account.Role != "" {
				fmt.Fprintf(out, "Role:    %s\n", account.Role)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Override the Hugging Face whoami endpoint")
	_ = cmd.Flags().MarkHidden("endpoint")
	return cmd
}
