package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"meetscribe/internal/projection"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func formatSeconds(seconds float64) string {
	return fmt.Sprintf("%s (%ss)", projection.FormatClock(seconds), strconv.FormatFloat(seconds, 'f', 1, 64))
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(100 * time.Millisecond).String()
}

func formatConfidence(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
