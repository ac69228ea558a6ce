package services

import (
	"errors"
	"fmt"
	"strings"

	"meetscribe/internal/history"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

type errorClass struct {
	marker error
	name   string
	status history.Status
	hint   string
}

// classes is checked in order; the first matching marker wins.
var classes = []errorClass{
	{ErrConfiguration, "configuration", history.StatusRejected, "check the configuration file and Hugging Face token"},
	{ErrNotFound, "not_found", history.StatusRejected, "verify the audio path exists"},
	{ErrValidation, "validation", history.StatusRejected, "inspect the input recording or engine output"},
	{ErrExternalTool, "external_tool", history.StatusFailed, "run `meetscribe status` to verify ffmpeg and uvx"},
	{ErrTimeout, "timeout", history.StatusFailed, "retry with a smaller model or on a faster device"},
	{ErrTransient, "transient", history.StatusFailed, "retry the run"},
}

var unclassified = errorClass{name: "unknown", status: history.StatusFailed, hint: "check logs for details"}

func classify(err error) errorClass {
	for _, c := range classes {
		if errors.Is(err, c.marker) {
			return c
		}
	}
	return unclassified
}

// Wrap tags err with marker and prefixes the message with stage, operation
// and message, skipping blanks. A nil marker means ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinNonEmpty(stage, operation, message)
	if detail == "" {
		detail = "service failure"
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Class names the marker err carries, for structured logs.
func Class(err error) string {
	return classify(err).name
}

// FailureStatus maps a processing error to the status recorded in the run
// history. Problems with the input or configuration are rejected; everything
// else is a failure that may succeed on retry.
func FailureStatus(err error) history.Status {
	return classify(err).status
}

// Hint returns a short operator-facing suggestion for the error class.
func Hint(err error) string {
	return classify(err).hint
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ": ")
}
