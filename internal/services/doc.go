// Package services defines shared utilities consumed by the pipeline stages
// and the external engine integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, recording names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent history statuses (failed vs rejected).
//
// Engine adapters live in subpackages (whisperx, pyannote, huggingface) and
// report failures through Wrap so callers can classify them with errors.Is.
package services
