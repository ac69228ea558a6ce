// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// It is used to describe recordings that are not plain WAV files, where the
// stream layout has to come from ffprobe rather than a RIFF header.
package ffprobe
