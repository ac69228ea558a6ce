// Package whisperx runs the WhisperX speech-to-text engine and converts its
// JSON output into timeline spans.
//
// WhisperX is launched through uvx so no Python environment has to be managed
// by hand. Word-level alignment is skipped: the diarizer works at segment
// granularity and the segment average log-probability is carried as the span
// confidence.
//
// Configuration options (model, device, compute type, VAD method) are passed
// via Config. Tests replace the process launcher with WithCommandRunner.
package whisperx
