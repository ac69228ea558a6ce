// Package pipeline turns a meeting recording into transcript artifacts.
//
// A run prepares the audio, diarizes it, transcribes it, fuses the two
// timelines with align.Align, renders every view with projection.Project and
// writes the enabled artifacts under the output directory. Each run gets a
// UUID that is attached to every log line and to the history record.
//
// Collaborators are interfaces so tests can substitute fakes:
//   - Transcriber: speech engine (default WhisperX via uvx)
//   - Diarizer: speaker engine (default pyannote via uvx)
//   - AudioPreparer: ffmpeg conversion to 16 kHz mono WAV
//   - TokenValidator: Hugging Face whoami check
//   - HistoryRecorder: SQLite run log
package pipeline
