// Package pyannote runs speaker diarization through an embedded Python script
// launched with uvx.
//
// The script loads audio with torchaudio, runs a pyannote pipeline and prints
// one JSON document on stdout listing speaker turns with raw cluster labels
// ("SPEAKER_00"). Failures are reported as {"error": "..."} on stderr.
// Labels are returned untouched; normalization happens during alignment.
package pyannote
