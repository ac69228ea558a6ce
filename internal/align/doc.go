// Package align fuses transcribed spans with diarization turns.
//
// Each span is attributed to the raw speaker whose turns overlap it for the
// longest accumulated time. Spans that no turn touches are labelled
// timeline.UnknownSpeaker. Raw engine ids such as "SPEAKER_01" are rewritten
// to the public "Speaker_01" form.
//
// Everything here is pure and safe for concurrent use.
package align
