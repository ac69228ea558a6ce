package timeline

import "math"

const (
	// UnknownSpeaker labels an utterance that no diarization turn overlaps.
	UnknownSpeaker = "Unknown"
	// SpeakerPrefix is prepended to the numeric suffix of a raw speaker id.
	SpeakerPrefix = "Speaker_"
)

// TranscribedSpan is one segment produced by the speech engine.
type TranscribedSpan struct {
	Start      float64
	End        float64
	Text       string
	Confidence float64
}

// DiarizationTurn is one interval during which a raw speaker id was active.
// Turns may arrive in any order and may overlap across speakers.
type DiarizationTurn struct {
	Start     float64
	End       float64
	SpeakerID string
}

// AlignedUtterance is a transcribed span annotated with the dominant speaker.
// It is the canonical fused record every output view is derived from.
type AlignedUtterance struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Duration   float64 `json:"duration"`
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Validate reports whether the span has a usable time range.
func (s TranscribedSpan) Validate(index int) error {
	if reason := checkRange(s.Start, s.End); reason != "" {
		return &InvalidSpanError{Index: index, Start: s.Start, End: s.End, Reason: reason}
	}
	return nil
}

// Validate reports whether the turn has a usable time range.
func (t DiarizationTurn) Validate(index int) error {
	if reason := checkRange(t.Start, t.End); reason != "" {
		return &InvalidTurnError{Index: index, Start: t.Start, End: t.End, SpeakerID: t.SpeakerID, Reason: reason}
	}
	return nil
}

func checkRange(start, end float64) string {
	switch {
	case math.IsNaN(start) || math.IsNaN(end):
		return "time is not a number"
	case math.IsInf(start, 0) || math.IsInf(end, 0):
		return "time is infinite"
	case start < 0:
		return "start is negative"
	case end <= start:
		return "end must be after start"
	}
	return ""
}
