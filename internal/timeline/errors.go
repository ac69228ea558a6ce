package timeline

import (
	"errors"
	"fmt"
)

// ErrInvalidInterval is matched by every span and turn validation failure.
var ErrInvalidInterval = errors.New("invalid interval")

// InvalidSpanError reports a transcribed span whose time range is unusable.
type InvalidSpanError struct {
	Index  int
	Start  float64
	End    float64
	Reason string
}

func (e *InvalidSpanError) Error() string {
	return fmt.Sprintf("transcribed span %d [%g, %g]: %s", e.Index, e.Start, e.End, e.Reason)
}

// Is lets callers match with errors.Is(err, ErrInvalidInterval).
func (e *InvalidSpanError) Is(target error) bool {
	return target == ErrInvalidInterval
}

// InvalidTurnError reports a diarization turn whose time range is unusable.
type InvalidTurnError struct {
	Index     int
	Start     float64
	End       float64
	SpeakerID string
	Reason    string
}

func (e *InvalidTurnError) Error() string {
	return fmt.Sprintf("diarization turn %d (%s) [%g, %g]: %s", e.Index, e.SpeakerID, e.Start, e.End, e.Reason)
}

// Is lets callers match with errors.Is(err, ErrInvalidInterval).
func (e *InvalidTurnError) Is(target error) bool {
	return target == ErrInvalidInterval
}
