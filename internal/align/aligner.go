package align

import (
	"strings"

	"meetscribe/internal/timeline"
)

// Align produces one utterance per span, in span order. Every span and turn
// is validated before any work is done; the first invalid record aborts the
// call with a *timeline.InvalidSpanError or *timeline.InvalidTurnError.
//
// Text is trimmed of surrounding whitespace and invalid UTF-8 sequences are
// replaced with U+FFFD, so every view renders the same text. Confidence is
// carried over unchanged. No span is dropped, however short or low-confidence.
func Align(spans []timeline.TranscribedSpan, turns []timeline.DiarizationTurn) ([]timeline.AlignedUtterance, error) {
	for i, span := range spans {
		if err := span.Validate(i); err != nil {
			return nil, err
		}
	}
	for i, turn := range turns {
		if err := turn.Validate(i); err != nil {
			return nil, err
		}
	}

	out := make([]timeline.AlignedUtterance, 0, len(spans))
	resolver := NewResolver(turns)
	for _, span := range spans {
		out = append(out, timeline.AlignedUtterance{
			Start:      span.Start,
			End:        span.End,
			Duration:   span.End - span.Start,
			Speaker:    resolver.Resolve(span.Start, span.End),
			Text:       strings.ToValidUTF8(strings.TrimSpace(span.Text), "\uFFFD"),
			Confidence: span.Confidence,
		})
	}
	return out, nil
}
