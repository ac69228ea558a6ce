package pipeline

import (
	"slices"

	"meetscribe/internal/timeline"
)

// Summary is the headline of a processed meeting.
type Summary struct {
	Segments int
	// TotalSeconds is the largest utterance end, not the recording length.
	TotalSeconds float64
	Speakers     []string
}

// SpeakerCount returns the number of distinct labels, Unknown included.
func (s Summary) SpeakerCount() int {
	return len(s.Speakers)
}

// Summarize derives the run summary from aligned utterances. Speakers are
// sorted for stable output.
func Summarize(utterances []timeline.AlignedUtterance) Summary {
	summary := Summary{Segments: len(utterances), Speakers: []string{}}
	seen := make(map[string]struct{})
	for _, u := range utterances {
		if u.End > summary.TotalSeconds {
			summary.TotalSeconds = u.End
		}
		if _, ok := seen[u.Speaker]; ok {
			continue
		}
		seen[u.Speaker] = struct{}{}
		summary.Speakers = append(summary.Speakers, u.Speaker)
	}
	slices.Sort(summary.Speakers)
	return summary
}
