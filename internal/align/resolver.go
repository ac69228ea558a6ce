package align

import (
	"cmp"
	"slices"
	"strings"

	"meetscribe/internal/timeline"
)

// DominantSpeaker returns the normalized label of the speaker whose turns
// overlap [start, end) the longest, or timeline.UnknownSpeaker when no turn
// overlaps with positive duration. Exact ties go to the lexicographically
// smallest raw speaker id.
func DominantSpeaker(start, end float64, turns []timeline.DiarizationTurn) string {
	return NewResolver(turns).Resolve(start, end)
}

// NormalizeLabel rewrites a raw speaker id into its public label: the text
// after the last underscore prefixed with "Speaker_". Ids without an
// underscore are used whole.
func NormalizeLabel(raw string) string {
	suffix := raw
	if idx := strings.LastIndex(raw, "_"); idx >= 0 {
		suffix = raw[idx+1:]
	}
	return timeline.SpeakerPrefix + suffix
}

// Resolver answers dominant-speaker queries against a fixed turn list. Turns
// are kept sorted by start so a query can stop scanning once turns begin at
// or after the span end.
type Resolver struct {
	turns []timeline.DiarizationTurn
}

// NewResolver copies and sorts the turns. The caller's slice is not modified.
func NewResolver(turns []timeline.DiarizationTurn) *Resolver {
	sorted := slices.Clone(turns)
	slices.SortStableFunc(sorted, func(a, b timeline.DiarizationTurn) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		case a.End != b.End:
			return cmp.Compare(a.End, b.End)
		}
		return strings.Compare(a.SpeakerID, b.SpeakerID)
	})
	return &Resolver{turns: sorted}
}

// Resolve returns the same label DominantSpeaker would for the original turns.
// Both sum each speaker's overlaps in turn-start order, so near-ties resolve
// identically regardless of input order.
func (r *Resolver) Resolve(start, end float64) string {
	acc := newTally()
	for _, turn := range r.turns {
		if turn.Start >= end {
			break
		}
		acc.add(turn.SpeakerID, overlap(start, end, turn.Start, turn.End))
	}
	return acc.winner()
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	return max(0, min(aEnd, bEnd)-max(aStart, bStart))
}

type tally struct {
	totals map[string]float64
}

func newTally() *tally {
	return &tally{totals: make(map[string]float64)}
}

func (t *tally) add(speaker string, seconds float64) {
	if seconds > 0 {
		t.totals[speaker] += seconds
	}
}

func (t *tally) winner() string {
	if len(t.totals) == 0 {
		return timeline.UnknownSpeaker
	}
	ids := make([]string, 0, len(t.totals))
	for id := range t.totals {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	best := ids[0]
	for _, id := range ids[1:] {
		if t.totals[id] > t.totals[best] {
			best = id
		}
	}
	return NormalizeLabel(best)
}
