package projection

import (
	"strings"

	"meetscribe/internal/timeline"
)

const transcriptTitle = "MEETING TRANSCRIPT"

// ReadableTranscript renders the plain-text transcript. A header carrying the
// run's first start time and speaker label is emitted each time the speaker
// changes; each utterance follows on its own line.
func ReadableTranscript(utterances []timeline.AlignedUtterance) string {
	var b strings.Builder
	b.WriteString(transcriptTitle)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\n")

	current := ""
	for i, u := range utterances {
		if i == 0 || u.Speaker != current {
			current = u.Speaker
			b.WriteString("\n[")
			b.WriteString(FormatClock(u.Start))
			b.WriteString("] ")
			b.WriteString(u.Speaker)
			b.WriteString(":\n")
		}
		b.WriteString(u.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
