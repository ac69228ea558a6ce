package projection

import (
	"strconv"
	"strings"

	"meetscribe/internal/timeline"
)

// SRT renders utterances as SubRip cues prefixed with the speaker label.
func SRT(utterances []timeline.AlignedUtterance) string {
	var b strings.Builder
	for i, u := range utterances {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(cueTimestamp(u.Start, ','))
		b.WriteString(" --> ")
		b.WriteString(cueTimestamp(u.End, ','))
		b.WriteByte('\n')
		b.WriteString(cueText(u))
		b.WriteString("\n\n")
	}
	return b.String()
}

// WebVTT renders utterances as a WebVTT document using voice spans.
func WebVTT(utterances []timeline.AlignedUtterance) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, u := range utterances {
		b.WriteString(cueTimestamp(u.Start, '.'))
		b.WriteString(" --> ")
		b.WriteString(cueTimestamp(u.End, '.'))
		b.WriteByte('\n')
		b.WriteString("<v ")
		b.WriteString(u.Speaker)
		b.WriteByte('>')
		b.WriteString(vttEscaper.Replace(u.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

var vttEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func cueText(u timeline.AlignedUtterance) string {
	return u.Speaker + ": " + u.Text
}
