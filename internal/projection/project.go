package projection

import "meetscribe/internal/timeline"

// Projection bundles every view of one meeting.
type Projection struct {
	Structured []byte
	Transcript string
	Table      Table
	SRT        string
	WebVTT     string
}

// Options selects which optional views Project renders.
type Options struct {
	Subtitles bool
}

// Project renders all views from the same utterance list.
func Project(utterances []timeline.AlignedUtterance, opts Options) (Projection, error) {
	structured, err := Structured(utterances)
	if err != nil {
		return Projection{}, err
	}
	p := Projection{
		Structured: structured,
		Transcript: ReadableTranscript(utterances),
		Table:      Tabular(utterances),
	}
	if opts.Subtitles {
		p.SRT = SRT(utterances)
		p.WebVTT = WebVTT(utterances)
	}
	return p, nil
}
