// Package projection renders aligned utterances into the artifacts a meeting
// produces: the structured JSON record, the readable transcript, the tabular
// CSV record and optional SRT/WebVTT subtitles.
//
// Every view is a pure function of the utterance list, so any of them can be
// regenerated later from the structured record alone (see ParseStructured).
package projection
