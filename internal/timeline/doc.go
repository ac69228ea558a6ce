// Package timeline defines the time-stamped records exchanged between the
// speech engine, the diarization engine, the aligner and the projector.
//
// All times are seconds from the start of the recording. Records are plain
// values; nothing in this package performs I/O.
package timeline
