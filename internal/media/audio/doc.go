// Package audio accepts a recording and produces the mono 16-bit PCM WAV file
// the speech and diarization engines read.
//
// WAV headers are read with go-audio/wav; other containers are described with
// ffprobe. Files that already match the target layout are used in place.
// Everything else is converted with ffmpeg into the work directory, and the
// converted copy is removed when the Prepared handle is closed.
package audio
