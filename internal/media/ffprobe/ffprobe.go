package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result is the subset of ffprobe's JSON report meetscribe reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one media stream. Numeric fields ffprobe reports as strings are
// kept as strings and parsed on access.
type Stream struct {
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	Duration      string `json:"duration"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	BitsPerSample int    `json:"bits_per_sample"`
}

// Format is the container section of the report.
type Format struct {
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

const probeEntries = "stream=codec_name,codec_type,duration,sample_rate,channels,bits_per_sample:format=duration,format_name"

// Inspect runs binary (ffprobe when blank) against path.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	args := []string{"-v", "error", "-hide_banner", "-show_entries", probeEntries, "-of", "json", "--", path}
	output, err := exec.CommandContext(ctx, binary, args...).CombinedOutput() //nolint:gosec
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w: %s", path, err, strings.TrimSpace(string(output)))
	}
	return Parse(output)
}

// Parse decodes ffprobe JSON output.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// AudioStreams returns the audio streams in report order.
func (r Result) AudioStreams() []Stream {
	var audio []Stream
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			audio = append(audio, stream)
		}
	}
	return audio
}

// PrimaryAudio returns the first audio stream.
func (r Result) PrimaryAudio() (Stream, bool) {
	audio := r.AudioStreams()
	if len(audio) == 0 {
		return Stream{}, false
	}
	return audio[0], true
}

// SampleRateHz parses the stream sample rate, or 0 when unavailable.
func (s Stream) SampleRateHz() int {
	return int(positive(s.SampleRate))
}

// DurationSeconds prefers the container duration and falls back to the
// primary audio stream. Unknown durations are 0.
func (r Result) DurationSeconds() float64 {
	if d := positive(r.Format.Duration); d > 0 {
		return d
	}
	if stream, ok := r.PrimaryAudio(); ok {
		return positive(stream.Duration)
	}
	return 0
}

// positive parses value, mapping blanks, garbage and negatives to 0.
func positive(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || parsed < 0 || math.IsNaN(parsed) {
		return 0
	}
	return parsed
}
