package projection

import (
	"bytes"
	"encoding/json"
	"fmt"

	"meetscribe/internal/timeline"
)

// Structured serializes utterances as an indented JSON array. Non-ASCII text
// is written verbatim and HTML characters are not escaped.
func Structured(utterances []timeline.AlignedUtterance) ([]byte, error) {
	if utterances == nil {
		utterances = []timeline.AlignedUtterance{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(utterances); err != nil {
		return nil, fmt.Errorf("encode structured record: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ParseStructured decodes a structured record written by Structured.
func ParseStructured(data []byte) ([]timeline.AlignedUtterance, error) {
	var utterances []timeline.AlignedUtterance
	if err := json.Unmarshal(data, &utterances); err != nil {
		return nil, fmt.Errorf("parse structured record: %w", err)
	}
	if utterances == nil {
		utterances = []timeline.AlignedUtterance{}
	}
	return utterances, nil
}
