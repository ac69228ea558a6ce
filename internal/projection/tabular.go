package projection

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"meetscribe/internal/timeline"
)

// TableHeader lists the tabular record columns in output order.
var TableHeader = []string{
	"start", "end", "duration", "speaker", "text", "confidence",
	"start_formatted", "end_formatted",
}

// Table is the row-per-utterance view of a meeting.
type Table struct {
	Header []string
	Rows   [][]string
}

// Tabular builds the tabular record. Numbers use the shortest decimal form
// that round-trips; the formatted columns use FormatClock.
func Tabular(utterances []timeline.AlignedUtterance) Table {
	rows := make([][]string, 0, len(utterances))
	for _, u := range utterances {
		rows = append(rows, []string{
			formatFloat(u.Start),
			formatFloat(u.End),
			formatFloat(u.Duration),
			u.Speaker,
			u.Text,
			formatFloat(u.Confidence),
			FormatClock(u.Start),
			FormatClock(u.End),
		})
	}
	header := make([]string, len(TableHeader))
	copy(header, TableHeader)
	return Table{Header: header, Rows: rows}
}

// WriteCSV writes the header followed by every row.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
