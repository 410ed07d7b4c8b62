package report

import (
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
)

// csvRow fixes the export column order and header labels.
type csvRow struct {
	Date   string   `csv:"Date"`
	Open   *float64 `csv:"Open"`
	High   *float64 `csv:"High"`
	Low    *float64 `csv:"Low"`
	Close  *float64 `csv:"Close"`
	Volume *float64 `csv:"Volume"`
}

// Render serializes records as CSV: a Date,Open,High,Low,Close,Volume header
// followed by one row per record, newline separated, with no trailing
// newline. Missing values render as empty fields.
func Render(records []DailyRecord) (string, error) {
	rows := make([]csvRow, len(records))
	for i, r := range records {
		rows[i] = csvRow{
			Date:   r.Date.Format(dateFormat),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}

	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return "", fmt.Errorf("render csv: %w", err)
	}
	return strings.TrimRight(out, "\r\n"), nil
}
