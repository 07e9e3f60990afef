package keywords

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

var csvHeader = []string{"Platform", "Keyword", "Volume", "Competition", "CPC"}

// WriteCSV renders one row per keyword across all results.
func WriteCSV(results []Result) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, result := range results {
		for _, kw := range result.Keywords {
			record := []string{
				result.Platform.String(),
				kw.Keyword,
				strconv.Itoa(kw.Volume),
				kw.Competition.String(),
				strconv.FormatFloat(kw.CPC, 'f', 2, 64),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
