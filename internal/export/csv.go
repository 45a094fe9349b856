// Package export serializes slices and plot descriptions into downloadable
// files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"paramview/internal/models"
)

// Filename builds a download name such as
// "temperature_plot_data_2024-05-01T10-30-00.csv".
func Filename(plotKey, kind, ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%s.%s", plotKey, kind, t.UTC().Format("2006-01-02T15-04-05"), ext)
}

// WriteCSV writes the rows of a slice as comma separated text: a header
// line, then one line per row. Text cells are always quoted, numbers are
// written in shortest round-trip form and missing cells are left empty.
// An empty slice writes nothing; the returned row count tells the caller
// there was nothing to export.
func WriteCSV(w io.Writer, s *models.Slice) (int, error) {
	if s.Empty() {
		return 0, nil
	}
	bw := bufio.NewWriter(w)
	for i, c := range s.Columns {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteString(headerField(c))
	}
	bw.WriteByte('\n')

	for _, row := range s.Rows {
		for i := range s.Columns {
			if i > 0 {
				bw.WriteByte(',')
			}
			c := row.At(i)
			if c.Kind == models.Text {
				bw.WriteString(quote(c.Str))
			} else {
				bw.WriteString(c.String())
			}
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return 0, err
	}
	return len(s.Rows), nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func headerField(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}
