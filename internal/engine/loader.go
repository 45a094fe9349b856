package engine

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"paramview/internal/models"
)

// parseCell interprets one CSV field: a number when it parses as one,
// missing when blank, text otherwise. This is the only place numbers are
// parsed, so index values and row values always share one representation.
func parseCell(s string) models.Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Cell{}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return models.NumberCell(v)
	}
	return models.TextCell(s)
}

// LoadDataset reads a comma separated file whose first line names the
// columns.
func LoadDataset(key, path string) (*Dataset, error) {
	start := time.Now()
	log.Debugf("engine: loading %s from %s", key, path)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	ds, err := ReadDataset(key, path, bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	log.Infof("engine: loaded %s: rows=%d columns=%d time=%v", path, ds.NumRows(), len(ds.Columns), time.Since(start))
	return ds, nil
}

// ReadDataset parses CSV from r. A byte order mark selects the encoding
// (UTF-8 or UTF-16); without one the input is taken as UTF-8. Header names
// are trimmed and NFC normalized so they compare equal to configuration
// keys regardless of how the exporting tool composed accents.
func ReadDataset(key, source string, r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, source, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: no header row", ErrSourceUnavailable, source)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = norm.NFC.String(strings.TrimSpace(h))
	}
	records = records[1:]

	return NewDataset(key, source, header, parseRows(records, len(header))), nil
}

// parseRows converts records to rows in parallel. Each worker owns a
// contiguous range of the output, so row order is preserved.
func parseRows(records [][]string, width int) []models.Row {
	rows := make([]models.Row, len(records))
	if len(records) == 0 {
		return rows
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > len(records) {
		numWorkers = len(records)
	}
	chunkSize := (len(records) + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < len(records); start += chunkSize {
		end := min(start+chunkSize, len(records))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				rec := records[i]
				// Cells past the header have no name and are dropped.
				n := min(len(rec), width)
				row := make(models.Row, n)
				for j := 0; j < n; j++ {
					row[j] = parseCell(rec[j])
				}
				rows[i] = row
			}
		}(start, end)
	}
	wg.Wait()
	return rows
}
