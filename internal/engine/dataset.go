package engine

import "paramview/internal/models"

// Dataset is the immutable table loaded for one plot. Rows are positionally
// aligned with Columns.
type Dataset struct {
	Key     string
	Source  string
	Columns []string
	Rows    []models.Row

	columns map[string]int
}

// NewDataset builds a dataset over the given header and rows. Neither slice
// may be modified afterwards.
func NewDataset(key, source string, columns []string, rows []models.Row) *Dataset {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	return &Dataset{Key: key, Source: source, Columns: columns, Rows: rows, columns: idx}
}

// ColumnIndex returns the position of a column, or -1 when the dataset has
// no such column.
func (d *Dataset) ColumnIndex(name string) int {
	if i, ok := d.columns[name]; ok {
		return i
	}
	return -1
}

func (d *Dataset) HasColumn(name string) bool { return d.ColumnIndex(name) >= 0 }

func (d *Dataset) NumRows() int { return len(d.Rows) }

// Value returns the cell of row i in the named column.
func (d *Dataset) Value(i int, column string) models.Cell {
	return d.Rows[i].At(d.ColumnIndex(column))
}

// WithKey returns a dataset sharing d's rows under another plot key.
func (d *Dataset) WithKey(key string) *Dataset {
	cp := *d
	cp.Key = key
	return &cp
}
