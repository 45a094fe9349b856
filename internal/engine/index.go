package engine

import (
	"slices"

	"paramview/internal/models"
)

// BuildIndex catalogues, for each named parameter, the distinct finite
// values its column takes in ds, sorted ascending. A parameter the dataset
// lacks, or whose cells are all invalid, gets an empty entry.
func BuildIndex(ds *Dataset, params []string) models.Index {
	ix := models.Index{
		Names:   slices.Clone(params),
		Entries: make(map[string]models.IndexEntry, len(params)),
	}
	for _, p := range params {
		ix.Entries[p] = buildEntry(ds, p)
	}
	return ix
}

func buildEntry(ds *Dataset, column string) models.IndexEntry {
	col := ds.ColumnIndex(column)
	if col < 0 {
		return models.IndexEntry{Values: []float64{}}
	}
	values := make([]float64, 0, 16)
	for _, row := range ds.Rows {
		if v, ok := row.At(col).Finite(); ok {
			values = append(values, v)
		}
	}
	slices.Sort(values)
	values = slices.Compact(values)
	values = slices.Clip(values)

	e := models.IndexEntry{Values: values, Count: len(values)}
	if e.Count > 0 {
		e.Min = values[0]
		e.Max = values[len(values)-1]
	}
	return e
}
