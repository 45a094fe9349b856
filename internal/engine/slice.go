package engine

import (
	"math"
	"slices"

	"paramview/internal/models"
)

// Slice returns the rows of ds that match every choice of sel, except the
// one on xColumn, sorted ascending by xColumn. Matching is exact float64
// equality; a row lacking a selected column never matches. Rows with equal
// x keep their dataset order. Rows whose x is not a number sort last.
//
// An empty result is a valid slice, not an error.
func Slice(ds *Dataset, xColumn, yColumn string, sel models.Selection) *models.Slice {
	type filter struct {
		col   int
		value float64
	}
	filters := make([]filter, 0, len(sel))
	for _, c := range sel {
		if c.Param == xColumn {
			continue
		}
		filters = append(filters, filter{col: ds.ColumnIndex(c.Param), value: c.Value})
	}

	matched := make([]int, 0, 64)
rows:
	for i, row := range ds.Rows {
		for _, f := range filters {
			v, ok := row.At(f.col).Float()
			if !ok || v != f.value {
				continue rows
			}
		}
		matched = append(matched, i)
	}

	xc := ds.ColumnIndex(xColumn)
	yc := ds.ColumnIndex(yColumn)
	slices.SortStableFunc(matched, func(a, b int) int {
		return compareAxis(ds.Rows[a].At(xc), ds.Rows[b].At(xc))
	})

	s := &models.Slice{
		PlotKey:    ds.Key,
		XColumn:    xColumn,
		YColumn:    yColumn,
		X:          make([]models.Cell, len(matched)),
		Y:          make([]models.Cell, len(matched)),
		DataPoints: len(matched),
		Columns:    ds.Columns,
		Rows:       make([]models.Row, len(matched)),
	}
	for k, i := range matched {
		row := ds.Rows[i]
		s.X[k] = row.At(xc)
		s.Y[k] = row.At(yc)
		s.Rows[k] = row
	}
	return s
}

// compareAxis orders numbers ascending ahead of everything else. It returns
// 0 for any two non-numbers, which keeps them in dataset order.
func compareAxis(a, b models.Cell) int {
	av, aok := a.Float()
	bv, bok := b.Float()
	aok = aok && !math.IsNaN(av)
	bok = bok && !math.IsNaN(bv)
	switch {
	case aok && bok:
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
		return 0
	case aok:
		return -1
	case bok:
		return 1
	}
	return 0
}
