package engine

import "paramview/internal/models"

// Summarize reports the size and x/y extent of a slice. Ranges only cover
// finite numeric cells and are nil when there are none.
func Summarize(s *models.Slice, parameters int) models.Summary {
	return models.Summary{
		DataPoints: s.DataPoints,
		Parameters: parameters,
		XColumn:    s.XColumn,
		YColumn:    s.YColumn,
		XRange:     extent(s.X),
		YRange:     extent(s.Y),
	}
}

func extent(cells []models.Cell) *models.Range {
	var r *models.Range
	for _, c := range cells {
		v, ok := c.Finite()
		if !ok {
			continue
		}
		if r == nil {
			r = &models.Range{Min: v, Max: v}
			continue
		}
		r.Min = min(r.Min, v)
		r.Max = max(r.Max, v)
	}
	return r
}
