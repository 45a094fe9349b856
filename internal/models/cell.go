package models

import (
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// CellKind tells how a CSV cell was interpreted at load time.
type CellKind uint8

const (
	Missing CellKind = iota
	Number
	Text
)

// Cell is one parsed value of a row. Numbers keep the float64 produced by
// the single canonical parse of the source file, so equality against index
// values is exact.
type Cell struct {
	Kind CellKind
	Num  float64
	Str  string
}

func NumberCell(v float64) Cell { return Cell{Kind: Number, Num: v} }

func TextCell(s string) Cell { return Cell{Kind: Text, Str: s} }

// Float returns the numeric value of the cell, if it holds one.
func (c Cell) Float() (float64, bool) {
	if c.Kind != Number {
		return 0, false
	}
	return c.Num, true
}

// Finite is like Float but also rejects NaN and infinities.
func (c Cell) Finite() (float64, bool) {
	if c.Kind != Number || math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
		return 0, false
	}
	return c.Num, true
}

// String renders the cell the way it is written back to delimited text:
// shortest round-trip form for numbers, raw text for strings, empty for
// missing cells.
func (c Cell) String() string {
	switch c.Kind {
	case Number:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case Text:
		return c.Str
	}
	return ""
}

// MarshalJSON encodes numbers as JSON numbers, text as strings and
// missing or non-finite values as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case Number:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return []byte("null"), nil
		}
		return strconv.AppendFloat(nil, c.Num, 'g', -1, 64), nil
	case Text:
		return json.Marshal(c.Str)
	}
	return []byte("null"), nil
}

// Row is one record of a dataset, positionally aligned with the dataset's
// column names. A short row simply lacks the trailing columns.
type Row []Cell

// At returns the cell at column position i, or a missing cell when the row
// does not carry that column.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}
