package models

import (
	"fmt"

	"github.com/goccy/go-json"
)

// IndexEntry is the sorted set of distinct finite values a parameter takes
// in one dataset. Min and Max are only meaningful when Count > 0.
type IndexEntry struct {
	Values []float64
	Min    float64
	Max    float64
	Count  int
}

func (e IndexEntry) Empty() bool { return e.Count == 0 }

// Contains reports whether v is one of the indexed values.
func (e IndexEntry) Contains(v float64) bool {
	for _, x := range e.Values {
		if x == v {
			return true
		}
	}
	return false
}

// MarshalJSON omits min and max for an empty entry.
func (e IndexEntry) MarshalJSON() ([]byte, error) {
	out := struct {
		Values []float64 `json:"values"`
		Count  int       `json:"count"`
		Min    *float64  `json:"min,omitempty"`
		Max    *float64  `json:"max,omitempty"`
	}{Values: e.Values, Count: e.Count}
	if out.Values == nil {
		out.Values = []float64{}
	}
	if e.Count > 0 {
		out.Min, out.Max = &e.Min, &e.Max
	}
	return json.Marshal(out)
}

// Index maps parameter names to their entries, keeping the order the
// parameters were declared in.
type Index struct {
	Names   []string
	Entries map[string]IndexEntry
}

func (ix Index) Get(name string) (IndexEntry, bool) {
	e, ok := ix.Entries[name]
	return e, ok
}

// Unselectable lists the parameters whose entry is empty.
func (ix Index) Unselectable() []string {
	var out []string
	for _, n := range ix.Names {
		if ix.Entries[n].Empty() {
			out = append(out, n)
		}
	}
	return out
}

// Choice fixes one parameter to one value.
type Choice struct {
	Param string  `json:"param"`
	Value float64 `json:"value"`
}

// Selection is an ordered list of parameter choices. Order matters only for
// presentation; each parameter appears at most once.
type Selection []Choice

func (s Selection) Get(param string) (float64, bool) {
	for _, c := range s {
		if c.Param == param {
			return c.Value, true
		}
	}
	return 0, false
}

// With returns a copy of s with param set to v. An existing choice keeps
// its position; a new one is appended.
func (s Selection) With(param string, v float64) Selection {
	out := make(Selection, 0, len(s)+1)
	found := false
	for _, c := range s {
		if c.Param == param {
			c.Value = v
			found = true
		}
		out = append(out, c)
	}
	if !found {
		out = append(out, Choice{Param: param, Value: v})
	}
	return out
}

func (s Selection) Params() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Param
	}
	return out
}

func (s Selection) String() string {
	str := "{"
	for i, c := range s {
		if i > 0 {
			str += ", "
		}
		str += fmt.Sprintf("%s=%v", c.Param, c.Value)
	}
	return str + "}"
}

// Slice is the filtered, free-axis sorted view of a dataset for one
// selection. X and Y are parallel to Rows.
type Slice struct {
	PlotKey    string `json:"plot_key"`
	XColumn    string `json:"x_column"`
	YColumn    string `json:"y_column"`
	X          []Cell `json:"x"`
	Y          []Cell `json:"y"`
	DataPoints int    `json:"data_points"`

	// Columns and Rows carry the full matching records for export.
	Columns []string `json:"-"`
	Rows    []Row    `json:"-"`
}

func (s *Slice) Empty() bool { return s.DataPoints == 0 }

// Range is a closed numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Summary is the data info reported next to a rendered slice.
type Summary struct {
	DataPoints int    `json:"data_points"`
	Parameters int    `json:"parameters"`
	XColumn    string `json:"x_column"`
	YColumn    string `json:"y_column"`
	XRange     *Range `json:"x_range,omitempty"`
	YRange     *Range `json:"y_range,omitempty"`
}
