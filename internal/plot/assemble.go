package plot

import (
	"fmt"
	"strconv"
	"strings"

	"paramview/internal/config"
	"paramview/internal/models"
)

// Assemble builds the plot description of a slice. params supplies the
// labels, units and precisions used in the selection summary; choices on
// parameters it does not describe are shown by name at default precision.
// An empty slice yields a config with one empty series.
func Assemble(s *models.Slice, sel models.Selection, spec config.PlotSpec, params []config.Parameter) *Config {
	name := firstNonEmpty(spec.Style.Name, spec.YLabel, s.YColumn)
	xTitle := firstNonEmpty(spec.XLabel, s.XColumn)
	yTitle := firstNonEmpty(spec.YLabel, s.YColumn)
	summary := FormatSelection(sel, params)

	series := Series{
		Type: "scatter",
		Mode: firstNonEmpty(spec.Style.Mode, DefaultMode),
		Name: name,
		X:    nonNil(s.X),
		Y:    nonNil(s.Y),
		Line: Line{
			Color: firstNonEmpty(spec.Style.LineColor, DefaultLineColor),
			Width: positiveOr(spec.Style.LineWidth, DefaultLineWidth),
			Shape: "linear",
		},
		Marker: Marker{
			Color:   firstNonEmpty(spec.Style.MarkerColor, DefaultMarkerColor),
			Size:    positiveOr(spec.Style.MarkerSize, DefaultMarkerSize),
			Opacity: positiveOr(spec.Style.MarkerOpacity, DefaultMarkerOpacity),
		},
		HoverTemplate: "<b>" + name + "</b><br>" +
			"%{xaxis.title.text}: %{x}<br>" +
			"%{yaxis.title.text}: %{y:.3f}<br>" +
			"<extra></extra>",
	}

	return &Config{
		PlotKey: spec.Key,
		Data:    []Series{series},
		Layout: Layout{
			Title:      Title{Text: firstNonEmpty(spec.Title, spec.Key), Subtitle: summary},
			XAxis:      Axis{Title: xTitle, Column: s.XColumn, ShowGrid: true},
			YAxis:      Axis{Title: yTitle, Column: s.YColumn, ShowGrid: true},
			HoverMode:  "closest",
			ShowLegend: false,
			Margin:     Margin{Left: 70, Right: 30, Top: 80, Bottom: 60},
		},
		Image: ImageOptions{
			Format:   ImageFormat,
			Filename: spec.Key + "_plot",
			Width:    ImageWidth,
			Height:   ImageHeight,
			Scale:    ImageScale,
		},
		Selection: summary,
	}
}

// FormatSelection renders "<label>: <value><unit>" for each choice, in
// selection order, joined by ", ".
func FormatSelection(sel models.Selection, params []config.Parameter) string {
	parts := make([]string, 0, len(sel))
	for _, c := range sel {
		p := config.Parameter{Name: c.Param}
		for _, q := range params {
			if q.Name == c.Param {
				p = q
				break
			}
		}
		parts = append(parts, fmt.Sprintf("%s: %s%s", p.DisplayLabel(), strconv.FormatFloat(c.Value, 'f', p.Digits(), 64), p.Unit))
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func positiveOr(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func nonNil(c []models.Cell) []models.Cell {
	if c == nil {
		return []models.Cell{}
	}
	return c
}
