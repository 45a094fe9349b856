// Package plot turns a slice into a declarative plot description. The
// description is renderer agnostic; its JSON form follows the trace/layout
// split that browser charting libraries consume.
package plot

import "paramview/internal/models"

// Style defaults for attributes a plot does not declare.
const (
	DefaultMode          = "lines+markers"
	DefaultLineColor     = "#2E86AB"
	DefaultLineWidth     = 3.0
	DefaultMarkerColor   = "#A23B72"
	DefaultMarkerSize    = 6.0
	DefaultMarkerOpacity = 0.8
)

// Image export target.
const (
	ImageFormat = "png"
	ImageWidth  = 800
	ImageHeight = 600
	ImageScale  = 2
)

type Line struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
	Shape string  `json:"shape"`
}

type Marker struct {
	Color   string  `json:"color"`
	Size    float64 `json:"size"`
	Opacity float64 `json:"opacity"`
}

// Series is one x/y trace.
type Series struct {
	Type          string        `json:"type"`
	Mode          string        `json:"mode"`
	Name          string        `json:"name"`
	X             []models.Cell `json:"x"`
	Y             []models.Cell `json:"y"`
	Line          Line          `json:"line"`
	Marker        Marker        `json:"marker"`
	HoverTemplate string        `json:"hovertemplate"`
}

type Title struct {
	Text     string `json:"text"`
	Subtitle string `json:"subtitle,omitempty"`
}

type Axis struct {
	Title    string `json:"title"`
	Column   string `json:"column"`
	ShowGrid bool   `json:"showgrid"`
}

type Margin struct {
	Left   int `json:"l"`
	Right  int `json:"r"`
	Top    int `json:"t"`
	Bottom int `json:"b"`
}

type Layout struct {
	Title      Title  `json:"title"`
	XAxis      Axis   `json:"xaxis"`
	YAxis      Axis   `json:"yaxis"`
	HoverMode  string `json:"hovermode"`
	ShowLegend bool   `json:"showlegend"`
	Margin     Margin `json:"margin"`
}

// ImageOptions tells an exporter how to rasterize the plot.
type ImageOptions struct {
	Format   string  `json:"format"`
	Filename string  `json:"filename"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Scale    float64 `json:"scale"`
}

// Config is the complete description of one rendered plot.
type Config struct {
	PlotKey   string       `json:"plot_key"`
	Data      []Series     `json:"data"`
	Layout    Layout       `json:"layout"`
	Image     ImageOptions `json:"image"`
	Selection string       `json:"selection"`
}
