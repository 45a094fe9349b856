package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"paramview/internal/plot"
)

const ticks = 5

// point is one drawable x/y pair; gap marks a break in the line before it.
type point struct {
	x, y float64
	gap  bool
}

// RenderPNG rasterizes a plot description at its image size times its
// scale. Only pairs where both x and y are finite numbers are drawn; a
// missing pair breaks the line.
func RenderPNG(w io.Writer, cfg *plot.Config) error {
	width, height := float64(cfg.Image.Width), float64(cfg.Image.Height)
	if width <= 0 || height <= 0 {
		width, height = plot.ImageWidth, plot.ImageHeight
	}
	scale := cfg.Image.Scale
	if scale <= 0 {
		scale = 1
	}

	dc := gg.NewContext(int(width*scale), int(height*scale))
	dc.Scale(scale, scale)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	m := cfg.Layout.Margin
	left, right := float64(m.Left), width-float64(m.Right)
	top, bottom := float64(m.Top), height-float64(m.Bottom)

	dc.SetHexColor(hexRGBA("#343a40", 1))
	dc.DrawStringAnchored(cfg.Layout.Title.Text, width/2, top/3, 0.5, 0.5)
	if sub := cfg.Layout.Title.Subtitle; sub != "" {
		dc.SetHexColor(hexRGBA("#666666", 1))
		dc.DrawStringAnchored(sub, width/2, top*2/3, 0.5, 0.5)
	}

	dc.SetHexColor(hexRGBA("#495057", 1))
	dc.DrawStringAnchored(cfg.Layout.XAxis.Title, (left+right)/2, height-float64(m.Bottom)/3, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(-math.Pi/2, float64(m.Left)/4, (top+bottom)/2)
	dc.DrawStringAnchored(cfg.Layout.YAxis.Title, float64(m.Left)/4, (top+bottom)/2, 0.5, 0.5)
	dc.Pop()

	dc.SetHexColor(hexRGBA("#dee2e6", 1))
	dc.SetLineWidth(1)
	dc.DrawRectangle(left, top, right-left, bottom-top)
	dc.Stroke()

	var pts []point
	for _, s := range cfg.Data {
		pts = append(pts, points(s)...)
	}
	if len(pts) == 0 {
		dc.SetHexColor(hexRGBA("#6c757d", 1))
		dc.DrawStringAnchored("No data", (left+right)/2, (top+bottom)/2, 0.5, 0.5)
		return dc.EncodePNG(w)
	}

	xmin, xmax := bounds(pts, func(p point) float64 { return p.x })
	ymin, ymax := bounds(pts, func(p point) float64 { return p.y })
	px := func(v float64) float64 { return left + (v-xmin)/(xmax-xmin)*(right-left) }
	py := func(v float64) float64 { return bottom - (v-ymin)/(ymax-ymin)*(bottom-top) }

	drawTicks(dc, xmin, xmax, ymin, ymax, left, right, top, bottom, px, py)

	for _, s := range cfg.Data {
		sp := points(s)
		if strings.Contains(s.Mode, "lines") {
			dc.SetHexColor(hexRGBA(s.Line.Color, 1))
			dc.SetLineWidth(s.Line.Width)
			for i, p := range sp {
				if i == 0 || p.gap {
					dc.MoveTo(px(p.x), py(p.y))
				} else {
					dc.LineTo(px(p.x), py(p.y))
				}
			}
			dc.Stroke()
		}
		if strings.Contains(s.Mode, "markers") {
			dc.SetHexColor(hexRGBA(s.Marker.Color, s.Marker.Opacity))
			for _, p := range sp {
				dc.DrawCircle(px(p.x), py(p.y), s.Marker.Size/2)
				dc.Fill()
			}
		}
	}
	return dc.EncodePNG(w)
}

func points(s plot.Series) []point {
	var out []point
	gap := false
	for i := range s.X {
		if i >= len(s.Y) {
			break
		}
		x, xok := s.X[i].Finite()
		y, yok := s.Y[i].Finite()
		if !xok || !yok {
			gap = true
			continue
		}
		out = append(out, point{x: x, y: y, gap: gap})
		gap = false
	}
	return out
}

// bounds returns the extent of pts along one axis, widened when all values
// coincide so the axis keeps a non-zero span.
func bounds(pts []point, f func(point) float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		v := f(p)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		pad := math.Abs(lo) * 0.05
		if pad == 0 {
			pad = 0.5
		}
		lo, hi = lo-pad, hi+pad
	}
	return lo, hi
}

func drawTicks(dc *gg.Context, xmin, xmax, ymin, ymax, left, right, top, bottom float64, px, py func(float64) float64) {
	grid := hexRGBA("#808080", 0.2)
	label := hexRGBA("#6c757d", 1)
	dc.SetLineWidth(1)
	for i := 0; i <= ticks; i++ {
		xv := xmin + (xmax-xmin)*float64(i)/ticks
		yv := ymin + (ymax-ymin)*float64(i)/ticks

		dc.SetHexColor(grid)
		dc.DrawLine(px(xv), top, px(xv), bottom)
		dc.DrawLine(left, py(yv), right, py(yv))
		dc.Stroke()

		dc.SetHexColor(label)
		dc.DrawStringAnchored(tickLabel(xv), px(xv), bottom+12, 0.5, 0.5)
		dc.DrawStringAnchored(tickLabel(yv), left-6, py(yv), 1, 0.5)
	}
}

func tickLabel(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// hexRGBA normalizes #rgb or #rrggbb to the #rrggbbaa form gg accepts,
// folding in alpha. Anything unparsable becomes black.
func hexRGBA(s string, alpha float64) string {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if _, err := strconv.ParseUint(s, 16, 32); len(s) != 6 || err != nil {
		s = "000000"
	}
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	return fmt.Sprintf("#%s%02x", strings.ToLower(s), int(math.Round(alpha*255)))
}
