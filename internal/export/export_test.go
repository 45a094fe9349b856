package export

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paramview/internal/config"
	"paramview/internal/models"
	"paramview/internal/plot"
)

func testSlice() *models.Slice {
	rows := []models.Row{
		{models.NumberCell(1), models.NumberCell(0.001), models.TextCell(`say "hi"`)},
		{models.NumberCell(2), {}, models.TextCell("b")},
		{models.NumberCell(3)},
	}
	s := &models.Slice{
		PlotKey: "demo",
		XColumn: "q",
		YColumn: "y",
		Columns: []string{"q", "y", "label"},
		Rows:    rows,
	}
	for _, r := range rows {
		s.X = append(s.X, r.At(0))
		s.Y = append(s.Y, r.At(1))
	}
	s.DataPoints = len(rows)
	return s
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "temp_data_2024-05-01T10-30-00.csv", Filename("temp", "data", "csv", ts))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, testSlice())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "q,y,label\n1,0.001,\"say \"\"hi\"\"\"\n2,,\"b\"\n3,,\n", buf.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, &models.Slice{Columns: []string{"q"}})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, buf.Len())
}

func TestWriteArrow(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteArrow(&buf, testSlice())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	r, err := ipc.NewReader(&buf, ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer r.Release()

	schema := r.Schema()
	require.Equal(t, 3, len(schema.Fields()))
	assert.Equal(t, arrow.FLOAT64, schema.Field(0).Type.ID())
	assert.Equal(t, arrow.FLOAT64, schema.Field(1).Type.ID())
	assert.Equal(t, arrow.STRING, schema.Field(2).Type.ID())

	require.True(t, r.Next())
	rec := r.Record()
	assert.EqualValues(t, 3, rec.NumRows())

	y := rec.Column(1).(*array.Float64)
	assert.Equal(t, 0.001, y.Value(0))
	assert.True(t, y.IsNull(1))
	assert.True(t, y.IsNull(2))

	label := rec.Column(2).(*array.String)
	assert.Equal(t, `say "hi"`, label.Value(0))
	assert.True(t, label.IsNull(2))

	assert.False(t, r.Next())
}

func TestWriteArrowEmpty(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteArrow(&buf, &models.Slice{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, buf.Len())
}

func TestRenderPNG(t *testing.T) {
	s := testSlice()
	cfg := plot.Assemble(s, models.Selection{{Param: "p", Value: 1}}, config.PlotSpec{Key: "demo", Title: "Demo"}, nil)

	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, cfg))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, plot.ImageWidth*plot.ImageScale, img.Bounds().Dx())
	assert.Equal(t, plot.ImageHeight*plot.ImageScale, img.Bounds().Dy())

	empty := plot.Assemble(&models.Slice{}, nil, config.PlotSpec{Key: "demo"}, nil)
	buf.Reset()
	require.NoError(t, RenderPNG(&buf, empty))
	_, err = png.Decode(&buf)
	require.NoError(t, err)
}

func TestPoints(t *testing.T) {
	s := plot.Series{
		X: []models.Cell{models.NumberCell(1), models.NumberCell(2), {}, models.NumberCell(4)},
		Y: []models.Cell{models.NumberCell(1), {}, models.NumberCell(3), models.NumberCell(4)},
	}
	pts := points(s)
	require.Len(t, pts, 2)
	assert.False(t, pts[0].gap)
	assert.True(t, pts[1].gap)
	assert.Equal(t, 4.0, pts[1].x)
}

func TestHexRGBA(t *testing.T) {
	tests := []struct {
		in    string
		alpha float64
		want  string
	}{
		{"#2E86AB", 1, "#2e86abff"},
		{"2e86ab", 1, "#2e86abff"},
		{"#fff", 1, "#ffffffff"},
		{"#A23B72", 0.8, "#a23b72cc"},
		{"#808080", 0, "#808080ff"},
		{"bogus", 0.5, "#00000080"},
		{"#12345", 1, "#000000ff"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hexRGBA(tt.in, tt.alpha), tt.in)
	}

	dc := gg.NewContext(1, 1)
	dc.SetHexColor(hexRGBA("#2E86AB", 1))
	dc.Clear()
	assert.Equal(t, color.RGBA{R: 0x2e, G: 0x86, B: 0xab, A: 0xff}, dc.Image().At(0, 0))
}
