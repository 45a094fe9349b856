package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paramview/internal/models"
)

func TestLoadDataset(t *testing.T) {
	csvContent := []byte("p,q, y ,label\n1,10,100,a\n1,20,110,\n2,10,,\"b, c\"\n3,7\n")

	path := filepath.Join(t.TempDir(), "grid.csv")
	require.NoError(t, os.WriteFile(path, csvContent, 0o644))

	ds, err := LoadDataset("demo", path)
	require.NoError(t, err)

	assert.Equal(t, "demo", ds.Key)
	assert.Equal(t, []string{"p", "q", "y", "label"}, ds.Columns)
	require.Equal(t, 4, ds.NumRows())

	assert.Equal(t, models.NumberCell(100), ds.Value(0, "y"))
	assert.Equal(t, models.TextCell("a"), ds.Value(0, "label"))
	assert.Equal(t, models.Missing, ds.Value(1, "label").Kind)
	assert.Equal(t, models.Missing, ds.Value(2, "y").Kind)
	assert.Equal(t, models.TextCell("b, c"), ds.Value(2, "label"))

	// Short rows read as missing past their end.
	assert.Equal(t, models.NumberCell(7), ds.Value(3, "q"))
	assert.Equal(t, models.Missing, ds.Value(3, "y").Kind)
	assert.Equal(t, models.Missing, ds.Value(3, "nope").Kind)
}

func TestLoadDatasetMissingFile(t *testing.T) {
	_, err := LoadDataset("demo", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestReadDatasetErrors(t *testing.T) {
	_, err := ReadDataset("demo", "empty", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	_, err = ReadDataset("demo", "bad", strings.NewReader("a,b\n\"unterminated,1\n"))
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestReadDatasetHeaderNormalization(t *testing.T) {
	// UTF-8 BOM followed by a decomposed "é".
	input := "\ufeffcafe\u0301,x\n1,2\n"
	ds, err := ReadDataset("demo", "mem", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"caf\u00e9", "x"}, ds.Columns)
	assert.True(t, ds.HasColumn("caf\u00e9"))
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		in   string
		want models.Cell
	}{
		{"", models.Cell{}},
		{"   ", models.Cell{}},
		{"0.001", models.NumberCell(0.001)},
		{" 42 ", models.NumberCell(42)},
		{"-1e3", models.NumberCell(-1000)},
		{"x", models.TextCell("x")},
		{"true", models.TextCell("true")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCell(tt.in), "parseCell(%q)", tt.in)
	}
}

func TestParseRowsKeepsOrder(t *testing.T) {
	records := make([][]string, 1000)
	for i := range records {
		records[i] = []string{strings.Repeat("1", i%5+1)}
	}
	rows := parseRows(records, 1)
	require.Len(t, rows, len(records))
	for i, row := range rows {
		want := parseCell(records[i][0])
		require.Equal(t, want, row.At(0), "row %d", i)
	}
}
