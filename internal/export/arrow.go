package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"paramview/internal/models"
)

// SliceSchema derives an Arrow schema for the rows of a slice. A column is
// float64 when every cell is a number or missing, and utf8 otherwise.
func SliceSchema(s *models.Slice) *arrow.Schema {
	fields := make([]arrow.Field, len(s.Columns))
	for i, name := range s.Columns {
		var typ arrow.DataType = arrow.PrimitiveTypes.Float64
		for _, row := range s.Rows {
			if row.At(i).Kind == models.Text {
				typ = arrow.BinaryTypes.String
				break
			}
		}
		fields[i] = arrow.Field{Name: name, Type: typ, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// WriteArrow writes the rows of a slice as a single-record Arrow IPC
// stream. Like WriteCSV it writes nothing for an empty slice.
func WriteArrow(w io.Writer, s *models.Slice) (int, error) {
	if s.Empty() {
		return 0, nil
	}
	mem := memory.NewGoAllocator()
	schema := SliceSchema(s)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for i, f := range schema.Fields() {
		switch fb := b.Field(i).(type) {
		case *array.Float64Builder:
			fb.Reserve(len(s.Rows))
			for _, row := range s.Rows {
				if v, ok := row.At(i).Float(); ok {
					fb.Append(v)
				} else {
					fb.AppendNull()
				}
			}
		case *array.StringBuilder:
			for _, row := range s.Rows {
				c := row.At(i)
				if c.Kind == models.Missing {
					fb.AppendNull()
				} else {
					fb.Append(c.String())
				}
			}
		default:
			return 0, fmt.Errorf("export: column %s: unexpected builder %T", f.Name, fb)
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	iw := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := iw.Write(rec); err != nil {
		iw.Close()
		return 0, fmt.Errorf("export: arrow: %w", err)
	}
	if err := iw.Close(); err != nil {
		return 0, fmt.Errorf("export: arrow: %w", err)
	}
	return int(rec.NumRows()), nil
}
