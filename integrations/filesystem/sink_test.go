package filesystem

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrowarc/farefeatures/pkg/table"
)

var featureFields = []arrow.Field{
	{Name: table.FareAmount, Type: arrow.PrimitiveTypes.Float32},
	{Name: table.Haversine, Type: arrow.PrimitiveTypes.Float64},
	{Name: "hr_8", Type: arrow.PrimitiveTypes.Uint8},
}

func featureTable(t *testing.T, rows int) *table.Table {
	t.Helper()
	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, arrow.NewSchema(featureFields, nil))
	defer b.Release()
	for i := 0; i < rows; i++ {
		b.Field(0).(*array.Float32Builder).Append(float32(i) + 0.5)
		b.Field(1).(*array.Float64Builder).Append(float64(i) * 1.25)
		b.Field(2).(*array.Uint8Builder).Append(uint8(i % 2))
	}
	tbl := table.New(b.NewRecord(), mem)
	t.Cleanup(tbl.Release)
	return tbl
}

func fieldsOf(schema *arrow.Schema) []string {
	var out []string
	for _, f := range schema.Fields() {
		out = append(out, f.Name+":"+f.Type.String())
	}
	return out
}

// collect concatenates records read from src into one table.
func collect(t *testing.T, src func() (arrow.Record, error)) *table.Table {
	t.Helper()
	var parts []*table.Table
	for {
		rec, err := src()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		parts = append(parts, table.New(rec, memory.DefaultAllocator))
	}
	require.NotEmpty(t, parts)
	out, err := table.Concat(memory.DefaultAllocator, parts[0].Schema(), parts)
	require.NoError(t, err)
	for _, p := range parts {
		p.Release()
	}
	t.Cleanup(out.Release)
	return out
}

func assertSameValues(t *testing.T, want, got *table.Table) {
	t.Helper()
	require.Equal(t, want.NumRows(), got.NumRows())
	for _, name := range want.ColumnNames() {
		w, err := want.Float64s(name)
		require.NoError(t, err)
		g, err := got.Float64s(name)
		require.NoError(t, err)
		assert.Equal(t, w, g, name)
	}
}

func TestWriteTableParquet(t *testing.T) {
	t.Parallel()

	want := featureTable(t, 10)
	var buf bytes.Buffer
	require.NoError(t, WriteTable(context.Background(), &buf, FormatParquet, want, 3))

	rdr, err := NewParquetReader(context.Background(), bytes.NewReader(buf.Bytes()), nil)
	require.NoError(t, err)
	defer rdr.Close()
	assert.Equal(t, fieldsOf(want.Schema()), fieldsOf(rdr.Schema()), "column types survive the round trip")

	assertSameValues(t, want, collect(t, rdr.Read))
}

func TestWriteTableIPC(t *testing.T) {
	t.Parallel()

	want := featureTable(t, 7)
	var buf bytes.Buffer
	require.NoError(t, WriteTable(context.Background(), &buf, FormatIPC, want, 2))

	records, errs := ReadIPCStream(context.Background(), &buf, memory.DefaultAllocator)
	var got []arrow.Record
	for rec := range records {
		got = append(got, rec)
	}
	require.NoError(t, <-errs)
	assert.Len(t, got, 4)

	i := 0
	tbl := collect(t, func() (arrow.Record, error) {
		if i == len(got) {
			return nil, io.EOF
		}
		i++
		return got[i-1], nil
	})
	assert.Equal(t, fieldsOf(want.Schema()), fieldsOf(tbl.Schema()))
	assertSameValues(t, want, tbl)
}

func TestWriteTableCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteTable(context.Background(), &buf, FormatCSV, featureTable(t, 2), 0))
	assert.Equal(t, "fare_amount,haversine,hr_8\n0.5,0,0\n1.5,1.25,1\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteTable(context.Background(), &buf, FormatCSV, featureTable(t, 0), 0))
	assert.Equal(t, "fare_amount,haversine,hr_8\n", buf.String(), "an empty table still has a header")
}

func TestWriteTableCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WriteTable(ctx, io.Discard, FormatIPC, featureTable(t, 100), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteTableFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tbl := featureTable(t, 5)
	for _, format := range []string{FormatParquet, FormatIPC, FormatCSV} {
		path := filepath.Join(dir, "features."+format)
		require.NoError(t, WriteTableFile(context.Background(), path, format, tbl, 0), format)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.Size() > 0, format)
	}

	err := WriteTableFile(context.Background(), filepath.Join(dir, "features.xlsx"), "xlsx", tbl, 0)
	assert.Error(t, err)
}

func TestCSVRecordReader(t *testing.T) {
	t.Parallel()

	doc := "\ufeffa;b\n1;x\n2;y\n3;z\n"
	rdr, err := NewCSVRecordReader(strings.NewReader(doc), &CSVReadOptions{ChunkSize: 2, Delimiter: ';'})
	require.NoError(t, err)
	defer rdr.Close()
	assert.Equal(t, []string{"a", "b"}, rdr.Header())

	var rows []int64
	for {
		rec, err := rdr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		rows = append(rows, rec.NumRows())
		rec.Release()
	}
	assert.Equal(t, []int64{2, 1}, rows)

	_, err = NewCSVRecordReader(strings.NewReader(""), &CSVReadOptions{ChunkSize: 2})
	assert.Error(t, err)
	_, err = NewCSVRecordReader(strings.NewReader("a\n"), &CSVReadOptions{})
	assert.Error(t, err)
}

func TestCSVRecordReaderRaggedRow(t *testing.T) {
	t.Parallel()

	rdr, err := NewCSVRecordReader(strings.NewReader("a,b,c\n1,2\n"), &CSVReadOptions{ChunkSize: 4})
	require.NoError(t, err)
	defer rdr.Close()

	var rec arrow.Record
	require.NotPanics(t, func() { rec, err = rdr.Read() })
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrRaggedRow)
	var rowErr *CSVRowError
	assert.True(t, errors.As(err, &rowErr))

	_, again := rdr.Read()
	assert.Equal(t, err, again, "the failure is sticky")
}
