package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(t *testing.T) arrow.Record {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "haversine", Type: arrow.PrimitiveTypes.Float64},
		{Name: "hr_8", Type: arrow.PrimitiveTypes.Uint8},
	}, nil)
	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	b.Field(0).(*array.Float64Builder).AppendValues([]float64{1.5, 2.5, 3.5}, nil)
	b.Field(1).(*array.Uint8Builder).AppendValues([]uint8{1, 0, 1}, nil)
	rec := b.NewRecord()
	t.Cleanup(rec.Release)
	return rec
}

func TestDescribeRecord(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, DescribeRecord(&buf, sampleRecord(t)))
	assert.Equal(t, "Record batch with 3 rows and 2 columns\nColumn 0: haversine, Type: float64\nColumn 1: hr_8, Type: uint8\n", buf.String())

	assert.Error(t, DescribeRecord(&buf, nil))
}

func TestHeadJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, HeadJSON(&buf, sampleRecord(t), 2))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "["))
	assert.Equal(t, 2, strings.Count(out, `"haversine"`))
	assert.NotContains(t, out, "3.5")

	buf.Reset()
	require.NoError(t, HeadJSON(&buf, sampleRecord(t), 10))
	assert.Equal(t, 3, strings.Count(buf.String(), `"hr_8"`))

	assert.Error(t, HeadJSON(&buf, sampleRecord(t), -1))
}
