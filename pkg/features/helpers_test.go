package features

import (
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/arrowarc/farefeatures/pkg/table"
)

type trip struct {
	fare       float32
	pickup     time.Time
	plon, plat float32
	dlon, dlat float32
	passengers uint8
}

// goodTrip is a short midtown ride that passes every sanity check.
func goodTrip() trip {
	return trip{
		fare:       10.0,
		pickup:     time.Date(2015, 1, 1, 8, 5, 0, 0, time.UTC),
		plon:       -73.98,
		plat:       40.75,
		dlon:       -73.97,
		dlat:       40.76,
		passengers: 2,
	}
}

func tripTable(t *testing.T, trips ...trip) *table.Table {
	t.Helper()
	mem := memory.NewGoAllocator()
	schema := table.TripSchema()
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for _, tr := range trips {
		b.Field(0).(*array.Float32Builder).Append(tr.fare)
		b.Field(1).(*array.TimestampBuilder).Append(arrow.Timestamp(tr.pickup.Unix()))
		b.Field(2).(*array.Float32Builder).Append(tr.plon)
		b.Field(3).(*array.Float32Builder).Append(tr.plat)
		b.Field(4).(*array.Float32Builder).Append(tr.dlon)
		b.Field(5).(*array.Float32Builder).Append(tr.dlat)
		b.Field(6).(*array.Uint8Builder).Append(tr.passengers)
	}
	tbl := table.New(b.NewRecord(), mem)
	t.Cleanup(tbl.Release)
	return tbl
}

func column(t *testing.T, tbl *table.Table, name string) []float64 {
	t.Helper()
	vals, err := tbl.Float64s(name)
	require.NoError(t, err)
	return vals
}
