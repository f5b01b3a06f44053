package generator

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrowarc/farefeatures/pkg/geo"
	"github.com/arrowarc/farefeatures/pkg/loader"
	"github.com/arrowarc/farefeatures/pkg/table"
)

func TestGenerateTripsLoads(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	opts := TripOptions{Rows: 250, Seed: 7, BatchSize: 100}
	require.NoError(t, GenerateTrips(&buf, opts))

	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, "key,fare_amount,pickup_datetime,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,passenger_count", header)

	tbl, err := loader.Load(context.Background(), &buf, loader.Options{ChunkSize: 64})
	require.NoError(t, err)
	defer tbl.Release()
	assert.Equal(t, 250, tbl.NumRows())
	assert.Equal(t, table.TripColumns(), tbl.ColumnNames())

	box := geo.NYC()
	plon, err := tbl.Float64s(table.PickupLongitude)
	require.NoError(t, err)
	plat, err := tbl.Float64s(table.PickupLatitude)
	require.NoError(t, err)
	for i := range plon {
		assert.True(t, box.Contains(plon[i], plat[i]), "row %d should be inside the box", i)
	}
}

func TestGenerateTripsDeterministic(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	opts := TripOptions{Rows: 50, Seed: 42, InvalidFraction: 0.2}
	require.NoError(t, GenerateTrips(&a, opts))
	require.NoError(t, GenerateTrips(&b, opts))
	assert.Equal(t, a.String(), b.String())
}

func TestGenerateTripsEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, GenerateTrips(&buf, TripOptions{Rows: 0}))

	tbl, err := loader.Load(context.Background(), &buf, loader.DefaultOptions())
	require.NoError(t, err)
	defer tbl.Release()
	assert.Equal(t, 0, tbl.NumRows())

	assert.Error(t, GenerateTrips(&buf, TripOptions{Rows: -1}))
}

func TestGenerateTripsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trips.csv")
	require.NoError(t, GenerateTripsFile(path, TripOptions{Rows: 10, Seed: 3}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.Size() > 0)
}
