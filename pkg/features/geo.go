package features

import (
	"context"
	"math"

	"github.com/arrowarc/farefeatures/pkg/geo"
	"github.com/arrowarc/farefeatures/pkg/table"
)

// AbsDiff adds the absolute coordinate deltas and their sum, a Manhattan
// distance proxy in degrees.
type AbsDiff struct{}

func (AbsDiff) String() string { return "abs_diff" }

func (AbsDiff) Fit(context.Context, *table.Table) error { return nil }

func (AbsDiff) Transform(_ context.Context, t *table.Table) (*table.Table, error) {
	in, err := float64Columns(t, table.PickupLatitude, table.DropoffLatitude, table.PickupLongitude, table.DropoffLongitude)
	if err != nil {
		return nil, err
	}
	plat, dlat, plon, dlon := in[0], in[1], in[2], in[3]

	n := t.NumRows()
	absLat := make([]float32, n)
	absLon := make([]float32, n)
	manhattan := make([]float32, n)
	for i := 0; i < n; i++ {
		absLat[i] = float32(math.Abs(plat[i] - dlat[i]))
		absLon[i] = float32(math.Abs(plon[i] - dlon[i]))
		manhattan[i] = absLat[i] + absLon[i]
	}

	var out columnSet
	mem := t.Allocator()
	out.addFloat32(mem, table.AbsDiffLat, absLat)
	out.addFloat32(mem, table.AbsDiffLon, absLon)
	out.addFloat32(mem, table.Manhatten, manhattan)
	return out.attach(t)
}

// Haversiner adds the great-circle trip distance in kilometers.
type Haversiner struct{}

func (Haversiner) String() string { return "haversine" }

func (Haversiner) Fit(context.Context, *table.Table) error { return nil }

func (Haversiner) Transform(_ context.Context, t *table.Table) (*table.Table, error) {
	in, err := float64Columns(t, table.PickupLongitude, table.PickupLatitude, table.DropoffLongitude, table.DropoffLatitude)
	if err != nil {
		return nil, err
	}
	plon, plat, dlon, dlat := in[0], in[1], in[2], in[3]

	dist := make([]float64, t.NumRows())
	for i := range dist {
		dist[i] = geo.Haversine(plon[i], plat[i], dlon[i], dlat[i])
	}

	var out columnSet
	out.addFloat64(t.Allocator(), table.Haversine, dist)
	return out.attach(t)
}
