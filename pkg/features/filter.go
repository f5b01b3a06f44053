package features

import (
	"context"
	"errors"

	"github.com/arrowarc/farefeatures/pkg/geo"
	"github.com/arrowarc/farefeatures/pkg/table"
)

// FilterOptions are the sanity bounds applied by RemoveBadData.
type FilterOptions struct {
	Box geo.BoundingBox
	// Fares must lie strictly between MinFare and MaxFare.
	MinFare float64
	MaxFare float64
	// Passenger counts must be strictly greater than MinPassengers.
	MinPassengers uint8
}

// DefaultFilterOptions returns the NYC box, fares in (2.5, 500) and more
// than one passenger.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		Box:           geo.NYC(),
		MinFare:       2.5,
		MaxFare:       500,
		MinPassengers: 1,
	}
}

// Validate checks the options describe a non-empty region and fare range.
func (o FilterOptions) Validate() error {
	if !o.Box.Valid() {
		return errors.New("bounding box minimums must not exceed maximums")
	}
	if o.MinFare >= o.MaxFare {
		return errors.New("minimum fare must be below maximum fare")
	}
	return nil
}

// RemoveBadData drops every row that fails any sanity check. Dropped rows
// are gone for good; an empty result is a valid table. It needs the
// Manhatten column, so AbsDiff must run first.
type RemoveBadData struct {
	opts FilterOptions
}

// NewRemoveBadData returns a filter stage using opts.
func NewRemoveBadData(opts FilterOptions) *RemoveBadData {
	return &RemoveBadData{opts: opts}
}

func (*RemoveBadData) String() string { return "remove_bad_data" }

// Options returns the bounds the stage filters with.
func (r *RemoveBadData) Options() FilterOptions { return r.opts }

func (*RemoveBadData) Fit(context.Context, *table.Table) error { return nil }

func (r *RemoveBadData) Transform(ctx context.Context, t *table.Table) (*table.Table, error) {
	in, err := float64Columns(t,
		table.PassengerCount, table.Manhatten, table.FareAmount,
		table.PickupLongitude, table.PickupLatitude,
		table.DropoffLongitude, table.DropoffLatitude,
	)
	if err != nil {
		return nil, err
	}
	passengers, manhattan, fare := in[0], in[1], in[2]
	plon, plat, dlon, dlat := in[3], in[4], in[5], in[6]

	keep := make([]bool, t.NumRows())
	for i := range keep {
		keep[i] = passengers[i] > float64(r.opts.MinPassengers) &&
			manhattan[i] != 0 &&
			fare[i] > r.opts.MinFare && fare[i] < r.opts.MaxFare &&
			r.opts.Box.Contains(plon[i], plat[i]) &&
			r.opts.Box.Contains(dlon[i], dlat[i])
	}
	return t.Filter(ctx, keep)
}
