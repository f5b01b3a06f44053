package features

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrowarc/farefeatures/pkg/table"
)

func TestColumnExtractor(t *testing.T) {
	t.Parallel()

	in := tripTable(t, goodTrip(), goodTrip())
	cols := []string{table.PassengerCount, table.FareAmount}
	out, err := NewColumnExtractor(cols...).Transform(context.Background(), in)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, cols, out.ColumnNames())
	assert.Equal(t, 2, out.NumRows())

	_, err = NewColumnExtractor(table.FareAmount, "tip_amount").Transform(context.Background(), in)
	var nf *table.ColumnNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "tip_amount", nf.Column)
}

func TestFeatureUnionConcatenatesInOrder(t *testing.T) {
	t.Parallel()

	in := tripTable(t, goodTrip(), goodTrip())
	union := NewFeatureUnion(
		NewColumnExtractor(table.FareAmount),
		NewColumnExtractor(table.PickupLatitude, table.DropoffLatitude),
	)
	out, err := FitTransform(context.Background(), union, in)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []string{table.FareAmount, table.PickupLatitude, table.DropoffLatitude}, out.ColumnNames())
	assert.Equal(t, 2, out.NumRows())
}

func TestFeatureUnionFitsEveryBranch(t *testing.T) {
	t.Parallel()

	in := numericTrips(t)
	scaler := NewStandardizer()
	union := NewFeatureUnion(
		NewColumnExtractor(table.PassengerCount),
		NewFeatureUnion(scaler),
	)
	require.NoError(t, union.Fit(context.Background(), in))
	assert.True(t, scaler.Fitted(), "nested branches are fitted on the shared input")

	out, err := union.Transform(context.Background(), in)
	require.NoError(t, err)
	defer out.Release()

	// passenger_count collides: the scaled branch declared last wins but the
	// column keeps its first position.
	assert.Equal(t, table.PassengerCount, out.ColumnNames()[0])
	assert.Equal(t, in.NumCols(), out.NumCols())
	scaled := column(t, out, table.PassengerCount)
	raw := column(t, in, table.PassengerCount)
	assert.NotEqual(t, raw, scaled)
}

func TestFeatureUnionErrors(t *testing.T) {
	t.Parallel()

	in := withAbsDiff(t, tripTable(t, goodTrip(), trip{passengers: 1}))

	mismatch := NewFeatureUnion(NewColumnExtractor(table.FareAmount), NewRemoveBadData(DefaultFilterOptions()))
	_, err := mismatch.Transform(context.Background(), in)
	var serr *table.SchemaError
	assert.True(t, errors.As(err, &serr), "branches with different row counts cannot be joined, got %v", err)

	unfitted := NewFeatureUnion(NewStandardizer())
	_, err = unfitted.Transform(context.Background(), in)
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = NewFeatureUnion().Transform(context.Background(), in)
	assert.Error(t, err)
}

func TestFeatureUnionCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	u := NewFeatureUnion(NewColumnExtractor(table.FareAmount), Haversiner{})
	_, err := u.Transform(ctx, tripTable(t, goodTrip()))
	assert.ErrorIs(t, err, context.Canceled)
}
