package features

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/arrowarc/farefeatures/pkg/table"
)

// ColumnExtractor restricts a table to a fixed list of columns, in order.
type ColumnExtractor struct {
	Columns []string
}

// NewColumnExtractor returns an extractor for columns.
func NewColumnExtractor(columns ...string) *ColumnExtractor {
	return &ColumnExtractor{Columns: columns}
}

func (c *ColumnExtractor) String() string {
	return "column_extractor(" + strings.Join(c.Columns, ",") + ")"
}

func (*ColumnExtractor) Fit(context.Context, *table.Table) error { return nil }

// Transform fails with a *table.ColumnNotFoundError if a column is absent.
func (c *ColumnExtractor) Transform(_ context.Context, t *table.Table) (*table.Table, error) {
	return t.Select(c.Columns...)
}

// FeatureUnion runs independent branches over the same input and joins
// their outputs column-wise in declaration order. When two branches produce
// the same column name the later branch wins; the column keeps the position
// where it first appeared.
type FeatureUnion struct {
	branches []Transformer
}

// NewFeatureUnion returns a union of branches.
func NewFeatureUnion(branches ...Transformer) *FeatureUnion {
	return &FeatureUnion{branches: branches}
}

func (u *FeatureUnion) String() string {
	names := make([]string, len(u.branches))
	for i, b := range u.branches {
		names[i] = fmt.Sprint(b)
	}
	return "feature_union(" + strings.Join(names, ",") + ")"
}

// Fit fits every branch on t.
func (u *FeatureUnion) Fit(ctx context.Context, t *table.Table) error {
	for i, b := range u.branches {
		if err := b.Fit(ctx, t); err != nil {
			return fmt.Errorf("feature union branch %d: %w", i, err)
		}
	}
	return nil
}

// Transform runs the branches concurrently on t, so a branch must be safe
// for concurrent Transform calls when it appears more than once. The stages
// in this package and *pipeline.Pipeline are. The output does not depend on
// scheduling. It fails with a *table.SchemaError if branches disagree on the
// number of rows.
func (u *FeatureUnion) Transform(ctx context.Context, t *table.Table) (*table.Table, error) {
	if len(u.branches) == 0 {
		return nil, errors.New("feature union has no branches")
	}
	outs := make([]*table.Table, len(u.branches))
	defer func() {
		for _, o := range outs {
			if o != nil {
				o.Release()
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range u.branches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o, err := b.Transform(gctx, t)
			if err != nil {
				return fmt.Errorf("feature union branch %d: %w", i, err)
			}
			outs[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table.HConcat(outs...)
}
