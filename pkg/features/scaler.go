package features

import (
	"context"
	"math"

	"github.com/arrowarc/farefeatures/pkg/table"
)

// Standardizer rescales every column it is given to zero mean and unit
// variance. Columns named in Exclude pass through untouched; every other
// column must be numeric.
type Standardizer struct {
	Exclude []string

	columns []string
	mean    []float64
	scale   []float64
	fitted  bool
}

// NewStandardizer returns an unfitted standardizer.
func NewStandardizer(exclude ...string) *Standardizer {
	return &Standardizer{Exclude: exclude}
}

func (*Standardizer) String() string { return "standard_scaler" }

func (s *Standardizer) excluded(name string) bool {
	for _, e := range s.Exclude {
		if e == name {
			return true
		}
	}
	return false
}

// Fit records the population mean and standard deviation of each column.
// NaNs are ignored. A constant column gets scale 1.
func (s *Standardizer) Fit(_ context.Context, t *table.Table) error {
	var columns []string
	for _, name := range t.ColumnNames() {
		if !s.excluded(name) {
			columns = append(columns, name)
		}
	}

	mean := make([]float64, len(columns))
	scale := make([]float64, len(columns))
	for j, name := range columns {
		vals, err := t.Float64s(name)
		if err != nil {
			return err
		}
		mean[j], scale[j] = meanStd(vals)
		if scale[j] == 0 || math.IsNaN(scale[j]) {
			scale[j] = 1
		}
	}

	s.columns, s.mean, s.scale = columns, mean, scale
	s.fitted = true
	return nil
}

func meanStd(vals []float64) (float64, float64) {
	var sum float64
	var n int
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, 1
	}
	mean := sum / float64(n)
	var ss float64
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n))
}

// Transform returns a table of the same shape with every fitted column
// replaced by (x - mean) / scale as float64.
func (s *Standardizer) Transform(_ context.Context, t *table.Table) (*table.Table, error) {
	return s.apply(t, func(x, mean, scale float64) float64 { return (x - mean) / scale })
}

// InverseTransform maps standardized values back to the original scale.
func (s *Standardizer) InverseTransform(_ context.Context, t *table.Table) (*table.Table, error) {
	return s.apply(t, func(x, mean, scale float64) float64 { return x*scale + mean })
}

func (s *Standardizer) apply(t *table.Table, f func(x, mean, scale float64) float64) (*table.Table, error) {
	if !s.fitted {
		return nil, ErrNotFitted
	}
	known := make(map[string]struct{}, len(s.columns))
	for _, name := range s.columns {
		known[name] = struct{}{}
	}
	for _, name := range t.ColumnNames() {
		if _, ok := known[name]; !ok && !s.excluded(name) {
			return nil, &table.SchemaError{Column: name, Reason: "column was not seen during fit"}
		}
	}

	var out columnSet
	for j, name := range s.columns {
		vals, err := t.Float64s(name)
		if err != nil {
			out.release()
			return nil, err
		}
		for i, v := range vals {
			vals[i] = f(v, s.mean[j], s.scale[j])
		}
		out.addFloat64(t.Allocator(), name, vals)
	}
	return out.attach(t)
}

// Columns returns the fitted column names.
func (s *Standardizer) Columns() []string { return append([]string(nil), s.columns...) }

// Mean returns the fitted per-column means, aligned with Columns.
func (s *Standardizer) Mean() []float64 { return append([]float64(nil), s.mean...) }

// Scale returns the fitted per-column scales, aligned with Columns.
func (s *Standardizer) Scale() []float64 { return append([]float64(nil), s.scale...) }

// Fitted reports whether Fit has succeeded.
func (s *Standardizer) Fitted() bool { return s.fitted }
