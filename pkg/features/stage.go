// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

// Package features implements the trip feature stages. Every stage satisfies
// Transformer; Transform never mutates its input, it returns a new table that
// the caller owns.
package features

import (
	"context"
	"errors"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/arrowarc/farefeatures/pkg/table"
)

// ErrNotFitted is returned by Transform on a stateful stage that has not
// been fitted.
var ErrNotFitted = errors.New("features: transform called before fit")

// Transformer is the capability set shared by all stages.
type Transformer interface {
	// Fit learns whatever state the stage needs from t. Stateless stages
	// return nil without looking at t.
	Fit(ctx context.Context, t *table.Table) error
	// Transform returns a new table derived from t.
	Transform(ctx context.Context, t *table.Table) (*table.Table, error)
}

// FitTransform fits s on t and returns s's transform of t.
func FitTransform(ctx context.Context, s Transformer, t *table.Table) (*table.Table, error) {
	if err := s.Fit(ctx, t); err != nil {
		return nil, err
	}
	return s.Transform(ctx, t)
}

// columnSet holds freshly built columns until they are attached to a table.
type columnSet struct {
	fields []arrow.Field
	cols   []arrow.Array
}

func (c *columnSet) addFloat32(mem memory.Allocator, name string, vals []float32) {
	b := array.NewFloat32Builder(mem)
	defer b.Release()
	b.AppendValues(vals, nil)
	c.add(arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float32}, b.NewArray())
}

func (c *columnSet) addFloat64(mem memory.Allocator, name string, vals []float64) {
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	b.AppendValues(vals, nil)
	c.add(arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64}, b.NewArray())
}

func (c *columnSet) addUint8(mem memory.Allocator, name string, vals []uint8) {
	b := array.NewUint8Builder(mem)
	defer b.Release()
	b.AppendValues(vals, nil)
	c.add(arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Uint8}, b.NewArray())
}

func (c *columnSet) add(f arrow.Field, col arrow.Array) {
	c.fields = append(c.fields, f)
	c.cols = append(c.cols, col)
}

// attach returns t with the set's columns appended and drops the set's own
// references.
func (c *columnSet) attach(t *table.Table) (*table.Table, error) {
	defer c.release()
	return t.WithColumns(c.fields, c.cols)
}

func (c *columnSet) release() {
	for _, col := range c.cols {
		col.Release()
	}
	c.fields, c.cols = nil, nil
}

// float64Columns reads several numeric columns at once.
func float64Columns(t *table.Table, names ...string) ([][]float64, error) {
	out := make([][]float64, len(names))
	for i, n := range names {
		vals, err := t.Float64s(n)
		if err != nil {
			return nil, err
		}
		out[i] = vals
	}
	return out, nil
}
