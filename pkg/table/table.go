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

// Package table holds the in-memory trip table shared by the loader, the
// feature stages and the pipeline composer. A Table wraps a single Arrow
// record; every operation returns a new Table and leaves the receiver
// untouched, so a failing stage never leaves a half-mutated table behind.
package table

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/compute"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/cespare/xxhash/v2"
)

// Table is an ordered collection of typed columns of equal length.
type Table struct {
	rec arrow.Record
	mem memory.Allocator
}

// New wraps rec. The table takes over the caller's reference to rec.
func New(rec arrow.Record, mem memory.Allocator) *Table {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &Table{rec: rec, mem: mem}
}

// FromColumns builds a table from fields and equally long columns. The
// columns are retained by the table; the caller keeps its own references.
func FromColumns(mem memory.Allocator, fields []arrow.Field, cols []arrow.Array) (*Table, error) {
	if len(fields) != len(cols) {
		return nil, fmt.Errorf("table: %d fields but %d columns", len(fields), len(cols))
	}
	nrows := int64(0)
	for i, col := range cols {
		if i == 0 {
			nrows = int64(col.Len())
			continue
		}
		if int64(col.Len()) != nrows {
			return nil, newSchemaError(fields[i].Name, fmt.Sprintf("has %d rows, expected %d", col.Len(), nrows), nil)
		}
	}
	schema := arrow.NewSchema(fields, nil)
	return New(array.NewRecord(schema, cols, nrows), mem), nil
}

// Empty returns a zero-row table with the given schema.
func Empty(mem memory.Allocator, schema *arrow.Schema) *Table {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	cols := make([]arrow.Array, schema.NumFields())
	for i, f := range schema.Fields() {
		b := array.NewBuilder(mem, f.Type)
		cols[i] = b.NewArray()
		b.Release()
	}
	defer releaseAll(cols)
	return New(array.NewRecord(schema, cols, 0), mem)
}

func (t *Table) Record() arrow.Record         { return t.rec }
func (t *Table) Schema() *arrow.Schema        { return t.rec.Schema() }
func (t *Table) Allocator() memory.Allocator { return t.mem }
func (t *Table) NumRows() int                 { return int(t.rec.NumRows()) }
func (t *Table) NumCols() int                 { return int(t.rec.NumCols()) }

func (t *Table) Retain()  { t.rec.Retain() }
func (t *Table) Release() { t.rec.Release() }

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, t.NumCols())
	for i := range names {
		names[i] = t.rec.ColumnName(i)
	}
	return names
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	return t.index(name) >= 0
}

func (t *Table) index(name string) int {
	idx := t.rec.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return -1
	}
	return idx[0]
}

// Column returns the named column.
func (t *Table) Column(name string) (arrow.Array, error) {
	i := t.index(name)
	if i < 0 {
		return nil, &ColumnNotFoundError{Column: name}
	}
	return t.rec.Column(i), nil
}

// Float64s returns the named numeric column widened to float64. Nulls are
// returned as NaN.
func (t *Table) Float64s(name string) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, col.Len())
	switch c := col.(type) {
	case *array.Float32:
		for i, v := range c.Float32Values() {
			out[i] = float64(v)
		}
	case *array.Float64:
		copy(out, c.Float64Values())
	case *array.Uint8:
		for i, v := range c.Uint8Values() {
			out[i] = float64(v)
		}
	case *array.Uint16:
		for i, v := range c.Uint16Values() {
			out[i] = float64(v)
		}
	case *array.Uint32:
		for i, v := range c.Uint32Values() {
			out[i] = float64(v)
		}
	case *array.Uint64:
		for i, v := range c.Uint64Values() {
			out[i] = float64(v)
		}
	case *array.Int8:
		for i, v := range c.Int8Values() {
			out[i] = float64(v)
		}
	case *array.Int16:
		for i, v := range c.Int16Values() {
			out[i] = float64(v)
		}
	case *array.Int32:
		for i, v := range c.Int32Values() {
			out[i] = float64(v)
		}
	case *array.Int64:
		for i, v := range c.Int64Values() {
			out[i] = float64(v)
		}
	default:
		return nil, newSchemaError(name, fmt.Sprintf("type %s is not numeric", col.DataType()), nil)
	}
	if col.NullN() > 0 {
		for i := range out {
			if col.IsNull(i) {
				out[i] = math.NaN()
			}
		}
	}
	return out, nil
}

// Times returns the named timestamp column as UTC times.
func (t *Table) Times(name string) ([]time.Time, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	ts, ok := col.(*array.Timestamp)
	if !ok {
		return nil, newSchemaError(name, fmt.Sprintf("type %s is not a timestamp", col.DataType()), nil)
	}
	unit := ts.DataType().(*arrow.TimestampType).Unit
	out := make([]time.Time, ts.Len())
	for i, v := range ts.TimestampValues() {
		out[i] = v.ToTime(unit).UTC()
	}
	return out, nil
}

// WithColumns returns a table with the given columns appended. A column whose
// name already exists replaces the old one in place.
func (t *Table) WithColumns(fields []arrow.Field, cols []arrow.Array) (*Table, error) {
	if len(fields) != len(cols) {
		return nil, fmt.Errorf("table: %d fields but %d columns", len(fields), len(cols))
	}
	outFields := append([]arrow.Field(nil), t.Schema().Fields()...)
	outCols := append([]arrow.Array(nil), t.rec.Columns()...)
	pos := make(map[string]int, len(outFields))
	for i, f := range outFields {
		pos[f.Name] = i
	}
	for i, f := range fields {
		if cols[i].Len() != t.NumRows() {
			return nil, newSchemaError(f.Name, fmt.Sprintf("has %d rows, expected %d", cols[i].Len(), t.NumRows()), nil)
		}
		if j, ok := pos[f.Name]; ok {
			outFields[j] = f
			outCols[j] = cols[i]
			continue
		}
		pos[f.Name] = len(outFields)
		outFields = append(outFields, f)
		outCols = append(outCols, cols[i])
	}
	return t.rebuild(outFields, outCols), nil
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	var (
		fields []arrow.Field
		cols   []arrow.Array
	)
	for i, f := range t.Schema().Fields() {
		if _, ok := drop[f.Name]; ok {
			continue
		}
		fields = append(fields, f)
		cols = append(cols, t.rec.Column(i))
	}
	return t.rebuild(fields, cols)
}

// Select returns a table restricted to exactly the named columns, in order.
func (t *Table) Select(names ...string) (*Table, error) {
	fields := make([]arrow.Field, len(names))
	cols := make([]arrow.Array, len(names))
	for i, n := range names {
		j := t.index(n)
		if j < 0 {
			return nil, &ColumnNotFoundError{Column: n}
		}
		fields[i] = t.Schema().Field(j)
		cols[i] = t.rec.Column(j)
	}
	return t.rebuild(fields, cols), nil
}

// Filter keeps the rows whose entry in keep is true.
func (t *Table) Filter(ctx context.Context, keep []bool) (*Table, error) {
	if len(keep) != t.NumRows() {
		return nil, fmt.Errorf("table: filter mask has %d entries, table has %d rows", len(keep), t.NumRows())
	}
	b := array.NewBooleanBuilder(t.mem)
	defer b.Release()
	b.AppendValues(keep, nil)
	mask := b.NewBooleanArray()
	defer mask.Release()

	ctx = compute.WithAllocator(ctx, t.mem)
	rec, err := compute.FilterRecordBatch(ctx, t.rec, mask, compute.DefaultFilterOptions())
	if err != nil {
		return nil, fmt.Errorf("table: failed to filter rows: %w", err)
	}
	return New(rec, t.mem), nil
}

// Fingerprint hashes the column names and types, in order. Two tables with
// the same fingerprint have the same feature layout.
func (t *Table) Fingerprint() uint64 {
	h := xxhash.New()
	for _, f := range t.Schema().Fields() {
		_, _ = h.WriteString(f.Name)
		_, _ = h.WriteString(":")
		_, _ = h.WriteString(f.Type.String())
		_, _ = h.WriteString("\n")
	}
	return h.Sum64()
}

func (t *Table) rebuild(fields []arrow.Field, cols []arrow.Array) *Table {
	schema := arrow.NewSchema(fields, nil)
	return New(array.NewRecord(schema, cols, t.rec.NumRows()), t.mem)
}

// Concat stacks tables that share schema vertically, preserving order. With
// no tables it returns an empty table of the given schema.
func Concat(mem memory.Allocator, schema *arrow.Schema, tables []*Table) (*Table, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if len(tables) == 0 {
		return Empty(mem, schema), nil
	}
	nrows := int64(0)
	for _, tbl := range tables {
		if !tbl.Schema().Equal(schema) {
			return nil, newSchemaError("", "cannot concatenate tables with different schemas", nil)
		}
		nrows += tbl.rec.NumRows()
	}
	if len(tables) == 1 {
		tables[0].Retain()
		return tables[0], nil
	}
	cols := make([]arrow.Array, schema.NumFields())
	defer releaseAll(cols)
	for i := range cols {
		parts := make([]arrow.Array, len(tables))
		for j, tbl := range tables {
			parts[j] = tbl.rec.Column(i)
		}
		col, err := array.Concatenate(parts, mem)
		if err != nil {
			return nil, fmt.Errorf("table: failed to concatenate column %q: %w", schema.Field(i).Name, err)
		}
		cols[i] = col
	}
	return New(array.NewRecord(schema, cols, nrows), mem), nil
}

// HConcat joins tables column-wise in order. All tables must have the same
// number of rows. On a name collision the later table's column wins and keeps
// the position of the first occurrence.
func HConcat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("table: nothing to concatenate")
	}
	out := tables[0]
	out.Retain()
	for _, next := range tables[1:] {
		if next.NumRows() != out.NumRows() {
			out.Release()
			return nil, newSchemaError("", fmt.Sprintf("cannot join tables with %d and %d rows", out.NumRows(), next.NumRows()), nil)
		}
		joined, err := out.WithColumns(next.Schema().Fields(), next.rec.Columns())
		out.Release()
		if err != nil {
			return nil, err
		}
		out = joined
	}
	return out, nil
}

func releaseAll(arrs []arrow.Array) {
	for _, a := range arrs {
		if a != nil {
			a.Release()
		}
	}
}
