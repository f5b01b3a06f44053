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

// Package loader reads raw trip records into a typed trip table.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	filesystem "github.com/arrowarc/farefeatures/integrations/filesystem"
	"github.com/arrowarc/farefeatures/internal/arrio"
	"github.com/arrowarc/farefeatures/internal/logging"
	pool "github.com/arrowarc/farefeatures/internal/memory"
	"github.com/arrowarc/farefeatures/pkg/table"
)

// DefaultChunkSize is the number of rows typed per batch.
const DefaultChunkSize = 5_000_000

// TimestampLayout is the layout pickup_datetime is parsed with after
// truncation to minute precision.
const TimestampLayout = "2006-01-02 15:04"

// Options configures a load.
type Options struct {
	ChunkSize int
	Delimiter rune
	Allocator memory.Allocator
	Logger    log.Logger
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		ChunkSize: DefaultChunkSize,
		Delimiter: ',',
	}
}

// ReadTrainingData loads the trip CSV at path.
func ReadTrainingData(ctx context.Context, path string, opts Options) (*table.Table, error) {
	if path == "" {
		return nil, errors.New("CSV file path cannot be empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	return Load(ctx, f, opts)
}

// Load reads a headed, delimited trip stream from r. Only the seven trip
// columns are kept; rows are typed one chunk at a time and the chunks are
// concatenated in order.
func Load(ctx context.Context, r io.Reader, opts Options) (*table.Table, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	mem := pool.OrDefault(opts.Allocator)
	logger := logging.OrNop(opts.Logger)

	rdr, err := filesystem.NewCSVRecordReader(r, &filesystem.CSVReadOptions{
		ChunkSize: opts.ChunkSize,
		Delimiter: opts.Delimiter,
		Allocator: mem,
	})
	if err != nil {
		return nil, err
	}
	defer rdr.Close()

	positions, err := columnPositions(rdr.Header())
	if err != nil {
		return nil, err
	}

	chunks, err := readChunks(ctx, rdr, mem, positions, logger)
	defer func() {
		for _, c := range chunks {
			c.Release()
		}
	}()
	if err != nil {
		return nil, err
	}

	out, err := table.Concat(mem, table.TripSchema(), chunks)
	if err != nil {
		return nil, err
	}
	level.Info(logger).Log("msg", "loaded trip records", "rows", out.NumRows(), "chunks", len(chunks))
	return out, nil
}

// columnPositions maps each trip column to its index in the source header.
func columnPositions(header []string) (map[string]int, error) {
	seen := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, ok := seen[name]; !ok {
			seen[name] = i
		}
	}
	positions := make(map[string]int, len(table.TripColumns()))
	for _, name := range table.TripColumns() {
		i, ok := seen[name]
		if !ok {
			return nil, &table.SchemaError{Column: name, Reason: "required column missing from source"}
		}
		positions[name] = i
	}
	return positions, nil
}

func readChunks(ctx context.Context, src arrio.Reader, mem memory.Allocator, positions map[string]int, logger log.Logger) ([]*table.Table, error) {
	var (
		chunks []*table.Table
		offset int
	)
	for {
		if err := ctx.Err(); err != nil {
			return chunks, err
		}
		rec, err := src.Read()
		if errors.Is(err, io.EOF) {
			return chunks, nil
		}
		if err != nil {
			return chunks, rowError(err, offset)
		}
		chunk, err := typeChunk(mem, rec, positions, offset)
		n := int(rec.NumRows())
		rec.Release()
		if err != nil {
			return chunks, err
		}
		level.Debug(logger).Log("msg", "typed chunk", "first_row", offset, "rows", n)
		chunks = append(chunks, chunk)
		offset += n
	}
}

// rowError classifies a reader failure as a ParseError. When the reader
// cannot name the row, the first row of the failing chunk is reported.
func rowError(err error, offset int) error {
	var rerr *filesystem.CSVRowError
	if !errors.As(err, &rerr) {
		return &table.ParseError{Row: offset, Err: err}
	}
	row := rerr.Row
	if row < 0 {
		row = offset
	}
	return &table.ParseError{Row: row, Err: rerr.Err}
}

// typeChunk coerces one all-string chunk into the trip schema. offset is the
// index of the chunk's first data row in the source, used in error reports.
func typeChunk(mem memory.Allocator, rec arrow.Record, positions map[string]int, offset int) (*table.Table, error) {
	schema := table.TripSchema()
	cols := make([]arrow.Array, 0, schema.NumFields())
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	for _, field := range schema.Fields() {
		raw, ok := rec.Column(positions[field.Name]).(*array.String)
		if !ok {
			return nil, &table.SchemaError{Column: field.Name, Reason: "expected text column from CSV reader"}
		}
		var (
			col arrow.Array
			err error
		)
		switch field.Name {
		case table.PickupDatetime:
			col, err = parseTimestamps(mem, raw, offset)
		case table.PassengerCount:
			col, err = parseUint8s(mem, field.Name, raw, offset)
		default:
			col, err = parseFloat32s(mem, field.Name, raw, offset)
		}
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return table.FromColumns(mem, schema.Fields(), cols)
}

// ParseTimestamp truncates s to minute precision and parses it as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if len(s) > len(TimestampLayout) {
		s = s[:len(TimestampLayout)]
	}
	return time.ParseInLocation(TimestampLayout, s, time.UTC)
}

func parseTimestamps(mem memory.Allocator, raw *array.String, offset int) (arrow.Array, error) {
	b := array.NewTimestampBuilder(mem, table.PickupTimestampType)
	defer b.Release()
	b.Reserve(raw.Len())
	for i := 0; i < raw.Len(); i++ {
		s := raw.Value(i)
		ts, err := ParseTimestamp(s)
		if err != nil {
			return nil, &table.ParseError{Column: table.PickupDatetime, Row: offset + i, Value: s, Err: err}
		}
		b.Append(arrow.Timestamp(ts.Unix()))
	}
	return b.NewArray(), nil
}

func parseFloat32s(mem memory.Allocator, name string, raw *array.String, offset int) (arrow.Array, error) {
	b := array.NewFloat32Builder(mem)
	defer b.Release()
	b.Reserve(raw.Len())
	for i := 0; i < raw.Len(); i++ {
		s := strings.TrimSpace(raw.Value(i))
		if s == "" {
			b.Append(float32(math.NaN()))
			continue
		}
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, coerceError(name, "float32", offset+i, s, err)
		}
		b.Append(float32(v))
	}
	return b.NewArray(), nil
}

func parseUint8s(mem memory.Allocator, name string, raw *array.String, offset int) (arrow.Array, error) {
	b := array.NewUint8Builder(mem)
	defer b.Release()
	b.Reserve(raw.Len())
	for i := 0; i < raw.Len(); i++ {
		s := strings.TrimSpace(raw.Value(i))
		v, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return nil, coerceError(name, "uint8", offset+i, s, err)
		}
		b.Append(uint8(v))
	}
	return b.NewArray(), nil
}

// coerceError is a SchemaError wrapping the ParseError of the offending
// value, so callers can match either.
func coerceError(column, typ string, row int, value string, err error) error {
	return &table.SchemaError{
		Column: column,
		Reason: fmt.Sprintf("cannot coerce to %s", typ),
		Err:    &table.ParseError{Column: column, Row: row, Value: value, Err: err},
	}
}
