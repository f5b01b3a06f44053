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

// Package generator produces synthetic trip data for tests and demos.
package generator

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	filesystem "github.com/arrowarc/farefeatures/integrations/filesystem"
	"github.com/arrowarc/farefeatures/pkg/table"
)

// TripOptions controls GenerateTrips.
type TripOptions struct {
	Rows int
	Seed int64
	// BatchSize is the number of rows built per Arrow record.
	BatchSize int
	// InvalidFraction of rows fall outside the NYC box or carry an
	// implausible fare.
	InvalidFraction float64
}

// DefaultTripOptions returns 10,000 rows with 5% invalid ones.
func DefaultTripOptions() TripOptions {
	return TripOptions{
		Rows:            10_000,
		Seed:            1,
		BatchSize:       1000,
		InvalidFraction: 0.05,
	}
}

// CSVSchema is the layout of the generated file: the trip columns plus the
// "key" column of the public fare dataset, which the loader ignores.
func CSVSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "key", Type: arrow.BinaryTypes.String},
		{Name: table.FareAmount, Type: arrow.PrimitiveTypes.Float32},
		{Name: table.PickupDatetime, Type: arrow.BinaryTypes.String},
		{Name: table.PickupLongitude, Type: arrow.PrimitiveTypes.Float32},
		{Name: table.PickupLatitude, Type: arrow.PrimitiveTypes.Float32},
		{Name: table.DropoffLongitude, Type: arrow.PrimitiveTypes.Float32},
		{Name: table.DropoffLatitude, Type: arrow.PrimitiveTypes.Float32},
		{Name: table.PassengerCount, Type: arrow.PrimitiveTypes.Uint8},
	}, nil)
}

var (
	firstPickup = time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC)
	lastPickup  = time.Date(2015, 6, 30, 23, 59, 0, 0, time.UTC)
)

// GenerateTrips writes opts.Rows synthetic trips as headed CSV to w.
func GenerateTrips(w io.Writer, opts TripOptions) error {
	if opts.Rows < 0 {
		return errors.New("row count must not be negative")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}
	mem := memory.NewGoAllocator()
	schema := CSVSchema()
	rnd := rand.New(rand.NewSource(opts.Seed))

	writer := filesystem.NewCSVRecordWriter(w, schema, ',', true)
	for written := 0; ; {
		n := min(opts.BatchSize, opts.Rows-written)
		rec := generateBatch(mem, schema, rnd, n, opts.InvalidFraction)
		err := writer.Write(rec)
		rec.Release()
		if err != nil {
			return err
		}
		written += n
		if written >= opts.Rows {
			break
		}
	}
	return writer.Close()
}

// GenerateTripsFile writes the trips to filePath.
func GenerateTripsFile(filePath string, opts TripOptions) error {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := GenerateTrips(f, opts); err != nil {
		return err
	}
	log.Printf("Generated trip file %s with %d rows\n", filePath, opts.Rows)
	return f.Close()
}

func generateBatch(mem memory.Allocator, schema *arrow.Schema, rnd *rand.Rand, n int, invalidFraction float64) arrow.Record {
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	span := lastPickup.Sub(firstPickup)
	for i := 0; i < n; i++ {
		pickup := firstPickup.Add(time.Duration(rnd.Int63n(int64(span)))).Truncate(time.Second)
		plon := -74.02 + rnd.Float64()*0.09
		plat := 40.70 + rnd.Float64()*0.10
		dlon := plon + (rnd.Float64()-0.5)*0.06
		dlat := plat + (rnd.Float64()-0.5)*0.06
		fare := 3 + rnd.Float64()*57
		passengers := uint8(1 + rnd.Intn(6))

		if rnd.Float64() < invalidFraction {
			switch rnd.Intn(3) {
			case 0:
				plat = 0
			case 1:
				dlon = 0
			default:
				fare = -fare
			}
		}

		b.Field(0).(*array.StringBuilder).Append(fmt.Sprintf("%s.%07d", pickup.Format("2006-01-02 15:04:05"), rnd.Intn(10_000_000)))
		b.Field(1).(*array.Float32Builder).Append(float32(fare))
		b.Field(2).(*array.StringBuilder).Append(pickup.Format("2006-01-02 15:04:05 UTC"))
		b.Field(3).(*array.Float32Builder).Append(float32(plon))
		b.Field(4).(*array.Float32Builder).Append(float32(plat))
		b.Field(5).(*array.Float32Builder).Append(float32(dlon))
		b.Field(6).(*array.Float32Builder).Append(float32(dlat))
		b.Field(7).(*array.Uint8Builder).Append(passengers)
	}
	return b.NewRecord()
}
