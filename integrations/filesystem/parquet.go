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

package filesystem

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	pool "github.com/arrowarc/farefeatures/internal/memory"
)

// ParquetReader reads feature files back as Arrow records.
type ParquetReader struct {
	recordReader pqarrow.RecordReader
	fileReader   *file.Reader
	schema       *arrow.Schema
	alloc        memory.Allocator
}

// ParquetReadOptions defines options for reading Parquet files.
type ParquetReadOptions struct {
	ColumnIndices []int
	RowGroups     []int
	BatchSize     int64
}

func (o *ParquetReadOptions) toArrowReadProperties() pqarrow.ArrowReadProperties {
	batch := o.BatchSize
	if batch <= 0 {
		batch = 64 * 1024
	}
	return pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: batch,
	}
}

// NewDefaultParquetWriterProperties returns the writer properties used for
// feature files.
func NewDefaultParquetWriterProperties() *parquet.WriterProperties {
	return parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithVersion(parquet.V2_LATEST),
		parquet.WithDataPageSize(1024*1024),
		parquet.WithMaxRowGroupLength(1024*1024),
		parquet.WithCreatedBy("farefeatures"),
	)
}

// NewParquetReader opens r, which must support random access.
func NewParquetReader(ctx context.Context, r parquet.ReaderAtSeeker, opts *ParquetReadOptions) (*ParquetReader, error) {
	if opts == nil {
		opts = &ParquetReadOptions{}
	}
	alloc := pool.GetAllocator()

	rdr, err := file.NewParquetReader(r)
	if err != nil {
		pool.PutAllocator(alloc)
		return nil, fmt.Errorf("failed to open Parquet file: %w", err)
	}

	fileReader, err := pqarrow.NewFileReader(rdr, opts.toArrowReadProperties(), alloc)
	if err != nil {
		pool.PutAllocator(alloc)
		rdr.Close()
		return nil, fmt.Errorf("failed to create Arrow file reader: %w", err)
	}

	schema, err := fileReader.Schema()
	if err != nil {
		pool.PutAllocator(alloc)
		rdr.Close()
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	recordReader, err := fileReader.GetRecordReader(ctx, opts.ColumnIndices, opts.RowGroups)
	if err != nil {
		pool.PutAllocator(alloc)
		rdr.Close()
		return nil, fmt.Errorf("failed to create record reader: %w", err)
	}

	return &ParquetReader{
		recordReader: recordReader,
		fileReader:   rdr,
		schema:       schema,
		alloc:        alloc,
	}, nil
}

// Read returns the next record. The caller owns it.
func (p *ParquetReader) Read() (arrow.Record, error) {
	if p.recordReader.Next() {
		record := p.recordReader.Record()
		record.Retain()
		return record, nil
	}
	if err := p.recordReader.Err(); err != nil && err != io.EOF {
		return nil, err
	}
	return nil, io.EOF
}

func (p *ParquetReader) Close() error {
	defer pool.PutAllocator(p.alloc)
	p.recordReader.Release()
	return p.fileReader.Close()
}

func (p *ParquetReader) Schema() *arrow.Schema {
	return p.schema
}

// ParquetWriter writes records to a Parquet stream.
type ParquetWriter struct {
	writer *pqarrow.FileWriter
}

// NewParquetWriter writes the Arrow schema into the file metadata so that
// float32 and uint8 columns read back with their original types.
func NewParquetWriter(w io.Writer, schema *arrow.Schema, props *parquet.WriterProperties) (*ParquetWriter, error) {
	if props == nil {
		props = NewDefaultParquetWriterProperties()
	}
	writer, err := pqarrow.NewFileWriter(schema, w, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return nil, fmt.Errorf("failed to create Parquet writer: %w", err)
	}
	return &ParquetWriter{writer: writer}, nil
}

func (p *ParquetWriter) Write(record arrow.Record) error {
	if err := p.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close flushes the footer. pqarrow also closes the underlying writer when it
// is an io.Closer.
func (p *ParquetWriter) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Parquet writer: %w", err)
	}
	return nil
}
