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
	"bufio"
	encsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/csv"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// CSVReadOptions configures a CSVRecordReader.
type CSVReadOptions struct {
	ChunkSize int
	Delimiter rune
	Allocator memory.Allocator
}

// CSVRecordReader reads a headed CSV stream in chunks of ChunkSize rows.
// Every column is read as a string; typing is left to the caller so that
// coercion failures can be reported per column.
type CSVRecordReader struct {
	reader *csv.Reader
	header []string
	err    error
}

// ErrRaggedRow is reported when a data row does not have one field per
// header column.
var ErrRaggedRow = errors.New("row field count does not match header")

// CSVRowError reports a data row the reader could not split into fields.
// Row is the zero-based data row, or -1 when only the chunk is known.
type CSVRowError struct {
	Row int
	Err error
}

func (e *CSVRowError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("error reading CSV record: %v", e.Err)
	}
	return fmt.Sprintf("error reading CSV data row %d: %v", e.Row, e.Err)
}

func (e *CSVRowError) Unwrap() error {
	return e.Err
}

// NewCSVRecordReader reads the header line from r and prepares a chunked
// reader over the remaining rows.
func NewCSVRecordReader(r io.Reader, opts *CSVReadOptions) (*CSVRecordReader, error) {
	if opts.ChunkSize <= 0 {
		return nil, errors.New("chunk size must be greater than zero")
	}
	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}
	mem := opts.Allocator
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	br := bufio.NewReader(r)
	header, err := readHeader(br, delimiter)
	if err != nil {
		return nil, err
	}

	fields := make([]arrow.Field, len(header))
	for i, name := range header {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String}
	}
	schema := arrow.NewSchema(fields, nil)

	reader := csv.NewReader(br, schema,
		csv.WithAllocator(mem),
		csv.WithChunk(opts.ChunkSize),
		csv.WithComma(delimiter),
		csv.WithHeader(false),
	)
	return &CSVRecordReader{reader: reader, header: header}, nil
}

func readHeader(br *bufio.Reader, delimiter rune) ([]string, error) {
	line, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	line = strings.TrimPrefix(line, "\ufeff")
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, errors.New("CSV source has no header")
	}
	hr := encsv.NewReader(strings.NewReader(line))
	hr.Comma = delimiter
	hr.TrimLeadingSpace = true
	header, err := hr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV header: %w", err)
	}
	return header, nil
}

// Header returns the column names of the source, in file order.
func (r *CSVRecordReader) Header() []string {
	return r.header
}

// Read returns the next chunk. The caller must release it. Once a row fails
// to split, every later call returns the same error.
func (r *CSVRecordReader) Read() (arrow.Record, error) {
	if r.err != nil {
		return nil, r.err
	}
	ok, err := r.next()
	if err != nil {
		r.err = err
		return nil, err
	}
	if !ok {
		if err := r.reader.Err(); err != nil && !errors.Is(err, io.EOF) {
			r.err = rowError(err)
			return nil, r.err
		}
		return nil, io.EOF
	}

	record := r.reader.Record()
	if record == nil {
		return nil, io.EOF
	}

	record.Retain() // the reader reuses its record on the next call
	return record, nil
}

// next advances the arrow reader. A ragged row makes arrow/csv build a record
// from columns of unequal length, which panics.
func (r *CSVRecordReader) next() (ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &CSVRowError{Row: -1, Err: fmt.Errorf("%w: %v", ErrRaggedRow, p)}
		}
	}()
	return r.reader.Next(), nil
}

// rowError locates err in the data rows. The header line is consumed before
// the arrow reader starts, so its line 1 is data row 0.
func rowError(err error) error {
	if errors.Is(err, encsv.ErrFieldCount) || errors.Is(err, csv.ErrMismatchFields) {
		err = fmt.Errorf("%w: %w", ErrRaggedRow, err)
	}
	var perr *encsv.ParseError
	if errors.As(err, &perr) && perr.Line > 0 {
		return &CSVRowError{Row: perr.Line - 1, Err: err}
	}
	return &CSVRowError{Row: -1, Err: err}
}

// Close releases resources associated with the CSV reader.
func (r *CSVRecordReader) Close() error {
	if r.reader != nil {
		r.reader.Release()
	}
	return nil
}

// CSVRecordWriter writes records to a CSV stream.
type CSVRecordWriter struct {
	writer *csv.Writer
}

// NewCSVRecordWriter creates a writer for records of the given schema.
func NewCSVRecordWriter(w io.Writer, schema *arrow.Schema, delimiter rune, includeHeader bool) *CSVRecordWriter {
	if delimiter == 0 {
		delimiter = ','
	}
	writer := csv.NewWriter(w, schema,
		csv.WithComma(delimiter),
		csv.WithHeader(includeHeader),
	)
	return &CSVRecordWriter{writer: writer}
}

// Write writes a record to the CSV stream.
func (w *CSVRecordWriter) Write(record arrow.Record) error {
	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record to CSV: %w", err)
	}

	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("CSV writer encountered an error: %w", err)
	}

	return nil
}

// Close flushes the CSV writer.
func (w *CSVRecordWriter) Close() error {
	w.writer.Flush()
	return w.writer.Error()
}
