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

package utils

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
)

// DescribeRecord writes the row and column counts of record followed by one
// line per column.
func DescribeRecord(w io.Writer, record arrow.Record) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if _, err := fmt.Fprintf(w, "Record batch with %d rows and %d columns\n", record.NumRows(), record.NumCols()); err != nil {
		return err
	}
	for i, field := range record.Schema().Fields() {
		if _, err := fmt.Fprintf(w, "Column %d: %s, Type: %s\n", i, field.Name, field.Type); err != nil {
			return err
		}
	}
	return nil
}

// HeadJSON writes the first n rows of record as a JSON array of objects.
func HeadJSON(w io.Writer, record arrow.Record, n int) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if n < 0 {
		return fmt.Errorf("row count must not be negative, got %d", n)
	}
	head := record.NewSlice(0, min(int64(n), record.NumRows()))
	defer head.Release()

	out, err := head.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal Arrow batch to JSON: %w", err)
	}
	_, err = w.Write(out)
	return err
}
