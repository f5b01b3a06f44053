package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/arrowarc/farefeatures/internal/arrio"
	pool "github.com/arrowarc/farefeatures/internal/memory"
	"github.com/arrowarc/farefeatures/pkg/table"
)

// Output formats accepted by WriteTable.
const (
	FormatParquet = "parquet"
	FormatIPC     = "ipc"
	FormatCSV     = "csv"
)

// DefaultBatchRows is the number of rows per record written by WriteTable.
const DefaultBatchRows = 64 * 1024

// sliceReader yields zero-copy row slices of a record. A zero-row record is
// still yielded once so that sinks emit their header or schema.
type sliceReader struct {
	rec   arrow.Record
	batch int64
	off   int64
	done  bool
}

func newSliceReader(rec arrow.Record, batch int) *sliceReader {
	if batch <= 0 {
		batch = DefaultBatchRows
	}
	return &sliceReader{rec: rec, batch: int64(batch)}
}

func (r *sliceReader) Read() (arrow.Record, error) {
	if r.done {
		return nil, io.EOF
	}
	end := min(r.off+r.batch, r.rec.NumRows())
	out := r.rec.NewSlice(r.off, end)
	r.off = end
	r.done = end >= r.rec.NumRows()
	return out, nil
}

// WriteTable encodes tbl to w in the given format, batchRows rows per
// record. The table is not released.
func WriteTable(ctx context.Context, w io.Writer, format string, tbl *table.Table, batchRows int) error {
	src := newSliceReader(tbl.Record(), batchRows)

	switch format {
	case FormatParquet:
		pw, err := NewParquetWriter(w, tbl.Schema(), nil)
		if err != nil {
			return err
		}
		if _, err := arrio.Copy(pw, src); err != nil {
			pw.Close()
			return err
		}
		return pw.Close()

	case FormatCSV:
		cw := NewCSVRecordWriter(w, tbl.Schema(), ',', true)
		if _, err := arrio.Copy(cw, src); err != nil {
			return err
		}
		return cw.Close()

	case FormatIPC:
		alloc := pool.GetAllocator()
		defer pool.PutAllocator(alloc)

		records := make(chan arrow.Record)
		errChan := WriteIPCStream(ctx, w, tbl.Schema(), alloc, records)
		func() {
			defer close(records)
			for {
				rec, err := src.Read()
				if err != nil {
					return
				}
				select {
				case records <- rec:
				case <-ctx.Done():
					rec.Release()
					return
				}
			}
		}()
		if err := <-errChan; err != nil {
			return err
		}
		return ctx.Err()

	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteTableFile writes tbl to filePath.
func WriteTableFile(ctx context.Context, filePath, format string, tbl *table.Table, batchRows int) error {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteTable(ctx, f, format, tbl, batchRows); err != nil {
		f.Close()
		return err
	}
	// The Parquet writer may already have closed f.
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}
