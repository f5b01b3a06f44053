package filesystem

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// ReadIPCStream decodes an Arrow IPC stream from r. Records are sent on the
// returned channel and owned by the receiver. Both channels are closed when
// the stream ends.
func ReadIPCStream(ctx context.Context, r io.Reader, mem memory.Allocator) (<-chan arrow.Record, <-chan error) {
	recordChan := make(chan arrow.Record)
	errChan := make(chan error, 1)

	go func() {
		defer close(recordChan)
		defer close(errChan)

		reader, err := ipc.NewReader(r, ipc.WithAllocator(mem))
		if err != nil {
			errChan <- fmt.Errorf("failed to create IPC reader: %w", err)
			return
		}
		defer reader.Release()

		for reader.Next() {
			record := reader.Record()
			record.Retain()
			select {
			case <-ctx.Done():
				record.Release()
				errChan <- ctx.Err()
				return
			case recordChan <- record:
			}
		}
		if err := reader.Err(); err != nil && err != io.EOF {
			errChan <- fmt.Errorf("error reading IPC stream: %w", err)
		}
	}()

	return recordChan, errChan
}

// WriteIPCStream encodes every record received on records to w as an Arrow
// IPC stream and releases it. The returned channel yields at most one error
// and is closed once records is drained or ctx is done.
func WriteIPCStream(ctx context.Context, w io.Writer, schema *arrow.Schema, mem memory.Allocator, records <-chan arrow.Record) <-chan error {
	errChan := make(chan error, 1)

	go func() {
		defer close(errChan)

		ww := ipc.NewWriter(w, ipc.WithAllocator(mem), ipc.WithSchema(schema))
		fail := func(err error) {
			for record := range records {
				record.Release()
			}
			errChan <- err
		}

		for {
			select {
			case <-ctx.Done():
				ww.Close()
				fail(ctx.Err())
				return
			case record, ok := <-records:
				if !ok {
					if err := ww.Close(); err != nil {
						errChan <- fmt.Errorf("could not close writer: %w", err)
					}
					return
				}
				err := ww.Write(record)
				record.Release()
				if err != nil {
					ww.Close()
					fail(fmt.Errorf("could not write record: %w", err))
					return
				}
			}
		}
	}()

	return errChan
}
