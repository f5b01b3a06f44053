// Package arrio exposes functions to move records between sources and sinks,
// using interfaces not unlike the ones defined in the stdlib io package.
package arrio

import (
	"errors"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
)

// Reader is the interface that wraps the Read method.
type Reader interface {
	// Read reads the next record from the underlying stream and an error, if any.
	// When the Reader reaches the end of the underlying stream, it returns (nil, io.EOF).
	// The caller owns the returned record and must release it.
	Read() (arrow.Record, error)
}

// Writer is the interface that wraps the Write method.
type Writer interface {
	Write(rec arrow.Record) error
}

// Copy copies all the records available from src to dst.
// Copy returns the number of records copied and the first error
// encountered while copying, if any.
//
// A successful Copy returns err == nil, not err == EOF. Because Copy is
// defined to read from src until EOF, it does not treat an EOF from Read as an
// error to be reported.
func Copy(dst Writer, src Reader) (n int64, err error) {
	for {
		rec, err := src.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}
		err = dst.Write(rec)
		rec.Release()
		if err != nil {
			return n, err
		}
		n++
	}
}
