// Package iosink implements output sinks of occurrence exports.
package iosink

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// Delimited writes records as CSV or TSV. The output can be wrapped into a
// zip archive with a single data entry.
//
// Finalize may run concurrently with Write, it waits for the write in
// progress.
type Delimited struct {
	mu        sync.Mutex
	csv       *csv.Writer
	zip       *zip.Writer
	closer    io.Closer
	rows      int
	finalized atomic.Bool
}

// Formats lists supported output formats.
var Formats = []string{"csv", "tsv"}

// NewDelimited creates a delimited sink writing to w. If w is an
// io.Closer it is closed on Finalize. If compressed is true, the data is
// written as entry "<name>.<format>" of a zip archive.
func NewDelimited(
	w io.Writer,
	format string,
	compressed bool,
	name string,
) (*Delimited, error) {
	format = strings.ToLower(format)
	var comma rune
	switch format {
	case "", "csv":
		format = "csv"
		comma = ','
	case "tsv":
		comma = '\t'
	default:
		return nil, SinkFormatError(format)
	}

	res := &Delimited{}
	if c, ok := w.(io.Closer); ok {
		res.closer = c
	}
	if compressed {
		if name == "" {
			name = "data"
		}
		res.zip = zip.NewWriter(w)
		entry, err := res.zip.Create(name + "." + format)
		if err != nil {
			return nil, SinkWriteError(0, err)
		}
		w = entry
	}
	res.csv = csv.NewWriter(w)
	res.csv.Comma = comma
	return res, nil
}

// WriteHeader writes the header row.
func (d *Delimited) WriteHeader(headers []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized.Load() {
		return SinkWriteError(0, errors.New("sink is finalized"))
	}
	if err := d.csv.Write(headers); err != nil {
		return SinkWriteError(0, err)
	}
	return nil
}

// Write writes one record.
func (d *Delimited) Write(fields []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized.Load() {
		return SinkWriteError(d.rows+1, errors.New("sink is finalized"))
	}
	d.rows++
	if err := d.csv.Write(fields); err != nil {
		return SinkWriteError(d.rows, err)
	}
	return nil
}

// Rows returns the number of written records.
func (d *Delimited) Rows() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rows
}

// Finalize flushes buffered data and closes the output. Only the first
// call has an effect.
func (d *Delimited) Finalize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.finalized.CompareAndSwap(false, true) {
		return nil
	}

	d.csv.Flush()
	errs := []error{d.csv.Error()}
	if d.zip != nil {
		errs = append(errs, d.zip.Close())
	}
	if d.closer != nil {
		errs = append(errs, d.closer.Close())
	}
	if err := errors.Join(errs...); err != nil {
		return SinkFinalizeError(err)
	}
	return nil
}

// IsFinalized reports if Finalize was called.
func (d *Delimited) IsFinalized() bool {
	return d.finalized.Load()
}
