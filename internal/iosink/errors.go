package iosink

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnexport/pkg/errcode"
)

// SinkFormatError is returned for unknown output formats.
func SinkFormatError(format string) error {
	msg := "Unknown output format <em>%s</em>, use csv or tsv"
	vars := []any{format}
	return &gn.Error{
		Code: errcode.SinkFormatError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("unknown output format %q", format),
	}
}

// SinkWriteError is returned when a record cannot be written.
func SinkWriteError(row int, err error) error {
	msg := "Cannot write record %d to the output"
	vars := []any{row}
	return &gn.Error{
		Code: errcode.SinkWriteError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot write record %d: %w", row, err),
	}
}

// SinkFinalizeError is returned when the output cannot be flushed or
// closed.
func SinkFinalizeError(err error) error {
	msg := "Cannot finish writing the output"
	return &gn.Error{
		Code: errcode.SinkFinalizeError,
		Msg:  msg,
		Err:  fmt.Errorf("cannot finalize output: %w", err),
	}
}

// SinkCreateError is returned when the output file cannot be created.
func SinkCreateError(path string, err error) error {
	msg := "Cannot create output file <em>%s</em>"
	vars := []any{path}
	return &gn.Error{
		Code: errcode.SinkCreateError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot create %s: %w", path, err),
	}
}
