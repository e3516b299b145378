package ioindex

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnexport/pkg/errcode"
)

// IndexConnectionError is returned when the index cannot be reached.
func IndexConnectionError(url string, err error) error {
	msg := "Cannot reach occurrence index at <em>%s</em>"
	vars := []any{url}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.IndexConnectionError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: index request failed: %w", fn.Name(), err),
	}
}

// IndexResponseError is returned when the index rejects a request or
// returns a response that cannot be decoded.
func IndexResponseError(status int, detail string, err error) error {
	msg := "Occurrence index returned an error (status %d): %s"
	vars := []any{status, detail}
	return &gn.Error{
		Code: errcode.IndexResponseError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("index response %d %s: %w", status, detail, err),
	}
}

// IndexOpenError is returned when a local index cannot be opened.
func IndexOpenError(path string, err error) error {
	msg := "Cannot open local index <em>%s</em>"
	vars := []any{path}
	return &gn.Error{
		Code: errcode.IndexOpenError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot open local index %s: %w", path, err),
	}
}

// IndexLoadError is returned when occurrences cannot be loaded into a
// local index.
func IndexLoadError(path string, line int, err error) error {
	msg := "Cannot load occurrences from <em>%s</em> (line %d)"
	vars := []any{path, line}
	return &gn.Error{
		Code: errcode.IndexLoadError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot load %s line %d: %w", path, line, err),
	}
}

// QueryFilterError is returned when a clause cannot be translated for the
// local index.
func QueryFilterError(clause string, err error) error {
	msg := "Unsupported query clause <em>%s</em>"
	vars := []any{clause}
	return &gn.Error{
		Code: errcode.QueryFilterError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot translate clause %q: %w", clause, err),
	}
}
