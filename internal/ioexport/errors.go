package ioexport

import (
	"fmt"
	"time"

	"github.com/gnames/gn"
	"github.com/gnames/gnexport/pkg/errcode"
	"github.com/gnames/gnfmt"
)

// ExportPlanningError is returned when a request cannot be split into
// sub-queries. No records are fetched in this case.
func ExportPlanningError(err error) error {
	msg := `Cannot plan export

<em>Possible causes:</em>
  - Query or filters are malformed
  - Index rejected the query

<em>How to fix:</em>
  1. Check quotes and parentheses of the query
  2. Check that filter fields exist in the index`

	return &gn.Error{
		Code: errcode.ExportPlanningError,
		Msg:  msg,
		Err:  fmt.Errorf("planning: %w", err),
	}
}

// ExportIndexError is returned when the index keeps failing after all
// retries.
func ExportIndexError(subQuery int, err error) error {
	msg := "Index failed on sub-query <em>%d</em>"

	return &gn.Error{
		Code: errcode.ExportIndexError,
		Msg:  msg,
		Vars: []any{subQuery},
		Err:  fmt.Errorf("index, sub-query %d: %w", subQuery, err),
	}
}

// ExportTimeoutError is returned when an export exceeds one of its time
// budgets.
func ExportTimeoutError(budget string, d time.Duration) error {
	msg := "Export exceeded %s time of <em>%s</em>"
	dur := gnfmt.TimeString(d.Seconds())

	return &gn.Error{
		Code: errcode.ExportTimeoutError,
		Msg:  msg,
		Vars: []any{budget, dur},
		Err:  fmt.Errorf("%s time %s exceeded", budget, d),
	}
}

// ExportInterruptedError is returned when an export is cancelled by the
// caller.
func ExportInterruptedError(err error) error {
	msg := "Export was interrupted"

	return &gn.Error{
		Code: errcode.ExportInterruptedError,
		Msg:  msg,
		Err:  fmt.Errorf("interrupted: %w", err),
	}
}

// ExportSinkError is returned when records cannot be written to the
// output.
func ExportSinkError(err error) error {
	msg := "Cannot write export output"

	return &gn.Error{
		Code: errcode.ExportSinkError,
		Msg:  msg,
		Err:  fmt.Errorf("sink: %w", err),
	}
}
