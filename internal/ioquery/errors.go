package ioquery

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnexport/pkg/errcode"
)

// QueryEmptyError is returned for a blank query.
func QueryEmptyError() error {
	msg := `Query is empty

<em>How to fix:</em>
  Use '*:*' to export all records`

	return &gn.Error{
		Code: errcode.QueryEmptyError,
		Msg:  msg,
		Err:  fmt.Errorf("empty query"),
	}
}

// QueryMalformedError is returned when quotes, parentheses or brackets of
// a query or filter are not balanced.
func QueryMalformedError(q, problem string) error {
	msg := "Malformed query <em>%s</em>: %s"

	return &gn.Error{
		Code: errcode.QueryMalformedError,
		Msg:  msg,
		Vars: []any{q, problem},
		Err:  fmt.Errorf("malformed query %q: %s", q, problem),
	}
}
