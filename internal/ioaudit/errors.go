package ioaudit

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnexport/pkg/errcode"
)

// AuditInsertError is returned when an export run cannot be saved to
// export_logs.
func AuditInsertError(exportID string, err error) error {
	msg := "Cannot save export log <em>%s</em>"

	return &gn.Error{
		Code: errcode.AuditInsertError,
		Msg:  msg,
		Vars: []any{exportID},
		Err:  fmt.Errorf("insert export log %s: %w", exportID, err),
	}
}
