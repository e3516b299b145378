package iofields

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnexport/pkg/errcode"
)

// FieldsConfigError creates an error for when fields.yaml
// cannot be loaded.
func FieldsConfigError(path string, err error) error {
	msg := `Cannot load field catalogue

<em>Catalogue file:</em> %s

<em>Possible causes:</em>
  - Invalid YAML format
  - Duplicate field names or aliases
  - Sensitive mapping without a public field

<em>How to fix:</em>
  1. Validate YAML syntax
  2. Remove the file to restore defaults: <em>rm %s</em>`

	vars := []any{path, path}

	return &gn.Error{
		Code: errcode.FieldsConfigError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to load field catalogue: %w", err),
	}
}
