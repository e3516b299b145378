package ioquota

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnexport/pkg/errcode"
)

// QuotaLookupError is returned when remaining quota of a source cannot be
// read from the database.
func QuotaLookupError(source string, err error) error {
	msg := `Cannot read download limit for source <em>%s</em>

<em>Possible causes:</em>
  - Database is not reachable
  - Table download_limits does not exist

<em>How to fix:</em>
  1. Run 'gnexport create' to create tables
  2. Check database settings in config.yaml`

	return &gn.Error{
		Code: errcode.QuotaLookupError,
		Msg:  msg,
		Vars: []any{source},
		Err:  fmt.Errorf("quota lookup for %s: %w", source, err),
	}
}
