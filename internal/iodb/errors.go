package iodb

import (
	"errors"
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnexport/pkg/config"
	"github.com/gnames/gnexport/pkg/errcode"
)

// ConnectionError is returned when database connection fails.
func ConnectionError(cfg *config.DatabaseConfig, err error) error {
	msg := `Could not connect to PostgreSQL database

<em>Possible causes:</em>
  - PostgreSQL is not running
  - Database configuration is incorrect
  - Network connectivity issues

<em>How to fix:</em>
  1. Check if PostgreSQL is running:
     <em>pg_isready -h %s -p %d</em>
  2. Verify database exists:
     <em>psql -h %s -U %s -l</em>
  3. Check your configuration file:
     <em>~/.config/gnexport/config.yaml</em>`

	vars := []any{cfg.Host, cfg.Port, cfg.Host, cfg.User}
	return &gn.Error{
		Code: errcode.DBConnectionError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("failed to connect to %s:%d/%s: %w",
			cfg.Host, cfg.Port, cfg.Database, err),
	}
}

// NotConnectedError is returned when an operation needs a pool but the
// operator is not connected.
func NotConnectedError() error {
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  "Database is not connected",
		Err:  errors.New("database is not connected"),
	}
}

// TableCheckError is returned when checking for a table fails.
func TableCheckError(table string, err error) error {
	msg := "Cannot check if table <em>%s</em> exists"
	vars := []any{table}
	return &gn.Error{
		Code: errcode.DBTableCheckError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot check table %s: %w", table, err),
	}
}
