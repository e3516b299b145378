// Package ioaudit saves a summary of every export run to the export_logs
// table.
package ioaudit

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gnames/gnexport/pkg/db"
	"github.com/gnames/gnexport/pkg/export"
	"github.com/gnames/gnfmt"
)

// Export statuses.
const (
	StatusCompleted   = "completed"
	StatusTimeout     = "timeout"
	StatusInterrupted = "interrupted"
	StatusAborted     = "aborted"
	StatusFailed      = "failed"
)

type auditLog struct {
	operator db.Operator
	enc      gnfmt.Encoder
}

// New creates an AuditLog that writes to PostgreSQL.
func New(op db.Operator) export.AuditLog {
	return &auditLog{operator: op, enc: gnfmt.GNjson{}}
}

// Status summarises the outcome of an export.
func Status(res *export.Result, exportErr error) string {
	switch {
	case res == nil:
		return StatusFailed
	case res.TimedOut:
		return StatusTimeout
	case res.Interrupted:
		return StatusInterrupted
	case res.Aborted:
		return StatusAborted
	case exportErr != nil:
		return StatusFailed
	default:
		return StatusCompleted
	}
}

const insertLog = `
INSERT INTO export_logs
  (id, query_id, query, filters, format, fields, headers,
   total_found, accepted, written, dropped, stats,
   status, error, duration_ms, created_at)
VALUES
  ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

// Log saves one export run. Runs that failed during planning have no
// Result and are logged to slog only.
func (a *auditLog) Log(
	ctx context.Context,
	req export.Request,
	res *export.Result,
	exportErr error,
) error {
	if res == nil {
		slog.Warn("Export failed before planning finished",
			"query", req.Query, "error", exportErr)
		return nil
	}

	pool := a.operator.Pool()
	if pool == nil {
		return AuditInsertError(res.ExportID, errors.New("not connected"))
	}

	stats, err := a.enc.Encode(res.Stats)
	if err != nil {
		return AuditInsertError(res.ExportID, err)
	}

	var errMsg string
	if exportErr != nil {
		errMsg = exportErr.Error()
	}

	_, err = pool.Exec(ctx, insertLog,
		res.ExportID, res.QueryID, req.Query, strings.Join(req.Filters, "\n"),
		req.Format, strings.Join(res.Fields, ","), strings.Join(res.Headers, ","),
		res.TotalFound, res.Accepted, res.Written, res.Dropped, string(stats),
		Status(res, exportErr), errMsg, res.Duration.Milliseconds(), time.Now(),
	)
	if err != nil {
		return AuditInsertError(res.ExportID, err)
	}

	slog.Info("Export logged", "id", res.ExportID, "status", Status(res, exportErr))
	return nil
}
