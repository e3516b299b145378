// Package ioquota implements export.QuotaSource. Quotas are either given
// as a static map or read from the download_limits table in PostgreSQL.
// Limits are refreshed out of band, these implementations only read them.
package ioquota

import (
	"context"
	"errors"
	"log/slog"
	"maps"

	"github.com/gnames/gnexport/pkg/db"
	"github.com/gnames/gnexport/pkg/export"
	"github.com/jackc/pgx/v5"
)

// Static is a QuotaSource backed by an in-memory map.
type Static map[string]int

// NewStatic copies limits into a new Static quota source.
func NewStatic(limits map[string]int) Static {
	if limits == nil {
		return Static{}
	}
	return Static(maps.Clone(limits))
}

// RemainingQuota returns the limit of a source.
func (s Static) RemainingQuota(
	_ context.Context,
	sourceID string,
) (int, bool, error) {
	res, ok := s[sourceID]
	return res, ok, nil
}

type pgQuota struct {
	operator db.Operator
}

// NewPostgres creates a QuotaSource that reads the download_limits table.
func NewPostgres(op db.Operator) export.QuotaSource {
	return &pgQuota{operator: op}
}

const remainingQuery = `
SELECT remaining FROM download_limits WHERE source_id = $1`

func (q *pgQuota) RemainingQuota(
	ctx context.Context,
	sourceID string,
) (int, bool, error) {
	pool := q.operator.Pool()
	if pool == nil {
		return 0, false, QuotaLookupError(sourceID, errors.New("not connected"))
	}

	var res int
	err := pool.QueryRow(ctx, remainingQuery, sourceID).Scan(&res)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, QuotaLookupError(sourceID, err)
	}
	slog.Debug("Download limit", "source", sourceID, "remaining", res)
	return res, true, nil
}
