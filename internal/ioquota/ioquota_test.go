package ioquota_test

import (
	"context"
	"testing"
	"time"

	"github.com/gnames/gn"
	"github.com/gnames/gnexport/internal/iodb"
	"github.com/gnames/gnexport/internal/ioquota"
	"github.com/gnames/gnexport/internal/ioschema"
	"github.com/gnames/gnexport/internal/iotesting"
	"github.com/gnames/gnexport/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	limits := map[string]int{"dr1": 10, "dr2": 0}
	q := ioquota.NewStatic(limits)
	limits["dr1"] = 100

	tests := []struct {
		msg    string
		source string
		res    int
		ok     bool
	}{
		{"limited", "dr1", 10, true},
		{"exhausted", "dr2", 0, true},
		{"unknown", "dr3", 0, false},
	}

	for _, v := range tests {
		res, ok, err := q.RemainingQuota(context.Background(), v.source)
		require.NoError(t, err, v.msg)
		assert.Equal(t, v.ok, ok, v.msg)
		assert.Equal(t, v.res, res, v.msg)
	}
}

func TestPostgresNotConnected(t *testing.T) {
	q := ioquota.NewPostgres(iodb.NewPgxOperator())
	_, _, err := q.RemainingQuota(context.Background(), "dr1")
	require.Error(t, err)
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok)
	assert.Equal(t, errcode.QuotaLookupError, gnErr.Code)
}

func TestPostgres(t *testing.T) {
	op := iotesting.ConnectOrSkip(t)
	ctx := context.Background()
	require.NoError(t, ioschema.NewManager(op).Create(ctx))

	pool := op.Pool()
	_, err := pool.Exec(ctx, `
INSERT INTO download_limits (source_id, remaining, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (source_id) DO UPDATE SET remaining = EXCLUDED.remaining`,
		"dr-test", 42, time.Now())
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(ctx, "DELETE FROM download_limits WHERE source_id = $1", "dr-test")
	})

	q := ioquota.NewPostgres(op)
	res, ok, err := q.RemainingQuota(ctx, "dr-test")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, res)

	_, ok, err = q.RemainingQuota(ctx, "dr-missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
