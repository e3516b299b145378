package ioaudit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gnames/gn"
	"github.com/gnames/gnexport/internal/ioaudit"
	"github.com/gnames/gnexport/internal/iodb"
	"github.com/gnames/gnexport/internal/ioschema"
	"github.com/gnames/gnexport/internal/iotesting"
	"github.com/gnames/gnexport/pkg/errcode"
	"github.com/gnames/gnexport/pkg/export"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		msg string
		res *export.Result
		err error
		st  string
	}{
		{"no result", nil, errors.New("bad query"), ioaudit.StatusFailed},
		{"completed", &export.Result{}, nil, ioaudit.StatusCompleted},
		{"timeout", &export.Result{TimedOut: true, Aborted: true},
			errors.New("timeout"), ioaudit.StatusTimeout},
		{"interrupted", &export.Result{Interrupted: true, Aborted: true},
			errors.New("interrupted"), ioaudit.StatusInterrupted},
		{"aborted", &export.Result{Aborted: true},
			errors.New("index"), ioaudit.StatusAborted},
		{"failed", &export.Result{}, errors.New("sink"), ioaudit.StatusFailed},
	}

	for _, v := range tests {
		assert.Equal(t, v.st, ioaudit.Status(v.res, v.err), v.msg)
	}
}

func TestLogNotConnected(t *testing.T) {
	a := ioaudit.New(iodb.NewPgxOperator())
	ctx := context.Background()

	// nothing to save without result
	require.NoError(t, a.Log(ctx, export.Request{}, nil, errors.New("x")))

	err := a.Log(ctx, export.Request{}, &export.Result{ExportID: "x"}, nil)
	require.Error(t, err)
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok)
	assert.Equal(t, errcode.AuditInsertError, gnErr.Code)
}

func TestLog(t *testing.T) {
	op := iotesting.ConnectOrSkip(t)
	ctx := context.Background()
	require.NoError(t, ioschema.NewManager(op).Create(ctx))

	res := &export.Result{
		ExportID:   uuid.NewString(),
		QueryID:    uuid.NewString(),
		Stats:      map[string]int64{"dr1": 3, "infoFields,id": -1},
		Written:    3,
		Accepted:   3,
		TotalFound: 3,
		Fields:     []string{"id"},
		Headers:    []string{"Record ID"},
		Duration:   2 * time.Second,
	}
	req := export.Request{Query: "*:*", Filters: []string{"month:01"}, Format: "csv"}
	require.NoError(t, ioaudit.New(op).Log(ctx, req, res, nil))

	pool := op.Pool()
	t.Cleanup(func() {
		pool.Exec(ctx, "DELETE FROM export_logs WHERE id = $1", res.ExportID)
	})

	var status string
	var written int
	var dr1 int
	err := pool.QueryRow(ctx, `
SELECT status, written, (stats->>'dr1')::int
  FROM export_logs WHERE id = $1`, res.ExportID).Scan(&status, &written, &dr1)
	require.NoError(t, err)
	assert.Equal(t, ioaudit.StatusCompleted, status)
	assert.Equal(t, 3, written)
	assert.Equal(t, 3, dr1)
}
