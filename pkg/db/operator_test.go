package db_test

import (
	"testing"

	"github.com/gnames/gnexport/internal/iodb"
	"github.com/gnames/gnexport/pkg/db"
	"github.com/stretchr/testify/assert"
)

func TestPgxOperatorImplementsInterface(t *testing.T) {
	var op db.Operator = iodb.NewPgxOperator()
	assert.Nil(t, op.Pool())
}
