package schema_test

import (
	"testing"

	"github.com/gnames/gnexport/pkg/schema"
	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		msg   string
		model interface{ TableName() string }
		res   string
	}{
		{"limits", schema.DownloadLimit{}, "download_limits"},
		{"log", schema.ExportLog{}, "export_logs"},
	}
	for _, v := range tests {
		assert.Equal(t, v.res, v.model.TableName(), v.msg)
	}
}

func TestAllModels(t *testing.T) {
	models := schema.AllModels()
	assert.Len(t, models, 2)
	assert.IsType(t, &schema.DownloadLimit{}, models[0])
	assert.IsType(t, &schema.ExportLog{}, models[1])
}
