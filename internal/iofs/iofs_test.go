package iofs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/gnexport/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that uses file system in short mode")
	}
	home := t.TempDir()

	// repeated calls are no-ops
	for range 2 {
		require.NoError(t, EnsureDirs(home))
	}

	tests := []struct {
		msg string
		dir string
	}{
		{"config", filepath.Join(home, ".config", "gnexport")},
		{"cache", filepath.Join(home, ".cache", "gnexport")},
		{"logs", filepath.Join(home, ".local", "share", "gnexport", "logs")},
	}

	for _, v := range tests {
		info, err := os.Stat(v.dir)
		require.NoError(t, err, v.msg)
		assert.True(t, info.IsDir(), v.msg)
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm(), v.msg)
	}
}

func TestTouchDirError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that uses file system in short mode")
	}
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	err := touchDir(filepath.Join(file, "sub"))
	assert.Error(t, err)
}

func TestEnsureFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that uses file system in short mode")
	}
	home := t.TempDir()
	require.NoError(t, EnsureDirs(home))

	tests := []struct {
		msg     string
		ensure  func(string) error
		path    string
		content string
	}{
		{"config", EnsureConfigFile, config.ConfigFilePath(home), ConfigYAML},
		{"fields", EnsureFieldsFile, config.FieldsFilePath(home), FieldsYAML},
	}

	for _, v := range tests {
		require.NoError(t, v.ensure(home), v.msg)
		content, err := os.ReadFile(v.path)
		require.NoError(t, err, v.msg)
		assert.Equal(t, v.content, string(content), v.msg)

		info, err := os.Stat(v.path)
		require.NoError(t, err, v.msg)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm(), v.msg)

		// user edits survive
		custom := "# edited\n"
		require.NoError(t, os.WriteFile(v.path, []byte(custom), 0644), v.msg)
		require.NoError(t, v.ensure(home), v.msg)
		content, err = os.ReadFile(v.path)
		require.NoError(t, err, v.msg)
		assert.Equal(t, custom, string(content), v.msg)
	}
}

func TestEmbedded(t *testing.T) {
	tests := []struct {
		msg     string
		content string
		parts   []string
	}{
		{"config", ConfigYAML,
			[]string{"index:", "export:", "database:", "log:", "queue_size"}},
		{"fields", FieldsYAML,
			[]string{"default:", "sensitive_latitude", "assertions:"}},
	}

	for _, v := range tests {
		for _, p := range v.parts {
			assert.Contains(t, v.content, p, v.msg)
		}
	}
}
