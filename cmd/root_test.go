package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gnames/gnexport/internal/iofs"
	"github.com/gnames/gnexport/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetRootCmd_Exists verifies getRootCmd returns
// a valid command.
func TestGetRootCmd_Exists(t *testing.T) {
	cmd := getRootCmd()
	require.NotNil(t, cmd, "Root command should exist")
	assert.Equal(t, "gnexport", cmd.Use,
		"Command name should be gnexport")
}

// TestGetRootCmd_VersionFormat verifies version
// output format.
func TestGetRootCmd_VersionFormat(t *testing.T) {
	cmd := getRootCmd()

	// Set a test version
	cmd.Version = "version: v1.2.3\nbuild:   abc123"

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "v1.2.3",
		"Version output should contain version")
	assert.Contains(t, output, "abc123",
		"Version output should contain build")
	assert.NotContains(t, output, "gnexport version",
		"Should use custom version template")
}

// TestGetRootCmd_ShortVersionFlag verifies
// -V flag works.
func TestGetRootCmd_ShortVersionFlag(t *testing.T) {
	cmd := getRootCmd()
	cmd.Version = "version: v1.2.3\nbuild:   abc123"

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"-V"})

	err := cmd.Execute()
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "v1.2.3",
		"Version output should work with -V flag")
}

// TestGetRootCmd_Descriptions verifies short and long descriptions.
func TestGetRootCmd_Descriptions(t *testing.T) {
	cmd := getRootCmd()

	assert.Contains(t, cmd.Short, "occurrence")
	assert.Contains(t, cmd.Long, "GNEXPORT_")
	assert.Contains(t, cmd.Long, "config.yaml")
	assert.NotNil(t, cmd.PersistentPreRunE,
		"PersistentPreRunE should be set for bootstrap")
	assert.True(t, cmd.SilenceErrors)
	assert.True(t, cmd.SilenceUsage)
}

// TestGetRootCmd_Subcommands verifies all subcommands are registered.
func TestGetRootCmd_Subcommands(t *testing.T) {
	cmd := getRootCmd()

	var names []string
	for _, v := range cmd.Commands() {
		names = append(names, v.Name())
	}
	for _, v := range []string{"export", "create", "load"} {
		assert.Contains(t, names, v, v)
	}
}

// TestGetRootCmd_IndependentInstances verifies each
// call returns independent instance.
func TestGetRootCmd_IndependentInstances(t *testing.T) {
	cmd1 := getRootCmd()
	cmd2 := getRootCmd()

	assert.NotSame(t, cmd1, cmd2,
		"Each getRootCmd call should return new instance")
}

// TestGetRootCmd_InvalidCommand verifies error on
// invalid command.
func TestGetRootCmd_InvalidCommand(t *testing.T) {
	cmd := getRootCmd()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"nonexistent-command"})

	err := cmd.Execute()

	assert.Error(t, err,
		"Should error on invalid command")
	assert.True(t,
		strings.Contains(buf.String(), "unknown") ||
			strings.Contains(err.Error(), "unknown"),
		"Error should indicate unknown command")
}

// TestInitConfig verifies that config file values are read and
// environment variables override them.
func TestInitConfig(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that uses file system in short mode")
	}
	home := t.TempDir()
	require.NoError(t, iofs.EnsureDirs(home))
	require.NoError(t, iofs.EnsureConfigFile(home))

	t.Setenv("GNEXPORT_EXPORT_PAGE_SIZE", "250")
	t.Setenv("GNEXPORT_INDEX_URL", "sqlite:/tmp/occ.sqlite")
	t.Setenv("GNEXPORT_JOBS_NUMBER", "3")

	res, err := initConfig(home)
	require.NoError(t, err)

	c := config.New()
	c.Update(res.ToOptions())

	assert.Equal(t, 250, c.Export.PageSize)
	assert.Equal(t, "sqlite:/tmp/occ.sqlite", c.Index.URL)
	assert.Equal(t, 3, c.JobsNumber)
	assert.Equal(t, 1000, c.Export.QueueSize)
	assert.Equal(t, time.Minute, c.Export.OfferTimeout)
	assert.Equal(t, "month", c.Export.PartitionField)
	assert.Equal(t, "gnexport", c.Database.Database)
}

// TestInitConfig_MissingFile verifies error for a missing config file.
func TestInitConfig_MissingFile(t *testing.T) {
	_, err := initConfig(t.TempDir())
	assert.Error(t, err)
}
