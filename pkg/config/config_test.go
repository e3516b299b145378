package config_test

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gnames/gnexport/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that uses file system in short mode")
	}

	tempHome := t.TempDir()

	tests := []struct {
		msg string
		fn  func(string) string
		res string
	}{
		{
			msg: "config dir",
			fn:  config.ConfigDir,
			res: filepath.Join(tempHome, ".config", "gnexport"),
		},
		{
			msg: "cache dir",
			fn:  config.CacheDir,
			res: filepath.Join(tempHome, ".cache", "gnexport"),
		},
		{
			msg: "log dir",
			fn:  config.LogDir,
			res: filepath.Join(tempHome, ".local", "share", "gnexport", "logs"),
		},
		{
			msg: "fields file",
			fn:  config.FieldsFilePath,
			res: filepath.Join(tempHome, ".config", "gnexport", "fields.yaml"),
		},
		{
			msg: "local index",
			fn:  config.LocalIndexPath,
			res: filepath.Join(tempHome, ".cache", "gnexport", "occurrences.sqlite"),
		},
	}

	for _, v := range tests {
		res := v.fn(tempHome)
		assert.Equal(t, v.res, res, v.msg)
	}
}

func TestNew(t *testing.T) {
	cfg := config.New()
	require.NotNil(t, cfg)

	assert.Equal(t, "http://localhost:8983/solr/biocache", cfg.Index.URL)
	assert.Equal(t, 6, cfg.Index.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Index.RetryWait)

	assert.Equal(t, 500, cfg.Export.PageSize)
	assert.Equal(t, 1000, cfg.Export.QueueSize)
	assert.Equal(t, time.Minute, cfg.Export.OfferTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Export.Throttle)
	assert.Equal(t, 7*24*time.Hour, cfg.Export.MaxExecutionTime)
	assert.Equal(t, 5*time.Minute, cfg.Export.MaxCompletionTime)
	assert.Equal(t, 100*time.Millisecond, cfg.Export.PollInterval)
	assert.Equal(t, 500_000, cfg.Export.MaxRecords)
	assert.Equal(t, 10_000, cfg.Export.UncompressedMaxRecords)
	assert.Equal(t, "month", cfg.Export.PartitionField)
	assert.Equal(t, "_docid_", cfg.Export.SortField)
	assert.Equal(t, "data_resource_uid", cfg.Export.QuotaField)
	assert.Len(t, cfg.Export.ProvenanceFields, 4)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "gnexport", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "file", cfg.Log.Destination)

	assert.Equal(t, runtime.NumCPU(), cfg.JobsNumber)
}

func TestOptionIndexURL(t *testing.T) {
	def := config.New().Index.URL
	tests := []struct {
		msg   string
		input string
		res   string
	}{
		{"http", "http://solr:8983/solr/biocache", "http://solr:8983/solr/biocache"},
		{"https", "https://example.org/ws", "https://example.org/ws"},
		{"sqlite", "sqlite:/tmp/occ.sqlite", "sqlite:/tmp/occ.sqlite"},
		{"trims", "  sqlite:occ.db ", "sqlite:occ.db"},
		{"empty", "", def},
		{"bare prefix", "sqlite:", def},
		{"unknown scheme", "ftp://example.org", def},
	}

	for _, v := range tests {
		cfg := config.New()
		cfg.Update([]config.Option{config.OptIndexURL(v.input)})
		assert.Equal(t, v.res, cfg.Index.URL, v.msg)
	}
}

func TestOptionDurations(t *testing.T) {
	tests := []struct {
		msg   string
		opt   func(time.Duration) config.Option
		get   func(*config.Config) time.Duration
		input time.Duration
		ok    bool
	}{
		{
			msg:   "offer timeout",
			opt:   config.OptExportOfferTimeout,
			get:   func(c *config.Config) time.Duration { return c.Export.OfferTimeout },
			input: time.Second,
			ok:    true,
		},
		{
			msg:   "zero offer timeout",
			opt:   config.OptExportOfferTimeout,
			get:   func(c *config.Config) time.Duration { return c.Export.OfferTimeout },
			input: 0,
		},
		{
			msg:   "execution time",
			opt:   config.OptExportMaxExecutionTime,
			get:   func(c *config.Config) time.Duration { return c.Export.MaxExecutionTime },
			input: time.Hour,
			ok:    true,
		},
		{
			msg:   "negative completion time",
			opt:   config.OptExportMaxCompletionTime,
			get:   func(c *config.Config) time.Duration { return c.Export.MaxCompletionTime },
			input: -time.Second,
		},
		{
			msg:   "zero throttle",
			opt:   config.OptExportThrottle,
			get:   func(c *config.Config) time.Duration { return c.Export.Throttle },
			input: 0,
			ok:    true,
		},
		{
			msg:   "negative throttle",
			opt:   config.OptExportThrottle,
			get:   func(c *config.Config) time.Duration { return c.Export.Throttle },
			input: -time.Millisecond,
		},
		{
			msg:   "retry wait",
			opt:   config.OptIndexRetryWait,
			get:   func(c *config.Config) time.Duration { return c.Index.RetryWait },
			input: time.Second,
			ok:    true,
		},
	}

	for _, v := range tests {
		cfg := config.New()
		def := v.get(cfg)
		cfg.Update([]config.Option{v.opt(v.input)})
		if v.ok {
			assert.Equal(t, v.input, v.get(cfg), v.msg)
			continue
		}
		assert.Equal(t, def, v.get(cfg), v.msg)
	}
}

func TestOptionInts(t *testing.T) {
	tests := []struct {
		msg   string
		opt   func(int) config.Option
		get   func(*config.Config) int
		input int
		ok    bool
	}{
		{
			msg:   "queue size",
			opt:   config.OptExportQueueSize,
			get:   func(c *config.Config) int { return c.Export.QueueSize },
			input: 10,
			ok:    true,
		},
		{
			msg:   "zero queue size",
			opt:   config.OptExportQueueSize,
			get:   func(c *config.Config) int { return c.Export.QueueSize },
			input: 0,
		},
		{
			msg:   "page size",
			opt:   config.OptExportPageSize,
			get:   func(c *config.Config) int { return c.Export.PageSize },
			input: 100,
			ok:    true,
		},
		{
			msg:   "negative max records",
			opt:   config.OptExportMaxRecords,
			get:   func(c *config.Config) int { return c.Export.MaxRecords },
			input: -1,
		},
		{
			msg:   "jobs number",
			opt:   config.OptJobsNumber,
			get:   func(c *config.Config) int { return c.JobsNumber },
			input: 8,
			ok:    true,
		},
		{
			msg:   "zero jobs number",
			opt:   config.OptJobsNumber,
			get:   func(c *config.Config) int { return c.JobsNumber },
			input: 0,
		},
		{
			msg:   "database port",
			opt:   config.OptDatabasePort,
			get:   func(c *config.Config) int { return c.Database.Port },
			input: 6543,
			ok:    true,
		},
	}

	for _, v := range tests {
		cfg := config.New()
		def := v.get(cfg)
		cfg.Update([]config.Option{v.opt(v.input)})
		if v.ok {
			assert.Equal(t, v.input, v.get(cfg), v.msg)
			continue
		}
		assert.Equal(t, def, v.get(cfg), v.msg)
	}
}

func TestOptionEnums(t *testing.T) {
	tests := []struct {
		msg   string
		opt   func(string) config.Option
		get   func(*config.Config) string
		input string
		res   string
	}{
		{
			msg:   "ssl require",
			opt:   config.OptDatabaseSSLMode,
			get:   func(c *config.Config) string { return c.Database.SSLMode },
			input: "REQUIRE",
			res:   "require",
		},
		{
			msg:   "ssl invalid",
			opt:   config.OptDatabaseSSLMode,
			get:   func(c *config.Config) string { return c.Database.SSLMode },
			input: "maybe",
			res:   "disable",
		},
		{
			msg:   "log level debug",
			opt:   config.OptLogLevel,
			get:   func(c *config.Config) string { return c.Log.Level },
			input: "Debug",
			res:   "debug",
		},
		{
			msg:   "log level trace",
			opt:   config.OptLogLevel,
			get:   func(c *config.Config) string { return c.Log.Level },
			input: "trace",
			res:   "info",
		},
		{
			msg:   "log format tint",
			opt:   config.OptLogFormat,
			get:   func(c *config.Config) string { return c.Log.Format },
			input: "tint",
			res:   "tint",
		},
		{
			msg:   "log format xml",
			opt:   config.OptLogFormat,
			get:   func(c *config.Config) string { return c.Log.Format },
			input: "xml",
			res:   "json",
		},
		{
			msg:   "log destination stderr",
			opt:   config.OptLogDestination,
			get:   func(c *config.Config) string { return c.Log.Destination },
			input: "stderr",
			res:   "stderr",
		},
		{
			msg:   "log destination stdin",
			opt:   config.OptLogDestination,
			get:   func(c *config.Config) string { return c.Log.Destination },
			input: "stdin",
			res:   "file",
		},
	}

	for _, v := range tests {
		cfg := config.New()
		cfg.Update([]config.Option{v.opt(v.input)})
		assert.Equal(t, v.res, v.get(cfg), v.msg)
	}
}

func TestOptionProvenanceFields(t *testing.T) {
	cfg := config.New()
	cfg.Update([]config.Option{
		config.OptExportProvenanceFields([]string{" collection_uid ", "", "x"}),
	})
	assert.Equal(t, []string{"collection_uid", "x"}, cfg.Export.ProvenanceFields)

	cfg = config.New()
	cfg.Update([]config.Option{config.OptExportProvenanceFields(nil)})
	assert.Len(t, cfg.Export.ProvenanceFields, 4)
}

func TestToOptionsRoundTrip(t *testing.T) {
	cfg := config.New()
	cfg.Update([]config.Option{
		config.OptIndexURL("sqlite:/data/occ.sqlite"),
		config.OptExportQueueSize(42),
		config.OptExportThrottle(0),
		config.OptExportPartitionField("year"),
		config.OptDatabaseHost("db"),
		config.OptLogFormat("text"),
		config.OptJobsNumber(3),
		config.OptHomeDir("/home/user"),
	})

	res := config.New()
	res.Update(cfg.ToOptions())

	assert.Equal(t, cfg.Index, res.Index)
	assert.Equal(t, 42, res.Export.QueueSize)
	assert.Equal(t, "year", res.Export.PartitionField)
	assert.Equal(t, "db", res.Database.Host)
	assert.Equal(t, "text", res.Log.Format)
	assert.Equal(t, 3, res.JobsNumber)
	// zero throttle is not persisted and falls back to the default
	assert.Equal(t, 50*time.Millisecond, res.Export.Throttle)
	// runtime-only field
	assert.Empty(t, res.HomeDir)
}
