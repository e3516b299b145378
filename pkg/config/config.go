// Package config provides configuration management for gnexport.
//
// This package has no I/O dependencies (no file operations, no network calls).
// Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in config.yaml)
// - Environment variables match ToOptions() fields exactly
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions, config.yaml, and env vars):
//   - Index: url, timeout, max_retries, retry_wait
//   - Export: every tuning knob of the export pipeline
//   - Database: host, port, user, password, database, ssl_mode
//   - Log: level, format, destination
//   - General: jobs_number
//
// Runtime-only fields (CLI flags only):
//   - HomeDir (set once at startup)
//
// # Environment Variables
//
// Use GNEXPORT_ prefix with underscores for nesting:
//
//	GNEXPORT_INDEX_URL=http://localhost:8983/solr/biocache
//	GNEXPORT_EXPORT_QUEUE_SIZE=1000
//	GNEXPORT_LOG_LEVEL=info
//	GNEXPORT_JOBS_NUMBER=8
package config

import (
	"runtime"
	"time"
)

// Config represents the complete gnexport configuration.
type Config struct {
	// Index contains settings of the occurrence search index.
	Index IndexConfig `mapstructure:"index" yaml:"index"`

	// Export contains settings of the bulk export pipeline.
	Export ExportConfig `mapstructure:"export" yaml:"export"`

	// Database contains PostgreSQL connection settings. The database keeps
	// per-source download limits and the export audit log.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of concurrent fetch workers used by an export.
	// Default value is set accoring to the number of available threads.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string
}

// IndexConfig describes how to reach the occurrence search index.
type IndexConfig struct {
	// URL of the index. Values starting with http:// or https:// point to
	// a Solr-compatible select endpoint. Values starting with sqlite: point
	// to a local SQLite index file.
	URL string `mapstructure:"url" yaml:"url"`

	// Timeout limits a single HTTP request to the index.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// MaxRetries is the total number of attempts for one page request
	// when the index reports a transient failure.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// RetryWait is the fixed pause between attempts.
	RetryWait time.Duration `mapstructure:"retry_wait" yaml:"retry_wait"`
}

// ExportConfig contains tuning knobs of the export pipeline.
type ExportConfig struct {
	// PageSize is the number of documents requested per page.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`

	// QueueSize is the capacity of the relay queue between fetch workers
	// and the sink writer. It bounds memory use and the amount of work
	// left for the final drain.
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`

	// OfferTimeout is how long a worker blocks on a full relay queue before
	// it re-checks for cancellation.
	OfferTimeout time.Duration `mapstructure:"offer_timeout" yaml:"offer_timeout"`

	// Throttle is the base delay between pages. Each worker sleeps a random
	// duration between Throttle and 2*Throttle.
	Throttle time.Duration `mapstructure:"throttle" yaml:"throttle"`

	// MaxExecutionTime limits planning and fetching of one export.
	MaxExecutionTime time.Duration `mapstructure:"max_execution_time" yaml:"max_execution_time"`

	// MaxCompletionTime limits the final drain of the relay queue.
	MaxCompletionTime time.Duration `mapstructure:"max_completion_time" yaml:"max_completion_time"`

	// PollInterval is the period of the supervisor loop.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`

	// MaxRecords caps the number of records in one export.
	MaxRecords int `mapstructure:"max_records" yaml:"max_records"`

	// UncompressedMaxRecords is a smaller cap used when the output is not
	// compressed.
	UncompressedMaxRecords int `mapstructure:"uncompressed_max_records" yaml:"uncompressed_max_records"`

	// PartitionField is a low-cardinality index field used to split an
	// export into independent sub-queries.
	PartitionField string `mapstructure:"partition_field" yaml:"partition_field"`

	// SortField is a stable document-order key used for paging.
	SortField string `mapstructure:"sort_field" yaml:"sort_field"`

	// QuotaField is the provenance field that per-source quotas apply to.
	QuotaField string `mapstructure:"quota_field" yaml:"quota_field"`

	// ProvenanceFields are counted in export statistics.
	ProvenanceFields []string `mapstructure:"provenance_fields" yaml:"provenance_fields"`

	// AssertionsField keeps quality assertions of a record.
	AssertionsField string `mapstructure:"assertions_field" yaml:"assertions_field"`
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json', 'text' or 'tint' (user-facing and colored).
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		Index: IndexConfig{
			URL:        "http://localhost:8983/solr/biocache",
			Timeout:    5 * time.Minute,
			MaxRetries: 6,
			RetryWait:  50 * time.Millisecond,
		},
		Export: ExportConfig{
			PageSize:               500,
			QueueSize:              1000,
			OfferTimeout:           time.Minute,
			Throttle:               50 * time.Millisecond,
			MaxExecutionTime:       7 * 24 * time.Hour,
			MaxCompletionTime:      5 * time.Minute,
			PollInterval:           100 * time.Millisecond,
			MaxRecords:             500_000,
			UncompressedMaxRecords: 10_000,
			PartitionField:         "month",
			SortField:              "_docid_",
			QuotaField:             "data_resource_uid",
			ProvenanceFields: []string{
				"institution_uid",
				"collection_uid",
				"data_provider_uid",
				"data_resource_uid",
			},
			AssertionsField: "assertions",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Database: "gnexport",
			SSLMode:  "disable",
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		JobsNumber: runtime.NumCPU(), // Default to number of CPU threads
	}

	return res
}
