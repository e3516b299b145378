package config

import (
	"strings"
	"time"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptIndexURL sets the location of the occurrence index.
// Accepts http(s):// URLs and sqlite:<path> locations.
func OptIndexURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidIndexURL("Index URL", s) {
			c.Index.URL = s
		}
	}
}

// OptIndexTimeout sets the timeout of a single index request.
func OptIndexTimeout(d time.Duration) Option {
	return func(c *Config) {
		if isValidDuration("Index Timeout", d) {
			c.Index.Timeout = d
		}
	}
}

// OptIndexMaxRetries sets the total number of attempts for a page request.
func OptIndexMaxRetries(i int) Option {
	return func(c *Config) {
		if isValidInt("Index Max Retries", i) {
			c.Index.MaxRetries = i
		}
	}
}

// OptIndexRetryWait sets the fixed pause between attempts.
func OptIndexRetryWait(d time.Duration) Option {
	return func(c *Config) {
		if isValidDuration("Index Retry Wait", d) {
			c.Index.RetryWait = d
		}
	}
}

// OptExportPageSize sets the number of documents per page.
func OptExportPageSize(i int) Option {
	return func(c *Config) {
		if isValidInt("Export Page Size", i) {
			c.Export.PageSize = i
		}
	}
}

// OptExportQueueSize sets the capacity of the relay queue.
func OptExportQueueSize(i int) Option {
	return func(c *Config) {
		if isValidInt("Export Queue Size", i) {
			c.Export.QueueSize = i
		}
	}
}

// OptExportOfferTimeout sets how long a worker waits on a full queue
// before checking for cancellation again.
func OptExportOfferTimeout(d time.Duration) Option {
	return func(c *Config) {
		if isValidDuration("Export Offer Timeout", d) {
			c.Export.OfferTimeout = d
		}
	}
}

// OptExportThrottle sets the base delay between pages.
// Zero disables throttling.
func OptExportThrottle(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.Export.Throttle = d
			return
		}
		isValidDuration("Export Throttle", d)
	}
}

// OptExportMaxExecutionTime sets the budget for planning and fetching.
func OptExportMaxExecutionTime(d time.Duration) Option {
	return func(c *Config) {
		if isValidDuration("Export Max Execution Time", d) {
			c.Export.MaxExecutionTime = d
		}
	}
}

// OptExportMaxCompletionTime sets the budget for the final drain.
func OptExportMaxCompletionTime(d time.Duration) Option {
	return func(c *Config) {
		if isValidDuration("Export Max Completion Time", d) {
			c.Export.MaxCompletionTime = d
		}
	}
}

// OptExportPollInterval sets the period of the supervisor loop.
func OptExportPollInterval(d time.Duration) Option {
	return func(c *Config) {
		if isValidDuration("Export Poll Interval", d) {
			c.Export.PollInterval = d
		}
	}
}

// OptExportMaxRecords sets the global record cap.
func OptExportMaxRecords(i int) Option {
	return func(c *Config) {
		if isValidInt("Export Max Records", i) {
			c.Export.MaxRecords = i
		}
	}
}

// OptExportUncompressedMaxRecords sets the record cap for uncompressed
// output.
func OptExportUncompressedMaxRecords(i int) Option {
	return func(c *Config) {
		if isValidInt("Export Uncompressed Max Records", i) {
			c.Export.UncompressedMaxRecords = i
		}
	}
}

// OptExportPartitionField sets the field used to split exports.
func OptExportPartitionField(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Export Partition Field", s) {
			c.Export.PartitionField = s
		}
	}
}

// OptExportSortField sets the document-order key used for paging.
func OptExportSortField(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Export Sort Field", s) {
			c.Export.SortField = s
		}
	}
}

// OptExportQuotaField sets the provenance field quotas apply to.
func OptExportQuotaField(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Export Quota Field", s) {
			c.Export.QuotaField = s
		}
	}
}

// OptExportProvenanceFields sets the fields counted in export statistics.
func OptExportProvenanceFields(ss []string) Option {
	var res []string
	for _, v := range ss {
		v = strings.TrimSpace(v)
		if v != "" {
			res = append(res, v)
		}
	}
	return func(c *Config) {
		if len(res) > 0 {
			c.Export.ProvenanceFields = res
		}
	}
}

// OptExportAssertionsField sets the field keeping quality assertions.
func OptExportAssertionsField(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Export Assertions Field", s) {
			c.Export.AssertionsField = s
		}
	}
}

// OptDatabaseHost sets the PostgreSQL server hostname or IP address.
func OptDatabaseHost(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Host", s) {
			c.Database.Host = s
		}
	}
}

// OptDatabasePort sets the PostgreSQL server port number.
func OptDatabasePort(i int) Option {
	return func(c *Config) {
		if isValidInt("Database Port", i) {
			c.Database.Port = i
		}
	}
}

// OptDatabaseUser sets the PostgreSQL database username.
func OptDatabaseUser(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database User", s) {
			c.Database.User = s
		}
	}
}

// OptDatabasePassword sets the PostgreSQL database password.
func OptDatabasePassword(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Password", s) {
			c.Database.Password = s
		}
	}
}

// OptDatabaseDatabase sets the PostgreSQL database name to connect to.
func OptDatabaseDatabase(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Name", s) {
			c.Database.Database = s
		}
	}
}

// OptDatabaseSSLMode sets the SSL connection mode.
// Valid values: "disable", "require", "verify-ca", "verify-full".
func OptDatabaseSSLMode(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Database.SSLMode", s) {
			c.Database.SSLMode = s
		}
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log output format.
// Valid values: "json", "text", "tint".
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogDestination sets where logs are written.
// Valid values: "file", "stderr", "stdout".
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the number of concurrent fetch workers.
// Default is runtime.NumCPU().
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the home directory for config, cache, and log locations.
// Set once at startup from os.UserHomeDir().
// Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}
