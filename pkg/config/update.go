package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/gnames/gn"
)

// Update applies a slice of Option functions to the Config.
// This is the only way to modify a Config after creation.
// Invalid options are rejected with warnings - config remains in valid state.
func (c *Config) Update(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// ToOptions converts the Config to a slice of Option functions.
// Only includes persistent fields appropriate for config.yaml.
// Excludes runtime-only fields (HomeDir).
// Used for round-tripping config.yaml ↔ Config conversions.
func (c *Config) ToOptions() []Option {
	var res []Option
	var s string
	var i int
	var d time.Duration

	s = c.Index.URL
	if s != "" {
		res = append(res, OptIndexURL(s))
	}
	d = c.Index.Timeout
	if d > 0 {
		res = append(res, OptIndexTimeout(d))
	}
	i = c.Index.MaxRetries
	if i > 0 {
		res = append(res, OptIndexMaxRetries(i))
	}
	d = c.Index.RetryWait
	if d > 0 {
		res = append(res, OptIndexRetryWait(d))
	}

	i = c.Export.PageSize
	if i > 0 {
		res = append(res, OptExportPageSize(i))
	}
	i = c.Export.QueueSize
	if i > 0 {
		res = append(res, OptExportQueueSize(i))
	}
	d = c.Export.OfferTimeout
	if d > 0 {
		res = append(res, OptExportOfferTimeout(d))
	}
	d = c.Export.Throttle
	if d > 0 {
		res = append(res, OptExportThrottle(d))
	}
	d = c.Export.MaxExecutionTime
	if d > 0 {
		res = append(res, OptExportMaxExecutionTime(d))
	}
	d = c.Export.MaxCompletionTime
	if d > 0 {
		res = append(res, OptExportMaxCompletionTime(d))
	}
	d = c.Export.PollInterval
	if d > 0 {
		res = append(res, OptExportPollInterval(d))
	}
	i = c.Export.MaxRecords
	if i > 0 {
		res = append(res, OptExportMaxRecords(i))
	}
	i = c.Export.UncompressedMaxRecords
	if i > 0 {
		res = append(res, OptExportUncompressedMaxRecords(i))
	}
	s = c.Export.PartitionField
	if s != "" {
		res = append(res, OptExportPartitionField(s))
	}
	s = c.Export.SortField
	if s != "" {
		res = append(res, OptExportSortField(s))
	}
	s = c.Export.QuotaField
	if s != "" {
		res = append(res, OptExportQuotaField(s))
	}
	if len(c.Export.ProvenanceFields) > 0 {
		res = append(res, OptExportProvenanceFields(c.Export.ProvenanceFields))
	}
	s = c.Export.AssertionsField
	if s != "" {
		res = append(res, OptExportAssertionsField(s))
	}

	s = c.Database.Host
	if s != "" {
		res = append(res, OptDatabaseHost(s))
	}
	i = c.Database.Port
	if i > 0 {
		res = append(res, OptDatabasePort(i))
	}
	s = c.Database.User
	if s != "" {
		res = append(res, OptDatabaseUser(s))
	}
	s = c.Database.Password
	if s != "" {
		res = append(res, OptDatabasePassword(s))
	}
	s = c.Database.Database
	if s != "" {
		res = append(res, OptDatabaseDatabase(s))
	}
	s = c.Database.SSLMode
	if s != "" {
		res = append(res, OptDatabaseSSLMode(s))
	}

	s = c.Log.Format
	if s != "" {
		res = append(res, OptLogFormat(s))
	}
	s = c.Log.Level
	if s != "" {
		res = append(res, OptLogLevel(s))
	}
	s = c.Log.Destination
	if s != "" {
		res = append(res, OptLogDestination(s))
	}

	i = c.JobsNumber
	if i > 0 {
		res = append(res, OptJobsNumber(i))
	}
	return res
}

func isValidString(name, s string) bool {
	res := s != ""
	if !res {
		gn.Warn("<em>%s</em> cannot be empty, ignoring", name)
	}
	return res
}

func isValidInt(name string, i int) bool {
	res := i > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive number, ignoring %d", name, i)
	}
	return res
}

func isValidDuration(name string, d time.Duration) bool {
	res := d > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive duration, ignoring %s", name, d)
	}
	return res
}

func isValidIndexURL(name, s string) bool {
	for _, prefix := range []string{"http://", "https://", "sqlite:"} {
		if strings.HasPrefix(s, prefix) && len(s) > len(prefix) {
			return true
		}
	}
	gn.Warn(
		"<em>%s</em> must start with http://, https:// or sqlite:, ignoring '%s'",
		name, s,
	)
	return false
}

func isValidEnum(name, val string) bool {
	s := struct{}{}
	data := map[string]map[string]struct{}{
		"Database.SSLMode": {"disable": s, "require": s,
			"verify-ca": s, "verify-full": s},
		"Log.Level":       {"debug": s, "info": s, "warn": s, "error": s},
		"Log.Format":      {"json": s, "text": s, "tint": s},
		"Log.Destination": {"file": s, "stderr": s, "stdout": s},
	}
	vals := slices.Sorted(maps.Keys(data[name]))
	var lines []string
	for _, v := range vals {
		line := fmt.Sprintf("  * %s", v)
		lines = append(lines, line)
	}
	if _, ok := data[name][val]; ok {
		return true
	}
	gn.Warn(
		"<em>%s</em> does not support '%s' as a value. "+
			"Valid values are: \n%s\nIgnoring...",
		name, val, strings.Join(lines, "\n"),
	)
	return false
}
