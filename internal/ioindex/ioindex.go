// Package ioindex implements access to occurrence search indexes: a
// Solr-compatible HTTP endpoint and a local SQLite index.
package ioindex

import (
	"regexp"
	"strings"
	"time"

	"github.com/gnames/gnexport/pkg/config"
	"github.com/gnames/gnexport/pkg/export"
)

// SQLitePrefix starts index locations that point to a local SQLite file.
const SQLitePrefix = "sqlite:"

// New creates an index for the configured location.
func New(cfg config.IndexConfig) (export.Index, error) {
	if path, ok := strings.CutPrefix(cfg.URL, SQLitePrefix); ok {
		return OpenSQLite(path)
	}
	return NewHTTP(cfg), nil
}

var solrDate = regexp.MustCompile(
	`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z$`,
)

// parseDate converts Solr date strings to time.Time and leaves other
// strings untouched.
func parseDate(s string) any {
	if !solrDate.MatchString(s) {
		return s
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t
}

// project keeps only requested fields of a document. Empty field list
// keeps everything.
func project(doc export.Document, fields []string) export.Document {
	if len(fields) == 0 {
		return doc
	}
	res := make(export.Document, len(fields))
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			res[f] = v
		}
	}
	return res
}
