// Package schema provides database models of gnexport. The database keeps
// per-source download limits and a log of export runs.
package schema

import (
	"time"
)

// DownloadLimit is the remaining number of records that can be exported
// from one data source. It is refreshed by an external process.
type DownloadLimit struct {
	// SourceID is the identifier of a data resource.
	SourceID string `gorm:"primaryKey;type:varchar(50)"`

	// Remaining is the number of records still allowed for the source.
	Remaining int `gorm:"not null;default:0"`

	// UpdatedAt is set by the process that refreshes limits.
	UpdatedAt time.Time
}

// TableName returns the PostgreSQL table name for this model.
func (DownloadLimit) TableName() string {
	return "download_limits"
}

// ExportLog is an audit entry of one export run.
type ExportLog struct {
	// ID is a random UUID of the run.
	ID string `gorm:"primaryKey;type:uuid"`

	// QueryID is a UUID v5 fingerprint of the executable query and filters.
	// The same query always gets the same QueryID.
	QueryID string `gorm:"type:uuid;index"`

	Query   string `gorm:"type:text"`
	Filters string `gorm:"type:text"`
	Format  string `gorm:"type:varchar(10)"`

	// Fields and Headers are comma-separated output fields and titles.
	Fields  string `gorm:"type:text"`
	Headers string `gorm:"type:text"`

	TotalFound int
	Accepted   int
	Written    int
	Dropped    int

	// Stats keeps per-source counts as JSON.
	Stats string `gorm:"type:jsonb"`

	// Status is one of completed, timeout, interrupted, aborted, failed.
	Status string `gorm:"type:varchar(20);index"`

	Error      string `gorm:"type:text"`
	DurationMs int64

	CreatedAt time.Time `gorm:"index"`
}

// TableName returns the PostgreSQL table name for this model.
func (ExportLog) TableName() string {
	return "export_logs"
}
