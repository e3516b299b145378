// Package lifecycle defines contracts for database lifecycle commands.
package lifecycle

import (
	"context"
)

// SchemaManager defines the interface for database schema management.
// It uses GORM AutoMigrate, so creation is idempotent and also upgrades
// existing tables.
type SchemaManager interface {
	// Create creates or updates download_limits and export_logs tables.
	Create(ctx context.Context) error
}
