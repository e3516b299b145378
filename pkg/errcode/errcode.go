package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError

	// Logging errors
	CreateLogFileError

	// Database errors
	DBConnectionError
	DBNotConnectedError
	DBTableCheckError

	// Schema errors
	SchemaGORMConnectionError
	SchemaCreateError

	// Field catalogue errors
	FieldsConfigError

	// Query errors
	QueryEmptyError
	QueryMalformedError
	QueryFilterError

	// Index errors
	IndexConnectionError
	IndexResponseError
	IndexOpenError
	IndexLoadError

	// Sink errors
	SinkFormatError
	SinkCreateError
	SinkWriteError
	SinkFinalizeError

	// Quota errors
	QuotaLookupError

	// Audit errors
	AuditInsertError

	// Export errors
	ExportPlanningError
	ExportIndexError
	ExportTimeoutError
	ExportInterruptedError
	ExportSinkError
)
