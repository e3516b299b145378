// Package export contains the data model and the contracts of the bulk
// occurrence export pipeline. It is a pure package: implementations of the
// contracts live in internal/io* packages.
package export

import (
	"context"
	"maps"
	"slices"
	"time"
)

// QA modes of a Request. Any other value is treated as a comma-separated
// list of assertion names.
const (
	QANone       = "none"
	QAAll        = "all"
	QAIncludeAll = "includeall"
)

// Request is a single "download this query" call. The coordinator copies
// it before execution starts, so later changes by the caller have no effect.
type Request struct {
	// Query is a free-text or already executable index query.
	Query string

	// Filters are additional filter clauses applied to every page request.
	Filters []string

	// Fields are requested field names. Names are resolved against the
	// field catalogue, unknown names are used as raw index fields.
	Fields []string

	// QA selects quality assertion columns: QANone, QAAll, QAIncludeAll or
	// a comma-separated list of assertion names.
	QA string

	// Format is the output format name (csv, tsv).
	Format string

	// Compressed is true when the output is compressed. Uncompressed
	// exports use a smaller global cap.
	Compressed bool

	// IncludeSensitive allows sensitive fields for every record.
	IncludeSensitive bool

	// SensitiveFilter selects records the caller may see unredacted.
	// It is ignored when IncludeSensitive is true.
	SensitiveFilter string

	// MaxRecords is an optional global cap. Zero means the configured cap.
	MaxRecords int

	// Quotas are optional per-source caps keyed by source identifier.
	// Explicit quotas override the QuotaSource.
	Quotas map[string]int

	// DwcHeaders switches output headers to Darwin Core terms.
	DwcHeaders bool
}

// Clone returns a deep copy of the request.
func (r Request) Clone() Request {
	res := r
	res.Filters = slices.Clone(r.Filters)
	res.Fields = slices.Clone(r.Fields)
	if r.Quotas != nil {
		res.Quotas = maps.Clone(r.Quotas)
	}
	return res
}

// SubQuery is an independently pageable partition of a Request.
type SubQuery struct {
	// ID is the position of the SubQuery in the plan.
	ID int

	// Query is the executable query shared by all SubQueries of a plan.
	Query string

	// Filters contain request filters plus partition, sensitivity and
	// quota-source predicates.
	Filters []string

	// Sort is a stable document-order key, never relevance score.
	Sort string

	// PageSize is the number of documents per page.
	PageSize int

	// Restricted marks the variant that uses sensitive field projection.
	Restricted bool

	// Source is set when the SubQuery covers a single quota-bound source.
	Source string
}

// IndexQuery is one request to the search index.
type IndexQuery struct {
	Query   string
	Filters []string
	Fields  []string
	Sort    string
	Offset  int
	Rows    int

	// Facets are fields to count values for. FacetLimit of zero or less
	// returns all values.
	Facets     []string
	FacetLimit int
}

// FacetCount is the number of documents sharing one value of a field.
type FacetCount struct {
	Value string
	Count int
}

// Document is a raw document returned by the index.
type Document map[string]any

// Page is one batch of documents from the index.
type Page struct {
	Documents  []Document
	TotalFound int
	Facets     map[string][]FacetCount
}

// Record is a projected row ready for a sink.
type Record struct {
	// Values are projected field values followed by assertion flags.
	Values []string

	// Provenance are identifiers counted by Stats.
	Provenance []string
}

// Result is a summary of an export run.
type Result struct {
	// ExportID is a unique ID of the run.
	ExportID string

	// QueryID is a deterministic fingerprint of the executable query and
	// filters.
	QueryID string

	// Stats are per-provenance record counts including reserved info keys.
	Stats map[string]int64

	// Written is the number of records passed to the sink.
	Written int

	// Accepted is the number of records accepted by quota and cap checks.
	Accepted int

	// Dropped is the number of queued records discarded by forced shutdown.
	Dropped int

	// TotalFound is the number of matching documents reported by the index.
	TotalFound int

	// Fields are index fields in output order.
	Fields []string

	// Headers are output column titles.
	Headers []string

	// Excluded are requested fields that do not exist in the catalogue
	// or in the index.
	Excluded []string

	TimedOut    bool
	Interrupted bool
	Aborted     bool

	Duration time.Duration
}

// Index is a paged search index of occurrence documents.
type Index interface {
	// Query returns one page of documents and optional facet counts.
	// Errors for which IsTransient returns true can be retried.
	Query(ctx context.Context, q IndexQuery) (*Page, error)

	// FacetCounts returns value counts of a field for a query. It is a
	// shortcut for callers that need a single facet; the exporter requests
	// all its facets with one Query.
	FacetCounts(
		ctx context.Context,
		query string,
		filters []string,
		field string,
	) ([]FacetCount, error)

	// Close releases resources of the index.
	Close() error
}

// Sink receives records of an export. It is used by one goroutine only.
type Sink interface {
	// Write outputs one record.
	Write(fields []string) error

	// Finalize flushes and releases resources. Calls after the first one
	// are no-ops.
	Finalize() error

	// IsFinalized reports if Finalize was called.
	IsFinalized() bool
}

// HeaderWriter is implemented by sinks that output a header row. The
// header is written before the first record.
type HeaderWriter interface {
	WriteHeader(headers []string) error
}

// TotalSetter is implemented by sinks that report progress. The total is
// the number of records expected after planning.
type TotalSetter interface {
	SetTotal(total int)
}

// QuotaSource is a read-only lookup of remaining per-source quotas.
type QuotaSource interface {
	// RemainingQuota returns the remaining quota of a source. The boolean
	// is false if the source has no quota.
	RemainingQuota(ctx context.Context, sourceID string) (int, bool, error)
}

// Normalizer rewrites a user query into an executable query and filters.
type Normalizer interface {
	Normalize(
		ctx context.Context,
		query string,
		filters []string,
	) (string, []string, error)
}

// Exporter runs bulk exports.
type Exporter interface {
	// Export streams all records matching the request into the sink.
	// Result is not nil when planning succeeded, even if an error is
	// returned.
	Export(ctx context.Context, req Request, sink Sink) (*Result, error)
}

// AuditLog keeps a history of export runs.
type AuditLog interface {
	Log(ctx context.Context, req Request, res *Result, exportErr error) error
}
