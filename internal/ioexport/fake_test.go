package ioexport

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gnames/gnexport/pkg/config"
	"github.com/gnames/gnexport/pkg/export"
	"github.com/gnames/gnexport/pkg/fields"
)

// fakeIndex keeps documents in memory and understands the filter clauses
// produced by the partitioner.
type fakeIndex struct {
	docs []export.Document

	// fail is called before every page request, a returned error is
	// reported instead of the page.
	fail func(q export.IndexQuery) error

	// delay is applied to page requests of matching filters.
	delay func(q export.IndexQuery) time.Duration

	mu      sync.Mutex
	offsets map[string][]int
	pages   atomic.Int64
}

func newFakeIndex(docs []export.Document) *fakeIndex {
	return &fakeIndex{docs: docs, offsets: make(map[string][]int)}
}

func (f *fakeIndex) Query(
	ctx context.Context,
	q export.IndexQuery,
) (*export.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Rows > 0 {
		if f.fail != nil {
			if err := f.fail(q); err != nil {
				return nil, err
			}
		}
		if f.delay != nil {
			if d := f.delay(q); d > 0 {
				select {
				case <-time.After(d):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
	}

	var matched []export.Document
	for _, d := range f.docs {
		if matchAll(d, q.Query, q.Filters) {
			matched = append(matched, d)
		}
	}

	res := &export.Page{TotalFound: len(matched)}
	if len(q.Facets) > 0 {
		res.Facets = make(map[string][]export.FacetCount)
		for _, fld := range q.Facets {
			res.Facets[fld] = facet(matched, fld)
		}
	}

	if q.Rows > 0 {
		f.pages.Add(1)
		f.mu.Lock()
		key := strings.Join(q.Filters, "|")
		f.offsets[key] = append(f.offsets[key], q.Offset)
		f.mu.Unlock()

		start := min(q.Offset, len(matched))
		end := min(q.Offset+q.Rows, len(matched))
		res.Documents = matched[start:end]
	}
	return res, nil
}

func (f *fakeIndex) FacetCounts(
	ctx context.Context,
	query string,
	filters []string,
	field string,
) ([]export.FacetCount, error) {
	page, err := f.Query(ctx, export.IndexQuery{
		Query: query, Filters: filters, Facets: []string{field},
	})
	if err != nil {
		return nil, err
	}
	return page.Facets[field], nil
}

func (f *fakeIndex) Close() error { return nil }

func (f *fakeIndex) allOffsets() map[string][]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make(map[string][]int, len(f.offsets))
	for k, v := range f.offsets {
		res[k] = slices.Clone(v)
	}
	return res
}

func matchAll(doc export.Document, query string, filters []string) bool {
	if query != "*:*" && !match(doc, query) {
		return false
	}
	for _, fq := range filters {
		if !match(doc, fq) {
			return false
		}
	}
	return true
}

func match(doc export.Document, fq string) bool {
	if s, ok := strings.CutPrefix(fq, "-"); ok {
		return !match(doc, s)
	}
	if strings.HasPrefix(fq, "(") && strings.HasSuffix(fq, ")") {
		for _, part := range strings.Split(fq[1:len(fq)-1], " OR ") {
			if match(doc, part) {
				return true
			}
		}
		return false
	}
	field, val, _ := strings.Cut(fq, ":")
	v, ok := doc[field]
	if val == "[* TO *]" || val == "*" {
		return ok
	}
	if uq, err := strconv.Unquote(val); err == nil {
		val = uq
	}
	return ok && first(v) == val
}

func facet(docs []export.Document, field string) []export.FacetCount {
	counts := make(map[string]int)
	for _, d := range docs {
		switch v := d[field].(type) {
		case nil:
		case []any:
			for _, x := range v {
				counts[format(x)]++
			}
		default:
			counts[format(v)]++
		}
	}
	var res []export.FacetCount
	for k, v := range counts {
		res = append(res, export.FacetCount{Value: k, Count: v})
	}
	slices.SortFunc(res, func(a, b export.FacetCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
	return res
}

// countingSink keeps written rows in memory.
type countingSink struct {
	mu        sync.Mutex
	header    []string
	rows      [][]string
	finalized atomic.Bool
	finalizes atomic.Int32

	// writeDelay slows down every write.
	writeDelay time.Duration

	// failAfter makes writes fail after given number of rows if positive.
	failAfter int
}

func (s *countingSink) WriteHeader(headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header = slices.Clone(headers)
	return nil
}

func (s *countingSink) Write(fields []string) error {
	if s.writeDelay > 0 {
		time.Sleep(s.writeDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized.Load() {
		return errors.New("write after finalize")
	}
	if s.failAfter > 0 && len(s.rows) >= s.failAfter {
		return errors.New("disk full")
	}
	s.rows = append(s.rows, slices.Clone(fields))
	return nil
}

func (s *countingSink) Finalize() error {
	s.finalizes.Add(1)
	s.finalized.Store(true)
	return nil
}

func (s *countingSink) IsFinalized() bool {
	return s.finalized.Load()
}

func (s *countingSink) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rows)
}

// testConfig returns a config tuned for fast tests.
func testConfig(opts ...config.Option) *config.Config {
	cfg := config.New()
	base := []config.Option{
		config.OptJobsNumber(3),
		config.OptExportPageSize(100),
		config.OptExportQueueSize(50),
		config.OptExportOfferTimeout(50 * time.Millisecond),
		config.OptExportThrottle(time.Millisecond),
		config.OptExportPollInterval(5 * time.Millisecond),
		config.OptExportMaxExecutionTime(10 * time.Second),
		config.OptExportMaxCompletionTime(5 * time.Second),
		config.OptIndexRetryWait(time.Millisecond),
		config.OptExportProvenanceFields([]string{"data_resource_uid"}),
	}
	cfg.Update(append(base, opts...))
	return cfg
}

func testCatalogue() *fields.Catalogue {
	cat, err := fields.New(fields.Data{
		Default: []string{"id", "latitude", "month", "eventDate"},
		Fields: []fields.Field{
			{Name: "id", Title: "Record ID", DwC: "occurrenceID"},
			{Name: "latitude", Title: "Latitude", DwC: "decimalLatitude"},
			{Name: "month", Title: "Month", DwC: "month"},
			{Name: "eventDate", Title: "Event Date", DwC: "eventDate"},
		},
		Sensitive: []fields.Sensitive{
			{Field: "sensitive_latitude", Public: "latitude"},
		},
		Assertions: []fields.Field{
			{Name: "zeroCoordinates", Title: "Zero Coordinates"},
			{Name: "invalidDate", Title: "Invalid Date"},
		},
	})
	if err != nil {
		panic(err)
	}
	return cat
}

// genDocs creates n documents of one source in one month. An empty month
// leaves the month field out.
func genDocs(prefix, source, month string, n int) []export.Document {
	res := make([]export.Document, n)
	for i := range n {
		d := export.Document{
			"id":                prefix + "-" + strconv.Itoa(i),
			"latitude":          -35.1,
			"data_resource_uid": source,
			"eventDate":         time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		}
		if month != "" {
			d["month"] = month
		}
		res[i] = d
	}
	return res
}

func statsSum(stats map[string]int64) int64 {
	var res int64
	for k, v := range stats {
		if !export.IsInfoKey(k, v) {
			res += v
		}
	}
	return res
}
