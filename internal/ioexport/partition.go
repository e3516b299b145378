package ioexport

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/gnames/gnexport/pkg/export"
	"github.com/gnames/gnexport/pkg/fields"
)

// plan is the outcome of the planning stage.
type plan struct {
	query   string
	filters []string

	columns    []fields.Column
	assertions []fields.Column
	excluded   []string

	subQueries []export.SubQuery
	totalFound int

	// quotas are initial quotas of sources that need them.
	quotas map[string]int

	// limit is the global cap, zero means no cap.
	limit int

	// expected is an estimate of the number of exported records.
	expected int
}

func (p *plan) fields() []string {
	res := make([]string, 0, len(p.columns)+len(p.assertions))
	for _, c := range p.columns {
		res = append(res, c.Field)
	}
	for _, c := range p.assertions {
		res = append(res, c.Field)
	}
	return res
}

func (p *plan) headers() []string {
	res := make([]string, 0, len(p.columns)+len(p.assertions))
	for _, c := range p.columns {
		res = append(res, c.Title)
	}
	for _, c := range p.assertions {
		res = append(res, c.Title)
	}
	return res
}

// partition splits a request into disjoint sub-queries. The union of
// their results is the result of the request.
func (e *exporter) partition(ctx context.Context, req export.Request) (*plan, error) {
	res := &plan{}

	q, fqs, err := e.normalize(ctx, req)
	if err != nil {
		return nil, ExportPlanningError(err)
	}
	res.query, res.filters = q, fqs

	res.columns, res.excluded = e.catalogue.Resolve(req.Fields, req.DwcHeaders)
	if len(res.columns) == 0 {
		return nil, ExportPlanningError(errors.New("no fields to export"))
	}

	ecfg := e.cfg.Export
	facets := compact(ecfg.PartitionField, ecfg.AssertionsField, ecfg.QuotaField)
	page, err := e.fetch(ctx, export.IndexQuery{
		Query:   q,
		Filters: fqs,
		Facets:  facets,
	})
	if err != nil {
		if export.IsTransient(err) {
			return nil, ExportIndexError(-1, err)
		}
		return nil, ExportPlanningError(err)
	}
	res.totalFound = page.TotalFound

	var present []string
	if ecfg.AssertionsField != "" {
		for _, v := range page.Facets[ecfg.AssertionsField] {
			present = append(present, v.Value)
		}
	}
	res.assertions = e.catalogue.Assertions(req.QA, present)

	var sources []export.FacetCount
	if ecfg.QuotaField != "" {
		sources = page.Facets[ecfg.QuotaField]
	}
	res.quotas, err = e.initQuotas(ctx, req, sources)
	if err != nil {
		return nil, ExportPlanningError(err)
	}

	res.limit = e.limit(req)
	res.expected = res.totalFound
	for _, s := range sources {
		if n, ok := res.quotas[s.Value]; ok {
			res.expected -= s.Count - n
		}
	}
	if res.limit > 0 && res.totalFound >= res.limit {
		res.expected = min(res.expected, res.limit)
	}

	var parts []string
	if ecfg.PartitionField != "" {
		parts = partitions(ecfg.PartitionField, page.Facets[ecfg.PartitionField])
	}
	res.subQueries = e.subQueries(req, res, sources, parts)

	slog.Info("Export planned",
		"query", q,
		"found", res.totalFound,
		"sub-queries", len(res.subQueries),
		"quotas", len(res.quotas),
		"limit", res.limit,
	)
	return res, nil
}

func (e *exporter) normalize(
	ctx context.Context,
	req export.Request,
) (string, []string, error) {
	if e.normalizer != nil {
		return e.normalizer.Normalize(ctx, req.Query, req.Filters)
	}
	q := strings.TrimSpace(req.Query)
	if q == "" {
		return "", nil, errors.New("empty query")
	}
	var fqs []string
	for _, v := range req.Filters {
		if v = strings.TrimSpace(v); v != "" {
			fqs = append(fqs, v)
		}
	}
	return q, fqs, nil
}

// limit returns the global cap of a request. Uncompressed output uses the
// smaller cap.
func (e *exporter) limit(req export.Request) int {
	res := e.cfg.Export.MaxRecords
	if req.MaxRecords > 0 && (res <= 0 || req.MaxRecords < res) {
		res = req.MaxRecords
	}
	small := e.cfg.Export.UncompressedMaxRecords
	if !req.Compressed && small > 0 && (res <= 0 || small < res) {
		res = small
	}
	return res
}

// initQuotas returns quotas of sources that would otherwise exceed them.
// Quotas given in the request take precedence over the quota source.
func (e *exporter) initQuotas(
	ctx context.Context,
	req export.Request,
	sources []export.FacetCount,
) (map[string]int, error) {
	res := make(map[string]int)
	for _, s := range sources {
		n, ok := req.Quotas[s.Value]
		if !ok && e.quotaSource != nil {
			var err error
			n, ok, err = e.quotaSource.RemainingQuota(ctx, s.Value)
			if err != nil {
				return nil, err
			}
		}
		// zero remaining excludes the source
		if ok && n < s.Count {
			res[s.Value] = max(n, 0)
		}
	}
	return res, nil
}

// partitions returns partition clauses. The clause for documents without
// the partition field goes first.
func partitions(field string, counts []export.FacetCount) []string {
	if len(counts) == 0 {
		return nil
	}
	res := []string{"-" + field + ":[* TO *]"}
	for _, v := range counts {
		if v.Count > 0 {
			res = append(res, clause(field, v.Value))
		}
	}
	return res
}

func (e *exporter) subQueries(
	req export.Request,
	p *plan,
	sources []export.FacetCount,
	parts []string,
) []export.SubQuery {
	ecfg := e.cfg.Export
	var res []export.SubQuery
	add := func(source string, fqs ...string) {
		sq := export.SubQuery{
			Query:    p.query,
			Filters:  append(slices.Clone(p.filters), fqs...),
			Sort:     ecfg.SortField + " asc",
			PageSize: ecfg.PageSize,
			Source:   source,
		}
		switch {
		case req.IncludeSensitive:
			sq.Restricted = true
			res = append(res, sq)
		case req.SensitiveFilter != "":
			public := sq
			public.Filters = append(slices.Clone(sq.Filters),
				"-("+req.SensitiveFilter+")")
			restricted := sq
			restricted.Filters = append(slices.Clone(sq.Filters),
				req.SensitiveFilter)
			restricted.Restricted = true
			res = append(res, public, restricted)
		default:
			res = append(res, sq)
		}
	}

	// quota-bound sources are fetched first
	var bound []string
	for _, s := range sources {
		n, ok := p.quotas[s.Value]
		if !ok {
			continue
		}
		bound = append(bound, clause(ecfg.QuotaField, s.Value))
		if n > 0 {
			add(s.Value, clause(ecfg.QuotaField, s.Value))
		}
	}

	var rest []string
	if len(bound) > 0 {
		rest = append(rest, "-("+strings.Join(bound, " OR ")+")")
	}
	if len(parts) == 0 {
		add("", rest...)
	}
	for _, v := range parts {
		add("", append([]string{v}, rest...)...)
	}

	for i := range res {
		res[i].ID = i
	}
	return res
}

func compact(ss ...string) []string {
	var res []string
	for _, s := range ss {
		if s != "" && !slices.Contains(res, s) {
			res = append(res, s)
		}
	}
	return res
}
