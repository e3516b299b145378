package ioexport

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gnames/gnexport/pkg/export"
)

// run holds state shared by the actors of one export.
type run struct {
	sig      *signal
	relay    *relay
	stats    *export.Stats
	quota    *quotaState
	cap      *globalCap
	accepted atomic.Int64
	finished atomic.Int32
}

// worker pages through one sub-query and offers its records to the relay.
type worker struct {
	e   *exporter
	r   *run
	sq  export.SubQuery
	flt *filter

	// throttle is chosen once per worker from [base, 2*base].
	throttle time.Duration

	// offsets are requested page offsets, kept for diagnostics.
	offsets []int
}

func (e *exporter) newWorker(r *run, p *plan, sq export.SubQuery) *worker {
	flt := &filter{
		projection:  e.catalogue.Projection(p.columns, sq.Restricted),
		provenance:  e.cfg.Export.ProvenanceFields,
		quotaField:  e.cfg.Export.QuotaField,
		assertField: e.cfg.Export.AssertionsField,
		quota:       r.quota,
		cap:         r.cap,
	}
	flt.fallback = make([]string, len(flt.projection))
	for i, col := range p.columns {
		if flt.projection[i] != col.Field {
			flt.fallback[i] = col.Field
		}
	}
	for _, a := range p.assertions {
		flt.assertions = append(flt.assertions, a.Field)
	}

	var throttle time.Duration
	if base := e.cfg.Export.Throttle; base > 0 && !r.cap.enforced {
		throttle = base + rand.N(base+1)
	}

	return &worker{e: e, r: r, sq: sq, flt: flt, throttle: throttle}
}

// fields are index fields requested for every page.
func (w *worker) fields() []string {
	res := slices.Clone(w.flt.projection)
	for _, f := range w.flt.fallback {
		if f != "" {
			res = append(res, f)
		}
	}
	res = append(res, w.flt.quotaField)
	if len(w.flt.assertions) > 0 {
		res = append(res, w.flt.assertField)
	}
	res = append(res, w.flt.provenance...)
	return compact(res...)
}

// do fetches pages until the sub-query is exhausted or the export stops.
// An error is returned only when the index fails for good.
func (w *worker) do(ctx context.Context) error {
	defer w.r.finished.Add(1)

	sq := w.sq
	fields := w.fields()
	var count int
	for offset := 0; ; offset += sq.PageSize {
		if w.stopped(ctx) {
			break
		}

		w.offsets = append(w.offsets, offset)
		page, err := w.e.fetch(ctx, export.IndexQuery{
			Query:   sq.Query,
			Filters: sq.Filters,
			Fields:  fields,
			Sort:    sq.Sort,
			Offset:  offset,
			Rows:    sq.PageSize,
		})
		if err != nil {
			if w.r.sig.IsSet() || ctx.Err() != nil {
				break
			}
			err = ExportIndexError(sq.ID, err)
			w.r.sig.Set(err)
			return err
		}
		if len(page.Documents) == 0 {
			break
		}

		for _, doc := range page.Documents {
			rec, ok := w.flt.record(doc)
			if !ok {
				continue
			}
			if !w.r.relay.offer(ctx, rec) {
				return nil
			}
			w.r.accepted.Add(1)
			count++
		}

		if !w.sleep(ctx) {
			break
		}
	}

	slog.Debug("Sub-query finished",
		"id", sq.ID,
		"records", count,
		"pages", len(w.offsets),
	)
	return nil
}

func (w *worker) stopped(ctx context.Context) bool {
	switch {
	case w.r.sig.IsSet(), ctx.Err() != nil:
		return true
	case w.r.cap.reached():
		return true
	case w.sq.Source != "" && w.r.quota.exhausted(w.sq.Source):
		return true
	}
	return false
}

func (w *worker) sleep(ctx context.Context) bool {
	if w.throttle <= 0 {
		return true
	}
	timer := time.NewTimer(w.throttle)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-w.r.sig.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

// fetch requests one page. Transient failures are retried with a fixed
// wait, the same page is requested every time.
func (e *exporter) fetch(ctx context.Context, q export.IndexQuery) (*export.Page, error) {
	attempts := max(e.cfg.Index.MaxRetries, 1)
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(e.cfg.Index.RetryWait),
			uint64(attempts-1),
		),
		ctx,
	)

	op := func() (*export.Page, error) {
		page, err := e.index.Query(ctx, q)
		if err != nil && !export.IsTransient(err) {
			return nil, backoff.Permanent(err)
		}
		return page, err
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("Index request failed, retrying",
			"offset", q.Offset,
			"wait", wait,
			"error", err,
		)
	}
	return backoff.RetryNotifyWithData(op, policy, notify)
}
