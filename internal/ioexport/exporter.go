// Package ioexport runs bulk exports of occurrence records. A request is
// split into independent sub-queries, fetched by a bounded pool of
// workers, and streamed through one bounded relay into a sink. A
// coordinator moves every export through planning, running, draining and
// completion, and aborts it on failures, timeouts or interruption.
package ioexport

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gnames/gnexport/pkg/config"
	"github.com/gnames/gnexport/pkg/export"
	"github.com/gnames/gnexport/pkg/fields"
	"github.com/gnames/gnuuid"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// abortGrace is the longest time an aborting export waits for its
// goroutines.
const abortGrace = 10 * time.Second

type exporter struct {
	cfg         *config.Config
	index       export.Index
	catalogue   *fields.Catalogue
	quotaSource export.QuotaSource
	normalizer  export.Normalizer
	observer    func(State)
}

// Option configures an Exporter.
type Option func(*exporter)

// OptQuotaSource sets the lookup of per-source download limits.
func OptQuotaSource(q export.QuotaSource) Option {
	return func(e *exporter) {
		e.quotaSource = q
	}
}

// OptNormalizer sets the query normalizer. Without it queries are only
// trimmed.
func OptNormalizer(n export.Normalizer) Option {
	return func(e *exporter) {
		e.normalizer = n
	}
}

// OptStateObserver sets a function called on every state change.
func OptStateObserver(fn func(State)) Option {
	return func(e *exporter) {
		e.observer = fn
	}
}

// New creates an Exporter that reads documents from idx and resolves
// fields with cat.
func New(
	cfg *config.Config,
	idx export.Index,
	cat *fields.Catalogue,
	opts ...Option,
) export.Exporter {
	res := &exporter{cfg: cfg, index: idx, catalogue: cat}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Export streams records of a request into sink. The sink is finalized
// exactly once on every path that gets past planning.
func (e *exporter) Export(
	ctx context.Context,
	req export.Request,
	sink export.Sink,
) (*export.Result, error) {
	c := &coordinator{
		e:     e,
		req:   req.Clone(),
		sink:  sink,
		start: time.Now(),
	}
	return c.execute(ctx)
}

// coordinator supervises one export.
type coordinator struct {
	e     *exporter
	req   export.Request
	sink  export.Sink
	start time.Time

	plan *plan
	run  *run
	w    *writer

	fcancel     context.CancelFunc
	wcancel     context.CancelFunc
	workersDone chan struct{}
	bg          sync.WaitGroup

	timedOut    bool
	interrupted bool
	aborted     bool
	finPending  bool
	err         error
}

func (c *coordinator) execute(ctx context.Context) (*export.Result, error) {
	st := Planning
	for {
		c.setState(st)
		switch st {
		case Planning:
			st = c.planning(ctx)
		case Running:
			st = c.running(ctx)
		case Draining:
			st = c.draining(ctx)
		case Aborting:
			st = c.aborting()
		case Completed:
			return c.complete()
		}
	}
}

func (c *coordinator) setState(st State) {
	slog.Debug("Export state", "state", st.String())
	if c.e.observer != nil {
		c.e.observer(st)
	}
}

func (c *coordinator) planning(ctx context.Context) State {
	pctx, cancel := context.WithDeadline(
		ctx, c.start.Add(c.e.cfg.Export.MaxExecutionTime),
	)
	defer cancel()

	p, err := c.e.partition(pctx, c.req)
	switch {
	case err == nil:
		c.plan = p
		return Running
	case ctx.Err() != nil:
		c.interrupted = true
		c.err = ExportInterruptedError(ctx.Err())
	case pctx.Err() != nil:
		c.timedOut = true
		c.err = ExportTimeoutError("execution", c.e.cfg.Export.MaxExecutionTime)
	default:
		c.err = err
	}
	return Completed
}

// launch starts the writer and submits workers to the pool.
func (c *coordinator) launch(ctx context.Context) {
	ecfg := c.e.cfg.Export
	sig := newSignal()
	c.run = &run{
		sig:   sig,
		relay: newRelay(ecfg.QueueSize, ecfg.OfferTimeout, sig),
		stats: export.NewStats(),
		quota: newQuotaState(c.plan.quotas),
		cap:   newGlobalCap(c.plan.limit, c.plan.totalFound),
	}

	if ts, ok := c.sink.(export.TotalSetter); ok {
		ts.SetTotal(c.plan.expected)
	}
	c.w = newWriter(c.sink, c.run.relay, sig, c.run.stats, c.plan.headers())
	var wctx, fctx context.Context
	wctx, c.wcancel = context.WithCancel(context.WithoutCancel(ctx))
	fctx, c.fcancel = context.WithCancel(ctx)
	go c.w.run(wctx)

	c.workersDone = make(chan struct{})
	workers := make([]*worker, len(c.plan.subQueries))
	for i, sq := range c.plan.subQueries {
		workers[i] = c.e.newWorker(c.run, c.plan, sq)
	}

	go func() {
		defer close(c.workersDone)
		g := &errgroup.Group{}
		g.SetLimit(max(c.e.cfg.JobsNumber, 1))
		for _, w := range workers {
			if sig.IsSet() || fctx.Err() != nil {
				break
			}
			g.Go(func() error {
				return w.do(fctx)
			})
		}
		if err := g.Wait(); err != nil {
			slog.Error("Fetch worker failed", "error", err)
		}
	}()
}

func (c *coordinator) running(ctx context.Context) State {
	c.launch(ctx)

	ecfg := c.e.cfg.Export
	deadline := c.start.Add(ecfg.MaxExecutionTime)
	ticker := time.NewTicker(ecfg.PollInterval)
	defer ticker.Stop()

	for range ticker.C {
		switch {
		case ctx.Err() != nil:
			if c.run.sig.Set(ExportInterruptedError(ctx.Err())) {
				c.interrupted = true
			}
			return Aborting
		case time.Now().After(deadline):
			if c.run.sig.Set(
				ExportTimeoutError("execution", ecfg.MaxExecutionTime),
			) {
				c.timedOut = true
			}
			return Aborting
		case c.run.sig.IsSet():
			return Aborting
		case isClosed(c.workersDone):
			slog.Debug("All sub-queries finished",
				"workers", c.run.finished.Load())
			return Draining
		}
	}
	return Aborting
}

func (c *coordinator) draining(ctx context.Context) State {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		c.run.relay.finish()
	}()

	budget := c.e.cfg.Export.MaxCompletionTime
	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case <-c.w.done:
		if c.run.sig.IsSet() {
			return Aborting
		}
		return Completed
	case <-timer.C:
		if c.run.sig.Set(ExportTimeoutError("completion", budget)) {
			c.timedOut = true
		}
	case <-ctx.Done():
		if c.run.sig.Set(ExportInterruptedError(ctx.Err())) {
			c.interrupted = true
		}
	}
	return Aborting
}

func (c *coordinator) aborting() State {
	c.aborted = true
	c.run.sig.Set(errors.New("export aborted"))
	c.fcancel()
	c.run.relay.forceFinish()
	c.wcancel()

	grace := min(abortGrace, c.e.cfg.Export.MaxCompletionTime)
	if !waitFor(c.w.done, grace) {
		slog.Warn("Export writer did not stop in time")
	}

	// backstop, no-op if the writer finalized the sink already
	fin := make(chan struct{})
	go func() {
		defer close(fin)
		c.w.finalize()
	}()
	if !waitFor(fin, grace) {
		c.finPending = true
		slog.Warn("Export output was not finalized in time")
	}

	if !waitFor(c.workersDone, grace) {
		slog.Warn("Fetch workers did not stop in time")
	}
	c.bg.Wait()
	if c.w.isDone() {
		c.run.relay.drain()
	}
	return Completed
}

// waitFor waits until ch is closed or d passes. Each call has its own
// budget.
func waitFor(ch <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}

func (c *coordinator) complete() (*export.Result, error) {
	if c.plan == nil {
		return nil, c.err
	}
	c.fcancel()
	c.wcancel()

	if c.err == nil {
		c.err = c.run.sig.Cause()
	}
	// a sink stuck in Write keeps Finalize busy after the grace period
	if !c.finPending {
		if err := c.w.finalize(); err != nil && c.err == nil {
			c.err = ExportSinkError(err)
		}
	}

	flds, headers := c.plan.fields(), c.plan.headers()
	res := &export.Result{
		ExportID:    uuid.NewString(),
		QueryID:     QueryID(c.plan.query, c.plan.filters),
		Stats:       c.run.stats.WithInfo(flds, headers),
		Written:     int(c.w.written.Load()),
		Accepted:    int(c.run.accepted.Load()),
		Dropped:     int(c.run.relay.dropped.Load()),
		TotalFound:  c.plan.totalFound,
		Fields:      flds,
		Headers:     headers,
		Excluded:    c.plan.excluded,
		TimedOut:    c.timedOut,
		Interrupted: c.interrupted,
		Aborted:     c.aborted,
		Duration:    time.Since(c.start),
	}

	slog.Info("Export finished",
		"written", res.Written,
		"accepted", res.Accepted,
		"dropped", res.Dropped,
		"aborted", res.Aborted,
		"duration", res.Duration,
	)
	return res, c.err
}

// QueryID is a UUID v5 fingerprint of a query and its filters. The order
// of filters does not matter.
func QueryID(query string, filters []string) string {
	fqs := slices.Clone(filters)
	slices.Sort(fqs)
	return gnuuid.New(query + "\n" + strings.Join(fqs, "\n")).String()
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
