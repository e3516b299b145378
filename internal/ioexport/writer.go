package ioexport

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnames/gnexport/pkg/export"
)

// writer is the only consumer of the relay and the only user of the sink.
type writer struct {
	sink    export.Sink
	relay   *relay
	sig     *signal
	stats   *export.Stats
	headers []string

	written   atomic.Int64
	finalized atomic.Bool
	finOnce   sync.Once
	finErr    error
	done      chan struct{}
}

func newWriter(
	sink export.Sink,
	r *relay,
	sig *signal,
	stats *export.Stats,
	headers []string,
) *writer {
	return &writer{
		sink:    sink,
		relay:   r,
		sig:     sig,
		stats:   stats,
		headers: headers,
		done:    make(chan struct{}),
	}
}

// run takes records from the relay until the sentinel, the signal, or
// cancellation of ctx. The sink is finalized on every exit.
func (w *writer) run(ctx context.Context) {
	defer close(w.done)
	defer w.finalize()

	if hw, ok := w.sink.(export.HeaderWriter); ok {
		if err := hw.WriteHeader(w.headers); err != nil {
			w.sig.Set(ExportSinkError(err))
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.sig.Done():
			return
		case rec := <-w.relay.ch:
			if rec == sentinel {
				return
			}
			if w.sig.IsSet() || w.finalized.Load() {
				w.relay.dropped.Add(1)
				return
			}
			if err := w.sink.Write(rec.Values); err != nil {
				w.sig.Set(ExportSinkError(err))
				return
			}
			w.written.Add(1)
			for _, p := range rec.Provenance {
				w.stats.Inc(p)
			}
		}
	}
}

// finalize calls Sink.Finalize once no matter how many exit paths reach
// it.
func (w *writer) finalize() error {
	w.finOnce.Do(func() {
		w.finalized.Store(true)
		w.finErr = w.sink.Finalize()
		if w.finErr != nil {
			slog.Error("Cannot finalize export output", "error", w.finErr)
		}
	})
	return w.finErr
}

// isDone reports if the writer loop has exited.
func (w *writer) isDone() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}
