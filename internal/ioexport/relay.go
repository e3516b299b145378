package ioexport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gnames/gnexport/pkg/export"
)

// sentinel marks the end of the stream. It is recognised by identity.
var sentinel = &export.Record{}

// relay is the bounded queue between fetch workers and the sink writer.
type relay struct {
	ch           chan *export.Record
	sig          *signal
	offerTimeout time.Duration
	finishOnce   sync.Once
	dropped      atomic.Int64
}

func newRelay(size int, offerTimeout time.Duration, sig *signal) *relay {
	if size < 1 {
		size = 1
	}
	return &relay{
		ch:           make(chan *export.Record, size),
		sig:          sig,
		offerTimeout: offerTimeout,
	}
}

// offer enqueues a record. It waits for free space in slices of
// offerTimeout, re-checking cancellation between them. It returns false
// if the record was not enqueued.
func (r *relay) offer(ctx context.Context, rec *export.Record) bool {
	timer := time.NewTimer(r.offerTimeout)
	defer timer.Stop()
	for {
		select {
		case r.ch <- rec:
			return true
		case <-r.sig.Done():
			return false
		case <-ctx.Done():
			return false
		case <-timer.C:
			if r.sig.IsSet() || ctx.Err() != nil {
				return false
			}
			timer.Reset(r.offerTimeout)
		}
	}
}

// finish enqueues the normal end-of-stream sentinel. Only the first call
// has an effect. It blocks while the queue is full unless the signal is
// raised.
func (r *relay) finish() {
	r.finishOnce.Do(func() {
		select {
		case r.ch <- sentinel:
		case <-r.sig.Done():
			r.forceFinish()
		}
	})
}

// forceFinish discards queued records and enqueues a sentinel. Producers
// racing with it may refill the queue, so discarding goes on until the
// sentinel fits. Discarded records are counted as dropped.
func (r *relay) forceFinish() {
	r.drain()
	for {
		select {
		case r.ch <- sentinel:
			return
		default:
		}
		select {
		case rec := <-r.ch:
			if rec != sentinel {
				r.dropped.Add(1)
			}
		default:
		}
	}
}

// drain discards what is left in the queue after all actors stopped.
func (r *relay) drain() {
	for {
		select {
		case rec := <-r.ch:
			if rec != sentinel {
				r.dropped.Add(1)
			}
		default:
			return
		}
	}
}
