package ioexport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gnames/gnexport/pkg/errcode"
	"github.com/gnames/gnexport/pkg/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSignal(t *testing.T) {
	sig := newSignal()
	assert.False(t, sig.IsSet())
	assert.Nil(t, sig.Cause())

	first := errors.New("first")
	var wg sync.WaitGroup
	var wins int
	var mu sync.Mutex
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cause := first
			if i > 0 {
				cause = errors.New("later")
			}
			if sig.Set(cause) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.True(t, sig.IsSet())
	assert.Error(t, sig.Cause())
	<-sig.Done()
}

func TestRelayOffer(t *testing.T) {
	defer goleak.VerifyNone(t)

	sig := newSignal()
	r := newRelay(1, 10*time.Millisecond, sig)
	ctx := context.Background()

	rec := &export.Record{Values: []string{"1"}}
	assert.True(t, r.offer(ctx, rec))

	// full queue keeps blocking across offer timeouts until the signal
	done := make(chan bool)
	go func() {
		done <- r.offer(ctx, &export.Record{})
	}()
	select {
	case <-done:
		t.Fatal("offer on a full queue returned")
	case <-time.After(50 * time.Millisecond):
	}
	sig.Set(errors.New("stop"))
	assert.False(t, <-done)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.False(t, newRelay(1, time.Second, newSignal()).offer(cctx, rec))
}

func TestRelaySentinel(t *testing.T) {
	sig := newSignal()
	r := newRelay(3, time.Second, sig)
	ctx := context.Background()
	for range 3 {
		require.True(t, r.offer(ctx, &export.Record{}))
	}

	// forced sentinel replaces queued records
	r.forceFinish()
	assert.Equal(t, int64(3), r.dropped.Load())
	require.Len(t, r.ch, 1)

	// normal sentinel is enqueued once
	r.finish()
	r.finish()
	assert.Len(t, r.ch, 2)

	assert.Same(t, sentinel, <-r.ch)
	assert.Same(t, sentinel, <-r.ch)
	r.drain()
	assert.Equal(t, int64(3), r.dropped.Load())
}

func TestWriterStopsOnFirstSentinel(t *testing.T) {
	defer goleak.VerifyNone(t)

	sig := newSignal()
	r := newRelay(10, time.Second, sig)
	sink := &countingSink{}
	stats := export.NewStats()
	w := newWriter(sink, r, sig, stats, []string{"ID"})
	ctx := context.Background()

	require.True(t, r.offer(ctx, &export.Record{
		Values: []string{"1"}, Provenance: []string{"in1", "dr1"},
	}))
	require.True(t, r.offer(ctx, &export.Record{
		Values: []string{"2"}, Provenance: []string{"dr1"},
	}))
	r.finish()
	r.ch <- sentinel

	w.run(ctx)
	assert.Equal(t, int64(2), w.written.Load())
	assert.Equal(t, [][]string{{"1"}, {"2"}}, sink.Rows())
	assert.Equal(t, []string{"ID"}, sink.header)
	assert.Equal(t, int64(2), stats.Get("dr1"))
	assert.Equal(t, int64(1), stats.Get("in1"))

	// the second sentinel stays in the queue
	assert.Len(t, r.ch, 1)

	// backstop does not finalize twice
	require.NoError(t, w.finalize())
	assert.Equal(t, int32(1), sink.finalizes.Load())
}

func TestWriterInterrupted(t *testing.T) {
	defer goleak.VerifyNone(t)

	sig := newSignal()
	r := newRelay(10, time.Second, sig)
	sink := &countingSink{}
	w := newWriter(sink, r, sig, export.NewStats(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go w.run(ctx)
	cancel()
	<-w.done

	assert.True(t, sink.IsFinalized())
	assert.True(t, w.isDone())
	w.finalize()
	assert.Equal(t, int32(1), sink.finalizes.Load())
}

func TestWriterSinkError(t *testing.T) {
	sig := newSignal()
	r := newRelay(10, time.Second, sig)
	sink := &countingSink{failAfter: 1}
	stats := export.NewStats()
	w := newWriter(sink, r, sig, stats, nil)
	ctx := context.Background()

	for range 3 {
		require.True(t, r.offer(ctx, &export.Record{
			Values: []string{"x"}, Provenance: []string{"dr1"},
		}))
	}
	w.run(ctx)

	assert.Equal(t, int64(1), w.written.Load())
	// failed writes are not counted
	assert.Equal(t, int64(1), stats.Get("dr1"))
	require.True(t, sig.IsSet())
	assert.Equal(t, errcode.ExportSinkError, errCode(t, sig.Cause()))
	assert.Equal(t, int32(1), sink.finalizes.Load())
}
