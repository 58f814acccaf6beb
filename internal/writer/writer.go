// Package writer runs the single task that drains the ingestion queue and
// commits row batches to the sink.
package writer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/darknebula/questfeed/internal/config"
	"github.com/darknebula/questfeed/internal/queue"
	"github.com/darknebula/questfeed/internal/row"
	"github.com/darknebula/questfeed/internal/storage"
)

// Writer drains the queue in batches and commits each batch to the sink.
// There is exactly one Writer per queue; it is the queue's only drainer.
type Writer struct {
	queue   *queue.Queue[row.Row]
	sink    storage.Sink
	retry   config.Retry
	running atomic.Bool
}

// New creates a writer over the given queue and sink. retry governs the
// per batch commit retry at the connection boundary.
func New(q *queue.Queue[row.Row], sink storage.Sink, retry config.Retry) *Writer {
	return &Writer{queue: q, sink: sink, retry: retry}
}

// Running reports whether the writer loop is active.
func (w *Writer) Running() bool {
	return w.running.Load()
}

// Stop asks the writer loop to exit. The flag is observed only at the top
// of the loop, so an in flight batch always completes. A writer blocked on
// an empty queue keeps waiting until the next row or queue close.
func (w *Writer) Stop() {
	w.running.Store(false)
}

// Run executes the writer loop until the queue is closed and drained,
// Stop is observed, or ctx is canceled. Each cycle takes every row queued
// at that moment and commits the batch in order.
func (w *Writer) Run(ctx context.Context) error {
	w.running.Store(true)
	defer w.running.Store(false)

	for w.running.Load() {
		batch, ok := w.queue.Drain()
		if !ok {
			log.Info().Msg("ingestion queue closed, writer done")
			return nil
		}
		if err := w.commit(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// commit delivers one batch, retrying whole batch commits at the
// connection boundary with the configured gap until the retry budget is
// spent. An exhausted batch is dropped and logged with its row count;
// partial redelivery is never attempted, so surviving rows stay in FIFO
// order. Only context cancellation is returned as an error.
func (w *Writer) commit(ctx context.Context, batch []row.Row) error {
	var retryCount int
	lastRetryTime := time.Now()

	for {
		err := w.sink.CommitRows(ctx, batch)
		if err == nil {
			return nil
		}
		if errors.Is(err, ctx.Err()) {
			return err
		}
		log.Error().Stack().Err(errors.WithStack(err)).Int("rows", len(batch)).Msg("sink commit failed")

		if w.retry.Number == 0 {
			log.Error().Int("rows", len(batch)).Msg("dropping batch, no sink retry configured")
			return nil
		}
		if w.retry.ResetSec == 0 || time.Since(lastRetryTime).Seconds() < float64(w.retry.ResetSec) {
			retryCount++
		} else {
			retryCount = 1
		}
		lastRetryTime = time.Now()
		if retryCount > w.retry.Number {
			log.Error().Int("rows", len(batch)).Int("retry", w.retry.Number).Msg("dropping batch, sink retry exhausted")
			return nil
		}

		log.Error().Int("retry", retryCount).Msg("retrying sink commit")
		if w.retry.GapSec <= 0 {
			continue
		}
		tick := time.NewTicker(time.Duration(w.retry.GapSec) * time.Second)
		select {
		case <-tick.C:
			tick.Stop()
		case <-ctx.Done():
			tick.Stop()
			return ctx.Err()
		}
	}
}
