// Package backend is the producer facing surface of the pipeline. Feed
// goroutines hand normalized events to a Quest backend, which builds sink
// rows synchronously and enqueues them for the writer task. Enqueueing
// never blocks and never surfaces an error to the caller: construction
// failures drop the single event and are logged with enough context to
// diagnose, and the writer owns everything from the queue onward.
package backend

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/darknebula/questfeed/internal/config"
	"github.com/darknebula/questfeed/internal/event"
	"github.com/darknebula/questfeed/internal/queue"
	"github.com/darknebula/questfeed/internal/row"
	"github.com/darknebula/questfeed/internal/storage"
	"github.com/darknebula/questfeed/internal/writer"
)

// initialQueueCap is only a starting size; the queue grows without bound
// rather than ever blocking a producer.
const initialQueueCap = 1024

// Quest ties the row builder, the ingestion queue and the writer task
// together for one sink.
type Quest struct {
	builder *row.Builder
	queue   *queue.Queue[row.Row]
	writer  *writer.Writer
	depth   int
}

// New creates a backend committing to the given sink using the quest
// connection config.
func New(cfg *config.Quest, sink storage.Sink) *Quest {
	q := queue.New[row.Row](initialQueueCap)
	depth := cfg.BookDepth
	if depth <= 0 {
		depth = config.DefaultBookDepth
	}
	return &Quest{
		builder: row.NewBuilder(cfg.Key),
		queue:   q,
		writer:  writer.New(q, sink, cfg.Retry),
		depth:   depth,
	}
}

// Run executes the writer task. It blocks until Close has been called and
// the queue is drained, or ctx is canceled mid commit.
func (q *Quest) Run(ctx context.Context) error {
	return q.writer.Run(ctx)
}

// Close stops intake. Rows already queued are still delivered before Run
// returns.
func (q *Quest) Close() {
	q.queue.Close()
}

// QueueDepth exposes the current backlog so operators can watch unbounded
// growth under sink slowness.
func (q *Quest) QueueDepth() int {
	return q.queue.Len()
}

// QueueStats returns ingestion queue counters.
func (q *Quest) QueueStats() queue.Stats {
	return q.queue.Snapshot()
}

// Write translates one scalar event into a row and enqueues it.
func (q *Quest) Write(ev event.Event) {
	r, err := q.builder.Build(ev)
	if err != nil {
		m := ev.Common()
		logDropped(err, m.Exchange, m.Symbol, string(ev.Kind()))
		return
	}
	q.put(r)
}

// WriteBook expands an L2 book update into per level rows and enqueues
// them in expansion order.
func (q *Quest) WriteBook(book *event.Book, receiptTimestamp float64) {
	rows, err := q.builder.ExpandBook(book, receiptTimestamp)
	if err != nil {
		logDropped(err, book.Exchange, book.Symbol, string(event.KindBook))
		return
	}
	for i := range rows {
		q.put(rows[i])
	}
}

// WriteBookL3 is WriteBook for per order books.
func (q *Quest) WriteBookL3(book *event.BookL3, receiptTimestamp float64) {
	rows, err := q.builder.ExpandBookL3(book, receiptTimestamp)
	if err != nil {
		logDropped(err, book.Exchange, book.Symbol, string(event.KindBook))
		return
	}
	for i := range rows {
		q.put(rows[i])
	}
}

// WriteBookTop enqueues one fixed depth top of book row. A book with
// fewer resting levels than the configured depth fails the row, which is
// dropped and logged like any malformed event.
func (q *Quest) WriteBookTop(book *event.Book, receiptTimestamp float64) {
	r, err := q.builder.TopOfBook(book, q.depth, receiptTimestamp)
	if err != nil {
		logDropped(err, book.Exchange, book.Symbol, string(event.KindBook))
		return
	}
	q.put(r)
}

func (q *Quest) put(r row.Row) {
	if !q.queue.Put(r) {
		log.Error().Str("table", r.Table).Msg("row dropped, backend already closed")
	}
}

func logDropped(err error, exchange, symbol, table string) {
	log.Error().Stack().Err(errors.WithStack(err)).
		Str("exchange", exchange).
		Str("symbol", symbol).
		Str("table", table).
		Msg("event dropped")
}
