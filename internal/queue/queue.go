// Package queue provides the unbounded FIFO buffer between the event
// producing goroutines and the single writer task. Put never blocks the
// caller; the queue grows instead. That trades unbounded memory growth
// under sustained sink unavailability for guaranteed non blocking
// producers, which is the chosen failure mode: operators watch the depth
// via Len and Stats rather than this package applying backpressure.
package queue

import (
	"sync"
)

// Queue is a growable ring buffer safe for many concurrent producers and
// exactly one drainer.
type Queue[T any] struct {
	mu     sync.Mutex
	nempty *sync.Cond
	buf    []T
	head   int
	count  int
	closed bool

	puts    int64
	takes   int64
	resizes int64
}

// Stats is a point in time snapshot of queue counters.
type Stats struct {
	Depth    int
	Capacity int
	Puts     int64
	Takes    int64
	Resizes  int64
}

// New creates a queue with the given initial capacity.
func New[T any](initialCapacity int) *Queue[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	q := &Queue[T]{buf: make([]T, initialCapacity)}
	q.nempty = sync.NewCond(&q.mu)
	return q
}

// Put appends one item. It returns in bounded time regardless of queue
// depth and never blocks on the drainer. It reports false only after
// Close, when the item is discarded.
func (q *Queue[T]) Put(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if q.count == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.count)%len(q.buf)] = item
	q.count++
	q.puts++
	q.nempty.Signal()
	return true
}

// Drain removes and returns every queued item in FIFO order. When the
// queue is empty it blocks until at least one item is put or the queue is
// closed. The acquisition is all or nothing: the batch is whatever is
// queued at the moment of wakeup, so batch size self tunes to load. It
// reports false once the queue is closed and fully drained.
func (q *Queue[T]) Drain() ([]T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.nempty.Wait()
	}
	if q.count == 0 {
		return nil, false
	}

	batch := make([]T, q.count)
	for i := range batch {
		batch[i] = q.buf[q.head]
		var zero T
		q.buf[q.head] = zero
		q.head = (q.head + 1) % len(q.buf)
	}
	q.takes += int64(q.count)
	q.count = 0
	return batch, true
}

// Close stops further puts and wakes a blocked drainer. Items already
// queued remain drainable.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.nempty.Broadcast()
}

// Len returns the current queue depth.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Snapshot returns current queue counters.
func (q *Queue[T]) Snapshot() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Depth:    q.count,
		Capacity: len(q.buf),
		Puts:     q.puts,
		Takes:    q.takes,
		Resizes:  q.resizes,
	}
}

// grow doubles capacity, unwrapping the ring. Caller holds the lock.
func (q *Queue[T]) grow() {
	next := make([]T, len(q.buf)*2)
	n := copy(next, q.buf[q.head:])
	copy(next[n:], q.buf[:q.head])
	q.buf = next
	q.head = 0
	q.resizes++
}
