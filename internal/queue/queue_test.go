package queue

import (
	"sync"
	"testing"
	"time"
)

func TestPutDrainFIFO(t *testing.T) {
	q := New[int](4)
	for i := 0; i < 10; i++ {
		if !q.Put(i) {
			t.Fatalf("Put(%v) failed on an open queue", i)
		}
	}

	batch, ok := q.Drain()
	if !ok {
		t.Fatal("Drain reported closed on an open queue")
	}
	if len(batch) != 10 {
		t.Fatalf("drained %v items, want all 10", len(batch))
	}
	for i, v := range batch {
		if v != i {
			t.Fatalf("batch[%v] = %v, want FIFO order", i, v)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len = %v after full drain", q.Len())
	}
}

func TestGrowthKeepsOrder(t *testing.T) {
	q := New[int](1)
	const n = 1000
	for i := 0; i < n; i++ {
		q.Put(i)
	}

	batch, _ := q.Drain()
	if len(batch) != n {
		t.Fatalf("drained %v items, want %v", len(batch), n)
	}
	for i, v := range batch {
		if v != i {
			t.Fatalf("batch[%v] = %v after growth, want FIFO order", i, v)
		}
	}
	if s := q.Snapshot(); s.Resizes == 0 {
		t.Error("queue never resized while absorbing 1000 items from capacity 1")
	}
}

func TestDrainBlocksUntilPut(t *testing.T) {
	q := New[string](4)
	got := make(chan []string, 1)
	go func() {
		batch, _ := q.Drain()
		got <- batch
	}()

	select {
	case batch := <-got:
		t.Fatalf("Drain returned %v from an empty queue", batch)
	case <-time.After(20 * time.Millisecond):
	}

	q.Put("a")
	select {
	case batch := <-got:
		if len(batch) != 1 || batch[0] != "a" {
			t.Fatalf("batch = %v, want [a]", batch)
		}
	case <-time.After(time.Second):
		t.Fatal("Drain did not wake after Put")
	}
}

func TestCloseDrainsRemainder(t *testing.T) {
	q := New[int](4)
	q.Put(1)
	q.Put(2)
	q.Close()

	if q.Put(3) {
		t.Error("Put succeeded on a closed queue")
	}

	batch, ok := q.Drain()
	if !ok || len(batch) != 2 {
		t.Fatalf("Drain after close = %v, %v, want the 2 queued items", batch, ok)
	}
	if _, ok := q.Drain(); ok {
		t.Error("Drain on a closed empty queue reported open")
	}
}

func TestConcurrentProducers(t *testing.T) {
	q := New[int](8)
	const producers = 8
	const perProducer = 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Put(p*perProducer + i)
			}
		}(p)
	}

	done := make(chan struct{})
	var total int
	var perProducerLast [producers]int
	go func() {
		defer close(done)
		for total < producers*perProducer {
			batch, ok := q.Drain()
			if !ok {
				return
			}
			for _, v := range batch {
				p := v / perProducer
				seq := v % perProducer
				// Per producer order must survive interleaving.
				if seq < perProducerLast[p] {
					t.Errorf("producer %v item %v drained after %v", p, seq, perProducerLast[p])
				}
				perProducerLast[p] = seq
			}
			total += len(batch)
		}
	}()

	wg.Wait()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("drainer did not observe all items")
	}
	if total != producers*perProducer {
		t.Fatalf("drained %v items, want %v", total, producers*perProducer)
	}
}
