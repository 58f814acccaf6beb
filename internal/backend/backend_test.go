package backend

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/darknebula/questfeed/internal/config"
	"github.com/darknebula/questfeed/internal/event"
	"github.com/darknebula/questfeed/internal/row"
)

type captureSink struct {
	mu   sync.Mutex
	rows []row.Row
}

func (s *captureSink) CommitRows(_ context.Context, data []row.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, data...)
	return nil
}

func (s *captureSink) all() []row.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]row.Row, len(s.rows))
	copy(out, s.rows)
	return out
}

func questCfg() *config.Quest {
	return &config.Quest{Host: config.DefaultQuestHost, Port: config.DefaultQuestPort}
}

func testTrade(symbol string) *event.Trade {
	return &event.Trade{
		Meta: event.Meta{
			Exchange:         "binance",
			Symbol:           symbol,
			ReceiptTimestamp: 1700000000.123456,
		},
		Side:   "buy",
		Price:  42000,
		Amount: 1,
		ID:     "7",
	}
}

func TestWriteFlushesToSink(t *testing.T) {
	sink := &captureSink{}
	be := New(questCfg(), sink)

	done := make(chan error, 1)
	go func() { done <- be.Run(context.Background()) }()

	be.Write(testTrade("BTC-USDT"))
	be.Write(testTrade("ETH-USDT"))
	be.Close()
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	rows := sink.all()
	if len(rows) != 2 {
		t.Fatalf("sink received %v rows, want 2", len(rows))
	}
	if sym, _ := rows[0].Tag("symbol"); sym != "BTC-USDT" {
		t.Errorf("first row symbol = %q, want enqueue order preserved", sym)
	}
	if sym, _ := rows[1].Tag("symbol"); sym != "ETH-USDT" {
		t.Errorf("second row symbol = %q", sym)
	}
}

func TestWriteDropsMalformedEvent(t *testing.T) {
	sink := &captureSink{}
	be := New(questCfg(), sink)

	tr := testTrade("BTC-USDT")
	tr.Exchange = ""
	be.Write(tr)

	if depth := be.QueueDepth(); depth != 0 {
		t.Errorf("queue depth = %v after a malformed event, want 0", depth)
	}
}

func TestWriteBookExpands(t *testing.T) {
	sink := &captureSink{}
	be := New(questCfg(), sink)

	book := &event.Book{
		Exchange: "coinbase",
		Symbol:   "BTC-USD",
		Bids:     []event.Level{{Price: 100, Size: 1}, {Price: 99, Size: 2}},
		Asks:     []event.Level{{Price: 101, Size: 3}},
	}
	be.WriteBook(book, 1700000000.123456)

	if depth := be.QueueDepth(); depth != 3 {
		t.Errorf("queue depth = %v, want one row per resting level", depth)
	}

	stats := be.QueueStats()
	if stats.Puts != 3 {
		t.Errorf("queue puts = %v, want 3", stats.Puts)
	}
}

func TestWriteBookTopShallowBookDropped(t *testing.T) {
	sink := &captureSink{}
	be := New(questCfg(), sink)

	// Default depth is 10; two levels a side must fail the row, not
	// enqueue zeros.
	book := &event.Book{
		Exchange: "coinbase",
		Symbol:   "BTC-USD",
		Bids:     []event.Level{{Price: 100, Size: 1}, {Price: 99, Size: 2}},
		Asks:     []event.Level{{Price: 101, Size: 3}, {Price: 102, Size: 4}},
	}
	be.WriteBookTop(book, 1700000000.123456)

	if depth := be.QueueDepth(); depth != 0 {
		t.Errorf("queue depth = %v after a shallow top of book update, want 0", depth)
	}
}

func TestWriteAfterCloseDoesNotBlock(t *testing.T) {
	sink := &captureSink{}
	be := New(questCfg(), sink)
	be.Close()

	done := make(chan struct{})
	go func() {
		be.Write(testTrade("BTC-USDT"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Write blocked after close")
	}
}
