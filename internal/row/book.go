package row

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/darknebula/questfeed/internal/event"
)

// Order book expansion. A book update becomes either one row per changed
// level (delta mode), one row per resting level (snapshot mode), or a
// single fixed depth top of book row. In every mode the designated time is
// the receipt time and the venue time rides along as an optional
// microsecond column.

const (
	sideBid = "bid"
	sideAsk = "ask"
)

// bookMeta holds the per update values shared by every expanded row.
type bookMeta struct {
	table    string
	exchange string
	symbol   string
	at       int64
	venue    int64
	hasVenue bool
}

func (b *Builder) bookMeta(exchange, symbol string, venue *float64, receipt float64) (bookMeta, error) {
	m := bookMeta{
		table:    b.tableFor(event.KindBook),
		exchange: exchange,
		symbol:   symbol,
		at:       UnixNanos(receipt),
	}
	if exchange == "" || symbol == "" {
		return m, errors.Errorf("book missing exchange or symbol: exchange %q, symbol %q, table %s", exchange, symbol, m.table)
	}
	m.venue, m.hasVenue = UnixMicrosOpt(venue)
	return m, nil
}

func (m *bookMeta) row(side string, fields []Field) Row {
	if m.hasVenue {
		fields = append(fields, Field{"venue_timestamp", Micros(m.venue)})
	}
	return Row{
		Table:  m.table,
		Tags:   []Tag{{"exchange", m.exchange}, {"symbol", m.symbol}, {"side", side}},
		Fields: fields,
		At:     m.at,
	}
}

func (m *bookMeta) levelRow(side string, lvl event.Level) Row {
	return m.row(side, []Field{
		{"price", Float(lvl.Price)},
		{"size", Float(lvl.Size)},
	})
}

func (m *bookMeta) orderRow(side string, ord event.Order) Row {
	return m.row(side, []Field{
		{"order_id", Str(ord.OrderID)},
		{"price", Float(ord.Price)},
		{"size", Float(ord.Size)},
	})
}

// ExpandBook flattens an L2 book update into per level rows. When the
// book carries a delta with at least one changed level, only the delta is
// expanded, in its recorded change order; otherwise the full resting book
// is expanded in its price sorted order. Either way the bid side is
// emitted fully before the ask side. The row count therefore equals the
// delta tuple count or the resting level count, never a mix.
func (b *Builder) ExpandBook(book *event.Book, receipt float64) ([]Row, error) {
	m, err := b.bookMeta(book.Exchange, book.Symbol, book.Timestamp, receipt)
	if err != nil {
		return nil, err
	}

	var bids, asks []event.Level
	if !book.Delta.Empty() {
		bids, asks = book.Delta.Bids, book.Delta.Asks
	} else {
		bids, asks = book.Bids, book.Asks
	}

	rows := make([]Row, 0, len(bids)+len(asks))
	for _, lvl := range bids {
		rows = append(rows, m.levelRow(sideBid, lvl))
	}
	for _, lvl := range asks {
		rows = append(rows, m.levelRow(sideAsk, lvl))
	}
	return rows, nil
}

// ExpandBookL3 is ExpandBook for per order books: each row carries the
// order id alongside price and size.
func (b *Builder) ExpandBookL3(book *event.BookL3, receipt float64) ([]Row, error) {
	m, err := b.bookMeta(book.Exchange, book.Symbol, book.Timestamp, receipt)
	if err != nil {
		return nil, err
	}

	var bids, asks []event.Order
	if !book.Delta.Empty() {
		bids, asks = book.Delta.Bids, book.Delta.Asks
	} else {
		bids, asks = book.Bids, book.Asks
	}

	rows := make([]Row, 0, len(bids)+len(asks))
	for _, ord := range bids {
		rows = append(rows, m.orderRow(sideBid, ord))
	}
	for _, ord := range asks {
		rows = append(rows, m.orderRow(sideAsk, ord))
	}
	return rows, nil
}

// TopOfBook emits exactly one row per book update holding the first depth
// price and size pairs of each side, indexed bid_0..bid_{depth-1} and
// ask_0..ask_{depth-1}. A book with fewer resting levels than depth on
// either side fails the row instead of padding with zeros, which would
// poison the price columns downstream.
func (b *Builder) TopOfBook(book *event.Book, depth int, receipt float64) (Row, error) {
	m, err := b.bookMeta(book.Exchange, book.Symbol, book.Timestamp, receipt)
	if err != nil {
		return Row{}, err
	}
	if len(book.Bids) < depth || len(book.Asks) < depth {
		return Row{}, errors.Errorf("book %s %s has fewer than %d resting levels a side: bids %d, asks %d",
			book.Exchange, book.Symbol, depth, len(book.Bids), len(book.Asks))
	}

	fields := make([]Field, 0, 4*depth+2)
	for i := 0; i < depth; i++ {
		idx := strconv.Itoa(i)
		fields = append(fields,
			Field{"bid_" + idx + "_price", Float(book.Bids[i].Price)},
			Field{"bid_" + idx + "_size", Float(book.Bids[i].Size)},
		)
	}
	for i := 0; i < depth; i++ {
		idx := strconv.Itoa(i)
		fields = append(fields,
			Field{"ask_" + idx + "_price", Float(book.Asks[i].Price)},
			Field{"ask_" + idx + "_size", Float(book.Asks[i].Size)},
		)
	}
	fields = append(fields, Field{"receipt_timestamp", Micros(UnixMicros(receipt))})
	if m.hasVenue {
		fields = append(fields, Field{"venue_timestamp", Micros(m.venue)})
	}

	// Top of book rows aggregate both sides, so there is no side tag.
	return Row{
		Table:  m.table,
		Tags:   []Tag{{"exchange", m.exchange}, {"symbol", m.symbol}},
		Fields: fields,
		At:     m.at,
	}, nil
}
