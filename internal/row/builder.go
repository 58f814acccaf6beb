package row

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/darknebula/questfeed/internal/event"
)

// Builder builds sink rows from normalized events. A single Builder is
// shared by all producing goroutines; it carries only the configured table
// name prefix.
type Builder struct {
	key string
}

// NewBuilder returns a Builder. key, when non empty, is prepended to every
// table name, so key "qa" stores trades in "qa_trades".
func NewBuilder(key string) *Builder {
	return &Builder{key: key}
}

func (b *Builder) tableFor(kind event.Kind) string {
	if b.key == "" {
		return string(kind)
	}
	return b.key + "_" + string(kind)
}

type buildFunc func(*Builder, event.Event) (Row, error)

// builders dispatches each event kind to its translation function.
var builders = map[event.Kind]buildFunc{
	event.KindTrade:        (*Builder).trade,
	event.KindTicker:       (*Builder).ticker,
	event.KindCandle:       (*Builder).candle,
	event.KindFunding:      (*Builder).funding,
	event.KindOpenInterest: (*Builder).openInterest,
	event.KindLiquidation:  (*Builder).liquidation,
	event.KindOrderInfo:    (*Builder).orderInfo,
	event.KindTransaction:  (*Builder).transaction,
	event.KindBalance:      (*Builder).balance,
	event.KindFill:         (*Builder).fill,
}

// Build translates one scalar event into exactly one row. A missing
// exchange or symbol is a construction error and the event yields no row.
func (b *Builder) Build(ev event.Event) (Row, error) {
	fn, ok := builders[ev.Kind()]
	if ok {
		return fn(b, ev)
	}
	return Row{}, errors.Errorf("no row builder for event kind %q", ev.Kind())
}

// begin starts a row for the given kind: identity tags, designated time
// from the receipt timestamp.
func (b *Builder) begin(kind event.Kind, m *event.Meta) (Row, error) {
	table := b.tableFor(kind)
	if m.Exchange == "" || m.Symbol == "" {
		return Row{}, errors.Errorf("event missing exchange or symbol: exchange %q, symbol %q, table %s", m.Exchange, m.Symbol, table)
	}
	return Row{
		Table: table,
		Tags:  []Tag{{"exchange", m.Exchange}, {"symbol", m.Symbol}},
		At:    UnixNanos(m.ReceiptTimestamp),
	}, nil
}

// finish appends the timing fields shared by all scalar rows: the venue
// timestamp as a microsecond column when present, and the receipt
// timestamp microsecond column which is always included for downstream
// latency analysis.
func finish(r Row, m *event.Meta) Row {
	if ts, ok := UnixMicrosOpt(m.Timestamp); ok {
		r.Fields = append(r.Fields, Field{"venue_timestamp", Micros(ts)})
	}
	r.Fields = append(r.Fields, Field{"receipt_timestamp", Micros(UnixMicros(m.ReceiptTimestamp))})
	return r
}

func (b *Builder) trade(ev event.Event) (Row, error) {
	t := ev.(*event.Trade)
	r, err := b.begin(event.KindTrade, &t.Meta)
	if err != nil {
		return Row{}, err
	}
	r.Tags = append(r.Tags, Tag{"side", t.Side})
	if t.Type != "" {
		r.Tags = append(r.Tags, Tag{"type", t.Type})
	}
	r.Fields = append(r.Fields,
		Field{"price", Float(t.Price)},
		Field{"amount", Float(t.Amount)},
	)
	// Venue trade ids are stored as integers, so an id makes it into the
	// row only when it is all decimal digits. Anything else is dropped
	// from the row, not coerced and not an error.
	if id, ok := digitsToInt(t.ID); ok {
		r.Fields = append(r.Fields, Field{"id", Int(id)})
	}
	return finish(r, &t.Meta), nil
}

func (b *Builder) ticker(ev event.Event) (Row, error) {
	t := ev.(*event.Ticker)
	r, err := b.begin(event.KindTicker, &t.Meta)
	if err != nil {
		return Row{}, err
	}
	r.Fields = append(r.Fields,
		Field{"bid", Float(t.Bid)},
		Field{"ask", Float(t.Ask)},
	)
	return finish(r, &t.Meta), nil
}

func (b *Builder) candle(ev event.Event) (Row, error) {
	c := ev.(*event.Candle)
	r, err := b.begin(event.KindCandle, &c.Meta)
	if err != nil {
		return Row{}, err
	}
	r.Tags = append(r.Tags, Tag{"interval", c.Interval})
	r.Fields = append(r.Fields,
		Field{"start", Float(c.Start)},
		Field{"stop", Float(c.Stop)},
	)
	if c.Trades != 0 {
		r.Fields = append(r.Fields, Field{"trades", Int(c.Trades)})
	}
	r.Fields = append(r.Fields,
		Field{"open", Float(c.Open)},
		Field{"close", Float(c.Close)},
		Field{"high", Float(c.High)},
		Field{"low", Float(c.Low)},
		Field{"volume", Float(c.Volume)},
	)
	// Candles carry the venue close time as an integer nanosecond column
	// instead of the shared microsecond venue_timestamp column.
	if ts, ok := UnixNanosOpt(c.Timestamp); ok {
		r.Fields = append(r.Fields, Field{"timestamp", Nanos(ts)})
	}
	r.Fields = append(r.Fields, Field{"receipt_timestamp", Micros(UnixMicros(c.ReceiptTimestamp))})
	return r, nil
}

func (b *Builder) funding(ev event.Event) (Row, error) {
	f := ev.(*event.Funding)
	r, err := b.begin(event.KindFunding, &f.Meta)
	if err != nil {
		return Row{}, err
	}
	if f.MarkPrice != nil {
		r.Fields = append(r.Fields, Field{"mark_price", Float(*f.MarkPrice)})
	}
	r.Fields = append(r.Fields, Field{"rate", Float(f.Rate)})
	if ts, ok := UnixMicrosOpt(f.NextFundingTime); ok {
		r.Fields = append(r.Fields, Field{"next_funding_time", Micros(ts)})
	}
	return finish(r, &f.Meta), nil
}

func (b *Builder) openInterest(ev event.Event) (Row, error) {
	o := ev.(*event.OpenInterest)
	r, err := b.begin(event.KindOpenInterest, &o.Meta)
	if err != nil {
		return Row{}, err
	}
	r.Fields = append(r.Fields, Field{"open_interest", Float(o.OpenInterest)})
	return finish(r, &o.Meta), nil
}

func (b *Builder) liquidation(ev event.Event) (Row, error) {
	l := ev.(*event.Liquidation)
	r, err := b.begin(event.KindLiquidation, &l.Meta)
	if err != nil {
		return Row{}, err
	}
	r.Tags = append(r.Tags, Tag{"side", l.Side})
	r.Fields = append(r.Fields,
		Field{"quantity", Float(l.Quantity)},
		Field{"price", Float(l.Price)},
	)
	if l.ID != "" {
		r.Fields = append(r.Fields, Field{"id", Str(l.ID)})
	}
	if l.Status != "" {
		r.Fields = append(r.Fields, Field{"status", Str(l.Status)})
	}
	return finish(r, &l.Meta), nil
}

func (b *Builder) orderInfo(ev event.Event) (Row, error) {
	o := ev.(*event.OrderInfo)
	r, err := b.begin(event.KindOrderInfo, &o.Meta)
	if err != nil {
		return Row{}, err
	}
	r.Tags = append(r.Tags, Tag{"side", o.Side})
	r.Fields = append(r.Fields, Field{"id", Str(o.ID)})
	if o.ClientOrderID != "" {
		r.Fields = append(r.Fields, Field{"client_order_id", Str(o.ClientOrderID)})
	}
	r.Fields = append(r.Fields,
		Field{"status", Str(o.Status)},
		Field{"type", Str(o.Type)},
		Field{"price", Float(o.Price)},
		Field{"amount", Float(o.Amount)},
	)
	if o.Remaining != nil {
		r.Fields = append(r.Fields, Field{"remaining", Float(*o.Remaining)})
	}
	if o.Account != "" {
		r.Fields = append(r.Fields, Field{"account", Str(o.Account)})
	}
	return finish(r, &o.Meta), nil
}

func (b *Builder) transaction(ev event.Event) (Row, error) {
	t := ev.(*event.Transaction)
	r, err := b.begin(event.KindTransaction, &t.Meta)
	if err != nil {
		return Row{}, err
	}
	r.Fields = append(r.Fields,
		Field{"currency", Str(t.Currency)},
		Field{"type", Str(t.Type)},
		Field{"status", Str(t.Status)},
		Field{"amount", Float(t.Amount)},
	)
	return finish(r, &t.Meta), nil
}

func (b *Builder) balance(ev event.Event) (Row, error) {
	bl := ev.(*event.Balance)
	r, err := b.begin(event.KindBalance, &bl.Meta)
	if err != nil {
		return Row{}, err
	}
	r.Fields = append(r.Fields,
		Field{"currency", Str(bl.Currency)},
		Field{"balance", Float(bl.Balance)},
	)
	if bl.Reserved != nil {
		r.Fields = append(r.Fields, Field{"reserved", Float(*bl.Reserved)})
	}
	return finish(r, &bl.Meta), nil
}

func (b *Builder) fill(ev event.Event) (Row, error) {
	f := ev.(*event.Fill)
	r, err := b.begin(event.KindFill, &f.Meta)
	if err != nil {
		return Row{}, err
	}
	r.Tags = append(r.Tags, Tag{"side", f.Side})
	r.Fields = append(r.Fields,
		Field{"price", Float(f.Price)},
		Field{"amount", Float(f.Amount)},
	)
	if f.Fee != nil {
		r.Fields = append(r.Fields, Field{"fee", Float(*f.Fee)})
	}
	r.Fields = append(r.Fields,
		Field{"id", Str(f.ID)},
		Field{"order_id", Str(f.OrderID)},
	)
	if f.Liquidity != "" {
		r.Fields = append(r.Fields, Field{"liquidity", Str(f.Liquidity)})
	}
	if f.Type != "" {
		r.Fields = append(r.Fields, Field{"type", Str(f.Type)})
	}
	if f.Account != "" {
		r.Fields = append(r.Fields, Field{"account", Str(f.Account)})
	}
	return finish(r, &f.Meta), nil
}

// digitsToInt parses s as a base 10 integer when it is non empty, all
// decimal digits and fits int64. A value too large for int64 is treated
// like a non numeric id, not wrapped.
func digitsToInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
