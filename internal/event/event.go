// Package event holds the normalized market data events produced by the
// feed layer. Events are plain immutable values: the pipeline only reads
// them to build sink rows.
package event

// Kind identifies a normalized event kind. The string value doubles as the
// default sink table name for that kind.
type Kind string

const (
	KindTrade        Kind = "trades"
	KindTicker       Kind = "ticker"
	KindCandle       Kind = "candles"
	KindFunding      Kind = "funding"
	KindOpenInterest Kind = "open_interest"
	KindLiquidation  Kind = "liquidations"
	KindOrderInfo    Kind = "order_info"
	KindTransaction  Kind = "transactions"
	KindBalance      Kind = "balances"
	KindFill         Kind = "fills"
	KindBook         Kind = "book"
)

// Meta is the identity and timing info common to all scalar events.
// Timestamp is the venue assigned time in float seconds since epoch and is
// nil when the venue did not supply one. ReceiptTimestamp is the local
// observation time in float seconds and is always set by the feed layer.
type Meta struct {
	Exchange         string
	Symbol           string
	Timestamp        *float64
	ReceiptTimestamp float64
}

// Common returns the shared identity and timing info.
func (m *Meta) Common() *Meta { return m }

// Event is implemented by every scalar event kind.
type Event interface {
	Kind() Kind
	Common() *Meta
}

// Trade is a single market trade.
type Trade struct {
	Meta
	Side   string
	Type   string
	Price  float64
	Amount float64
	// ID is the venue assigned trade identifier, empty when unknown.
	ID string
}

func (*Trade) Kind() Kind { return KindTrade }

// Ticker is a top of book quote update.
type Ticker struct {
	Meta
	Bid float64
	Ask float64
}

func (*Ticker) Kind() Kind { return KindTicker }

// Candle is an OHLCV bar. Trades is zero when the venue did not report a
// trade count for the bar.
type Candle struct {
	Meta
	Start    float64
	Stop     float64
	Interval string
	Trades   int64
	Open     float64
	Close    float64
	High     float64
	Low      float64
	Volume   float64
}

func (*Candle) Kind() Kind { return KindCandle }

// Funding is a perpetual funding update.
type Funding struct {
	Meta
	MarkPrice *float64
	Rate      float64
	// NextFundingTime is in float seconds since epoch, nil when unknown.
	NextFundingTime *float64
}

func (*Funding) Kind() Kind { return KindFunding }

// OpenInterest is an open interest update.
type OpenInterest struct {
	Meta
	OpenInterest float64
}

func (*OpenInterest) Kind() Kind { return KindOpenInterest }

// Liquidation is a forced position closure.
type Liquidation struct {
	Meta
	Side     string
	Quantity float64
	Price    float64
	ID       string
	Status   string
}

func (*Liquidation) Kind() Kind { return KindLiquidation }

// OrderInfo is an own-order status update.
type OrderInfo struct {
	Meta
	ID            string
	ClientOrderID string
	Side          string
	Status        string
	Type          string
	Price         float64
	Amount        float64
	Remaining     *float64
	Account       string
}

func (*OrderInfo) Kind() Kind { return KindOrderInfo }

// Transaction is a deposit or withdrawal record.
type Transaction struct {
	Meta
	Currency string
	Type     string
	Status   string
	Amount   float64
}

func (*Transaction) Kind() Kind { return KindTransaction }

// Balance is an account balance update.
type Balance struct {
	Meta
	Currency string
	Balance  float64
	Reserved *float64
}

func (*Balance) Kind() Kind { return KindBalance }

// Fill is an own-trade execution report.
type Fill struct {
	Meta
	Price     float64
	Amount    float64
	Side      string
	Fee       *float64
	ID        string
	OrderID   string
	Liquidity string
	Type      string
	Account   string
}

func (*Fill) Kind() Kind { return KindFill }
