package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/darknebula/questfeed/internal/config"
	"github.com/darknebula/questfeed/internal/connector"
)

// This probe connects to the binance trade stream and reports how far
// behind the venue timestamps the local receipt times run. Useful to
// sanity check receipt vs venue latency before trusting the stored
// receipt_timestamp columns.
func main() {
	symbol := flag.String("symbol", "btcusdt", "market symbol to probe")
	seconds := flag.Int("seconds", 60, "probe duration in seconds")
	flag.Parse()

	wsCfg := config.WS{ConnTimeoutSec: 30, ReadTimeoutSec: 90}
	url := config.BinanceWebsocketURL + "/" + strings.ToLower(*symbol) + "@trade"
	fmt.Printf("Connecting to %v for %vs ...\n", url, *seconds)

	ws, err := connector.NewWebsocket(context.Background(), &wsCfg, url)
	if err != nil {
		log.Error().Err(err).Str("exchange", "binance").Msg("websocket connect")
		return
	}
	defer ws.Conn.Close()

	type tradeFrame struct {
		EventTime int64 `json:"E"`
		TradeTime int64 `json:"T"`
	}

	var (
		eventLatNs []float64
		tradeLatNs []float64
		count      int
	)
	start := time.Now()
	deadline := start.Add(time.Duration(*seconds) * time.Second)

	for time.Now().Before(deadline) {
		frame, err := ws.Read()
		if err != nil {
			log.Error().Err(err).Str("exchange", "binance").Msg("websocket read")
			return
		}
		now := time.Now().UnixNano()
		if len(frame) == 0 {
			continue
		}

		tf := tradeFrame{}
		if err := jsoniter.Unmarshal(frame, &tf); err != nil {
			log.Error().Err(err).Str("exchange", "binance").Msg("frame decode")
			return
		}
		if tf.EventTime != 0 {
			eventLatNs = append(eventLatNs, float64(now-tf.EventTime*int64(time.Millisecond)))
		}
		if tf.TradeTime != 0 {
			tradeLatNs = append(tradeLatNs, float64(now-tf.TradeTime*int64(time.Millisecond)))
		}
		count++
	}

	fmt.Println(summarize("now - eventTime(E)", eventLatNs))
	fmt.Println(summarize("now - tradeTime(T)", tradeLatNs))
	fmt.Printf("msg_count=%v\n", count)
}

func summarize(label string, latNs []float64) string {
	if len(latNs) == 0 {
		return label + ": no data"
	}
	ms := make([]float64, len(latNs))
	for i, v := range latNs {
		ms[i] = v / 1e6
	}
	sort.Float64s(ms)
	return fmt.Sprintf("%s (ms)  n=%v | p50=%.1f  p95=%.1f  p99=%.1f  min=%.1f  max=%.1f",
		label, len(ms), pct(ms, 50), pct(ms, 95), pct(ms, 99), ms[0], ms[len(ms)-1])
}

// pct picks an approximate percentile from a sorted slice.
func pct(sorted []float64, p float64) float64 {
	k := int(p/100*float64(len(sorted)-1) + 0.5)
	if k < 0 {
		k = 0
	}
	if k > len(sorted)-1 {
		k = len(sorted) - 1
	}
	return sorted[k]
}
