package exchange

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/darknebula/questfeed/internal/backend"
	"github.com/darknebula/questfeed/internal/config"
	"github.com/darknebula/questfeed/internal/connector"
	"github.com/darknebula/questfeed/internal/event"
)

// StartBinance is for starting binance exchange functions.
func StartBinance(appCtx context.Context, be *backend.Quest, markets []config.Market, retry *config.Retry, connCfg *config.Connection) error {

	// If any error occurs or connection is lost, retry the exchange functions with a time gap till it reaches
	// a configured number of retry.
	// Retry counter will be reset back to zero if the elapsed time since the last retry is greater than the configured one.
	var retryCount int
	lastRetryTime := time.Now()

	for {
		err := newBinance(appCtx, be, markets, connCfg)
		if err != nil {
			log.Error().Err(err).Str("exchange", "binance").Msg("error occurred")
			if retry.Number == 0 {
				return errors.New("not able to connect binance exchange. please check the log for details")
			}
			if retry.ResetSec == 0 || time.Since(lastRetryTime).Seconds() < float64(retry.ResetSec) {
				retryCount++
			} else {
				retryCount = 1
			}
			lastRetryTime = time.Now()
			if retryCount > retry.Number {
				return fmt.Errorf("not able to connect binance exchange even after %v retry. please check the log for details", retry.Number)
			}

			log.Error().Str("exchange", "binance").Int("retry", retryCount).Msg(fmt.Sprintf("retrying functions in %v seconds", retry.GapSec))
			tick := time.NewTicker(time.Duration(retry.GapSec) * time.Second)
			select {
			case <-tick.C:
				tick.Stop()

			// Return, if the app context is canceled.
			case <-appCtx.Done():
				tick.Stop()
				log.Error().Str("exchange", "binance").Msg("ctx canceled, return from StartBinance")
				return appCtx.Err()
			}
		}
	}
}

type binance struct {
	ws         connector.Websocket
	backend    *backend.Quest
	connCfg    *config.Connection
	channelIds map[int][2]string
}

type wsSubBinance struct {
	Method string    `json:"method"`
	Params [1]string `json:"params"`
	ID     int       `json:"id"`
}

type wsRespBinance struct {
	Event       string `json:"e"`
	Symbol      string `json:"s"`
	TradeID     uint64 `json:"t"`
	Maker       bool   `json:"m"`
	Qty         string `json:"q"`
	TickerPrice string `json:"c"`
	TradePrice  string `json:"p"`
	TickerTime  int64  `json:"E"`
	TradeTime   int64  `json:"T"`
	Code        int    `json:"code"`
	Msg         string `json:"msg"`
	ID          int    `json:"id"`

	// This field value is not used but still need to present
	// because otherwise json decoder does case-insensitive match with "m" and "M".
	IsBestMatch bool `json:"M"`
}

func newBinance(appCtx context.Context, be *backend.Quest, markets []config.Market, connCfg *config.Connection) error {

	// If any exchange function fails, force all the other functions to stop and return.
	binanceErrGroup, ctx := errgroup.WithContext(appCtx)

	b := binance{backend: be, connCfg: connCfg, channelIds: make(map[int][2]string)}

	err := b.connectWs(ctx)
	if err != nil {
		return err
	}

	binanceErrGroup.Go(func() error {
		return b.closeWsConnOnError(ctx)
	})

	binanceErrGroup.Go(func() error {
		return b.readWs(ctx)
	})

	var (
		id        int
		threshold int
	)
	for _, market := range markets {
		for _, channel := range market.Channels {
			id++
			b.channelIds[id] = [2]string{market.ID, channel}
			err = b.subWsChannel(market.ID, channel, id)
			if err != nil {
				return err
			}

			// Maximum messages sent to a websocket connection per sec is 5.
			// So on a safer side, this will wait for 2 sec before proceeding once it reaches ~90% of the limit.
			// (including 1 pong frame (sent by ws library), so 4-1)
			threshold++
			if threshold == 3 {
				log.Debug().Str("exchange", "binance").Int("count", threshold).Msg("subscribe threshold reached, waiting 2 sec")
				time.Sleep(2 * time.Second)
				threshold = 0
			}
		}
	}

	err = binanceErrGroup.Wait()
	if err != nil {
		return err
	}
	return nil
}

func (b *binance) connectWs(ctx context.Context) error {
	ws, err := connector.NewWebsocket(ctx, &b.connCfg.WS, config.BinanceWebsocketURL)
	if err != nil {
		if !errors.Is(err, ctx.Err()) {
			logErrStack(err)
		}
		return err
	}
	b.ws = ws
	log.Info().Str("exchange", "binance").Msg("websocket connected")
	return nil
}

// closeWsConnOnError closes websocket connection if there is any error in app context.
// This will unblock all read and writes on websocket.
func (b *binance) closeWsConnOnError(ctx context.Context) error {
	<-ctx.Done()
	err := b.ws.Conn.Close()
	if err != nil {
		return err
	}
	return ctx.Err()
}

// subWsChannel sends channel subscription requests to the websocket server.
func (b *binance) subWsChannel(market string, channel string, id int) error {
	if channel == "ticker" {
		channel = "miniTicker"
	}
	channel = strings.ToLower(market) + "@" + channel
	sub := wsSubBinance{
		Method: "SUBSCRIBE",
		Params: [1]string{channel},
		ID:     id,
	}
	frame, err := jsoniter.Marshal(sub)
	if err != nil {
		logErrStack(err)
		return err
	}
	err = b.ws.Write(frame)
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			err = errors.New("context canceled")
		} else {
			logErrStack(err)
		}
		return err
	}
	return nil
}

// readWs reads ticker / trade data from websocket channels and hands the
// normalized events to the backend.
func (b *binance) readWs(ctx context.Context) error {
	for {
		select {
		default:
			frame, err := b.ws.Read()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					err = errors.New("context canceled")
				} else {
					if err == io.EOF {
						err = errors.Wrap(err, "connection close by exchange server")
					}
					logErrStack(err)
				}
				return err
			}
			if len(frame) == 0 {
				continue
			}
			receipt := nowUnix()

			wr := wsRespBinance{}
			err = jsoniter.Unmarshal(frame, &wr)
			if err != nil {
				logErrStack(err)
				return err
			}

			if wr.ID != 0 {
				log.Debug().Str("exchange", "binance").Str("func", "readWs").Str("market", b.channelIds[wr.ID][0]).Str("channel", b.channelIds[wr.ID][1]).Msg("channel subscribed")
				continue
			}
			if wr.Msg != "" {
				log.Error().Str("exchange", "binance").Str("func", "readWs").Int("code", wr.Code).Str("msg", wr.Msg).Msg("")
				return errors.New("binance websocket error")
			}
			if wr.Event == "24hrMiniTicker" {
				wr.Event = "ticker"
			}

			err = b.processWs(&wr, receipt)
			if err != nil {
				return err
			}

		// Return, if there is any error from another function or exchange.
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// processWs transforms a ticker / trade frame into a normalized event and
// writes it to the backend. The backend call never blocks, so the read
// loop keeps pace with the socket regardless of sink health.
func (b *binance) processWs(wr *wsRespBinance, receipt float64) error {
	switch wr.Event {
	case "ticker":
		price, err := strconv.ParseFloat(wr.TickerPrice, 64)
		if err != nil {
			logErrStack(err)
			return err
		}

		// Mini ticker carries only the last price, used for both sides.
		ticker := event.Ticker{
			Meta: event.Meta{
				Exchange:         "binance",
				Symbol:           wr.Symbol,
				Timestamp:        msToUnix(wr.TickerTime),
				ReceiptTimestamp: receipt,
			},
			Bid: price,
			Ask: price,
		}
		b.backend.Write(&ticker)
	case "trade":
		size, err := strconv.ParseFloat(wr.Qty, 64)
		if err != nil {
			logErrStack(err)
			return err
		}
		price, err := strconv.ParseFloat(wr.TradePrice, 64)
		if err != nil {
			logErrStack(err)
			return err
		}

		side := "sell"
		if wr.Maker {
			side = "buy"
		}

		trade := event.Trade{
			Meta: event.Meta{
				Exchange:         "binance",
				Symbol:           wr.Symbol,
				Timestamp:        msToUnix(wr.TradeTime),
				ReceiptTimestamp: receipt,
			},
			Side:   side,
			Price:  price,
			Amount: size,
			ID:     strconv.FormatUint(wr.TradeID, 10),
		}
		b.backend.Write(&trade)
	}
	return nil
}
