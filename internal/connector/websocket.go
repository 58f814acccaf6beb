// Package connector dials and frames the websocket connections the feed
// layer reads exchange streams from.
package connector

import (
	"context"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/darknebula/questfeed/internal/config"
)

// Websocket is one client connection to an exchange stream endpoint.
type Websocket struct {
	Conn net.Conn
	Cfg  *config.WS
}

// NewWebsocket dials url. A configured connection timeout bounds the
// dial; without one the dial runs under appCtx alone, so canceling the
// app context aborts it either way.
func NewWebsocket(appCtx context.Context, cfg *config.WS, url string) (Websocket, error) {
	ctx := appCtx
	if cfg.ConnTimeoutSec > 0 {
		timeoutCtx, cancel := context.WithTimeout(appCtx, time.Duration(cfg.ConnTimeoutSec)*time.Second)
		defer cancel()
		ctx = timeoutCtx
	}
	conn, _, _, err := ws.Dial(ctx, url)
	if err != nil {
		return Websocket{}, err
	}
	return Websocket{Conn: conn, Cfg: cfg}, nil
}

// Write sends one text frame.
func (w *Websocket) Write(data []byte) error {
	return wsutil.WriteClientText(w.Conn, data)
}

// Read returns the next text frame. A configured read timeout arms a
// fresh deadline per call, so an idle connection errors out instead of
// blocking the feed forever.
func (w *Websocket) Read() ([]byte, error) {
	if w.Cfg.ReadTimeoutSec > 0 {
		if err := w.Conn.SetReadDeadline(time.Now().Add(time.Duration(w.Cfg.ReadTimeoutSec) * time.Second)); err != nil {
			return nil, err
		}
	}
	return wsutil.ReadServerText(w.Conn)
}
