package connector

import (
	"context"
	"net"
	"testing"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/darknebula/questfeed/internal/config"
)

// startEchoServer accepts one websocket connection on the loopback
// interface and echoes every text frame back.
func startEchoServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		if _, err := ws.Upgrade(conn); err != nil {
			return
		}
		for {
			frame, err := wsutil.ReadClientText(conn)
			if err != nil {
				return
			}
			if err := wsutil.WriteServerText(conn, frame); err != nil {
				return
			}
		}
	}()
	return "ws://" + ln.Addr().String()
}

func TestWebsocketRoundTrip(t *testing.T) {
	url := startEchoServer(t)
	cfg := config.WS{ConnTimeoutSec: 5, ReadTimeoutSec: 5}

	w, err := NewWebsocket(context.Background(), &cfg, url)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Conn.Close()

	if err := w.Write([]byte(`{"method":"SUBSCRIBE"}`)); err != nil {
		t.Fatal(err)
	}
	frame, err := w.Read()
	if err != nil {
		t.Fatal(err)
	}
	if string(frame) != `{"method":"SUBSCRIBE"}` {
		t.Errorf("frame = %q", frame)
	}
}

func TestNewWebsocketHonorsCallerContext(t *testing.T) {
	url := startEchoServer(t)

	// Without a connection timeout the dial runs under the caller's
	// context, so a canceled context must fail it.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewWebsocket(ctx, &config.WS{}, url); err == nil {
		t.Error("dial succeeded under a canceled context")
	}
}
