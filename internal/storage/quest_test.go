package storage

import (
	"testing"

	"github.com/darknebula/questfeed/internal/config"
)

func TestQuestAddresses(t *testing.T) {
	q := Quest{Cfg: &config.Quest{Host: "10.1.2.3", Port: 9009}}

	// Ingestion goes to the ILP HTTP endpoint on 9001 no matter what
	// port is configured; the configured port belongs to the control
	// channel only.
	if got := q.ConfString(); got != "http::addr=10.1.2.3:9001;" {
		t.Errorf("ConfString = %q", got)
	}
	if got := q.ControlAddr(); got != "http://10.1.2.3:9009" {
		t.Errorf("ControlAddr = %q", got)
	}

	q.Cfg.Port = 9999
	if got := q.ConfString(); got != "http::addr=10.1.2.3:9001;" {
		t.Errorf("ConfString = %q, configured port leaked into ingestion address", got)
	}
	if got := q.ControlAddr(); got != "http://10.1.2.3:9999" {
		t.Errorf("ControlAddr = %q", got)
	}
}
