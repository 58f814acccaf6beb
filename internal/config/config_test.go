package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"exchanges": [{"name": "binance", "markets": [{"id": "BTCUSDT", "channels": ["trade"]}]}],
		"connection": {"quest": {"key": "qa"}},
		"log": {"level": "info", "file_path": "./test.log"}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	q := cfg.Connection.Quest
	if q.Host != DefaultQuestHost {
		t.Errorf("host = %q, want default %q", q.Host, DefaultQuestHost)
	}
	if q.Port != DefaultQuestPort {
		t.Errorf("port = %v, want default %v", q.Port, DefaultQuestPort)
	}
	if q.BookDepth != DefaultBookDepth {
		t.Errorf("book depth = %v, want default %v", q.BookDepth, DefaultBookDepth)
	}
	if q.Key != "qa" {
		t.Errorf("key = %q, want configured value kept", q.Key)
	}
	if len(cfg.Exchanges) != 1 || cfg.Exchanges[0].Name != "binance" {
		t.Errorf("exchanges = %+v", cfg.Exchanges)
	}
}

func TestLoadKeepsConfiguredValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"connection": {"quest": {"host": "10.0.0.5", "port": 9010, "book_depth": 5}}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	q := cfg.Connection.Quest
	if q.Host != "10.0.0.5" || q.Port != 9010 || q.BookDepth != 5 {
		t.Errorf("quest config = %+v, configured values overridden", q)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("missing config file did not fail load")
	}
}
