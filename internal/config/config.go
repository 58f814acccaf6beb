package config

import (
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const (
	// BinanceWebsocketURL is the binance exchange websocket url.
	BinanceWebsocketURL = "wss://stream.binance.com:9443/ws"
)

// Default connection values for the QuestDB sink.
const (
	DefaultQuestHost = "127.0.0.1"
	DefaultQuestPort = 9009
	DefaultBookDepth = 10
)

// Config contains config values for the app.
// Struct values are loaded from user defined JSON config file.
type Config struct {
	Exchanges  []Exchange `json:"exchanges"`
	Connection Connection `json:"connection"`
	Log        Log        `json:"log"`
}

// Exchange contains config values for different exchanges.
type Exchange struct {
	Name    string   `json:"name"`
	Markets []Market `json:"markets"`
	Retry   Retry    `json:"retry"`
}

// Market contains config values for different markets.
type Market struct {
	ID       string   `json:"id"`
	Channels []string `json:"channels"`
}

// Retry contains config values for retry process.
type Retry struct {
	Number   int `json:"number"`
	GapSec   int `json:"gap_sec"`
	ResetSec int `json:"reset_sec"`
}

// Connection contains config values for different API and sink connections.
type Connection struct {
	WS    WS    `json:"websocket"`
	Quest Quest `json:"quest"`
}

// WS contains config values for websocket connection.
type WS struct {
	ConnTimeoutSec int `json:"conn_timeout_sec"`
	ReadTimeoutSec int `json:"read_timeout_sec"`
}

// Quest contains config values for the QuestDB sink.
// Port is the control channel port. Row ingestion always happens over the
// ILP HTTP endpoint on port 9001 of the same host.
type Quest struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Key           string `json:"key"`
	BookDepth     int    `json:"book_depth"`
	ReqTimeoutSec int    `json:"request_timeout_sec"`
	Retry         Retry  `json:"retry"`
}

// Log contains config values for logging.
type Log struct {
	Level    string `json:"level"`
	FilePath string `json:"file_path"`
}

// Load reads config values from the given JSON file and applies defaults
// for missing sink connection values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "not able to open config file")
	}
	defer f.Close()

	var cfg Config
	if err = jsoniter.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "not able to parse JSON from config file")
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero valued sink connection fields.
func (c *Config) ApplyDefaults() {
	q := &c.Connection.Quest
	if q.Host == "" {
		q.Host = DefaultQuestHost
	}
	if q.Port == 0 {
		q.Port = DefaultQuestPort
	}
	if q.BookDepth == 0 {
		q.BookDepth = DefaultBookDepth
	}
}
