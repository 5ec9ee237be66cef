package config

import "time"

// Config holds runtime settings for the docsync client.
//
// Fields:
//   - ServerURL: base URL of the backend HTTP API.
//   - DatabaseDSN: path of the local SQLite cache database.
//   - SyncInterval: how often a full sync runs while online.
//   - PingInterval: how often the client probes server reachability.
//   - Jurisdiction: scope for the offline reference pack.
//   - DeviceName: human-readable name shown in the device list.
type Config struct {
	ServerURL    string
	DatabaseDSN  string
	SyncInterval time.Duration
	PingInterval time.Duration
	Jurisdiction string
	DeviceName   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabaseDSN = "docsync.db"
	c.SyncInterval = 30 * time.Second
	c.PingInterval = 3 * time.Second
	c.Jurisdiction = "US"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
