package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/strongholdapp/docsync/internal/flagx"
	"github.com/strongholdapp/docsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "30s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerURL    string         `json:"server_url"`
	DatabaseDSN  string         `json:"database_dsn"`
	SyncInterval timex.Duration `json:"sync_interval"`
	PingInterval timex.Duration `json:"ping_interval"`
	Jurisdiction string         `json:"jurisdiction"`
	DeviceName   string         `json:"device_name"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags; with no flag set nothing is loaded.
// Read or unmarshal errors panic (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerURL = jc.ServerURL
	cfg.DatabaseDSN = jc.DatabaseDSN
	cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	cfg.PingInterval = time.Duration(jc.PingInterval.Duration)
	cfg.Jurisdiction = jc.Jurisdiction
	cfg.DeviceName = jc.DeviceName
}
