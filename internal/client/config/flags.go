package config

import (
	"flag"
	"os"
	"time"

	"github.com/strongholdapp/docsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-i", "-j", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the backend HTTP API")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "path of the local cache database")
	syncInterval := fs.Int("s", int(cfg.SyncInterval.Seconds()), "full sync interval (in seconds)")
	pingInterval := fs.Int("i", int(cfg.PingInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.Jurisdiction, "j", cfg.Jurisdiction, "jurisdiction code for the offline reference pack")
	fs.StringVar(&cfg.DeviceName, "n", cfg.DeviceName, "device display name")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
	cfg.PingInterval = time.Duration(*pingInterval) * time.Second
}
