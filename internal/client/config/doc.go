// Package config loads runtime configuration for the docsync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend HTTP API
//	-d string   path of the local SQLite cache database
//	-s int      full sync interval (seconds)
//	-i int      online status check interval (seconds)
//	-j string   jurisdiction code for the offline reference pack
//	-n string   device display name
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "30s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "database_dsn": "docsync.db",
//	  "sync_interval": "30s",
//	  "ping_interval": "3s",
//	  "jurisdiction": "US",
//	  "device_name": "workstation"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
