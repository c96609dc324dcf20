// Package config loads runtime configuration for the HomeHub CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the HomeHub REST API
//	-d string   sqlite DSN of the local session store
//	-t int      request timeout (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "15s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "https://hub.example.com/api",
//	  "database_dsn": "homehub.db",
//	  "request_timeout": "15s",
//	  "refresh_skew": "30s"
//	}
//
// Primary API
//
//   - type Config                     — holds connection and storage settings
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
