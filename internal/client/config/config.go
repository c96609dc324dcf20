package config

import "time"

// Config holds runtime settings for the HomeHub CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the HomeHub REST API.
//   - DatabaseDSN: sqlite DSN for the local session store.
//   - RequestTimeout: per-request timeout for API calls.
//   - RefreshSkew: how close to expiry an access token may get before a
//     proactive refresh is attempted.
type Config struct {
	ServerBaseURL  string
	DatabaseDSN    string
	RequestTimeout time.Duration
	RefreshSkew    time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8000/api"
	c.DatabaseDSN = "homehub.db"
	c.RequestTimeout = 15 * time.Second
	c.RefreshSkew = 30 * time.Second
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
