package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the persistent application configuration
type Config struct {
	// Backend connection
	Server ServerConfig `json:"server"`

	// Global search behavior
	Search SearchConfig `json:"search"`

	// Local matter cache
	Cache CacheConfig `json:"cache"`
}

// ServerConfig holds backend connection settings
type ServerConfig struct {
	URL       string `json:"url"`
	Token     string `json:"token,omitempty"`
	TimeoutMs int    `json:"timeout_ms"` // Per-request HTTP timeout
}

// SearchConfig holds global search overlay settings
type SearchConfig struct {
	DebounceMs      int      `json:"debounce_ms"`       // Quiescence window before dispatch
	MinQueryLen     int      `json:"min_query_len"`     // Queries shorter than this never dispatch
	MaxPerSource    int      `json:"max_per_source"`    // Result cap per source
	SourceTimeoutMs int      `json:"source_timeout_ms"` // Per-source search timeout
	Sources         []string `json:"sources"`           // Source order fixes display order
}

// CacheConfig holds matter cache settings
type CacheConfig struct {
	RecentMatters      int `json:"recent_matters"`       // Pool size for client-side matter search
	RefreshIntervalMin int `json:"refresh_interval_min"` // Minutes between background refreshes
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:       "http://localhost:8400",
			TimeoutMs: 10000,
		},
		Search: SearchConfig{
			DebounceMs:      300,
			MinQueryLen:     2,
			MaxPerSource:    5,
			SourceTimeoutMs: 5000,
			Sources:         []string{"clients", "matters"},
		},
		Cache: CacheConfig{
			RecentMatters:      200,
			RefreshIntervalMin: 5,
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".casedesk", "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	path := ConfigPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults and try to auto-populate from environment
			cfg := DefaultConfig()
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), nil
	}
	cfg.fillZeroValues()
	cfg.AutoPopulateFromEnv()

	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path := ConfigPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // Restrictive permissions for the token
}

// AutoPopulateFromEnv fills in connection settings from environment variables
func (c *Config) AutoPopulateFromEnv() {
	if url := os.Getenv("CASEDESK_SERVER"); url != "" {
		c.Server.URL = url
	}
	if token := os.Getenv("CASEDESK_TOKEN"); token != "" {
		c.Server.Token = token
	}
}

// fillZeroValues replaces unset numeric fields with defaults so a hand-edited
// config file can omit sections it doesn't care about.
func (c *Config) fillZeroValues() {
	def := DefaultConfig()
	if c.Server.TimeoutMs <= 0 {
		c.Server.TimeoutMs = def.Server.TimeoutMs
	}
	if c.Search.DebounceMs <= 0 {
		c.Search.DebounceMs = def.Search.DebounceMs
	}
	if c.Search.MinQueryLen <= 0 {
		c.Search.MinQueryLen = def.Search.MinQueryLen
	}
	if c.Search.MaxPerSource <= 0 {
		c.Search.MaxPerSource = def.Search.MaxPerSource
	}
	if c.Search.SourceTimeoutMs <= 0 {
		c.Search.SourceTimeoutMs = def.Search.SourceTimeoutMs
	}
	if len(c.Search.Sources) == 0 {
		c.Search.Sources = def.Search.Sources
	}
	if c.Cache.RecentMatters <= 0 {
		c.Cache.RecentMatters = def.Cache.RecentMatters
	}
	if c.Cache.RefreshIntervalMin <= 0 {
		c.Cache.RefreshIntervalMin = def.Cache.RefreshIntervalMin
	}
}
