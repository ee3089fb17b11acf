package service

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/semdom/semdom"
	"github.com/hazyhaar/semdom/shield"
)

// DefaultMaxInputBytes caps one markup upload.
const DefaultMaxInputBytes = 10 << 20

// Config holds the front-end configuration. The parser section is passed
// to semdom unchanged.
//
//	parser:
//	  max_depth: 40
//	  scoring: weighted
//	max_input_bytes: 5242880
//	state_db: /var/lib/semdom/state.db
//	http_addr: 127.0.0.1:8089
//	watch:
//	  interval: 500ms
//	  debounce: 200ms
//	rate_limit:
//	  requests: 120
//	  window: 1m
//	audit_retention: 720h
type Config struct {
	Parser        semdom.Config `yaml:"parser"`
	MaxInputBytes int64         `yaml:"max_input_bytes"`
	// StateDB enables snapshots of the runtime state store. Empty keeps
	// state in memory only.
	StateDB  string      `yaml:"state_db"`
	HTTPAddr string      `yaml:"http_addr"`
	Watch    WatchConfig `yaml:"watch"`
	// RateLimit applies to the HTTP routes; zero requests disables it.
	RateLimit shield.RateLimit `yaml:"rate_limit"`
	// DisableAudit turns off the tool call log kept in StateDB.
	DisableAudit bool `yaml:"disable_audit"`
	// AuditRetention prunes older audit rows when the service starts.
	AuditRetention time.Duration `yaml:"audit_retention"`
	// ToolTimeout bounds each MCP tool call. Default 30s.
	ToolTimeout time.Duration `yaml:"tool_timeout"`

	Logger *slog.Logger `yaml:"-"`
}

// WatchConfig tunes file watching in serve mode.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval"`
	Debounce time.Duration `yaml:"debounce"`
}

func (c *Config) defaults() {
	if c.MaxInputBytes <= 0 {
		c.MaxInputBytes = DefaultMaxInputBytes
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = "127.0.0.1:8089"
	}
	if c.Watch.Interval <= 0 {
		c.Watch.Interval = time.Second
	}
	if c.ToolTimeout <= 0 {
		c.ToolTimeout = 30 * time.Second
	}
	if c.Watch.Debounce < 0 {
		c.Watch.Debounce = 0
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Parser.Logger == nil {
		c.Parser.Logger = c.Logger
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("service: config %s: %w", path, err)
	}
	return cfg, nil
}
