package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the optional config file read from the working directory
const FileName = "trade-graph.toml"

// Config holds all configuration for the application
type Config struct {
	Edges        string  `koanf:"edges"`
	SourceColumn string  `koanf:"source-column"`
	TargetColumn string  `koanf:"target-column"`
	WeightColumn string  `koanf:"weight-column"`
	Damping      float64 `koanf:"damping"`
	Iterations   int     `koanf:"iterations"`
	Top          int     `koanf:"top"`
	Shock        string  `koanf:"shock"`
	Output       string  `koanf:"output"`
	Format       string  `koanf:"format"`
	WebMode      bool    `koanf:"web"`
	Port         int     `koanf:"port"`
	Watch        bool    `koanf:"watch"`
	CacheSize    int     `koanf:"cache-size"`
	Verbosity    string  `koanf:"verbosity"`
	VerboseCnt   int     `koanf:"verbose"`
	JSONLogs     bool    `koanf:"json-logs"`
}

// Defaults returns the configuration used when nothing else is set
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"edges":         "data/arms_transfers.csv",
		"source-column": "exporter",
		"target-column": "importer",
		"weight-column": "tiv",
		"damping":       0.85,
		"iterations":    60,
		"top":           12,
		"shock":         "",
		"output":        "",
		"format":        "json",
		"web":           false,
		"port":          8080,
		"watch":         false,
		"cache-size":    256,
		"verbosity":     "",
		"verbose":       0,
		"json-logs":     false,
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return load(f, FileName)
}

func load(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional, but must parse when present)
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	// 3. Environment Variables
	// Prefix: TRADE_GRAPH_ (e.g., TRADE_GRAPH_DAMPING=0.9, TRADE_GRAPH_CACHE_SIZE=64)
	if err := k.Load(env.Provider("TRADE_GRAPH_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "TRADE_GRAPH_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that koanf cannot express
func (c *Config) Validate() error {
	if !(c.Damping > 0 && c.Damping < 1) {
		return fmt.Errorf("damping must be in (0, 1), got %v", c.Damping)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.Format != "json" && c.Format != "yaml" {
		return fmt.Errorf("format must be json or yaml, got %q", c.Format)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache-size must be at least 1, got %d", c.CacheSize)
	}
	if c.Edges == "" {
		return fmt.Errorf("edges file must be set")
	}
	return nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
