package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/sajjad-MoBe/logkv/internal/logger"
)

// Config holds the settings of a logkv server
type Config struct {
	// LogFile is the path of the append-only data log
	LogFile string `toml:"log_file"`
	// HTTPAddress is the listen address of the HTTP API
	HTTPAddress string `toml:"http_address"`
	// GRPCAddress is the listen address of the gRPC API; empty disables it
	GRPCAddress string `toml:"grpc_address"`
	// Interactive runs the command prompt on stdin
	Interactive bool `toml:"interactive"`
	// SyncWrites fsyncs the log after every append
	SyncWrites bool `toml:"sync_writes"`

	LogLevel        string `toml:"log_level"`
	LogDir          string `toml:"log_dir"`
	ServiceName     string `toml:"service_name"`
	TracingEndpoint string `toml:"tracing_endpoint"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogFile:     "kvstore.log",
		HTTPAddress: ":3000",
		Interactive: true,
		SyncWrites:  true,
		LogLevel:    "info",
		ServiceName: "logkv",
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LogFile) == "" {
		return fmt.Errorf("log file path must not be empty")
	}
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http address must not be empty")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.GRPCAddress != "" && c.GRPCAddress == c.HTTPAddress {
		return fmt.Errorf("http and grpc cannot both listen on %s", c.HTTPAddress)
	}
	return nil
}
