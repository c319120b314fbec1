// Package config holds the settings of the phicore tool: logging, the
// storage defaults used when writing variables, and the memory budget for
// batched reads.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/phicore"
)

// Config is the top-level configuration.
type Config struct {
	Log   LogConfig   `yaml:"log"`
	Write WriteConfig `yaml:"write"`
	Read  ReadConfig  `yaml:"read"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// WriteConfig sets how variables are stored.
type WriteConfig struct {
	Codec      string `yaml:"codec"` // "", deflate, lz4
	Level      int    `yaml:"level"`
	Shuffle    bool   `yaml:"shuffle"`
	Fletcher32 bool   `yaml:"fletcher32"`
	Chunks     []int  `yaml:"chunks,omitempty"`
}

// ReadConfig bounds batched reads.
type ReadConfig struct {
	WorkingMemoryMiB float64 `yaml:"working_memory_mib"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Write: WriteConfig{
			Codec:   "deflate",
			Level:   4,
			Shuffle: true,
		},
		Read: ReadConfig{WorkingMemoryMiB: 256},
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies PHICORE_* environment variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("PHICORE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv("PHICORE_CODEC"); ok {
		c.Write.Codec = v // empty disables compression
	}
	if v := os.Getenv("PHICORE_LEVEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PHICORE_LEVEL: %w", err)
		}
		c.Write.Level = n
	}
	return nil
}

// Validate checks the configuration for values the tool cannot use.
func (c *Config) Validate() error {
	if _, err := c.ZapLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Write.Codec) {
	case "":
	case "deflate", "gzip":
		if c.Write.Level < 0 || c.Write.Level > 9 {
			return fmt.Errorf("invalid deflate level: %d (valid: 0-9)", c.Write.Level)
		}
	case "lz4":
	default:
		return fmt.Errorf("invalid codec: %s (valid: deflate, lz4)", c.Write.Codec)
	}
	for _, d := range c.Write.Chunks {
		if d < 1 {
			return fmt.Errorf("invalid chunk shape: %v", c.Write.Chunks)
		}
	}
	if c.Read.WorkingMemoryMiB <= 0 {
		return fmt.Errorf("invalid working memory: %g MiB", c.Read.WorkingMemoryMiB)
	}
	return nil
}

// ZapLevel parses the log level.
func (c *Config) ZapLevel() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return lvl, fmt.Errorf("invalid log level: %w", err)
	}
	return lvl, nil
}

// WriteOptions returns the storage settings as options for
// phicore.File.Write.
func (c *Config) WriteOptions() []phicore.WriteOption {
	var opts []phicore.WriteOption
	if c.Write.Codec != "" {
		opts = append(opts, phicore.WithCompression(c.Write.Codec, c.Write.Level))
	}
	if c.Write.Shuffle {
		opts = append(opts, phicore.WithShuffle())
	}
	if c.Write.Fletcher32 {
		opts = append(opts, phicore.WithFletcher32())
	}
	if len(c.Write.Chunks) > 0 {
		opts = append(opts, phicore.WithChunks(c.Write.Chunks...))
	}
	return opts
}
