package spillover

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/lanrat/spillover/tempfile"
	"gopkg.in/yaml.v3"
)

// DefaultMaxInMemorySizeBytes is the built-in threshold: 250MB.
const DefaultMaxInMemorySizeBytes int64 = 250_000_000

var defaultMaxInMemorySize atomic.Int64

func init() {
	defaultMaxInMemorySize.Store(DefaultMaxInMemorySizeBytes)
}

// DefaultMaxInMemorySize returns the threshold used by streams created without one.
func DefaultMaxInMemorySize() int64 {
	return defaultMaxInMemorySize.Load()
}

// SetDefaultMaxInMemorySize changes the process-wide default threshold for streams
// created afterwards. A negative n restores DefaultMaxInMemorySizeBytes.
func SetDefaultMaxInMemorySize(n int64) {
	if n < 0 {
		n = DefaultMaxInMemorySizeBytes
	}
	defaultMaxInMemorySize.Store(n)
}

// Config holds configuration settings for a Stream.
//
// MaxInMemorySize is taken literally: a zero value Config spills on the first
// non-empty write. Start from DefaultConfig to keep the default threshold, or set
// MaxInMemorySize to -1.
type Config struct {
	MaxInMemorySize  int64            `yaml:"max_in_memory_size"` // bytes kept in memory before spilling; negative uses the default, 0 spills on the first write
	PreferDiskBacked bool             `yaml:"prefer_disk_backed"` // when no directory is given, prefer /var/tmp style dirs over a possibly tmpfs os.TempDir()
	File             tempfile.Options `yaml:"file"`               // passed as is to tempfile.New on migration
	Logger           *slog.Logger     `yaml:"-"`                  // nil discards
}

// DefaultConfig returns the default configuration options used if none provided
func DefaultConfig() *Config {
	return &Config{
		MaxInMemorySize: DefaultMaxInMemorySize(),
		Logger:          slog.New(slog.DiscardHandler),
	}
}

// mergeConfig takes a provided config and replaces any values not set with the defaults.
// The caller's Config is not modified.
func mergeConfig(c *Config) *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	merged := *c
	if merged.MaxInMemorySize < 0 {
		merged.MaxInMemorySize = d.MaxInMemorySize
	}
	if merged.Logger == nil {
		merged.Logger = d.Logger
	}
	return &merged
}

// ParseConfig decodes a YAML document on top of DefaultConfig. Keys that are absent
// keep their default value.
func ParseConfig(data []byte) (*Config, error) {
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadConfig reads and parses the YAML config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

func (c *Config) validate() error {
	if c.MaxInMemorySize < 0 {
		return &ConfigError{Field: "max_in_memory_size", Value: c.MaxInMemorySize, Reason: "must not be negative"}
	}
	if c.File.Perm&^os.ModePerm != 0 {
		return &ConfigError{Field: "file.perm", Value: fmt.Sprintf("%#o", uint32(c.File.Perm)), Reason: "only permission bits are allowed"}
	}
	return nil
}
