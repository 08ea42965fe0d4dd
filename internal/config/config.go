// Package config loads and validates sqlsplit settings from config file,
// environment, and defaults.
package config

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/sqlsplit/internal/packer"
)

// Config is the top-level configuration struct for sqlsplit.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	// MaxSize is the chunk size ceiling as a humanized byte size ("1000KB",
	// "64MiB") or a bare byte count.
	MaxSize string `mapstructure:"max_size"`

	// Concurrency is the writer pool size.
	Concurrency int `mapstructure:"concurrency"`

	// Oversized selects handling of statements larger than MaxSize:
	// "allow" or "error".
	Oversized string `mapstructure:"oversized"`

	// Compress enables lz4 compression of output files.
	Compress bool `mapstructure:"compress"`
}

// Defaults match the original sql-splitter tool: 1000 KB chunks, four
// concurrent writes.
const (
	DefaultMaxSize     = "1000KiB"
	DefaultConcurrency = 4
	DefaultOversized   = string(packer.PolicyAllow)
	DefaultCompress    = false
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidMaxSize indicates max_size is unparsable or not positive.
	ErrInvalidMaxSize = errors.New("max_size must be a positive byte size")
	// ErrInvalidConcurrency indicates concurrency is below 1.
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")
	// ErrInvalidOversizedPolicy indicates an unknown oversized policy name.
	ErrInvalidOversizedPolicy = errors.New(`oversized must be "allow" or "error"`)
)

// Validate checks all settings, returning the first violation.
func (c *Config) Validate() error {
	_, err := c.MaxSizeBytes()
	if err != nil {
		return err
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidConcurrency, c.Concurrency)
	}

	if !packer.Policy(c.Oversized).Valid() {
		return fmt.Errorf("%w: got %q", ErrInvalidOversizedPolicy, c.Oversized)
	}

	return nil
}

// MaxSizeBytes parses MaxSize into a byte count.
func (c *Config) MaxSizeBytes() (int64, error) {
	parsed, err := humanize.ParseBytes(c.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxSize, c.MaxSize)
	}

	if parsed == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxSize, c.MaxSize)
	}

	return int64(parsed), nil
}

// OversizedPolicy returns the parsed oversized policy.
func (c *Config) OversizedPolicy() packer.Policy {
	return packer.Policy(c.Oversized)
}
