package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sqlsplit/internal/packer"
	"github.com/Sumatoshi-tech/sqlsplit/pkg/units"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxSize, cfg.MaxSize)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, DefaultOversized, cfg.Oversized)
	assert.False(t, cfg.Compress)

	require.NoError(t, cfg.Validate())

	maxBytes, err := cfg.MaxSizeBytes()
	require.NoError(t, err)
	assert.EqualValues(t, 1000*units.KiB, maxBytes)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sqlsplit.yaml")

	content := "max_size: 64MiB\nconcurrency: 8\noversized: error\ncompress: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	maxBytes, err := cfg.MaxSizeBytes()
	require.NoError(t, err)
	assert.EqualValues(t, 64*units.MiB, maxBytes)

	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, packer.PolicyError, cfg.OversizedPolicy())
	assert.True(t, cfg.Compress)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SQLSPLIT_CONCURRENCY", "16")
	t.Setenv("SQLSPLIT_MAX_SIZE", "2MiB")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Concurrency)

	maxBytes, err := cfg.MaxSizeBytes()
	require.NoError(t, err)
	assert.EqualValues(t, 2*units.MiB, maxBytes)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := Config{MaxSize: "100KiB", Concurrency: 2, Oversized: "allow"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "zero max size",
			mutate:  func(c *Config) { c.MaxSize = "0" },
			wantErr: ErrInvalidMaxSize,
		},
		{
			name:    "garbage max size",
			mutate:  func(c *Config) { c.MaxSize = "lots" },
			wantErr: ErrInvalidMaxSize,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Concurrency = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Concurrency = -3 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "unknown oversized policy",
			mutate:  func(c *Config) { c.Oversized = "shrink" },
			wantErr: ErrInvalidOversizedPolicy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
