package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsFromEnv(t *testing.T) {
	// Файла нет, все берется из env-default
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "app.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, []string{"xlsx", "xls", "csv"}, cfg.Storage.AllowedExtensions)
	assert.Equal(t, 1.08, cfg.Pipeline.GrossRatioMin)
	assert.Equal(t, 1.12, cfg.Pipeline.GrossRatioMax)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "8081"
database:
  path: lookup.db
pipeline:
  workers: 2
  gross_ratio_fixed: 1.1
  clauses:
    - name: adult
      categories: ["アダルト"]
      clause: "成人用品"
  column_aliases:
    product_name: ["TITLE", "商品名"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("SERVER_PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port, "env should override yaml")
	assert.Equal(t, "lookup.db", cfg.Database.Path)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, 1.1, cfg.Pipeline.GrossRatioFixed)
	require.Len(t, cfg.Pipeline.Clauses, 1)
	assert.Equal(t, "成人用品", cfg.Pipeline.Clauses[0].Clause)
	assert.Equal(t, []string{"TITLE", "商品名"}, cfg.Pipeline.ColumnAliases["product_name"])
}

func TestLoad_InvalidFails(t *testing.T) {
	t.Setenv("SERVER_PORT", "99999")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be between")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:   "log level case insensitive",
			mutate: func(c *Config) { c.Log.Level = "Debug" },
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "empty ratio range",
			mutate:  func(c *Config) { c.Pipeline.GrossRatioMin, c.Pipeline.GrossRatioMax = 1.2, 1.1 },
			wantErr: "gross ratio range is empty",
		},
		{
			name: "fixed ratio ignores range",
			mutate: func(c *Config) {
				c.Pipeline.GrossRatioMin, c.Pipeline.GrossRatioMax = 0, 0
				c.Pipeline.GrossRatioFixed = 1.1
			},
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Pipeline.Workers = 0 },
			wantErr: "pipeline workers",
		},
		{
			name:    "idle above open",
			mutate:  func(c *Config) { c.Database.MaxIdleConns = 20 },
			wantErr: "max idle connections cannot be greater",
		},
		{
			name: "clause without categories",
			mutate: func(c *Config) {
				c.Pipeline.Clauses = []ClauseRule{{Name: "lotion", Clause: "润滑液"}}
			},
			wantErr: "has no categories",
		},
		{
			name:    "no extensions",
			mutate:  func(c *Config) { c.Storage.AllowedExtensions = nil },
			wantErr: "allowed extension",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := GetDefaults()
	cfg.Port = "abc"
	cfg.Database.Path = ""
	cfg.HTTP.RateLimitRPS = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
	assert.Contains(t, err.Error(), "database path is required")
	assert.Contains(t, err.Error(), "rate limit rps")
}
