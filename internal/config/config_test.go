package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http", cfg.Source.Kind)
	assert.Equal(t, []string{"GBP", "EUR", "INR"}, cfg.Pipeline.Currencies)
	assert.Equal(t, "MC_USD_Billion", cfg.Pipeline.BaseColumn)
	assert.Equal(t, "Largest_banks", cfg.Store.Table)
	assert.Equal(t, float64(150), cfg.Pipeline.QueryThreshold)
	assert.Equal(t, 1, cfg.Extraction.NameCellIndex)
	assert.Equal(t, 1, cfg.Extraction.NameAnchorIndex)
	assert.Equal(t, 2, cfg.Extraction.MetricCellIndex)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		env         map[string]string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "file overrides defaults",
			file: `
source:
  kind: file
  location: ./banks.html
pipeline:
  currencies: [GBP, EUR]
  query_threshold: 200
store:
  path: data/banks.db
  table: Top_banks
server:
  read_timeout: 5s
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "file", cfg.Source.Kind)
				assert.Equal(t, "./banks.html", cfg.Source.Location)
				assert.Equal(t, []string{"GBP", "EUR"}, cfg.Pipeline.Currencies)
				assert.Equal(t, float64(200), cfg.Pipeline.QueryThreshold)
				assert.Equal(t, "Top_banks", cfg.Store.Table)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
				// untouched sections keep their defaults
				assert.Equal(t, "MC_USD_Billion", cfg.Pipeline.BaseColumn)
				assert.Equal(t, 8080, cfg.Server.Port)
			},
		},
		{
			name: "env overrides file",
			file: `
store:
  table: From_file
`,
			env: map[string]string{
				"BANKS_STORE_TABLE":           "From_env",
				"BANKS_PIPELINE_CURRENCIES":   "gbp, eur",
				"BANKS_PIPELINE_RATES_PATH":   "/tmp/rates.csv",
				"BANKS_SERVER_RATE_LIMIT_RPS": "5",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "From_env", cfg.Store.Table)
				assert.Equal(t, []string{"GBP", "EUR"}, cfg.Pipeline.Currencies)
				assert.Equal(t, "/tmp/rates.csv", cfg.Pipeline.RatesPath)
				assert.Equal(t, float64(5), cfg.Server.RateLimit.RPS)
			},
		},
		{
			name: "unprefixed variables are ignored",
			env: map[string]string{
				"PORT":       "abc",
				"LOCATION":   "/etc/passwd",
				"KIND":       "ftp",
				"CURRENCIES": "XXXX",
				"LEVEL":      "bogus",
				"ENABLED":    "true",
				"TABLE":      "Other",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				def := Default()
				assert.Equal(t, def.Server.Port, cfg.Server.Port)
				assert.Equal(t, def.Source.Location, cfg.Source.Location)
				assert.Equal(t, def.Source.Kind, cfg.Source.Kind)
				assert.Equal(t, def.Pipeline.Currencies, cfg.Pipeline.Currencies)
				assert.Equal(t, def.Logging.Level, cfg.Logging.Level)
				assert.False(t, cfg.Telemetry.Enabled)
				assert.Equal(t, def.Store.Table, cfg.Store.Table)
			},
		},
		{
			name: "prefixed names follow the field names",
			env: map[string]string{
				"BANKS_SERVER_PORT":     "3000",
				"BANKS_SOURCE_LOCATION": "./page.html",
				"BANKS_STORE_PATH":      "out/banks.db",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3000, cfg.Server.Port)
				assert.Equal(t, "./page.html", cfg.Source.Location)
				assert.Equal(t, "out/banks.db", cfg.Store.Path)
			},
		},
		{
			name: "logging format is always json",
			file: `
logging:
  format: text
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
		{
			name: "unknown source kind",
			file: `
source:
  kind: ftp
`,
			wantErr: true,
		},
		{
			name: "currency code must have three letters",
			file: `
pipeline:
  currencies: [GBPX]
`,
			wantErr: true,
		},
		{
			name: "derived template needs the placeholder",
			file: `
pipeline:
  derived_column_template: MC_Billion
`,
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "pipeline: [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfigFile(t, tt.file)

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPaths_ResolveConfig(t *testing.T) {
	base := t.TempDir()
	paths, err := NewPaths(base)
	require.NoError(t, err)

	cfg := Default()
	cfg.Source.Kind = "file"
	cfg.Source.Location = "input/banks.html"
	cfg.Output.WorkbookPath = ""
	cfg.Store.Path = "/abs/Banks.db"

	paths.ResolveConfig(cfg)

	assert.Equal(t, filepath.Join(base, "input", "banks.html"), cfg.Source.Location)
	assert.Equal(t, filepath.Join(base, "exchange_rate.csv"), cfg.Pipeline.RatesPath)
	assert.Equal(t, filepath.Join(base, "code_log.txt"), cfg.Pipeline.AuditLogPath)
	assert.Equal(t, "/abs/Banks.db", cfg.Store.Path)
	assert.Equal(t, "", cfg.Output.WorkbookPath)
}

func TestPaths_ResolveConfig_KeepsURL(t *testing.T) {
	paths, err := NewPaths(t.TempDir())
	require.NoError(t, err)

	cfg := Default()
	paths.ResolveConfig(cfg)

	assert.Equal(t, DefaultSourceURL, cfg.Source.Location)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths, err := NewPaths(base)
	require.NoError(t, err)

	cfg := Default()
	cfg.Output.CSVPath = "out/reports/banks.csv"
	cfg.Store.Path = "out/db/banks.db"
	paths.ResolveConfig(cfg)

	require.NoError(t, paths.EnsureDirectories(cfg))
	assert.DirExists(t, filepath.Join(base, "out", "reports"))
	assert.DirExists(t, filepath.Join(base, "out", "db"))
}
