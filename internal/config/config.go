package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment override, e.g. BANKS_STORE_PATH.
// Fields carry no envconfig tags: a tagged field would also read the bare,
// unprefixed variable (PORT, LOCATION, ...) when the prefixed one is unset.
const EnvPrefix = "BANKS"

// Config represents the complete application configuration
type Config struct {
	Source     SourceConfig     `yaml:"source" split_words:"true"`
	Extraction ExtractionConfig `yaml:"extraction" split_words:"true"`
	Pipeline   PipelineConfig   `yaml:"pipeline" split_words:"true"`
	Output     OutputConfig     `yaml:"output" split_words:"true"`
	Store      StoreConfig      `yaml:"store" split_words:"true"`
	Logging    LoggingConfig    `yaml:"logging" split_words:"true"`
	Server     ServerConfig     `yaml:"server" split_words:"true"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" split_words:"true"`
}

// SourceConfig describes where the input document comes from
type SourceConfig struct {
	Kind         string        `yaml:"kind" split_words:"true" validate:"oneof=file http browser"`
	Location     string        `yaml:"location" split_words:"true" validate:"required"`
	Timeout      time.Duration `yaml:"timeout" split_words:"true" validate:"gte=0"`
	UserAgent    string        `yaml:"user_agent" split_words:"true"`
	Headless     bool          `yaml:"headless" split_words:"true"`
	WaitSelector string        `yaml:"wait_selector" split_words:"true"`
}

// ExtractionConfig holds the positional rule used to read the ranking table.
// Indexes are zero-based.
type ExtractionConfig struct {
	TableSelector   string `yaml:"table_selector" split_words:"true" validate:"required"`
	RowSelector     string `yaml:"row_selector" split_words:"true" validate:"required"`
	CellSelector    string `yaml:"cell_selector" split_words:"true" validate:"required"`
	NameCellIndex   int    `yaml:"name_cell_index" split_words:"true" validate:"gte=0"`
	NameAnchorIndex int    `yaml:"name_anchor_index" split_words:"true" validate:"gte=0"`
	MetricCellIndex int    `yaml:"metric_cell_index" split_words:"true" validate:"gte=0"`
}

// PipelineConfig drives the transform step and the diagnostic query
type PipelineConfig struct {
	RatesPath             string   `yaml:"rates_path" split_words:"true" validate:"required"`
	Currencies            []string `yaml:"currencies" split_words:"true" validate:"dive,len=3,uppercase"`
	NameColumn            string   `yaml:"name_column" split_words:"true" validate:"required"`
	BaseColumn            string   `yaml:"base_column" split_words:"true" validate:"required"`
	DerivedColumnTemplate string   `yaml:"derived_column_template" split_words:"true" validate:"required,contains={CODE}"`
	QueryThreshold        float64  `yaml:"query_threshold" split_words:"true"`
	AuditLogPath          string   `yaml:"audit_log_path" split_words:"true" validate:"required"`
}

// OutputConfig lists the flat-file sinks. WorkbookPath is optional.
// WriteBOM prefixes the CSV with a UTF-8 byte order mark for Excel.
type OutputConfig struct {
	CSVPath      string `yaml:"csv_path" split_words:"true" validate:"required"`
	WorkbookPath string `yaml:"workbook_path" split_words:"true"`
	WriteBOM     bool   `yaml:"write_bom" split_words:"true"`
}

// StoreConfig locates the SQLite file and the table replaced on every run
type StoreConfig struct {
	Path  string `yaml:"path" split_words:"true" validate:"required"`
	Table string `yaml:"table" split_words:"true" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" validate:"omitempty,oneof=debug info warn warning error"`
	Format   string `yaml:"format" split_words:"true"`
	Output   string `yaml:"output" split_words:"true" validate:"omitempty,oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// ServerConfig contains the report server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" split_words:"true" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" split_words:"true"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" split_words:"true"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" split_words:"true"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true"`
	RPS     float64 `yaml:"rps" split_words:"true" validate:"gte=0"`
	Burst   int     `yaml:"burst" split_words:"true" validate:"gte=0"`
}

// TelemetryConfig toggles OpenTelemetry tracing and metrics
type TelemetryConfig struct {
	Enabled        bool    `yaml:"enabled" split_words:"true"`
	ServiceName    string  `yaml:"service_name" split_words:"true"`
	Environment    string  `yaml:"environment" split_words:"true"`
	TraceExporter  string  `yaml:"trace_exporter" split_words:"true" validate:"omitempty,oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" split_words:"true" validate:"omitempty,oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" split_words:"true" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, an optional YAML file and
// BANKS_* environment variables, in that order of increasing precedence.
// An empty filePath falls back to the well-known locations.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath == "" {
		filePath = getConfigFilePath()
	}
	if filePath != "" {
		if err := loadFromFile(filePath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Only variables that are actually set override the file values
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file on top of cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize applies the rules that validation would otherwise reject
func (c *Config) normalize() {
	for i, code := range c.Pipeline.Currencies {
		c.Pipeline.Currencies[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/etl.log"
	}
}

// Validate checks struct constraints with validator/v10
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// formatValidationErrors flattens validator errors into a single message
func formatValidationErrors(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:         "http",
			Location:     DefaultSourceURL,
			Timeout:      DefaultHTTPTimeout,
			UserAgent:    DefaultUserAgent,
			Headless:     true,
			WaitSelector: "table.wikitable",
		},
		Extraction: ExtractionConfig{
			TableSelector:   "tbody",
			RowSelector:     "tr",
			CellSelector:    "td",
			NameCellIndex:   1,
			NameAnchorIndex: 1,
			MetricCellIndex: 2,
		},
		Pipeline: PipelineConfig{
			RatesPath:             "exchange_rate.csv",
			Currencies:            []string{"GBP", "EUR", "INR"},
			NameColumn:            DefaultNameColumn,
			BaseColumn:            DefaultBaseColumn,
			DerivedColumnTemplate: DefaultDerivedColumnTemplate,
			QueryThreshold:        DefaultQueryThreshold,
			AuditLogPath:          DefaultAuditLogFile,
		},
		Output: OutputConfig{
			CSVPath: "Largest_banks_data.csv",
		},
		Store: StoreConfig{
			Path:  "Banks.db",
			Table: DefaultTableName,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/etl.log",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultBurstSize,
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			ServiceName:    AppName,
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
