package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix for all environment variable overrides,
// e.g. ORDERLENS_CLEANING_WINSOR_LOW.
const EnvPrefix = "ORDERLENS"

// Config represents the complete pipeline configuration.
// Precedence: built-in defaults < YAML config file < environment variables.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Cleaning  CleaningConfig  `yaml:"cleaning" envconfig:"CLEANING"`
	Bootstrap BootstrapConfig `yaml:"bootstrap" envconfig:"BOOTSTRAP"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains the base directory the data layout hangs off.
// All other paths are derived through the Paths struct.
type PathsConfig struct {
	BaseDir string `yaml:"base_dir" envconfig:"BASE_DIR"`
}

// CleaningConfig holds the tunable cleaning thresholds. The winsor bounds
// and IQR multiplier are deliberately configuration rather than constants.
type CleaningConfig struct {
	WinsorLow     float64           `yaml:"winsor_low" envconfig:"WINSOR_LOW" validate:"gte=0,lte=1"`
	WinsorHigh    float64           `yaml:"winsor_high" envconfig:"WINSOR_HIGH" validate:"gtfield=WinsorLow,lte=1"`
	IQRMultiplier float64           `yaml:"iqr_multiplier" envconfig:"IQR_MULTIPLIER" validate:"gt=0"`
	StatusMap     map[string]string `yaml:"status_map" envconfig:"-"`
}

// BootstrapConfig holds parameters for the bootstrap confidence interval
// in the report stage.
type BootstrapConfig struct {
	Resamples int     `yaml:"resamples" envconfig:"RESAMPLES" validate:"gte=1"`
	Seed      int64   `yaml:"seed" envconfig:"SEED"`
	CILow     float64 `yaml:"ci_low" envconfig:"CI_LOW" validate:"gte=0,ltfield=CIHigh"`
	CIHigh    float64 `yaml:"ci_high" envconfig:"CI_HIGH" validate:"lte=100"`
	GroupA    string  `yaml:"group_a" envconfig:"GROUP_A" validate:"required"`
	GroupB    string  `yaml:"group_b" envconfig:"GROUP_B" validate:"required,nefield=GroupA"`
}

// TelemetryConfig controls the optional OpenTelemetry tracing of pipeline
// stages. Off by default; a batch run produces no telemetry unless asked.
type TelemetryConfig struct {
	EnableTracing bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
}

// DefaultStatusMap returns the controlled vocabulary mapping applied to
// normalized status strings. Values outside the map clean to "unknown".
func DefaultStatusMap() map[string]string {
	return map[string]string{
		"paid":      "paid",
		"completed": "completed",
		"refund":    "refund",
		"refunded":  "refund",
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			BaseDir: ".",
		},
		Cleaning: CleaningConfig{
			WinsorLow:     0.05,
			WinsorHigh:    0.95,
			IQRMultiplier: 1.5,
			StatusMap:     DefaultStatusMap(),
		},
		Bootstrap: BootstrapConfig{
			Resamples: 2000,
			Seed:      42,
			CILow:     2.5,
			CIHigh:    97.5,
			GroupA:    "SA",
			GroupB:    "AE",
		},
		Telemetry: TelemetryConfig{
			EnableTracing: false,
			TraceExporter: "none",
		},
	}
}

// Load builds the effective configuration. configFile may be empty, in
// which case only defaults and environment variables apply.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML config onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	if len(c.Cleaning.StatusMap) == 0 {
		c.Cleaning.StatusMap = DefaultStatusMap()
	}
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}
