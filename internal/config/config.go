package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "tabstat/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PipelineConfig tunes the cleaning and aggregation thresholds.
type PipelineConfig struct {
	LowerPercentile      float64 `yaml:"lower_percentile" envconfig:"LOWER_PERCENTILE" validate:"gte=0,lt=1"`
	UpperPercentile      float64 `yaml:"upper_percentile" envconfig:"UPPER_PERCENTILE" validate:"gtfield=LowerPercentile,lte=1"`
	PercentileMethod     string  `yaml:"percentile_method" envconfig:"PERCENTILE_METHOD" validate:"oneof=lower linear"`
	MaxParseFailureRatio float64 `yaml:"max_parse_failure_ratio" envconfig:"MAX_PARSE_FAILURE_RATIO" validate:"gte=0,lte=1"`
	MinSupport           int     `yaml:"min_support" envconfig:"MIN_SUPPORT" validate:"gte=1"`
	TopN                 int     `yaml:"top_n" envconfig:"TOP_N" validate:"gte=1"`
	SampleSize           int     `yaml:"sample_size" envconfig:"SAMPLE_SIZE" validate:"gte=1"`
	SampleSeed           uint64  `yaml:"sample_seed" envconfig:"SAMPLE_SEED"`
}

// OutputConfig controls where chart artifacts go and how large they are.
type OutputConfig struct {
	Dir           string  `yaml:"dir" envconfig:"DIR" validate:"required"`
	ChartWidthIn  float64 `yaml:"chart_width_in" envconfig:"CHART_WIDTH_IN" validate:"gte=9"`
	ChartHeightIn float64 `yaml:"chart_height_in" envconfig:"CHART_HEIGHT_IN" validate:"gte=6"`
	HeatmapSizeIn float64 `yaml:"heatmap_size_in" envconfig:"HEATMAP_SIZE_IN" validate:"gte=5"`
	DPI           int     `yaml:"dpi" envconfig:"DPI" validate:"gte=36,lte=600"`
}

// TelemetryConfig contains tracing and metrics export configuration
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment   string `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout file"`
	TraceFile     string `yaml:"trace_file" envconfig:"TRACE_FILE" validate:"required_if=TraceExporter file"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load builds the configuration from defaults, then the YAML file (explicit path or
// one of the well-known locations), then environment variables prefixed with
// EnvPrefix, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config from file %s", path), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep
// their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and normalises the logging format.
func (c *Config) Validate() error {
	// Logs are always JSON
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	v := validator.New()
	if err := v.Struct(c); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			fields = append(fields, err.Error())
		}
		return apperrors.NewConfigError("config validation failed", fmt.Errorf("%s", strings.Join(fields, "; ")))
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"tabstat.yaml",
		"configs/tabstat.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/tabstat.log",
		},
		Pipeline: PipelineConfig{
			LowerPercentile:      DefaultLowerPercentile,
			UpperPercentile:      DefaultUpperPercentile,
			PercentileMethod:     "lower",
			MaxParseFailureRatio: DefaultMaxParseFailureRatio,
			MinSupport:           DefaultMinSupport,
			TopN:                 DefaultTopN,
			SampleSize:           DefaultSampleSize,
			SampleSeed:           DefaultSampleSeed,
		},
		Output: OutputConfig{
			Dir:           ".",
			ChartWidthIn:  20,
			ChartHeightIn: 12,
			HeatmapSizeIn: 10,
			DPI:           150,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   AppName,
			Environment:   "development",
			TraceExporter: "none",
		},
	}
}
