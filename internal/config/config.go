// Package config loads the fixed analysis configuration from YAML.
// A missing file yields DefaultConfig; values are validated once at load time
// and treated as read-only afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Pipeline holds the numeric constants of the image-to-metrics transform
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Report configures the clinical text-report collaborator
	Report ReportConfig `yaml:"report"`

	// Logging controls logrus level and output format
	Logging LoggingConfig `yaml:"logging"`
}

// PipelineConfig holds the empirically chosen pipeline constants.
type PipelineConfig struct {
	// TargetWidth is the normalized image width in pixels
	TargetWidth int `yaml:"targetWidth"`

	// ClipLimit bounds CLAHE contrast amplification per tile
	ClipLimit float64 `yaml:"clipLimit"`

	// TileGrid is the CLAHE tile count along each axis
	TileGrid int `yaml:"tileGrid"`

	// OpeningKernel is the side of the square structuring element used for opening
	OpeningKernel int `yaml:"openingKernel"`

	// ThresholdBlockSize is the Gaussian neighborhood size for adaptive thresholding (odd)
	ThresholdBlockSize int `yaml:"thresholdBlockSize"`

	// ThresholdOffset is subtracted from the local weighted mean
	ThresholdOffset float64 `yaml:"thresholdOffset"`

	// MinWidthPx discards width samples at or below this diameter
	MinWidthPx float64 `yaml:"minWidthPx"`

	// NarrowPercent is the share of sorted samples averaged for the arteriole statistic
	NarrowPercent int `yaml:"narrowPercent"`

	// WidePercent is the share of sorted samples averaged for the venule statistic
	WidePercent int `yaml:"widePercent"`

	// CalibrationFactor converts pixel widths at TargetWidth into micrometers
	CalibrationFactor float64 `yaml:"calibrationFactor"`
}

// ReportConfig configures the Ollama-backed report service.
type ReportConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Endpoint string   `yaml:"endpoint"`
	Model    string   `yaml:"model"`
	Timeout  Duration `yaml:"timeout"`
}

// LoggingConfig controls the logger built in cmd/app.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a time.Duration that reads and writes as a string like "60s".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Pipeline.TargetWidth = 800
	cfg.Pipeline.ClipLimit = 2.0
	cfg.Pipeline.TileGrid = 8
	cfg.Pipeline.OpeningKernel = 3
	cfg.Pipeline.ThresholdBlockSize = 11
	cfg.Pipeline.ThresholdOffset = 2
	cfg.Pipeline.MinWidthPx = 1.5
	cfg.Pipeline.NarrowPercent = 30
	cfg.Pipeline.WidePercent = 30
	cfg.Pipeline.CalibrationFactor = 45.0

	cfg.Report.Enabled = true
	cfg.Report.Endpoint = "http://127.0.0.1:11434"
	cfg.Report.Model = "medllama2:latest"
	cfg.Report.Timeout = Duration(60 * time.Second)

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
// Fields omitted from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	p := c.Pipeline
	if p.TargetWidth < 1 {
		return fmt.Errorf("pipeline.targetWidth must be positive, got %d", p.TargetWidth)
	}
	if p.ClipLimit <= 0 {
		return fmt.Errorf("pipeline.clipLimit must be positive, got %g", p.ClipLimit)
	}
	if p.TileGrid < 1 {
		return fmt.Errorf("pipeline.tileGrid must be positive, got %d", p.TileGrid)
	}
	if p.OpeningKernel < 1 {
		return fmt.Errorf("pipeline.openingKernel must be positive, got %d", p.OpeningKernel)
	}
	if p.ThresholdBlockSize < 3 || p.ThresholdBlockSize%2 == 0 {
		return fmt.Errorf("pipeline.thresholdBlockSize must be odd and >= 3, got %d", p.ThresholdBlockSize)
	}
	if p.MinWidthPx < 0 {
		return fmt.Errorf("pipeline.minWidthPx must not be negative, got %g", p.MinWidthPx)
	}
	if p.NarrowPercent <= 0 || p.NarrowPercent > 50 {
		return fmt.Errorf("pipeline.narrowPercent must be in (0, 50], got %d", p.NarrowPercent)
	}
	if p.WidePercent <= 0 || p.WidePercent > 50 {
		return fmt.Errorf("pipeline.widePercent must be in (0, 50], got %d", p.WidePercent)
	}
	if p.CalibrationFactor <= 0 {
		return fmt.Errorf("pipeline.calibrationFactor must be positive, got %g", p.CalibrationFactor)
	}

	if c.Report.Enabled {
		if c.Report.Endpoint == "" {
			return fmt.Errorf("report.endpoint is required when the report is enabled")
		}
		if c.Report.Model == "" {
			return fmt.Errorf("report.model is required when the report is enabled")
		}
		if c.Report.Timeout <= 0 {
			return fmt.Errorf("report.timeout must be positive")
		}
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}

	return nil
}
