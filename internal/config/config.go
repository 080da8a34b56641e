package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the sandbox defaults and an optional saved pipeline.
type Config struct {
	Defaults  DefaultsConfig  `yaml:"defaults"`
	Preview   PreviewConfig   `yaml:"preview"`
	Histogram HistogramConfig `yaml:"histogram"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Pipeline is run in order from the original image.
	Pipeline []StepSpec `yaml:"pipeline,omitempty"`
}

// DefaultsConfig seeds the selected filter and the two sliders.
type DefaultsConfig struct {
	Filter  string  `yaml:"filter"`
	Param   float64 `yaml:"param"`
	Opacity float64 `yaml:"opacity"` // percent, 0-100
	Split   float64 `yaml:"split"`   // percent, 0-100
}

type PreviewConfig struct {
	// MaxDimension bounds the longest side of displayed images; 0 disables.
	MaxDimension int `yaml:"max_dimension"`
}

type HistogramConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type OutputConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StepSpec is the serialised form of a pipeline step.
type StepSpec struct {
	Type   string      `yaml:"type"`
	Param  float64     `yaml:"param,omitempty"`
	Kernel [][]float64 `yaml:"kernel,omitempty,flow"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Filter:  "edge",
			Param:   128,
			Opacity: 100,
			Split:   50,
		},
		Preview: PreviewConfig{
			MaxDimension: 1024,
		},
		Histogram: HistogramConfig{
			Width:  256,
			Height: 120,
		},
		Output: OutputConfig{
			Path: "processed.png",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config, falling back to defaults when the file is missing.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

const envPrefix = "FILTERSANDBOX_"

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(envPrefix + "FILTER"); v != "" {
		c.Defaults.Filter = v
	}
	if v, err := strconv.ParseFloat(os.Getenv(envPrefix+"OPACITY"), 64); err == nil {
		c.Defaults.Opacity = v
	}
	if v, err := strconv.ParseFloat(os.Getenv(envPrefix+"SPLIT"), 64); err == nil {
		c.Defaults.Split = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// Validate checks ranges. Slider values outside 0-100 are rejected here
// rather than clamped so that a typo in a file is reported.
func (c *Config) Validate() error {
	var errs []error

	if c.Defaults.Opacity < 0 || c.Defaults.Opacity > 100 {
		errs = append(errs, fmt.Errorf("defaults.opacity must be between 0 and 100, got %g", c.Defaults.Opacity))
	}
	if c.Defaults.Split < 0 || c.Defaults.Split > 100 {
		errs = append(errs, fmt.Errorf("defaults.split must be between 0 and 100, got %g", c.Defaults.Split))
	}
	if c.Preview.MaxDimension < 0 {
		errs = append(errs, fmt.Errorf("preview.max_dimension must not be negative"))
	}
	if c.Histogram.Width <= 0 || c.Histogram.Height <= 0 {
		errs = append(errs, fmt.Errorf("histogram size must be positive, got %dx%d", c.Histogram.Width, c.Histogram.Height))
	}
	for i, step := range c.Pipeline {
		if strings.TrimSpace(step.Type) == "" {
			errs = append(errs, fmt.Errorf("pipeline[%d]: type is required", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LoadPipeline reads only the pipeline section of a YAML file.
func LoadPipeline(path string) ([]StepSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline: %w", err)
	}

	var doc struct {
		Pipeline []StepSpec `yaml:"pipeline"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline: %w", err)
	}
	return doc.Pipeline, nil
}
