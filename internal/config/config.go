// Package config loads the exporter configuration.
package config

import (
	"os"
	"runtime"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rtm0/eddytracks/internal/eddy"
)

// Config is the root configuration structure.
type Config struct {
	File        string       `yaml:"file" validate:"required"`
	Fill        string       `yaml:"fill" validate:"oneof=midpoint linear begin end"`
	MinLifetime int          `yaml:"minLifetime" validate:"gte=0"`
	Concurrency int          `yaml:"concurrency" validate:"gt=0"`
	VM          VMConfig     `yaml:"vm"`
	Layout      LayoutConfig `yaml:"layout"`
}

// VMConfig configures the export of track summaries to Victoria Metrics.
// Nothing is exported when InsertURL is empty.
type VMConfig struct {
	InsertURL     string `yaml:"insertURL" validate:"omitempty,url"`
	MetricPrefix  string `yaml:"metricPrefix" validate:"required,alphanum"`
	RecsPerInsert int    `yaml:"recsPerInsert" validate:"gt=0"`
}

// LayoutConfig names the variables of the tracks file.
type LayoutConfig struct {
	CountVar    string `yaml:"countVar" validate:"required"`
	StepVar     string `yaml:"stepVar" validate:"required"`
	LonVar      string `yaml:"lonVar" validate:"required"`
	LatVar      string `yaml:"latVar" validate:"required"`
	TypeVar     string `yaml:"typeVar" validate:"required"`
	ShapePrefix string `yaml:"shapePrefix"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	l := eddy.DefaultLayout()
	return Config{
		Fill:        "linear",
		Concurrency: runtime.NumCPU(),
		VM: VMConfig{
			MetricPrefix:  "eddy",
			RecsPerInsert: 500,
		},
		Layout: LayoutConfig{
			CountVar:    l.CountVar,
			StepVar:     l.StepVar,
			LonVar:      l.LonVar,
			LatVar:      l.LatVar,
			TypeVar:     l.TypeVar,
			ShapePrefix: l.ShapePrefix,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults. Validation is
// left to Validate since flags may still override the file.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}

// EddyLayout returns the layout the scanner reads the tracks file with.
func (c Config) EddyLayout() eddy.Layout {
	return eddy.Layout{
		CountVar:    c.Layout.CountVar,
		StepVar:     c.Layout.StepVar,
		LonVar:      c.Layout.LonVar,
		LatVar:      c.Layout.LatVar,
		TypeVar:     c.Layout.TypeVar,
		ShapePrefix: c.Layout.ShapePrefix,
	}
}
