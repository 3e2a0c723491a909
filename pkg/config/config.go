package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tool settings read from a YAML file.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Decode  DecodeConfig  `yaml:"decode"`
	Display DisplayConfig `yaml:"display"`
	Export  ExportConfig  `yaml:"export"`
	Web     WebConfig     `yaml:"web"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---- DECODE ----

type DecodeConfig struct {
	// Largest sample buffer a data header may declare.
	MaxBufferBytes uint64 `yaml:"max_buffer_bytes"`
}

// ---- DISPLAY ----

type DisplayConfig struct {
	SampleLimit int `yaml:"sample_limit"`
	PlotWidth   int `yaml:"plot_width"`
	PlotHeight  int `yaml:"plot_height"`
	HexLimit    int `yaml:"hex_limit"`
}

// ---- EXPORT ----

type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// ---- WEB ----

type WebConfig struct {
	Port        int  `yaml:"port"`
	OpenBrowser bool `yaml:"open_browser"`
	// Points returned per waveform request before decimation.
	MaxPoints int `yaml:"max_points"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Decode: DecodeConfig{
			MaxBufferBytes: 1 << 30,
		},
		Display: DisplayConfig{
			SampleLimit: 20,
			PlotWidth:   80,
			PlotHeight:  20,
			HexLimit:    256,
		},
		Export: ExportConfig{
			Dir:    "export",
			Format: "csv",
		},
		Web: WebConfig{
			Port:        8080,
			OpenBrowser: true,
			MaxPoints:   5000,
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes YAML from r over the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
