package startup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk YAML layout. Pointer fields distinguish "unset"
// from zero values.
type fileConfig struct {
	CacheDir            *string  `yaml:"cache_dir"`
	Magick              *string  `yaml:"magick"`
	Cache               *bool    `yaml:"cache"`
	History             *bool    `yaml:"history"`
	MetricsAddr         *string  `yaml:"metrics_addr"`
	MetricsFile         *string  `yaml:"metrics_file"`
	Timeout             *string  `yaml:"timeout"`
	MaxOutputMB         *int64   `yaml:"max_output_mb"`
	Workers             *int     `yaml:"workers"`
	Extensions          []string `yaml:"extensions"`
	MaxMB               *float64 `yaml:"max_mb"`
	MaxWidth            *int     `yaml:"max_width"`
	MaxHeight           *int     `yaml:"max_height"`
	SimilarityThreshold *int     `yaml:"similarity_threshold"`
	Quality             *int     `yaml:"quality"`
	PNGLevel            *int     `yaml:"png_level"`

	timeout time.Duration
}

func readConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseConfigFile(data)
}

func parseConfigFile(data []byte) (*fileConfig, error) {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", *fc.Timeout, err)
		}
		fc.timeout = d
	}
	return &fc, nil
}

func (fc *fileConfig) apply(cfg *Config) {
	if fc.CacheDir != nil {
		cfg.CacheDir = expandHome(*fc.CacheDir)
	}
	if fc.Magick != nil {
		cfg.MagickPath = *fc.Magick
	}
	if fc.Cache != nil {
		cfg.UseCache = *fc.Cache
	}
	if fc.History != nil {
		cfg.UseHistory = *fc.History
	}
	if fc.MetricsAddr != nil {
		cfg.MetricsAddr = *fc.MetricsAddr
	}
	if fc.MetricsFile != nil {
		cfg.MetricsFile = *fc.MetricsFile
	}
	if fc.timeout > 0 {
		cfg.CommandTimeout = fc.timeout
	}
	if fc.MaxOutputMB != nil {
		cfg.MaxOutputBytes = *fc.MaxOutputMB * 1024 * 1024
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if len(fc.Extensions) > 0 {
		cfg.Extensions = fc.Extensions
	}
	if fc.MaxMB != nil {
		cfg.SetMaxMB(*fc.MaxMB)
	}
	if fc.MaxWidth != nil {
		cfg.MaxWidth = *fc.MaxWidth
	}
	if fc.MaxHeight != nil {
		cfg.MaxHeight = *fc.MaxHeight
	}
	if fc.SimilarityThreshold != nil {
		cfg.SimilarityThreshold = *fc.SimilarityThreshold
	}
	if fc.Quality != nil {
		cfg.Quality = *fc.Quality
	}
	if fc.PNGLevel != nil {
		cfg.PNGLevel = *fc.PNGLevel
	}
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
