package app

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/minipack/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	EntryPath  string
	OutputPath string
	ConfigPath string // hcl project file or directory
	GraphPath  string
	EnvFile    string

	LogFormat string
	LogLevel  string

	Workers      int
	Dedupe       bool
	CacheExports bool
	Minify       bool
	Target       string
	GlobalName   string
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.EntryPath == "" && cfg.ConfigPath == "" {
		return nil, errors.New("either an entry module or a project file is required")
	}
	if cfg.EntryPath != "" && cfg.ConfigPath != "" {
		return nil, errors.New("an entry module and a project file cannot be used together")
	}
	if cfg.EntryPath != "" && cfg.OutputPath == "" {
		return nil, errors.New("OutputPath is required when building a single entry")
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	return &cfg, nil
}

// BundleDefaults returns the bundle built from the command line. Project
// file bundles use it for every attribute they leave unset.
func (c *Config) BundleDefaults() config.Bundle {
	return config.Bundle{
		Name:         "main",
		Entry:        c.EntryPath,
		Output:       c.OutputPath,
		Graph:        c.GraphPath,
		Dedupe:       c.Dedupe,
		CacheExports: c.CacheExports,
		Minify:       c.Minify,
		Target:       c.Target,
		GlobalName:   c.GlobalName,
		Workers:      c.Workers,
	}
}
