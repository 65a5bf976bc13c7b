// Package config loads the optional report configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults preserve the fixed artifact contract when no config is given.
const (
	DefaultTitle        = "Hardening Report"
	DefaultJSONFileName = "final_report.json"
	DefaultPDFFileName  = "report.pdf"
	DefaultDebounceMs   = 500
)

type Config struct {
	Report  ReportConfig  `yaml:"report"`
	Watcher WatcherConfig `yaml:"watcher"`
}

type ReportConfig struct {
	Title        string `yaml:"title"`
	JSONFileName string `yaml:"json_filename"`
	PDFFileName  string `yaml:"pdf_filename"`
}

type WatcherConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Report: ReportConfig{
			Title:        DefaultTitle,
			JSONFileName: DefaultJSONFileName,
			PDFFileName:  DefaultPDFFileName,
		},
		Watcher: WatcherConfig{
			DebounceMs: DefaultDebounceMs,
		},
	}
}

// Load reads a config file over the defaults. An empty path yields the
// defaults; a path the caller asked for explicitly must exist and parse.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults refills fields an explicit config left empty or zero.
func (c *Config) applyDefaults() {
	if c.Report.Title == "" {
		c.Report.Title = DefaultTitle
	}
	if c.Report.JSONFileName == "" {
		c.Report.JSONFileName = DefaultJSONFileName
	}
	if c.Report.PDFFileName == "" {
		c.Report.PDFFileName = DefaultPDFFileName
	}
	if c.Watcher.DebounceMs <= 0 {
		c.Watcher.DebounceMs = DefaultDebounceMs
	}
}
