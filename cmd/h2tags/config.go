package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/h2tags/pkg/blam"
)

// Config represents the h2tags configuration file (~/.config/h2tags/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	MapsDir string `yaml:"maps_dir"`
	// SharedMaps maps data file names to the maps holding them.
	SharedMaps map[string]string `yaml:"shared_maps"`
	Workers    *int              `yaml:"workers"`

	// Offsets overrides the normalized offset encoding.
	Offsets *blam.OffsetTable `yaml:"offsets"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

// cfg is loaded once by the root command's Before hook.
var cfg Config

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "h2tags", "config.yaml")
}

// applyLoggingConfig applies config file defaults to the logging flags
// when they were not explicitly set.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyMapConfig applies config file defaults to the map flags.
func applyMapConfig(c *cli.Command, cfg Config) {
	if cfg.MapsDir != "" && !c.IsSet("maps-dir") {
		mapsDir = cfg.MapsDir
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	applyMapConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// sharedFiles merges the config's shared maps with --shared values, the
// flags winning per data file.
func sharedFiles(cfg Config, flags []string) (map[blam.DataFile]string, error) {
	out := make(map[blam.DataFile]string, len(cfg.SharedMaps)+len(flags))
	for name, path := range cfg.SharedMaps {
		file, err := blam.ParseDataFile(name)
		if err != nil {
			return nil, fmt.Errorf("config shared_maps: %w", err)
		}
		out[file] = path
	}
	for _, kv := range flags {
		name, path, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--shared %q: want kind=path", kv)
		}
		file, err := blam.ParseDataFile(name)
		if err != nil {
			return nil, fmt.Errorf("--shared: %w", err)
		}
		out[file] = path
	}
	for file := range out {
		if file == blam.Local {
			return nil, fmt.Errorf("shared data file cannot be %s", file)
		}
	}
	return out, nil
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if c.Offsets != nil {
		if err := c.Offsets.Validate(); err != nil {
			return Config{}, fmt.Errorf("%s: offsets: %w", path, err)
		}
	}
	return c, nil
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	c, err := loadConfigFile(path)
	if err != nil {
		return Config{}
	}
	return c
}
