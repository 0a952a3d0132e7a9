package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/absfs/searchset"
	"github.com/spf13/viper"
)

// Config is the searchctl configuration file
type Config struct {
	AppName    string           `mapstructure:"app_name"`
	IgnoreCase bool             `mapstructure:"ignore_case"`
	Depth      int              `mapstructure:"depth"`
	Flat       bool             `mapstructure:"flat"`
	NoDefaults bool             `mapstructure:"no_defaults"`
	Locations  []LocationConfig `mapstructure:"locations"`
	Archives   []ArchiveConfig  `mapstructure:"archives"`
}

// LocationConfig is a directory to add to the registry
type LocationConfig struct {
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"`
	Priority int    `mapstructure:"priority"`
	Depth    int    `mapstructure:"depth"`
	Flat     bool   `mapstructure:"flat"`
}

// ArchiveConfig is a ZIP file to add to the registry
type ArchiveConfig struct {
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"`
	Priority int    `mapstructure:"priority"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() Config {
	return Config{
		AppName: searchset.AppName,
		Depth:   1,
	}
}

// loadConfig reads cfgFile (if set) and SEARCHSET_* environment variables
func loadConfig(v *viper.Viper, cfgFile string) (Config, error) {
	defaults := DefaultConfig()
	v.SetDefault("app_name", defaults.AppName)
	v.SetDefault("ignore_case", defaults.IgnoreCase)
	v.SetDefault("depth", defaults.Depth)
	v.SetDefault("flat", defaults.Flat)
	v.SetDefault("no_defaults", defaults.NoDefaults)

	v.SetEnvPrefix("searchset")
	v.AutomaticEnv()

	if cfgFile != "" {
		path, err := searchset.ExpandPath(cfgFile)
		if err != nil {
			return Config{}, fmt.Errorf("expand config path: %w", err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Depth < 1 {
		cfg.Depth = 1
	}
	return cfg, nil
}

// splitPriority splits "value:priority". A suffix that is not a number is
// part of the value, so Windows drive letters survive.
func splitPriority(s string) (string, int, error) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return s, 0, nil
	}
	p, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return s, 0, nil
	}
	if s[:i] == "" {
		return "", 0, fmt.Errorf("missing path in %q", s)
	}
	return s[:i], p, nil
}

// parseDirFlag parses a --dir value of the form name=path[:priority]
func parseDirFlag(s string, depth int, flat bool) (LocationConfig, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return LocationConfig{}, fmt.Errorf("invalid --dir %q: want name=path[:priority]", s)
	}
	path, priority, err := splitPriority(rest)
	if err != nil {
		return LocationConfig{}, fmt.Errorf("invalid --dir %q: %w", s, err)
	}
	return LocationConfig{Name: name, Path: path, Priority: priority, Depth: depth, Flat: flat}, nil
}

// parseZipFlag parses a --zip value of the form path[:priority]. The path
// doubles as the archive name.
func parseZipFlag(s string) (ArchiveConfig, error) {
	path, priority, err := splitPriority(s)
	if err != nil {
		return ArchiveConfig{}, fmt.Errorf("invalid --zip %q: %w", s, err)
	}
	return ArchiveConfig{Name: path, Path: path, Priority: priority}, nil
}
