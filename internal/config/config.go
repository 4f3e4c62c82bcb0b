// Package config provides configuration management for metagen using Viper
// for loading from files, environment variables and command-line flags.
//
// Settings come from .metagen.yml (or the file named by --config or
// METAGEN_CONFIG_FILE), METAGEN_* environment variables and a .env file in
// the working directory. Paths may start with "~".
package config

import (
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/conneroisu/metagen/internal/catalog"
	"github.com/conneroisu/metagen/internal/errors"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "METAGEN"

type Config struct {
	Input  InputConfig  `mapstructure:"input"`
	Source SourceConfig `mapstructure:"source"`
	Styles StylesConfig `mapstructure:"styles"`
	Output OutputConfig `mapstructure:"output"`
	Server ServerConfig `mapstructure:"server"`
	Watch  WatchConfig  `mapstructure:"watch"`
	Log    LogConfig    `mapstructure:"log"`
}

type InputConfig struct {
	Declarations string `mapstructure:"declarations"`
}

type SourceConfig struct {
	Root           string   `mapstructure:"root"`
	StripPrefix    string   `mapstructure:"strip_prefix"`
	ComponentsDir  string   `mapstructure:"components_dir"`
	ImportPrefixes []string `mapstructure:"import_prefixes"`
	CacheSize      int      `mapstructure:"cache_size"`
}

type StylesConfig struct {
	TouchTargetMarker string `mapstructure:"touch_target_marker"`
}

type OutputConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Ignore   []string      `mapstructure:"ignore"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default of every key on v. Registering a key is
// also what lets AutomaticEnv find its environment override on Unmarshal.
func SetDefaults(v *viper.Viper) {
	opts := catalog.DefaultOptions()

	v.SetDefault("input.declarations", "docs/declarations.json")
	v.SetDefault("source.root", "src")
	v.SetDefault("source.strip_prefix", opts.StripPrefix)
	v.SetDefault("source.components_dir", opts.ComponentsDir)
	v.SetDefault("source.import_prefixes", opts.ImportPrefixes)
	v.SetDefault("source.cache_size", 256)
	v.SetDefault("styles.touch_target_marker", opts.TouchTargetMarker)
	v.SetDefault("output.path", "components.json")
	v.SetDefault("output.format", string(catalog.FormatJSON))
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("watch.debounce", 300*time.Millisecond)
	v.SetDefault("watch.ignore", []string{"node_modules", ".git"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads, expands and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "decoding configuration")
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// CatalogOptions maps the source and styles sections onto extractor options.
func (c *Config) CatalogOptions() catalog.Options {
	return catalog.Options{
		ComponentsDir:     c.Source.ComponentsDir,
		StripPrefix:       c.Source.StripPrefix,
		TouchTargetMarker: c.Styles.TouchTargetMarker,
		ImportPrefixes:    c.Source.ImportPrefixes,
	}
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Input.Declarations, &c.Source.Root, &c.Output.Path} {
		if *p == "-" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "expanding path "+*p)
		}
		*p = expanded
	}
	return nil
}
