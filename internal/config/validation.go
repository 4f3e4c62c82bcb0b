package config

import (
	"fmt"
	"strings"

	"github.com/conneroisu/metagen/internal/catalog"
	"github.com/conneroisu/metagen/internal/errors"
	"github.com/conneroisu/metagen/internal/logging"
)

// validateConfig checks every section and reports the first problem found.
func validateConfig(config *Config) error {
	checks := []func() error{
		func() error { return validatePath("input.declarations", config.Input.Declarations) },
		func() error { return validatePath("source.root", config.Source.Root) },
		func() error { return validatePath("source.components_dir", config.Source.ComponentsDir) },
		func() error { return validatePath("output.path", config.Output.Path) },
		func() error { return validateOutput(&config.Output) },
		func() error { return validateServerConfig(&config.Server) },
		func() error { return validateWatch(&config.Watch) },
		func() error { return validateLog(&config.Log) },
		func() error {
			if config.Source.CacheSize < 1 {
				return invalid("source.cache_size", "must be at least 1, got %d", config.Source.CacheSize)
			}
			return nil
		},
	}

	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func validateOutput(config *OutputConfig) error {
	format, err := catalog.ParseFormat(config.Format)
	if err != nil {
		return invalid("output.format", "%q is not json or yaml", config.Format)
	}
	config.Format = string(format)
	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Validate port range (allow 0 for system-assigned ports in testing)
	if config.Port < 0 || config.Port > 65535 {
		return invalid("server.port", "port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		if strings.ContainsAny(config.Host, ";&|$`()<>\"'\\ /") {
			return invalid("server.host", "host %q contains an invalid character", config.Host)
		}
	}

	return nil
}

func validateWatch(config *WatchConfig) error {
	if config.Debounce < 0 {
		return invalid("watch.debounce", "must not be negative, got %s", config.Debounce)
	}
	return nil
}

func validateLog(config *LogConfig) error {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		return invalid("log.level", "%v", err)
	}
	switch config.Format {
	case "text", "json":
		return nil
	default:
		return invalid("log.format", "%q is not text or json", config.Format)
	}
}

// validatePath rejects empty paths and paths with NUL bytes
func validatePath(field, path string) error {
	if strings.TrimSpace(path) == "" {
		return invalid(field, "must not be empty")
	}
	if strings.ContainsRune(path, 0) {
		return invalid(field, "contains a NUL byte")
	}
	return nil
}

func invalid(field, format string, args ...interface{}) error {
	return errors.NewConfigError(errors.ErrCodeConfigInvalid,
		fmt.Sprintf("invalid %s: %s", field, fmt.Sprintf(format, args...)))
}
