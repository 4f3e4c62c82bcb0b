package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/metagen/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "docs/declarations.json", cfg.Input.Declarations)
	assert.Equal(t, "src", cfg.Source.Root)
	assert.Equal(t, "src/", cfg.Source.StripPrefix)
	assert.Equal(t, "components", cfg.Source.ComponentsDir)
	assert.Equal(t, []string{"~/components/", "../"}, cfg.Source.ImportPrefixes)
	assert.Equal(t, 256, cfg.Source.CacheSize)
	assert.Equal(t, "touch-target", cfg.Styles.TouchTargetMarker)
	assert.Equal(t, "components.json", cfg.Output.Path)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	opts := cfg.CatalogOptions()
	assert.Equal(t, "components", opts.ComponentsDir)
	assert.Equal(t, "src/", opts.StripPrefix)
	assert.Equal(t, cfg.Source.ImportPrefixes, opts.ImportPrefixes)
	assert.Equal(t, "touch-target", opts.TouchTargetMarker)
}

func TestLoadFromYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
input:
  declarations: build/api.json
source:
  root: packages/ui/src
  strip_prefix: packages/ui/src/
  import_prefixes: ["@ui/components/"]
output:
  path: site/catalog.yaml
  format: YAML
watch:
  debounce: 1s
`)))

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "build/api.json", cfg.Input.Declarations)
	assert.Equal(t, "packages/ui/src", cfg.Source.Root)
	assert.Equal(t, []string{"@ui/components/"}, cfg.Source.ImportPrefixes)
	assert.Equal(t, "yaml", cfg.Output.Format, "format is normalized")
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("METAGEN_SERVER_PORT", "9090")
	t.Setenv("METAGEN_SOURCE_IMPORT_PREFIXES", "@a/,@b/")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"@a/", "@b/"}, cfg.Source.ImportPrefixes)
}

func TestLoadExpandsHome(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skip("no home directory")
	}

	v := viper.New()
	v.Set("input.declarations", "~/docs/api.json")
	v.Set("output.path", "-")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "docs", "api.json"), cfg.Input.Declarations)
	assert.Equal(t, "-", cfg.Output.Path)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"bad port", "server.port", 70000},
		{"negative port", "server.port", -1},
		{"unparsable port", "server.port", "invalid_port"},
		{"host with shell characters", "server.host", "localhost;rm"},
		{"unknown output format", "output.format", "csv"},
		{"empty declarations path", "input.declarations", ""},
		{"empty source root", "source.root", "  "},
		{"negative debounce", "watch.debounce", "-1s"},
		{"unknown log level", "log.level", "loud"},
		{"unknown log format", "log.format", "xml"},
		{"zero cache", "source.cache_size", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			cfg, err := LoadFrom(v)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, errors.IsConfigError(err), "got %v", err)
		})
	}
}

func TestLoadGlobal(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("server.port", 3000)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}
