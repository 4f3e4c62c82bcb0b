package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/metagen/internal/catalog"
)

const declarationsJSON = `{
  "name": "ui",
  "children": [
    {
      "name": "Avatar",
      "variant": "signature",
      "comment": {
        "summary": [{"kind": "text", "text": "An avatar component."}],
        "blockTags": [
          {"tag": "@name", "content": [{"kind": "text", "text": "Avatar"}]},
          {"tag": "@phase", "content": [{"kind": "text", "text": "UXReview"}]}
        ]
      },
      "sources": [{"fileName": "src/components/Avatar/Avatar.tsx", "line": 3}]
    },
    {
      "name": "Icon",
      "variant": "signature",
      "comment": {
        "blockTags": [
          {"tag": "@name", "content": [{"kind": "text", "text": "Icon"}]},
          {"tag": "@phase", "content": [{"kind": "text", "text": "Stable"}]}
        ]
      },
      "sources": [{"fileName": "src/components/Icon/Icon.tsx", "line": 1}]
    }
  ]
}`

// resetCommands restores every flag to its default and drops the context
// left behind by a previous execution.
func resetCommands(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		value := f.Value
		if v, ok := value.(*validatingValue); ok {
			value = v.Value
		}
		_ = value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	c.SetContext(nil)
	for _, sub := range c.Commands() {
		resetCommands(sub)
	}
}

// project creates a component library in a temporary working directory.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	files := map[string]string{
		"docs/declarations.json":            declarationsJSON,
		"src/components/Avatar/Avatar.tsx":  "import { Icon } from '~/components/Icon';\n",
		"src/components/Avatar/avatar.scss": ".avatar { }\n",
		"src/components/Icon/Icon.tsx":      "export const Icon = () => null;\n",
	}
	for name, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
	}
	return dir
}

func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	resetCommands(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := execute(t, context.Background(), args...)
	return stdout, err
}

func readCatalog(t *testing.T, path string) []catalog.ComponentMeta {
	t.Helper()
	records, err := catalog.ReadFile(afero.NewOsFs(), path)
	require.NoError(t, err)
	return records
}

func TestGenerateCommand(t *testing.T) {
	project(t)

	_, err := run(t, "generate")
	require.NoError(t, err)

	records := readCatalog(t, "components.json")
	require.Len(t, records, 2)
	assert.Equal(t, "Avatar", records[0].Name)
	assert.Equal(t, "avatar", records[0].Slug)
	assert.Equal(t, "components/Avatar/Avatar.tsx", records[0].File)
	assert.Equal(t, []string{"Icon"}, records[0].Dependencies)
	assert.Equal(t, ".avatar { }\n", records[0].CSS)
	assert.Equal(t, catalog.UXReview, records[0].Phase)
	assert.Equal(t, []string{}, records[1].Dependencies)

	data, err := os.ReadFile("components.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"name\": \"Avatar\""))
}

func TestGenerateCommand_Stdout(t *testing.T) {
	project(t)

	stdout, err := run(t, "g", "-o", "-", "-f", "yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "- name: Avatar")
	assert.NoFileExists(t, "components.json")
}

func TestGenerateCommand_FormatFromExtension(t *testing.T) {
	project(t)

	_, err := run(t, "generate", "-o", "site/catalog.yaml")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join("site", "catalog.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "- name: Avatar")
}

func TestGenerateCommand_MalformedInput(t *testing.T) {
	project(t)
	require.NoError(t, os.WriteFile("docs/declarations.json", []byte(`{"name": [`), 0o644))

	_, err := run(t, "generate")
	require.Error(t, err)
	assert.NoFileExists(t, "components.json")
}

func TestGenerateCommand_MissingInputFlag(t *testing.T) {
	project(t)

	_, err := run(t, "generate", "-i", "docs/missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file does not exist")
}

func TestGenerateCommand_ConfigFile(t *testing.T) {
	project(t)
	require.NoError(t, os.WriteFile(".metagen.yml", []byte("output:\n  path: build/ui.json\n"), 0o644))

	_, err := run(t, "generate")
	require.NoError(t, err)
	assert.Len(t, readCatalog(t, filepath.Join("build", "ui.json")), 2)
}

func TestGenerateCommand_ExplicitConfigMissing(t *testing.T) {
	project(t)

	_, err := run(t, "generate", "--config", "nope.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to load configuration")
}

func TestGenerateCommand_EnvFile(t *testing.T) {
	project(t)
	require.NoError(t, os.WriteFile(".env", []byte("METAGEN_OUTPUT_PATH=from-env.json\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("METAGEN_OUTPUT_PATH") })

	_, err := run(t, "generate")
	require.NoError(t, err)
	assert.FileExists(t, "from-env.json")
}

func TestGenerateCommand_FlagOverridesEnv(t *testing.T) {
	project(t)
	t.Setenv("METAGEN_OUTPUT_PATH", "env.json")

	_, err := run(t, "generate", "-o", "flag.json")
	require.NoError(t, err)
	assert.FileExists(t, "flag.json")
	assert.NoFileExists(t, "env.json")
}

func generated(t *testing.T) {
	t.Helper()
	project(t)
	_, err := run(t, "generate")
	require.NoError(t, err)
}

func TestListCommand(t *testing.T) {
	generated(t)

	stdout, err := run(t, "list", "-d")
	require.NoError(t, err)
	assert.Contains(t, stdout, "NAME")
	assert.Contains(t, stdout, "DEPENDENCIES")
	assert.Contains(t, stdout, "Avatar")
	assert.Contains(t, stdout, "Total: 2 components")
}

func TestListCommandJSON(t *testing.T) {
	generated(t)

	stdout, err := run(t, "l", "-f", "json", "--phase", "stable")
	require.NoError(t, err)

	var records []catalog.ComponentMeta
	require.NoError(t, json.Unmarshal([]byte(stdout), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Icon", records[0].Name)
}

func TestListCommandDependents(t *testing.T) {
	generated(t)

	stdout, err := run(t, "list", "-f", "yaml", "--dependents", "Icon")
	require.NoError(t, err)
	assert.Contains(t, stdout, "name: Avatar")
	assert.NotContains(t, stdout, "name: Icon")

	_, err = run(t, "list", "--dependents", "Ico")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean 'Icon'?")
}

func TestListCommandInvalidFormat(t *testing.T) {
	generated(t)

	_, err := run(t, "list", "-f", "jsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestListCommandMissingCatalog(t *testing.T) {
	project(t)

	_, err := run(t, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metagen generate")
}

func TestQueryCommand(t *testing.T) {
	generated(t)

	stdout, err := run(t, "query", "--raw", "#.name")
	require.NoError(t, err)
	assert.Equal(t, `["Avatar","Icon"]`+"\n", stdout)

	stdout, err = run(t, "query", "--raw", `#(name=="Avatar").slug`)
	require.NoError(t, err)
	assert.Equal(t, "avatar\n", stdout)

	stdout, err = run(t, "query", `#(phase=="Stable")#.name`)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"Icon"`)

	_, err = run(t, "query", `#(name=="Nope")`)
	require.Error(t, err)
}

func TestQueryCommandYAMLCatalog(t *testing.T) {
	project(t)
	_, err := run(t, "generate", "-o", "ui.yaml")
	require.NoError(t, err)

	stdout, err := run(t, "query", "--catalog", "ui.yaml", "--raw", "#")
	require.NoError(t, err)
	assert.Equal(t, "2\n", stdout)
}

func writeCatalog(t *testing.T, records []catalog.ComponentMeta) {
	t.Helper()
	t.Chdir(t.TempDir())
	require.NoError(t, catalog.WriteFile(afero.NewOsFs(), "components.json", records, catalog.FormatJSON))
}

func TestCheckCommand(t *testing.T) {
	generated(t)

	stdout, err := run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Checked 2 components: 0 error(s), 0 warning(s)")
}

func TestCheckCommandCycle(t *testing.T) {
	writeCatalog(t, []catalog.ComponentMeta{
		{Name: "Menu", Slug: "menu", Dependencies: []string{"MenuItem"}},
		{Name: "MenuItem", Slug: "menu-item", Dependencies: []string{"Menu"}},
		{Name: "Badge", Slug: "badge", Dependencies: []string{"Ghost"}, Phase: "Beta"},
	})

	stdout, err := run(t, "check")
	require.Error(t, err)
	assert.Contains(t, stdout, "error: Menu: dependency cycle: Menu -> MenuItem -> Menu")
	assert.Contains(t, stdout, `warning: Badge: unknown phase "Beta"`)
	assert.Contains(t, stdout, `warning: Badge: depends on "Ghost"`)
	assert.Contains(t, stdout, "1 error(s), 2 warning(s)")
}

func TestCheckCommandDuplicates(t *testing.T) {
	writeCatalog(t, []catalog.ComponentMeta{
		{Name: "Tab", Slug: "tab"},
		{Name: "Tab", Slug: "tab"},
	})

	stdout, err := run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "name used by 2 components")
	assert.Contains(t, stdout, `slug "tab" used by 2 components`)
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, err := run(t, "version", "--format", "json")
	require.NoError(t, err)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")
	assert.Contains(t, info, "is_release")

	stdout, err = run(t, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(stdout))

	_, err = run(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestServeCommandFailsOnBadInput(t *testing.T) {
	project(t)
	require.NoError(t, os.WriteFile("docs/declarations.json", []byte(`not json`), 0o644))

	_, err := run(t, "serve", "--port", "0")
	require.Error(t, err)
}

func TestWatchCommand(t *testing.T) {
	project(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, _, err := execute(t, ctx, "watch", "--debounce", "20ms")
		done <- err
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat("components.json")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join("src", "components", "Icon", "icon.scss"),
		[]byte(".touch-target { }\n"), 0o644))

	require.Eventually(t, func() bool {
		records, err := catalog.ReadFile(afero.NewOsFs(), "components.json")
		return err == nil && len(records) == 2 && records[1].HasTouchTarget
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestValidateFormatWithSuggestion(t *testing.T) {
	valid := []string{"table", "json", "yaml"}

	assert.NoError(t, ValidateFormatWithSuggestion("JSON", valid))

	err := ValidateFormatWithSuggestion("jso", valid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "json"`)

	err = ValidateFormatWithSuggestion("csv", valid)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort("0"))
	assert.NoError(t, ValidatePort("8080"))
	assert.Error(t, ValidatePort("70000"))
	assert.Error(t, ValidatePort("http"))
}
