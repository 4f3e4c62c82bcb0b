package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/metagen/internal/catalog"
	"github.com/conneroisu/metagen/internal/config"
	"github.com/conneroisu/metagen/internal/errors"
	"github.com/conneroisu/metagen/internal/registry"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List catalogued components",
	Long: `List the components of an existing catalog with their metadata.

Examples:
  metagen list                          # Table of all components
  metagen list -f json                  # Output as JSON
  metagen list -d                       # Include dependencies
  metagen list --phase Dev              # Only components in the Dev phase
  metagen list --dependents Button      # Components that import Button
  metagen list --catalog site/ui.yaml   # Read another catalog file`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listFormat     string
	listWithDeps   bool
	listPhase      string
	listDependents string
)

func init() {
	rootCmd.AddCommand(listCmd)

	addCatalogFlag(listCmd)
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table|json|yaml)")
	listCmd.Flags().BoolVarP(&listWithDeps, "with-deps", "d", false, "Include component dependencies")
	listCmd.Flags().StringVar(&listPhase, "phase", "", "Only list components in this phase")
	listCmd.Flags().StringVar(&listDependents, "dependents", "", "Only list components that import this component")

	AddFlagValidation(listCmd.Flags(), "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"table", "json", "yaml"})
	})
}

// addCatalogFlag adds --catalog, which overrides output.path for commands
// that read an existing catalog.
func addCatalogFlag(cmd *cobra.Command) {
	cmd.Flags().String("catalog", "components.json", "Catalog file to read")
}

// loadRegistry loads the configured catalog file into a new registry.
func loadRegistry(cmd *cobra.Command) (*config.Config, *registry.ComponentRegistry, error) {
	cfg, _, err := loadConfig(cmd, map[string]string{"catalog": "output.path"})
	if err != nil {
		return nil, nil, err
	}

	records, err := catalog.ReadFile(afero.NewOsFs(), cfg.Output.Path)
	if err != nil {
		return nil, nil, errors.NewEnhancedError("Failed to read catalog: "+err.Error(), err, []errors.ErrorSuggestion{{
			Title:   "Generate the catalog first",
			Command: "metagen generate",
		}})
	}

	reg := registry.NewComponentRegistry()
	reg.Replace(records)
	return cfg, reg, nil
}

func runList(cmd *cobra.Command, args []string) error {
	_, reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}

	components := reg.All()
	if listDependents != "" {
		if _, ok := reg.Get(listDependents); !ok {
			return errors.NewEnhancedError(
				fmt.Sprintf("Component '%s' not found", listDependents),
				errors.ErrComponentNotFound(listDependents),
				errors.ComponentNotFoundError(listDependents, reg.Names()),
			)
		}
		components = reg.Dependents(listDependents)
	}
	if listPhase != "" {
		components = filterPhase(components, listPhase)
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(listFormat) {
	case "json":
		return catalog.Encode(out, components, catalog.FormatJSON)
	case "yaml":
		return catalog.Encode(out, components, catalog.FormatYAML)
	case "table":
		return outputTable(out, components)
	default:
		return fmt.Errorf("unsupported format: %s", listFormat)
	}
}

func filterPhase(components []catalog.ComponentMeta, phase string) []catalog.ComponentMeta {
	filtered := make([]catalog.ComponentMeta, 0, len(components))
	for _, component := range components {
		if strings.EqualFold(string(component.Phase), phase) {
			filtered = append(filtered, component)
		}
	}
	return filtered
}

func outputTable(out io.Writer, components []catalog.ComponentMeta) error {
	if len(components) == 0 {
		_, err := fmt.Fprintln(out, "No components found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	header := "NAME\tSLUG\tPHASE\tFILE"
	separator := "----\t----\t-----\t----"
	if listWithDeps {
		header += "\tDEPENDENCIES"
		separator += "\t------------"
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, separator)

	for _, component := range components {
		phase := string(component.Phase)
		if phase == "" {
			phase = "-"
		}
		row := fmt.Sprintf("%s\t%s\t%s\t%s", component.Name, component.Slug, phase, component.File)
		if listWithDeps {
			row += "\t" + strings.Join(component.Dependencies, ", ")
		}
		fmt.Fprintln(w, row)
	}

	fmt.Fprintf(w, "\nTotal: %d components\n", len(components))
	return w.Flush()
}
