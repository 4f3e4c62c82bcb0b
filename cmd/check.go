package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/metagen/internal/catalog"
	"github.com/conneroisu/metagen/internal/errors"
	"github.com/conneroisu/metagen/internal/registry"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the catalog for dependency cycles and unknown phases",
	Long: `Load the catalog and report problems:

  error    components that import each other in a cycle
  warning  phase labels outside Backlog, Dev, UXReview, Stable, Utility
  warning  names or slugs used by more than one component
  warning  dependencies on components missing from the catalog

The command exits non-zero when an error is found.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	addCatalogFlag(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	_, reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}

	collector := checkCatalog(reg)
	printFindings(cmd.OutOrStdout(), collector, reg.Count())

	if collector.HasErrors() {
		return errors.NewValidationError(errors.ErrCodeDependencyCycle,
			fmt.Sprintf("catalog check failed with %d error(s)", collector.Count(errors.ErrorSeverityError)))
	}
	return nil
}

// checkCatalog collects the findings for the catalog held by reg.
func checkCatalog(reg *registry.ComponentRegistry) *errors.Collector {
	collector := errors.NewCollector()

	for _, cycle := range reg.DetectCycles() {
		collector.Add(errors.Finding{
			Component: cycle[0],
			Code:      errors.ErrCodeDependencyCycle,
			Message:   "dependency cycle: " + strings.Join(cycle, " -> "),
			Severity:  errors.ErrorSeverityError,
		})
	}

	names := make(map[string]int)
	slugs := make(map[string]int)
	for _, component := range reg.All() {
		names[component.Name]++
		slugs[component.Slug]++

		if component.Phase != "" && !component.Phase.Known() {
			collector.Add(errors.Finding{
				Component: component.Name,
				Code:      errors.ErrCodeUnknownPhase,
				Message:   fmt.Sprintf("unknown phase %q (expected one of %s)", component.Phase, phaseList()),
				Severity:  errors.ErrorSeverityWarning,
			})
		}

		for _, dep := range component.Dependencies {
			if _, ok := reg.Get(dep); !ok {
				collector.Add(errors.Finding{
					Component: component.Name,
					Code:      errors.ErrCodeComponentNotFound,
					Message:   fmt.Sprintf("depends on %q, which is not in the catalog", dep),
					Severity:  errors.ErrorSeverityWarning,
				})
			}
		}
	}

	for _, component := range reg.All() {
		if names[component.Name] > 1 {
			collector.Add(errors.Finding{
				Component: component.Name,
				Code:      errors.ErrCodeInvalidCatalog,
				Message:   fmt.Sprintf("name used by %d components", names[component.Name]),
				Severity:  errors.ErrorSeverityWarning,
			})
			names[component.Name] = 0
		}
		if slugs[component.Slug] > 1 {
			collector.Add(errors.Finding{
				Component: component.Name,
				Code:      errors.ErrCodeInvalidCatalog,
				Message:   fmt.Sprintf("slug %q used by %d components", component.Slug, slugs[component.Slug]),
				Severity:  errors.ErrorSeverityWarning,
			})
			slugs[component.Slug] = 0
		}
	}

	return collector
}

func phaseList() string {
	labels := make([]string, len(catalog.Phases))
	for i, phase := range catalog.Phases {
		labels[i] = string(phase)
	}
	return strings.Join(labels, ", ")
}

func printFindings(out io.Writer, collector *errors.Collector, components int) {
	for _, finding := range collector.Findings() {
		fmt.Fprintln(out, finding.Error())
	}
	fmt.Fprintf(out, "Checked %d components: %d error(s), %d warning(s)\n",
		components,
		collector.Count(errors.ErrorSeverityError),
		collector.Count(errors.ErrorSeverityWarning))
}
