package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/conneroisu/metagen/internal/catalog"
	"github.com/conneroisu/metagen/internal/errors"
)

var queryCmd = &cobra.Command{
	Use:   "query PATH",
	Short: "Query the catalog with a GJSON path",
	Long: `Evaluate a GJSON path (https://github.com/tidwall/gjson) against the catalog.
YAML catalogs are converted to JSON first.

Examples:
  metagen query '#.name'                            # All component names
  metagen query '#(phase=="Dev")#.name'             # Names of components in Dev
  metagen query '#(name=="Avatar").dependencies'    # What Avatar imports
  metagen query '#(hasTouchTarget==true)#|#'        # How many define a touch target`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var queryRaw bool

func init() {
	rootCmd.AddCommand(queryCmd)

	addCatalogFlag(queryCmd)
	queryCmd.Flags().BoolVar(&queryRaw, "raw", false, "Print string results without quotes and JSON results unformatted")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd, map[string]string{"catalog": "output.path"})
	if err != nil {
		return err
	}

	data, err := catalogJSON(afero.NewOsFs(), cfg.Output.Path)
	if err != nil {
		return err
	}

	result := gjson.GetBytes(data, args[0])
	if !result.Exists() {
		return errors.NewValidationError(errors.ErrCodeInvalidCatalog, fmt.Sprintf("no match for %q", args[0]))
	}

	out := cmd.OutOrStdout()
	switch {
	case queryRaw && result.Type == gjson.String:
		_, err = fmt.Fprintln(out, result.String())
	case queryRaw:
		_, err = fmt.Fprintln(out, result.Raw)
	default:
		_, err = fmt.Fprintln(out, strings.TrimRight(gjson.Get(result.Raw, "@pretty").Raw, "\n"))
	}
	return err
}

// catalogJSON returns the catalog at path as JSON, converting YAML.
func catalogJSON(fsys afero.Fs, path string) ([]byte, error) {
	if catalog.FormatFromPath(path) == catalog.FormatJSON {
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "reading catalog").WithFile(path)
		}
		if !gjson.ValidBytes(data) {
			return nil, errors.NewParseError(errors.ErrCodeInvalidCatalog, "catalog is not valid JSON", nil).WithFile(path)
		}
		return data, nil
	}

	records, err := catalog.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := catalog.Encode(&buf, records, catalog.FormatJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
