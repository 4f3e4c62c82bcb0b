package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Input flags
	Input  string
	Source string

	// Catalog output flags
	Output string
	Format string

	// Server flags
	Port int
	Host string
}

// Config keys the standard flags override.
var standardBindings = map[string]string{
	"input":  "input.declarations",
	"src":    "source.root",
	"output": "output.path",
	"format": "output.format",
	"port":   "server.port",
	"host":   "server.host",
}

// AddStandardFlags adds the named flag groups ("input", "output", "server")
// to a command.
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "input":
			addInputFlags(cmd, flags)
		case "output":
			addOutputFlags(cmd, flags)
		case "server":
			addServerFlags(cmd, flags)
		}
	}

	return flags
}

func addInputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Input, "input", "i", "docs/declarations.json", "Declaration JSON to read")
	cmd.Flags().StringVar(&flags.Source, "src", "src", "Source root component files are read from")
	AddFlagValidation(cmd.Flags(), "input", ValidateFileExists)
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "components.json", `Catalog file to write ("-" for stdout)`)
	cmd.Flags().StringVarP(&flags.Format, "format", "f", "json", "Catalog format (json|yaml)")
	AddFlagValidation(cmd.Flags(), "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"json", "yaml", "yml"})
	})
}

func addServerFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().IntVarP(&flags.Port, "port", "p", 8080, "Port to serve on")
	cmd.Flags().StringVar(&flags.Host, "host", "localhost", "Host to bind to")
	AddFlagValidation(cmd.Flags(), "port", ValidatePort)
}

// Bindings returns the viper bindings of the standard flags of cmd.
func (f *StandardFlags) Bindings(cmd *cobra.Command) map[string]string {
	bindings := make(map[string]string)
	for flagName, configKey := range standardBindings {
		if cmd.Flags().Lookup(flagName) != nil {
			bindings[flagName] = configKey
		}
	}
	return bindings
}

// SetViperBindings binds flags to viper configuration keys. A flag
// overrides the configuration only when it was set on the command line.
func SetViperBindings(cmd *cobra.Command, bindings map[string]string) error {
	for flagName, configKey := range bindings {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(configKey, flag); err != nil {
			return fmt.Errorf("binding --%s: %w", flagName, err)
		}
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(flags *pflag.FlagSet, flagName string, validator func(string) error) {
	flag := flags.Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateFormatWithSuggestion accepts one of valid, case-insensitively, and
// otherwise names the closest valid format.
func ValidateFormatWithSuggestion(format string, valid []string) error {
	lower := strings.ToLower(format)
	for _, v := range valid {
		if lower == v {
			return nil
		}
	}

	for _, v := range valid {
		if lower != "" && (strings.HasPrefix(v, lower) || strings.HasPrefix(lower, v)) {
			return fmt.Errorf("invalid format %q, did you mean %q? (valid: %s)", format, v, strings.Join(valid, ", "))
		}
	}
	return fmt.Errorf("invalid format %q (valid: %s)", format, strings.Join(valid, ", "))
}

// ValidatePort accepts ports 0 to 65535; 0 picks a free port.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}

	return nil
}

// ValidateFileExists rejects a path that does not exist.
func ValidateFileExists(filename string) error {
	if filename == "" || filename == "-" {
		return nil
	}

	path, err := homedir.Expand(filename)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filename)
	}

	return nil
}
