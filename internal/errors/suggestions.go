package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Command     string `json:"command,omitempty"`
}

// ComponentNotFoundError generates suggestions for a component name that is
// not in the catalog. known holds the catalog's component names.
func ComponentNotFoundError(name string, known []string) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "List all catalogued components",
			Description: "Component names are case sensitive and match the @name tag",
			Command:     "metagen list",
		},
	}

	lower := strings.ToLower(name)
	var similar []string
	for _, candidate := range known {
		c := strings.ToLower(candidate)
		if strings.Contains(c, lower) || strings.Contains(lower, c) {
			similar = append(similar, candidate)
		}
	}
	sort.Strings(similar)

	for _, candidate := range similar {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:   fmt.Sprintf("Did you mean '%s'?", candidate),
			Command: "metagen list --dependents " + candidate,
		})
	}

	return suggestions
}

// FormatSuggestions formats suggestions into a user-friendly string
func FormatSuggestions(title string, suggestions []ErrorSuggestion) string {
	if len(suggestions) == 0 {
		return title
	}

	var output strings.Builder
	output.WriteString(title + "\n\n")
	output.WriteString("Suggestions:\n")

	for i, suggestion := range suggestions {
		output.WriteString(fmt.Sprintf("  %d. %s\n", i+1, suggestion.Title))
		if suggestion.Description != "" {
			output.WriteString(fmt.Sprintf("     %s\n", suggestion.Description))
		}
		if suggestion.Command != "" {
			output.WriteString(fmt.Sprintf("     Run: %s\n", suggestion.Command))
		}
	}

	return output.String()
}

// EnhancedError wraps an error with suggestions
type EnhancedError struct {
	OriginalError error
	Title         string
	Suggestions   []ErrorSuggestion
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	return FormatSuggestions(e.Title, e.Suggestions)
}

// Unwrap returns the original error
func (e *EnhancedError) Unwrap() error {
	return e.OriginalError
}

// NewEnhancedError creates a new enhanced error with suggestions
func NewEnhancedError(title string, originalError error, suggestions []ErrorSuggestion) *EnhancedError {
	return &EnhancedError{
		OriginalError: originalError,
		Title:         title,
		Suggestions:   suggestions,
	}
}
