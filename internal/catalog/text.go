package catalog

import (
	"regexp"
	"strings"
)

var (
	openingFence = regexp.MustCompile("^```[\\w+-]*(\\s+[^`]*)?$")
	closingFence = regexp.MustCompile("^```\\s*$")
)

// CleanExample turns the content of an @example tag into bare code: the
// opening fence line (with its language and any metadata) and the closing
// fence line are removed, the indentation shared by the continuation lines
// is stripped from every line and the result is trimmed.
func CleanExample(s string) string {
	lines := splitLines(s)

	lines = trimBlankLines(lines)
	if len(lines) > 0 && openingFence.MatchString(strings.TrimSpace(lines[0])) {
		lines = lines[1:]
	}
	lines = trimBlankLines(lines)
	if n := len(lines); n > 0 && closingFence.MatchString(strings.TrimSpace(lines[n-1])) {
		lines = lines[:n-1]
	}

	indent := 0
	if len(lines) > 1 {
		indent = commonIndent(lines[1:])
	}
	for i, line := range lines {
		lines[i] = line[min(indent, leadingSpace(line)):]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// NormalizeDescription rejoins hard-wrapped doc comment prose. Leading
// whitespace and "*" gutters are removed from each line, lines within a
// paragraph are joined with single spaces and runs of blank lines become a
// single paragraph break.
func NormalizeDescription(s string) string {
	var (
		paragraphs []string
		current    []string
	)
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}

	for _, line := range splitLines(s) {
		line = strings.TrimLeft(line, " \t")
		if strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "**") {
			line = strings.TrimLeft(line[1:], " \t")
		}
		line = strings.TrimRight(line, " \t")

		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

func trimBlankLines(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// commonIndent returns the number of leading whitespace bytes shared by all
// non-blank lines.
func commonIndent(lines []string) int {
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := leadingSpace(line)
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent < 0 {
		return 0
	}
	return indent
}

func leadingSpace(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
