// Package errors provides the structured error types used across metagen and
// a collector for findings reported by catalog checks.
package errors

import (
	"fmt"
	"sync"
)

// Finding is a single problem reported while checking a catalog.
type Finding struct {
	Component string
	Code      string
	Message   string
	Severity  ErrorSeverity
}

// ErrorSeverity represents the severity of a finding
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (f *Finding) Error() string {
	if f.Component == "" {
		return fmt.Sprintf("%s: %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.Severity, f.Component, f.Message)
}

// Collector collects findings in the order they are reported.
type Collector struct {
	findings []Finding
	mutex    sync.RWMutex
}

// NewCollector creates a new finding collector
func NewCollector() *Collector {
	return &Collector{
		findings: make([]Finding, 0),
	}
}

// Add adds a finding to the collector
func (c *Collector) Add(f Finding) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.findings = append(c.findings, f)
}

// Findings returns a copy of all collected findings
func (c *Collector) Findings() []Finding {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]Finding, len(c.findings))
	copy(result, c.findings)
	return result
}

// HasErrors reports whether any finding has error severity
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for _, f := range c.findings {
		if f.Severity >= ErrorSeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of findings with the given severity
func (c *Collector) Count(severity ErrorSeverity) int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	n := 0
	for _, f := range c.findings {
		if f.Severity == severity {
			n++
		}
	}
	return n
}

// Clear removes all findings
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.findings = c.findings[:0]
}
