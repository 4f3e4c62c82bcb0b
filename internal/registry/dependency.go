package registry

import (
	"github.com/conneroisu/metagen/internal/catalog"
)

// DependencyAnalyzer answers questions about the import graph between
// catalogued components.
type DependencyAnalyzer struct {
	registry *ComponentRegistry
}

// NewDependencyAnalyzer creates a new dependency analyzer
func NewDependencyAnalyzer(registry *ComponentRegistry) *DependencyAnalyzer {
	return &DependencyAnalyzer{
		registry: registry,
	}
}

// GetDependents returns components that depend on the given component, in
// catalog order.
func (da *DependencyAnalyzer) GetDependents(componentName string) []catalog.ComponentMeta {
	var dependents []catalog.ComponentMeta
	for _, component := range da.registry.All() {
		if component.DependsOn(componentName) {
			dependents = append(dependents, component)
		}
	}
	return dependents
}

// GetDependencyGraph returns the full dependency graph
func (da *DependencyAnalyzer) GetDependencyGraph() map[string][]string {
	graph := make(map[string][]string)
	for _, component := range da.registry.All() {
		if _, dup := graph[component.Name]; dup {
			continue
		}
		graph[component.Name] = append([]string{}, component.Dependencies...)
	}
	return graph
}

// DetectCircularDependencies returns every cycle reachable by a depth first
// walk in catalog order. Each cycle starts and ends with the same name.
func (da *DependencyAnalyzer) DetectCircularDependencies() [][]string {
	var cycles [][]string
	graph := da.GetDependencyGraph()

	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, component := range da.registry.Names() {
		if !visited[component] {
			cycles = da.detectCycleDFS(component, graph, visited, recStack, nil, cycles)
		}
	}

	return cycles
}

// detectCycleDFS performs DFS to detect cycles
func (da *DependencyAnalyzer) detectCycleDFS(component string, graph map[string][]string, visited, recStack map[string]bool, path []string, cycles [][]string) [][]string {
	visited[component] = true
	recStack[component] = true
	path = append(path, component)

	for _, dep := range graph[component] {
		if !visited[dep] {
			cycles = da.detectCycleDFS(dep, graph, visited, recStack, path, cycles)
			continue
		}
		if !recStack[dep] {
			continue
		}

		// Found cycle - extract the cycle from path
		for i, p := range path {
			if p == dep {
				cycle := make([]string, len(path)-i+1)
				copy(cycle, path[i:])
				cycle[len(cycle)-1] = dep // Close the cycle
				cycles = append(cycles, cycle)
				break
			}
		}
	}

	recStack[component] = false
	return cycles
}

// GetDependencyAnalyzer returns a dependency analyzer over r
func (r *ComponentRegistry) GetDependencyAnalyzer() *DependencyAnalyzer {
	return NewDependencyAnalyzer(r)
}

// Dependents returns components that import name
func (r *ComponentRegistry) Dependents(name string) []catalog.ComponentMeta {
	return r.GetDependencyAnalyzer().GetDependents(name)
}

// DetectCycles returns the dependency cycles in the catalog
func (r *ComponentRegistry) DetectCycles() [][]string {
	return r.GetDependencyAnalyzer().DetectCircularDependencies()
}
