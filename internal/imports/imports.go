// Package imports finds the component imports in a TSX source file using
// the tree-sitter TSX grammar.
package imports

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

// DefaultPrefixes are the module specifier prefixes that point at other
// components of the library.
var DefaultPrefixes = []string{"~/components/", "../"}

// Import is one ES module import statement.
type Import struct {
	Source    string
	Default   string
	Namespace string
	Names     []string // imported names, before any "as" rename
	TypeOnly  bool
	Line      int
}

// Bindings returns the default import followed by the named imports.
func (i Import) Bindings() []string {
	out := make([]string, 0, len(i.Names)+1)
	if i.Default != "" {
		out = append(out, i.Default)
	}
	return append(out, i.Names...)
}

// Extractor parses TSX sources. It owns a tree-sitter parser and must not be
// shared between goroutines.
type Extractor struct {
	parser *sitter.Parser
}

// NewExtractor creates an extractor for TSX (and plain TypeScript) sources.
func NewExtractor() *Extractor {
	p := sitter.NewParser()
	p.SetLanguage(tsx.GetLanguage())
	return &Extractor{parser: p}
}

// Close releases the underlying parser.
func (e *Extractor) Close() {
	e.parser.Close()
}

// Extract returns the top-level import statements of source in order.
func (e *Extractor) Extract(ctx context.Context, source []byte) ([]Import, error) {
	if len(source) == 0 {
		return nil, nil
	}

	tree, err := e.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing source: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var out []Import
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "import_statement" {
			continue
		}
		if imp, ok := parseImport(child, source); ok {
			out = append(out, imp)
		}
	}
	return out, nil
}

// ComponentNames returns the bindings of every import whose module specifier
// matches m, in source order. Duplicates are kept.
func (e *Extractor) ComponentNames(ctx context.Context, source []byte, m Matcher) ([]string, error) {
	imps, err := e.Extract(ctx, source)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, imp := range imps {
		if m.Internal(imp.Source) {
			names = append(names, imp.Bindings()...)
		}
	}
	return names, nil
}

// Matcher decides which module specifiers refer to library components.
type Matcher struct {
	Prefixes []string
}

// NewMatcher returns a matcher for prefixes, falling back to DefaultPrefixes.
func NewMatcher(prefixes []string) Matcher {
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	return Matcher{Prefixes: prefixes}
}

// Internal reports whether source points into the component tree.
func (m Matcher) Internal(source string) bool {
	for _, p := range m.Prefixes {
		if p != "" && strings.HasPrefix(source, p) {
			return true
		}
	}
	return false
}

func parseImport(node *sitter.Node, source []byte) (Import, bool) {
	imp := Import{Line: int(node.StartPoint().Row) + 1}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type":
			imp.TypeOnly = true
		case "import_clause":
			readClause(child, source, &imp)
		case "string":
			imp.Source = stringContent(child, source)
		}
	}

	return imp, imp.Source != ""
}

func readClause(clause *sitter.Node, source []byte, imp *Import) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case "identifier":
			imp.Default = nodeText(child, source)
		case "namespace_import":
			if id := firstOfType(child, "identifier"); id != nil {
				imp.Namespace = nodeText(id, source)
			}
		case "named_imports":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				if name == nil {
					name = firstOfType(spec, "identifier")
				}
				if name != nil {
					imp.Names = append(imp.Names, nodeText(name, source))
				}
			}
		}
	}
}

func stringContent(node *sitter.Node, source []byte) string {
	if frag := firstOfType(node, "string_fragment"); frag != nil {
		return nodeText(frag, source)
	}
	return strings.Trim(nodeText(node, source), `"'`)
}

func firstOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
