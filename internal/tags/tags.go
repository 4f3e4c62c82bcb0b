// Package tags resolves @tag annotations on declaration items into typed
// values.
package tags

import (
	"sort"
	"strings"

	"github.com/conneroisu/metagen/internal/declaration"
)

// Marker prefixes every block tag name in the declaration tree.
const Marker = "@"

// SummaryKey is the key under which GetAll stores the comment summary.
const SummaryKey = "summary"

// Kind distinguishes the states a tag value can be in.
type Kind int

const (
	// Absent means the tag does not exist on the item.
	Absent Kind = iota
	// Present means the tag exists but carries no text.
	Present
	// TextKind means the tag carries text content.
	TextKind
)

// Value is the resolved content of a single tag.
type Value struct {
	kind Kind
	text string
}

// Flag returns a value for a tag that exists without text.
func Flag() Value { return Value{kind: Present} }

// Text returns a value carrying text content.
func Text(s string) Value { return Value{kind: TextKind, text: s} }

// Kind returns which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsSet reports whether the tag exists at all.
func (v Value) IsSet() bool { return v.kind != Absent }

// IsFlag reports whether the tag exists without text.
func (v Value) IsFlag() bool { return v.kind == Present }

// Text returns the text content and whether v carries any.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == TextKind
}

// String returns the text content, or "" for flags and absent tags.
func (v Value) String() string { return v.text }

// Resolve turns block tag content into a Value. Content made only of empty
// text fragments, or only of boolean fragments, resolves to a flag.
func Resolve(content []declaration.Fragment) Value {
	allEmpty, allFlags := true, true
	for _, c := range content {
		if c.Flag || c.Text != "" {
			allEmpty = false
		}
		if !c.Flag {
			allFlags = false
		}
	}
	if allEmpty || allFlags {
		return Flag()
	}

	texts := make([]string, 0, len(content))
	for _, c := range content {
		if c.Flag {
			continue
		}
		texts = append(texts, c.Text)
	}
	return Text(strings.Join(texts, "\n"))
}

// Get resolves the tag called name (without marker) on item.
func Get(item *declaration.Item, name string) Value {
	if item == nil || item.Comment == nil {
		return Value{}
	}
	want := Marker + name
	for _, bt := range item.Comment.BlockTags {
		if bt.Tag == want {
			return Resolve(bt.Content)
		}
	}
	return Value{}
}

// Set maps tag names, without marker, to their values.
type Set map[string]Value

// GetAll resolves every block tag on item. Later tags with the same name
// replace earlier ones. The summary is always stored under SummaryKey.
func GetAll(item *declaration.Item) Set {
	set := make(Set)
	if item == nil {
		set[SummaryKey] = Text("")
		return set
	}

	var summary []declaration.Fragment
	if item.Comment != nil {
		for _, bt := range item.Comment.BlockTags {
			set[strings.TrimPrefix(bt.Tag, Marker)] = Resolve(bt.Content)
		}
		summary = item.Comment.Summary
	}

	texts := make([]string, 0, len(summary))
	for _, s := range summary {
		texts = append(texts, s.Text)
	}
	set[SummaryKey] = Text(strings.TrimSpace(strings.Join(texts, "\n")))
	return set
}

// Get returns the value for name, Absent when missing.
func (s Set) Get(name string) Value {
	return s[name]
}

// Summary returns the summary text.
func (s Set) Summary() string {
	return s[SummaryKey].String()
}

// Names returns the tag names in s, sorted.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
