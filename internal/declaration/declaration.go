// Package declaration models the declaration tree emitted by the TypeScript
// documentation extractor and provides the depth-first search used to locate
// component entry points in it.
package declaration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	metaerrors "github.com/conneroisu/metagen/internal/errors"
)

// VariantSignature marks an item that is the type signature of a callable.
const VariantSignature = "signature"

// MaxDepth bounds how deep FindItems descends before giving up.
const MaxDepth = 512

// ErrMaxDepth is returned when a tree is nested deeper than MaxDepth.
var ErrMaxDepth = errors.New("declaration tree exceeds maximum depth")

// Item is a single node of the declaration tree.
type Item struct {
	ID         int      `json:"id,omitempty"`
	Name       string   `json:"name"`
	Variant    string   `json:"variant,omitempty"`
	Children   []*Item  `json:"children,omitempty"`
	Signatures []*Item  `json:"signatures,omitempty"`
	Comment    *Comment `json:"comment,omitempty"`
	Sources    []Source `json:"sources,omitempty"`
}

// Comment is the structured documentation block attached to an item.
type Comment struct {
	Summary   []Fragment `json:"summary,omitempty"`
	BlockTags []BlockTag `json:"blockTags,omitempty"`
}

// BlockTag is an @tag annotation inside a documentation comment. Tag keeps
// its leading marker, e.g. "@phase".
type BlockTag struct {
	Tag     string     `json:"tag"`
	Content []Fragment `json:"content"`
}

// Fragment is one piece of comment content. The extractor emits text parts
// as objects, but flag-style tags may carry a bare JSON true instead.
type Fragment struct {
	Kind string `json:"kind,omitempty"`
	Text string `json:"text"`
	Flag bool   `json:"-"`
}

type plainFragment Fragment

// UnmarshalJSON accepts either a {kind, text} object or a JSON boolean.
func (f *Fragment) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*f = Fragment{Flag: true}
		return nil
	case "false", "null":
		*f = Fragment{}
		return nil
	}

	var p plainFragment
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = Fragment(p)
	return nil
}

// MarshalJSON writes flag fragments back as a bare true.
func (f Fragment) MarshalJSON() ([]byte, error) {
	if f.Flag {
		return []byte("true"), nil
	}
	return json.Marshal(plainFragment(f))
}

// Source locates a declaration in the original source tree.
type Source struct {
	FileName  string `json:"fileName"`
	Line      int    `json:"line,omitempty"`
	Character int    `json:"character,omitempty"`
}

// Decode reads a declaration tree from r.
func Decode(r io.Reader) (*Item, error) {
	var root Item
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, metaerrors.NewParseError(
			metaerrors.ErrCodeInvalidDeclarations,
			"failed to decode declaration tree",
			err,
		)
	}
	return &root, nil
}

// Predicate reports whether an item is a search hit.
type Predicate func(item *Item) bool

// FindItems searches the tree rooted at root depth first and returns every
// item matching predicate. A matching item is returned without searching its
// subtree. Children are visited before signatures, left to right.
func FindItems(root *Item, predicate Predicate) ([]*Item, error) {
	return findItems(root, predicate, 0)
}

func findItems(item *Item, predicate Predicate, depth int) ([]*Item, error) {
	if item == nil {
		return nil, nil
	}
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w (%d) below %q", ErrMaxDepth, MaxDepth, item.Name)
	}

	if predicate(item) {
		return []*Item{item}, nil
	}

	var found []*Item
	for _, child := range item.nested() {
		matches, err := findItems(child, predicate, depth+1)
		if err != nil {
			return nil, err
		}
		found = append(found, matches...)
	}
	return found, nil
}

// nested returns Children followed by Signatures.
func (i *Item) nested() []*Item {
	if len(i.Signatures) == 0 {
		return i.Children
	}
	all := make([]*Item, 0, len(i.Children)+len(i.Signatures))
	all = append(all, i.Children...)
	return append(all, i.Signatures...)
}

// FirstSource returns the item's first recorded source location.
func (i *Item) FirstSource() (Source, bool) {
	if len(i.Sources) == 0 {
		return Source{}, false
	}
	return i.Sources[0], true
}
