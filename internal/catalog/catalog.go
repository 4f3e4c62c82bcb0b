// Package catalog assembles the component catalog from a declaration tree.
//
// A declaration is a component entry point when it is a call signature whose
// @name tag repeats its own name. For every entry the extractor reads the
// component's stylesheet and source file through an injected source.Reader,
// resolves its doc tags and records which other components it imports.
package catalog

import (
	"context"
	"path"
	"strings"

	"github.com/conneroisu/metagen/internal/declaration"
	"github.com/conneroisu/metagen/internal/errors"
	"github.com/conneroisu/metagen/internal/imports"
	"github.com/conneroisu/metagen/internal/logging"
	"github.com/conneroisu/metagen/internal/slug"
	"github.com/conneroisu/metagen/internal/source"
	"github.com/conneroisu/metagen/internal/tags"
)

// Tag names read from component doc comments.
const (
	TagName               = "name"
	TagPhase              = "phase"
	TagExample            = "example"
	TagExampleDescription = "exampleDescription"
	TagGenerated          = "generated"
)

// Options controls where the extractor looks for component files.
type Options struct {
	// ComponentsDir is the directory, relative to the source root, holding
	// one folder per component.
	ComponentsDir string
	// StripPrefix is removed from declaration file names to make them
	// relative to the reader's root.
	StripPrefix string
	// TouchTargetMarker marks stylesheets that define a touch target.
	TouchTargetMarker string
	// ImportPrefixes select the module specifiers that refer to components.
	ImportPrefixes []string
}

// DefaultOptions returns the conventional library layout.
func DefaultOptions() Options {
	return Options{
		ComponentsDir:     "components",
		StripPrefix:       "src/",
		TouchTargetMarker: "touch-target",
		ImportPrefixes:    append([]string(nil), imports.DefaultPrefixes...),
	}
}

// Extractor builds catalog records. It is not safe for concurrent use.
type Extractor struct {
	reader  source.Reader
	opts    Options
	logger  logging.Logger
	imports *imports.Extractor
	matcher imports.Matcher
}

// New creates an extractor reading component files through reader.
func New(reader source.Reader, opts Options, logger logging.Logger) *Extractor {
	defaults := DefaultOptions()
	if opts.ComponentsDir == "" {
		opts.ComponentsDir = defaults.ComponentsDir
	}
	if opts.TouchTargetMarker == "" {
		opts.TouchTargetMarker = defaults.TouchTargetMarker
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Extractor{
		reader:  reader,
		opts:    opts,
		logger:  logger.WithComponent("catalog"),
		imports: imports.NewExtractor(),
		matcher: imports.NewMatcher(opts.ImportPrefixes),
	}
}

// Close releases the source parser.
func (e *Extractor) Close() {
	e.imports.Close()
}

// IsComponentEntry reports whether item is a call signature annotated with
// an @name tag equal to its own name.
func IsComponentEntry(item *declaration.Item) bool {
	if item.Variant != declaration.VariantSignature {
		return false
	}
	name, ok := tags.Get(item, TagName).Text()
	return ok && name == item.Name
}

// GetComponentMeta returns one record per component entry under root, in
// tree search order. No record is returned unless all of them succeed.
func (e *Extractor) GetComponentMeta(ctx context.Context, root *declaration.Item) ([]ComponentMeta, error) {
	entries, err := declaration.FindItems(root, IsComponentEntry)
	if err != nil {
		return nil, errors.NewParseError(errors.ErrCodeTreeTooDeep, "searching declaration tree", err)
	}

	known := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		known[entry.Name] = struct{}{}
	}

	records := make([]ComponentMeta, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		meta, err := e.assemble(ctx, entry, known)
		if err != nil {
			return nil, err
		}
		records = append(records, meta)
	}

	e.logger.Debug(ctx, "assembled catalog", "components", len(records))
	return records, nil
}

func (e *Extractor) assemble(ctx context.Context, entry *declaration.Item, known map[string]struct{}) (ComponentMeta, error) {
	set := tags.GetAll(entry)
	componentSlug := slug.KebabCase(entry.Name)

	stylesheet := path.Join(e.opts.ComponentsDir, entry.Name, componentSlug+".scss")
	css, err := source.ReadOptional(e.reader, stylesheet)
	if err != nil {
		return ComponentMeta{}, errors.WrapIO(err, errors.ErrCodeReadFailed, "reading stylesheet").
			WithComponent(entry.Name).WithFile(stylesheet)
	}

	var file string
	if src, ok := entry.FirstSource(); ok {
		file = strings.TrimPrefix(src.FileName, e.opts.StripPrefix)
	}

	deps := []string{}
	if file != "" {
		code, err := source.ReadOptional(e.reader, file)
		if err != nil {
			return ComponentMeta{}, errors.WrapIO(err, errors.ErrCodeReadFailed, "reading component source").
				WithComponent(entry.Name).WithFile(file)
		}
		deps, err = e.dependencies(ctx, []byte(code), known)
		if err != nil {
			return ComponentMeta{}, errors.WrapParse(err, errors.ErrCodeSourceParse, "parsing component imports").
				WithComponent(entry.Name).WithFile(file)
		}
	}

	meta := ComponentMeta{
		Name:           entry.Name,
		Slug:           componentSlug,
		File:           file,
		Description:    NormalizeDescription(set.Summary()),
		Dependencies:   deps,
		CSS:            css,
		HasTouchTarget: strings.Contains(css, e.opts.TouchTargetMarker),
		Usage:          usage(set),
		Generated:      set.Get(TagGenerated).IsSet(),
	}

	phase := set.Get(TagPhase)
	if label, ok := phase.Text(); ok {
		meta.Phase = Phase(strings.TrimSpace(label))
		if !meta.Phase.Known() {
			e.logger.Warn(ctx, nil, "unknown phase label", "name", entry.Name, "phase", label)
		}
	} else if phase.IsFlag() {
		e.logger.Warn(ctx, nil, "phase tag without a label", "name", entry.Name)
	}

	return meta, nil
}

// dependencies returns the known component names imported by code, without
// duplicates, in order of first import.
func (e *Extractor) dependencies(ctx context.Context, code []byte, known map[string]struct{}) ([]string, error) {
	names, err := e.imports.ComponentNames(ctx, code, e.matcher)
	if err != nil {
		return nil, err
	}

	deps := []string{}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := known[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		deps = append(deps, name)
	}
	return deps, nil
}

func usage(set tags.Set) *Usage {
	var u Usage
	if example, ok := set.Get(TagExample).Text(); ok {
		u.Code = CleanExample(example)
	}
	if desc, ok := set.Get(TagExampleDescription).Text(); ok {
		u.Description = strings.TrimSpace(desc)
	}
	if u.Code == "" && u.Description == "" {
		return nil
	}
	return &u
}
