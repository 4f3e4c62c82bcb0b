package catalog

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/metagen/internal/declaration"
	metaerrors "github.com/conneroisu/metagen/internal/errors"
	"github.com/conneroisu/metagen/internal/source"
)

func text(s string) []declaration.Fragment {
	return []declaration.Fragment{{Kind: "text", Text: s}}
}

func component(name, file string, blockTags ...declaration.BlockTag) *declaration.Item {
	bt := append([]declaration.BlockTag{{Tag: "@name", Content: text(name)}}, blockTags...)
	item := &declaration.Item{
		Name:    name,
		Variant: declaration.VariantSignature,
		Comment: &declaration.Comment{BlockTags: bt},
	}
	if file != "" {
		item.Sources = []declaration.Source{{FileName: file, Line: 1}}
	}
	return item
}

func newExtractor(t *testing.T, fsys afero.Fs) *Extractor {
	t.Helper()
	e := New(source.NewFS(fsys), DefaultOptions(), nil)
	t.Cleanup(e.Close)
	return e
}

func TestGetComponentMeta_Avatar(t *testing.T) {
	root := &declaration.Item{
		Name: "root",
		Children: []*declaration.Item{{
			Name:    "Avatar",
			Variant: declaration.VariantSignature,
			Comment: &declaration.Comment{
				Summary: text("An avatar component."),
				BlockTags: []declaration.BlockTag{
					{Tag: "@name", Content: text("Avatar")},
					{Tag: "@phase", Content: text("UXReview")},
				},
			},
			Sources: []declaration.Source{{FileName: "src/components/Avatar/Avatar.tsx"}},
		}},
	}

	records, err := newExtractor(t, afero.NewMemMapFs()).GetComponentMeta(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []ComponentMeta{{
		Name:           "Avatar",
		Slug:           "avatar",
		File:           "components/Avatar/Avatar.tsx",
		Description:    "An avatar component.",
		Dependencies:   []string{},
		CSS:            "",
		HasTouchTarget: false,
		Usage:          nil,
		Phase:          UXReview,
		Generated:      false,
	}}, records)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, records, FormatJSON))
	assert.JSONEq(t, `[{
		"name": "Avatar",
		"slug": "avatar",
		"file": "components/Avatar/Avatar.tsx",
		"description": "An avatar component.",
		"dependencies": [],
		"css": "",
		"hasTouchTarget": false,
		"phase": "UXReview",
		"generated": false
	}]`, buf.String())
}

func TestGetComponentMeta_Dependencies(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "components/Toolbar/Toolbar.tsx", []byte(`import React from 'react';
import { Button, UnknownThing } from '~/components/Button';
import { Button as Again } from '../Button';
import { Icon } from '../Icon';
`), 0o644))

	root := &declaration.Item{
		Name: "root",
		Children: []*declaration.Item{
			component("Toolbar", "src/components/Toolbar/Toolbar.tsx"),
			component("Button", "src/components/Button/Button.tsx"),
		},
	}

	records, err := newExtractor(t, mem).GetComponentMeta(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{"Button"}, records[0].Dependencies)
	assert.Equal(t, []string{}, records[1].Dependencies, "missing source file yields no dependencies")
}

func TestGetComponentMeta_StylesheetAndTags(t *testing.T) {
	mem := afero.NewMemMapFs()
	css := ".button-group { }\n.touch-target { min-height: 44px; }\n"
	require.NoError(t, afero.WriteFile(mem, "components/ButtonGroup/button-group.scss", []byte(css), 0o644))

	root := component("ButtonGroup", "src/components/ButtonGroup/ButtonGroup.tsx",
		declaration.BlockTag{Tag: "@generated", Content: []declaration.Fragment{{Flag: true}}},
		declaration.BlockTag{Tag: "@example", Content: text("```tsx\n  <ButtonGroup>\n    <Button />\n  </ButtonGroup>\n```")},
		declaration.BlockTag{Tag: "@exampleDescription", Content: text("Group related actions.")},
		declaration.BlockTag{Tag: "@phase", Content: text("Dev")},
	)
	root.Comment.Summary = text(" * Groups buttons\n * that belong together.\n *\n * Second paragraph.")

	records, err := newExtractor(t, mem).GetComponentMeta(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, "button-group", got.Slug)
	assert.Equal(t, css, got.CSS)
	assert.True(t, got.HasTouchTarget)
	assert.True(t, got.Generated)
	assert.Equal(t, Dev, got.Phase)
	assert.Equal(t, "Groups buttons that belong together.\n\nSecond paragraph.", got.Description)
	require.NotNil(t, got.Usage)
	assert.Equal(t, "<ButtonGroup>\n  <Button />\n</ButtonGroup>", got.Usage.Code)
	assert.Equal(t, "Group related actions.", got.Usage.Description)
}

func TestGetComponentMeta_NoSources(t *testing.T) {
	root := component("Ghost", "")

	records, err := newExtractor(t, afero.NewMemMapFs()).GetComponentMeta(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].File)
	assert.Equal(t, []string{}, records[0].Dependencies)
	assert.Equal(t, "", records[0].Description)
}

func TestGetComponentMeta_UnknownPhaseKept(t *testing.T) {
	root := component("Badge", "", declaration.BlockTag{Tag: "@phase", Content: text("Experimental")})

	records, err := newExtractor(t, afero.NewMemMapFs()).GetComponentMeta(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, Phase("Experimental"), records[0].Phase)
	assert.False(t, records[0].Phase.Known())
}

func TestGetComponentMeta_OnlyExampleDescription(t *testing.T) {
	root := component("Chip", "", declaration.BlockTag{Tag: "@exampleDescription", Content: text("Use sparingly.")})

	records, err := newExtractor(t, afero.NewMemMapFs()).GetComponentMeta(context.Background(), root)
	require.NoError(t, err)
	require.NotNil(t, records[0].Usage)
	assert.Equal(t, "", records[0].Usage.Code)
	assert.Equal(t, "Use sparingly.", records[0].Usage.Description)
}

func TestGetComponentMeta_MatchOrderAndPruning(t *testing.T) {
	inner := component("Inner", "")
	outer := component("Outer", "")
	outer.Children = []*declaration.Item{inner}

	root := &declaration.Item{
		Name: "root",
		Children: []*declaration.Item{
			{Name: "module", Signatures: []*declaration.Item{component("Second", "")}, Children: []*declaration.Item{outer}},
			component("Third", ""),
		},
	}

	records, err := newExtractor(t, afero.NewMemMapFs()).GetComponentMeta(context.Background(), root)
	require.NoError(t, err)

	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Outer", "Second", "Third"}, names)
}

func TestGetComponentMeta_ReadErrorAborts(t *testing.T) {
	boom := errors.New("disk on fire")
	e := New(failingReader{err: boom}, DefaultOptions(), nil)
	defer e.Close()

	records, err := e.GetComponentMeta(context.Background(), component("Avatar", "src/components/Avatar/Avatar.tsx"))
	assert.Nil(t, records)
	assert.ErrorIs(t, err, boom)

	var me *metaerrors.MetagenError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "Avatar", me.Component)
}

func TestGetComponentMeta_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newExtractor(t, afero.NewMemMapFs()).GetComponentMeta(ctx, component("Avatar", ""))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetComponentMeta_Idempotent(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "components/Menu/Menu.tsx", []byte("import { Popover } from '../Popover';\n"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "components/Menu/menu.scss", []byte(".menu {}"), 0o644))

	root := &declaration.Item{Name: "root", Children: []*declaration.Item{
		component("Menu", "src/components/Menu/Menu.tsx"),
		component("Popover", "src/components/Popover/Popover.tsx"),
	}}

	e := newExtractor(t, mem)
	encode := func() string {
		records, err := e.GetComponentMeta(context.Background(), root)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, records, FormatJSON))
		return buf.String()
	}

	first := encode()
	assert.Equal(t, first, encode())
	assert.True(t, strings.Contains(first, `"dependencies": [
      "Popover"
    ]`))
}

func TestIsComponentEntry(t *testing.T) {
	tests := []struct {
		name     string
		item     *declaration.Item
		expected bool
	}{
		{"annotated signature", component("Avatar", ""), true},
		{"wrong variant", &declaration.Item{Name: "Avatar", Variant: "declaration", Comment: component("Avatar", "").Comment}, false},
		{"name mismatch", &declaration.Item{Name: "AvatarProps", Variant: declaration.VariantSignature, Comment: component("Avatar", "").Comment}, false},
		{"no comment", &declaration.Item{Name: "Avatar", Variant: declaration.VariantSignature}, false},
		{"flag name tag", &declaration.Item{Name: "Avatar", Variant: declaration.VariantSignature, Comment: &declaration.Comment{
			BlockTags: []declaration.BlockTag{{Tag: "@name", Content: text("")}},
		}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsComponentEntry(tt.item))
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	e := New(source.NewFS(afero.NewMemMapFs()), Options{}, nil)
	defer e.Close()

	assert.Equal(t, "components", e.opts.ComponentsDir)
	assert.Equal(t, "touch-target", e.opts.TouchTargetMarker)
}

func TestPhaseKnown(t *testing.T) {
	for _, p := range Phases {
		assert.True(t, p.Known(), p)
	}
	assert.False(t, Phase("uxreview").Known())
	assert.False(t, Phase("").Known())
}

type failingReader struct{ err error }

func (f failingReader) ReadFile(string) ([]byte, error) { return nil, f.err }
