// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package qmdreader

import (
	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/metatransform"
	"github.com/quarto-go/qcore/pkg/sourcemap"
	"github.com/quarto-go/qcore/pkg/yamlreader"
)

// ResolveMetadata interprets the document's frontmatter RawBlock (the
// quarto_minus_metadata block Read produced) into doc.Meta, removing the
// block from doc.Blocks. YAML positions anchor as Substrings of the
// fence's own SourceInfo, so diagnostics inside a metadata string
// resolve through the chain to the original file. A document without a
// frontmatter block keeps an empty Meta map and is not an error;
// malformed YAML and !md parse failures are fatal (spec section 7).
func ResolveMetadata(doc *ast.Pandoc, diags *diagnostics.Collector) error {
	idx := -1
	var raw *ast.RawBlock
	for i, b := range doc.Blocks {
		if rb, ok := b.(*ast.RawBlock); ok && rb.Format == ast.QuartoMinusMetadataFormat {
			idx = i
			raw = rb
			break
		}
	}
	if raw == nil {
		if doc.Meta.IsZero() {
			doc.Meta = ast.NewMetaMap(nil, nil)
		}
		return nil
	}

	var parent *sourcemap.Info
	if info := raw.Info(); !info.IsZero() {
		parent = sourcemap.Transformed(info, sourcemap.TransformYAML)
	}

	node, err := yamlreader.ParseWithin([]byte(raw.Text), parent)
	if err != nil {
		return err
	}

	transform := metatransform.NewTransform(metatransform.DocumentMetadata, ParseFragment(diags), diags)
	meta, err := transform.ToMeta(node)
	if err != nil {
		return err
	}
	if meta.Kind() != ast.MetaMapKind {
		// The root of document metadata is always a map (spec 3.5); a
		// scalar document degrades to an empty map with a warning.
		if diags != nil {
			diags.Warnf("Q-1-102", "frontmatter is not a mapping; ignoring")
		}
		meta = ast.NewMetaMap(nil, parent)
	}

	doc.Meta = meta
	doc.Blocks = append(doc.Blocks[:idx], doc.Blocks[idx+1:]...)
	return nil
}
