// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package qmdreader implements the QMD reader (spec.md section 4.5): it
// wraps goldmark the way the teacher's pkg/markdown package wraps it (a
// package-level configured goldmark.Markdown with extension.GFM), adding
// the citation/shortcode/attribute-block recognizers from
// pkg/qmdreader/scan as goldmark inline parsers.
//
// Frontmatter extraction reuses the teacher's StripFrontMatter
// line-scanning algorithm, adapted to additionally report the byte range
// of the frontmatter it found, so callers can anchor a SourceInfo to it
// without reconstructing offsets from slice identity. The extracted
// bytes become a RawBlock tagged
// ast.QuartoMinusMetadataFormat; ResolveMetadata (metadata.go) later
// interprets it into Meta through pkg/metatransform.
package qmdreader

import (
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	meta "github.com/yuin/goldmark-meta"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/metatransform"
	"github.com/quarto-go/qcore/pkg/qmdreader/scan"
	"github.com/quarto-go/qcore/pkg/sourcemap"
)

// quartoExtension registers the scan package's citation/shortcode/attr
// recognizers alongside goldmark's own inline parsers. It is deliberately
// a separate goldmark.Extender (rather than folding the options into the
// base markdown value) so the CLI or tests can assemble a bare
// CommonMark parser without them if ever needed.
type quartoExtension struct{}

func (quartoExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&scan.BracketedCitationParser{}, 99),
		util.Prioritized(&scan.BareCitationParser{}, 100),
		util.Prioritized(&scan.BraceParser{}, 101),
	))
}

// markdown is the package-level configured parser, mirroring the
// teacher's pkg/markdown.gmParser.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM, quartoExtension{}))

// looseMarkdown adds goldmark-meta for the loose-mode metadata pre-scan
// only; the source-tracked Meta always comes from yamlreader +
// metatransform, because goldmark-meta discards per-scalar positions.
var looseMarkdown = goldmark.New(goldmark.WithExtensions(meta.Meta, extension.GFM, quartoExtension{}))

// looseMetaScan reports whether content opens with metadata goldmark
// recognizes, returning goldmark-meta's untyped view of it.
func looseMetaScan(content []byte) (map[string]interface{}, bool) {
	pc := parser.NewContext()
	looseMarkdown.Parser().Parse(text.NewReader(content), parser.WithContext(pc))
	m := meta.Get(pc)
	return m, len(m) > 0
}

// Reader produces a Pandoc AST from QMD source. NewReader binds the
// ast.Context whose SourceContext every converted node's SourceInfo is
// anchored to, and the diagnostics sink; Read requires a non-nil Context.
type Reader struct {
	Context *ast.Context
	Diags   *diagnostics.Collector
}

// NewReader constructs a Reader bound to ctx, collecting diagnostics in
// diags (nil discards them).
func NewReader(ctx *ast.Context, diags *diagnostics.Collector) *Reader {
	return &Reader{Context: ctx, Diags: diags}
}

// Read parses content as QMD, registering it under filename in the
// Reader's SourceContext, and returns the resulting Pandoc document plus
// the diagnostics collected while converting it. loose tolerates an
// unclosed frontmatter fence (a Q-1-3 warning plus goldmark-meta
// recovery) instead of failing; goldmark itself never hard-fails on
// malformed body text, it degrades to literal text. stderr is accepted
// for interface compatibility with spec 6.1's read() signature but
// unused: diagnostics are returned, not printed, leaving the caller to
// decide how to surface them. pruneErrors, when true, omits the "unrecognized node"
// (Q-1-1/Q-1-2) diagnostics from the returned list — those fire only for
// goldmark/extension node kinds this reader does not yet convert, and a
// caller doing best-effort recovery parsing often wants to ignore them.
// parent, when non-nil, retargets every produced node's SourceInfo into
// parent's coordinate space (the shape used when content is itself a
// markdown fragment nested inside a larger document, e.g. an !md-tagged
// YAML scalar).
func (r *Reader) Read(content []byte, loose bool, filename string, stderr io.Writer, pruneErrors bool, parent *sourcemap.Info) (*ast.Pandoc, []diagnostics.DiagnosticMessage, error) {
	fm, body, fmRange, err := StripFrontMatter(content)
	if err != nil {
		if !loose {
			return nil, nil, err
		}
		// Loose-mode recovery: an unclosed fence is tolerated. The
		// goldmark-meta pre-scan decides whether the document carries
		// any recoverable metadata at all; either way the whole input
		// is reparsed as body so no text is lost.
		if r.Diags != nil {
			r.Diags.Warnf("Q-1-3", "frontmatter fence not closed; parsing loosely")
		}
		if _, hasMeta := looseMetaScan(content); hasMeta {
			fm, body, fmRange, err = StripFrontMatter(append(content, []byte("---\n")...))
		}
		if err != nil || fm == nil {
			fm, body, fmRange = nil, content, Range{}
		}
	}

	fileID := r.Context.Source.AddFile(filename, content)

	var metaBlock ast.Block
	if fm != nil {
		metaBlock = ast.NewRawBlock(ast.QuartoMinusMetadataFormat, string(fm),
			sourcemap.Original(fileID, sourcemap.Range{Start: fmRange.Start, End: fmRange.End}))
	}

	blocks := r.parse(body, fileID, len(content)-len(body))
	if metaBlock != nil {
		blocks = append([]ast.Block{metaBlock}, blocks...)
	}
	if parent != nil {
		for _, b := range blocks {
			retarget(b, parent)
		}
	}

	doc := ast.NewPandoc(ast.MetaValue{}, blocks)

	var diags []diagnostics.DiagnosticMessage
	if r.Diags != nil {
		diags = r.Diags.Messages()
		if pruneErrors {
			diags = filterUnrecognizedNode(diags)
		}
	}
	_ = stderr
	return doc, diags, nil
}

func filterUnrecognizedNode(in []diagnostics.DiagnosticMessage) []diagnostics.DiagnosticMessage {
	out := make([]diagnostics.DiagnosticMessage, 0, len(in))
	for _, d := range in {
		if d.Code == "Q-1-1" || d.Code == "Q-1-2" {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (r *Reader) parse(content []byte, fileID sourcemap.FileID, base int) []ast.Block {
	reader := text.NewReader(content)
	pc := parser.NewContext()
	doc := markdown.Parser().Parse(reader, parser.WithContext(pc))

	conv := &converter{source: content, fileID: fileID, base: base, diags: r.Diags}
	return conv.convertBlocks(doc)
}

// ParseFragment parses a markdown fragment (e.g. a metadata string tagged
// !md, or default-markdown document-metadata text per spec 4.4) and
// returns its block content with locations anchored to parent. It is the
// concrete BlockParseFunc metatransform.Transform is constructed with
// outside this package (metatransform cannot import qmdreader directly —
// see pkg/metatransform's package doc comment) and is exported
// specifically for that injection.
func ParseFragment(diags *diagnostics.Collector) metatransform.BlockParseFunc {
	return func(fragment string, parent *sourcemap.Info) ([]ast.Block, error) {
		content := []byte(fragment)
		rdr := text.NewReader(content)
		pc := parser.NewContext()
		doc := markdown.Parser().Parse(rdr, parser.WithContext(pc))

		conv := &converter{source: content, diags: diags}
		blocks := conv.convertBlocks(doc)
		if parent != nil {
			for _, b := range blocks {
				retarget(b, parent)
			}
		}
		return blocks, nil
	}
}

// retarget replaces the SourceInfo of every block and inline that ast.Walk
// reaches from b with a Transformed location wrapping parent. Every
// retargeted node gets the same location: its own offset within the
// fragment is not kept, so it resolves to parent as a whole.
func retarget(b ast.Block, parent *sourcemap.Info) {
	ast.Walk([]ast.Block{b}, func(blk ast.Block) bool {
		if info := blk.Info(); !info.IsZero() {
			blk.SetInfo(sourcemap.Transformed(parent, sourcemap.TransformYAML))
		}
		return true
	}, func(inl ast.Inline) bool {
		if info := inl.Info(); !info.IsZero() {
			inl.SetInfo(sourcemap.Transformed(parent, sourcemap.TransformYAML))
		}
		return true
	})
}
