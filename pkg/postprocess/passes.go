// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package postprocess

import (
	"fmt"
	"strings"

	klog "k8s.io/klog/v2"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/sourcemap"
)

// Postprocess runs the fixed pass sequence from spec 4.6 over doc,
// collecting diagnostics into diags (which may be nil). Any orphaned
// standalone attribute inline is an internal error (pass 10); its
// diagnostics are returned as the error via the collector contract.
func Postprocess(doc *ast.Pandoc, diags *diagnostics.Collector) error {
	if diags == nil {
		diags = diagnostics.NewCollector()
	}
	pipeline := NewPipeline(
		&superscriptTrim{},
		newHeaderIDs(),
		&figurePromotion{},
		&shortcodeDesugar{},
		&noteReferenceDesugar{},
		&editorialMarks{},
		&citationSuffixReflow{},
		newCitationNumbering(),
		&attrOrphanCheck{diags: diags},
	)
	pipeline.Run(doc)
	klog.V(6).Infof("postprocess: pipeline complete, %d diagnostics", len(diags.Messages()))
	return diags.Err()
}

// trimInlines drops leading and trailing spaces from a sequence,
// reporting whether anything was removed.
func trimInlines(inlines []ast.Inline) ([]ast.Inline, bool) {
	result := make([]ast.Inline, 0, len(inlines))
	var spaceRun []ast.Inline
	atStart := true
	changed := false
	for _, in := range inlines {
		if _, isSpace := in.(*ast.Space); isSpace {
			if atStart {
				changed = true
				continue
			}
			spaceRun = append(spaceRun, in)
			continue
		}
		result = append(result, spaceRun...)
		spaceRun = spaceRun[:0]
		result = append(result, in)
		atStart = false
	}
	if len(spaceRun) > 0 {
		changed = true
	}
	return result, changed
}

// superscriptTrim is pass 1: whitespace inside superscripts is not
// renderable, so it is removed.
type superscriptTrim struct{}

func (*superscriptTrim) Name() string { return "superscript-trim" }

func (*superscriptTrim) FilterInline(in ast.Inline) InlineOutcome {
	sup, ok := in.(*ast.Superscript)
	if !ok {
		return KeepInline()
	}
	content, changed := trimInlines(sup.Content)
	if !changed {
		return KeepInline()
	}
	return ReplaceInlines(true, ast.NewSuperscript(content, sup.Info()))
}

// headerIDs is passes 2 and 3: consume a trailing Attr inline into the
// header's attribute, or synthesize a deduplicated auto-generated id for
// headers without one.
type headerIDs struct {
	seen map[string]int
}

func newHeaderIDs() *headerIDs {
	return &headerIDs{seen: make(map[string]int)}
}

func (*headerIDs) Name() string { return "header-ids" }

func (f *headerIDs) FilterBlock(b ast.Block) BlockOutcome {
	header, ok := b.(*ast.Header)
	if !ok {
		return KeepBlock()
	}

	if n := len(header.Content); n > 0 {
		if attrInline, isAttr := header.Content[n-1].(*ast.AttrInline); isAttr {
			header.Attr = attrInline.Attr
			content, _ := trimInlines(header.Content[:n-1])
			header.Content = content
			return ReplaceBlocks(true, header)
		}
	}

	if header.Attr.ID != "" {
		return KeepBlock()
	}

	base := AutoGeneratedID(header.Content)
	id := base
	if count, dup := f.seen[base]; dup {
		f.seen[base] = count + 1
		id = fmt.Sprintf("%s-%d", base, count+1)
	} else {
		f.seen[base] = 0
	}
	header.Attr.ID = id
	return ReplaceBlocks(true, header)
}

// figurePromotion is pass 4: a paragraph holding exactly one image with
// non-empty alt text becomes a Figure captioned by the alt text.
type figurePromotion struct{}

func (*figurePromotion) Name() string { return "figure-promotion" }

func (*figurePromotion) FilterBlock(b ast.Block) BlockOutcome {
	para, ok := b.(*ast.Paragraph)
	if !ok || len(para.Content) != 1 {
		return KeepBlock()
	}
	image, ok := para.Content[0].(*ast.Image)
	if !ok || len(image.Content) == 0 {
		return KeepBlock()
	}

	// The image's id migrates to the figure; classes and key-values stay
	// on the image itself.
	figureAttr := ast.Attr{ID: image.Attr.ID}
	imageAttr := ast.Attr{Classes: image.Attr.Classes, KVs: image.Attr.KVs}
	promoted := ast.NewImage(imageAttr, image.Content, image.Target, image.Info())

	figure := ast.NewFigure(
		figureAttr,
		image.Content,
		[]ast.Block{ast.NewPlain([]ast.Inline{promoted}, para.Info())},
		para.Info(),
	)
	return ReplaceBlocks(true, figure)
}

// ShortcodeClass is the class marking a desugared shortcode span.
const ShortcodeClass = "quarto-shortcode"

// shortcodeDesugar is pass 5.
type shortcodeDesugar struct{}

func (*shortcodeDesugar) Name() string { return "shortcode-desugar" }

func (*shortcodeDesugar) FilterInline(in ast.Inline) InlineOutcome {
	sc, ok := in.(*ast.Shortcode)
	if !ok {
		return KeepInline()
	}
	attr := ast.Attr{Classes: []string{ShortcodeClass}}
	attr.SetKV("data-raw", sc.Raw)
	return ReplaceInlines(false, ast.NewSpan(attr, nil, sc.Info()))
}

// NoteReferenceClass is the class marking a desugared note reference.
const NoteReferenceClass = "quarto-note-reference"

// noteReferenceDesugar is pass 6.
type noteReferenceDesugar struct{}

func (*noteReferenceDesugar) Name() string { return "note-reference-desugar" }

func (*noteReferenceDesugar) FilterInline(in ast.Inline) InlineOutcome {
	ref, ok := in.(*ast.NoteReference)
	if !ok {
		return KeepInline()
	}
	attr := ast.Attr{Classes: []string{NoteReferenceClass}}
	attr.SetKV("reference-id", ref.ID)
	return ReplaceInlines(false, ast.NewSpan(attr, nil, ref.Info()))
}

// editorialMarks is pass 7: Insert/Delete/Highlight/EditComment desugar
// to spans with matching classes, trimming their content.
type editorialMarks struct{}

func (*editorialMarks) Name() string { return "editorial-marks" }

func (*editorialMarks) FilterInline(in ast.Inline) InlineOutcome {
	var class string
	var content []ast.Inline
	switch v := in.(type) {
	case *ast.Insert:
		class, content = "quarto-insert", v.Content
	case *ast.Delete:
		class, content = "quarto-delete", v.Content
	case *ast.Highlight:
		class, content = "quarto-highlight", v.Content
	case *ast.EditComment:
		class, content = "quarto-edit-comment", v.Content
	default:
		return KeepInline()
	}
	trimmed, _ := trimInlines(content)
	span := ast.NewSpan(ast.Attr{Classes: []string{class}}, trimmed, in.Info())
	return ReplaceInlines(true, span)
}

// citationSuffixReflow is pass 8, the inline state machine from spec 4.6:
// a simple Cite followed by Space and a Str/Space-only Span absorbs the
// span as its citation suffix, re-rendering the visible content with the
// bracket attached to the first and last word.
type citationSuffixReflow struct{}

func (*citationSuffixReflow) Name() string { return "citation-suffix-reflow" }

func (*citationSuffixReflow) FilterInlines(inlines []ast.Inline) ([]ast.Inline, bool) {
	const (
		stateNormal = iota
		stateAfterCite
		stateAfterSpace
	)
	var result []ast.Inline
	var pending *ast.Cite
	state := stateNormal
	changed := false

	flushPending := func(withSpace bool) {
		if pending != nil {
			result = append(result, pending)
			pending = nil
		}
		if withSpace {
			result = append(result, ast.NewSpace(nil))
		}
	}

	for _, in := range inlines {
		switch state {
		case stateNormal:
			if cite, ok := in.(*ast.Cite); ok && isSimpleCite(cite) {
				pending = cite
				state = stateAfterCite
				continue
			}
			result = append(result, in)
		case stateAfterCite:
			if _, ok := in.(*ast.Space); ok {
				state = stateAfterSpace
				continue
			}
			flushPending(false)
			result = append(result, in)
			state = stateNormal
		case stateAfterSpace:
			span, ok := in.(*ast.Span)
			if ok && isPlainTextSpan(span) {
				absorbSuffix(pending, span)
				result = append(result, pending)
				pending = nil
				changed = true
				state = stateNormal
				continue
			}
			flushPending(true)
			result = append(result, in)
			state = stateNormal
		}
	}
	if pending != nil {
		result = append(result, pending)
		if state == stateAfterSpace {
			result = append(result, ast.NewSpace(nil))
		}
	}
	return result, changed
}

func isSimpleCite(c *ast.Cite) bool {
	return len(c.Citations) == 1 &&
		len(c.Citations[0].Prefix) == 0 &&
		len(c.Citations[0].Suffix) == 0
}

func isPlainTextSpan(s *ast.Span) bool {
	for _, in := range s.Content {
		switch in.(type) {
		case *ast.Str, *ast.Space:
		default:
			return false
		}
	}
	return true
}

// absorbSuffix moves the span's content into the citation suffix and
// appends the bracketed rendering to the cite's visible content: words
// re-split on spaces, "[" prepended to the first word and "]" appended
// to the last.
func absorbSuffix(cite *ast.Cite, span *ast.Span) {
	cite.Citations[0].Suffix = span.Content

	cite.Content = append(cite.Content, ast.NewSpace(nil))

	var bracketed []ast.Inline
	for _, in := range span.Content {
		s, ok := in.(*ast.Str)
		if !ok {
			bracketed = append(bracketed, in)
			continue
		}
		words := strings.Split(s.Text, " ")
		for i, word := range words {
			if i > 0 {
				bracketed = append(bracketed, ast.NewSpace(nil))
			}
			if word != "" {
				bracketed = append(bracketed, ast.NewStr(word, s.Info()))
			}
		}
	}

	for i, in := range bracketed {
		if s, ok := in.(*ast.Str); ok {
			bracketed[i] = ast.NewStr("["+s.Text, s.Info())
			break
		}
	}
	for i := len(bracketed) - 1; i >= 0; i-- {
		if s, ok := bracketed[i].(*ast.Str); ok {
			bracketed[i] = ast.NewStr(s.Text+"]", s.Info())
			break
		}
	}

	cite.Content = append(cite.Content, bracketed...)
}

// citationNumbering is pass 9: each Cite gets a document-sequential
// note number, written onto every citation it carries.
type citationNumbering struct {
	counter int
}

func newCitationNumbering() *citationNumbering {
	return &citationNumbering{}
}

func (*citationNumbering) Name() string { return "citation-numbering" }

func (f *citationNumbering) FilterInline(in ast.Inline) InlineOutcome {
	cite, ok := in.(*ast.Cite)
	if !ok || (len(cite.Citations) > 0 && cite.Citations[0].NoteNum != 0) {
		return KeepInline()
	}
	f.counter++
	for i := range cite.Citations {
		cite.Citations[i].NoteNum = f.counter
	}
	// The node mutates in place; no replacement keeps descent going into
	// the cite's rendered content.
	return KeepInline()
}

// attrOrphanCheck is pass 10: a standalone attribute inline surviving to
// this point means an earlier pass failed to consume it.
type attrOrphanCheck struct {
	diags *diagnostics.Collector
}

func (*attrOrphanCheck) Name() string { return "attr-orphan-check" }

func (f *attrOrphanCheck) FilterInline(in ast.Inline) InlineOutcome {
	attrInline, ok := in.(*ast.AttrInline)
	if !ok {
		return KeepInline()
	}
	f.diags.Add(diagnostics.New(diagnostics.Error,
		fmt.Sprintf("unconsumed attribute block %s", attrInline.Attr)).
		Code("Q-0-1").
		Problem("A standalone `{...}` attribute survived post-processing; it should have been attached to a preceding construct.").
		At(orNil(attrInline.Info())).
		Build())
	return ReplaceInlines(false)
}

func orNil(i *sourcemap.Info) *sourcemap.Info {
	if i.IsZero() {
		return nil
	}
	return i
}
