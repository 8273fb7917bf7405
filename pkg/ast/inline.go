// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package ast

import "github.com/quarto-go/qcore/pkg/sourcemap"

// InlineKind discriminates the Inline tagged union (spec 3.3).
type InlineKind int

// Recognized inline variants.
const (
	KindStr InlineKind = iota
	KindSpace
	KindSoftBreak
	KindLineBreak
	KindEmph
	KindStrong
	KindUnderline
	KindStrikeout
	KindSuperscript
	KindSubscript
	KindSmallCaps
	KindQuoted
	KindCode
	KindMath
	KindRawInline
	KindLink
	KindImage
	KindSpan
	KindNote
	KindCite
	KindShortcode
	KindNoteReference
	KindAttr
	KindInsert
	KindDelete
	KindHighlight
	KindEditComment
	KindCustomInline
)

func (k InlineKind) String() string {
	names := [...]string{
		"Str", "Space", "SoftBreak", "LineBreak", "Emph", "Strong", "Underline",
		"Strikeout", "Superscript", "Subscript", "SmallCaps", "Quoted", "Code",
		"Math", "RawInline", "Link", "Image", "Span", "Note", "Cite", "Shortcode",
		"NoteReference", "Attr", "Insert", "Delete", "Highlight", "EditComment",
		"Custom",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "Unknown"
	}
	return names[k]
}

// Inline is implemented by every inline AST node variant.
type Inline interface {
	Kind() InlineKind
	Info() *sourcemap.Info
	SetInfo(*sourcemap.Info)
	inlineNode()
}

// base embeds the shared SourceInfo field and inlineNode marker method.
type base struct {
	info *sourcemap.Info
}

// Info returns this node's SourceInfo.
func (b *base) Info() *sourcemap.Info { return b.info }

// SetInfo replaces this node's SourceInfo, used by post-processing passes
// that synthesize or recombine nodes (e.g. merge_strs' SourceInfo.Combine).
func (b *base) SetInfo(i *sourcemap.Info) { b.info = i }

func (*base) inlineNode() {}

// QuotedKind distinguishes single vs double smart quotes.
type QuotedKind int

// Recognized quote kinds.
const (
	SingleQuote QuotedKind = iota
	DoubleQuote
)

// MathKind distinguishes inline vs display math.
type MathKind int

// Recognized math kinds.
const (
	InlineMath MathKind = iota
	DisplayMath
)

// CitationMode controls how a Citation renders (author-in-text vs
// parenthetical vs suppressed).
type CitationMode int

// Recognized citation modes.
const (
	NormalCitation CitationMode = iota
	AuthorInText
	SuppressAuthor
)

// Citation is one @key reference within a Cite inline.
type Citation struct {
	ID      string
	Prefix  []Inline
	Suffix  []Inline
	Mode    CitationMode
	NoteNum int
	Info    *sourcemap.Info
}

// --- Leaf inlines ---------------------------------------------------

// Str is a run of literal text.
type Str struct {
	base
	Text string
}

// Kind implements Inline.
func (*Str) Kind() InlineKind { return KindStr }

// NewStr constructs a Str node.
func NewStr(text string, info *sourcemap.Info) *Str { return &Str{base{info}, text} }

// Space is an inter-word space.
type Space struct{ base }

// Kind implements Inline.
func (*Space) Kind() InlineKind { return KindSpace }

// NewSpace constructs a Space node.
func NewSpace(info *sourcemap.Info) *Space { return &Space{base{info}} }

// SoftBreak is a line break in the source that is not semantically
// significant (folds to a space in most renderers).
type SoftBreak struct{ base }

// Kind implements Inline.
func (*SoftBreak) Kind() InlineKind { return KindSoftBreak }

// NewSoftBreak constructs a SoftBreak node.
func NewSoftBreak(info *sourcemap.Info) *SoftBreak { return &SoftBreak{base{info}} }

// LineBreak is an explicit hard line break.
type LineBreak struct{ base }

// Kind implements Inline.
func (*LineBreak) Kind() InlineKind { return KindLineBreak }

// NewLineBreak constructs a LineBreak node.
func NewLineBreak(info *sourcemap.Info) *LineBreak { return &LineBreak{base{info}} }

// Shortcode is an unresolved `{{< ... >}}` construct (later desugared to a
// Span by the post-processor, spec 4.6 pass 5).
type Shortcode struct {
	base
	Raw string
}

// Kind implements Inline.
func (*Shortcode) Kind() InlineKind { return KindShortcode }

// NewShortcode constructs a Shortcode node.
func NewShortcode(raw string, info *sourcemap.Info) *Shortcode {
	return &Shortcode{base{info}, raw}
}

// NoteReference is an unresolved reference to a note definition elsewhere
// in the document (later desugared to a Span, spec 4.6 pass 6).
type NoteReference struct {
	base
	ID string
}

// Kind implements Inline.
func (*NoteReference) Kind() InlineKind { return KindNoteReference }

// NewNoteReference constructs a NoteReference node.
func NewNoteReference(id string, info *sourcemap.Info) *NoteReference {
	return &NoteReference{base{info}, id}
}

// AttrInline is a standalone `{...}` attribute block not yet consumed by
// a preceding construct (spec 4.6 pass 3/10: consumed by headers, or an
// internal-error diagnostic if still present after post-processing).
type AttrInline struct {
	base
	Attr       Attr
	AttrSource AttrSourceInfo
}

// Kind implements Inline.
func (*AttrInline) Kind() InlineKind { return KindAttr }

// NewAttrInline constructs an AttrInline node.
func NewAttrInline(attr Attr, attrSrc AttrSourceInfo, info *sourcemap.Info) *AttrInline {
	return &AttrInline{base{info}, attr, attrSrc}
}

// Code is inline code: `text` possibly with an attribute block.
type Code struct {
	base
	Attr Attr
	Text string
}

// Kind implements Inline.
func (*Code) Kind() InlineKind { return KindCode }

// NewCode constructs a Code node.
func NewCode(attr Attr, text string, info *sourcemap.Info) *Code {
	return &Code{base{info}, attr, text}
}

// Math is inline or display math.
type Math struct {
	base
	MKind MathKind
	Text  string
}

// Kind implements Inline.
func (*Math) Kind() InlineKind { return KindMath }

// NewMath constructs a Math node.
func NewMath(kind MathKind, text string, info *sourcemap.Info) *Math {
	return &Math{base{info}, kind, text}
}

// RawInline is raw content in a named target format, passed through
// verbatim by writers for that format and reported as a feature-error by
// writers for any other format.
type RawInline struct {
	base
	Format string
	Text   string
}

// Kind implements Inline.
func (*RawInline) Kind() InlineKind { return KindRawInline }

// NewRawInline constructs a RawInline node.
func NewRawInline(format, text string, info *sourcemap.Info) *RawInline {
	return &RawInline{base{info}, format, text}
}

// --- Container inlines -----------------------------------------------

// inlineContainer is embedded by every inline whose sole payload is a
// sequence of child inlines (Emph, Strong, Underline, ...).
type inlineContainer struct {
	base
	Content []Inline
}

// Emph is emphasized (italic) content.
type Emph struct{ inlineContainer }

// Kind implements Inline.
func (*Emph) Kind() InlineKind { return KindEmph }

// NewEmph constructs an Emph node.
func NewEmph(content []Inline, info *sourcemap.Info) *Emph {
	return &Emph{inlineContainer{base{info}, content}}
}

// Strong is strongly emphasized (bold) content.
type Strong struct{ inlineContainer }

// Kind implements Inline.
func (*Strong) Kind() InlineKind { return KindStrong }

// NewStrong constructs a Strong node.
func NewStrong(content []Inline, info *sourcemap.Info) *Strong {
	return &Strong{inlineContainer{base{info}, content}}
}

// Underline is underlined content.
type Underline struct{ inlineContainer }

// Kind implements Inline.
func (*Underline) Kind() InlineKind { return KindUnderline }

// NewUnderline constructs an Underline node.
func NewUnderline(content []Inline, info *sourcemap.Info) *Underline {
	return &Underline{inlineContainer{base{info}, content}}
}

// Strikeout is struck-through content.
type Strikeout struct{ inlineContainer }

// Kind implements Inline.
func (*Strikeout) Kind() InlineKind { return KindStrikeout }

// NewStrikeout constructs a Strikeout node.
func NewStrikeout(content []Inline, info *sourcemap.Info) *Strikeout {
	return &Strikeout{inlineContainer{base{info}, content}}
}

// Superscript is superscripted content.
type Superscript struct{ inlineContainer }

// Kind implements Inline.
func (*Superscript) Kind() InlineKind { return KindSuperscript }

// NewSuperscript constructs a Superscript node.
func NewSuperscript(content []Inline, info *sourcemap.Info) *Superscript {
	return &Superscript{inlineContainer{base{info}, content}}
}

// Subscript is subscripted content.
type Subscript struct{ inlineContainer }

// Kind implements Inline.
func (*Subscript) Kind() InlineKind { return KindSubscript }

// NewSubscript constructs a Subscript node.
func NewSubscript(content []Inline, info *sourcemap.Info) *Subscript {
	return &Subscript{inlineContainer{base{info}, content}}
}

// SmallCaps is small-caps content.
type SmallCaps struct{ inlineContainer }

// Kind implements Inline.
func (*SmallCaps) Kind() InlineKind { return KindSmallCaps }

// NewSmallCaps constructs a SmallCaps node.
func NewSmallCaps(content []Inline, info *sourcemap.Info) *SmallCaps {
	return &SmallCaps{inlineContainer{base{info}, content}}
}

// Insert is an editorial "insertion" mark (desugared to a Span with class
// "quarto-insert" by spec 4.6 pass 7).
type Insert struct{ inlineContainer }

// Kind implements Inline.
func (*Insert) Kind() InlineKind { return KindInsert }

// NewInsert constructs an Insert node.
func NewInsert(content []Inline, info *sourcemap.Info) *Insert {
	return &Insert{inlineContainer{base{info}, content}}
}

// Delete is an editorial "deletion" mark.
type Delete struct{ inlineContainer }

// Kind implements Inline.
func (*Delete) Kind() InlineKind { return KindDelete }

// NewDelete constructs a Delete node.
func NewDelete(content []Inline, info *sourcemap.Info) *Delete {
	return &Delete{inlineContainer{base{info}, content}}
}

// Highlight is an editorial "highlight" mark.
type Highlight struct{ inlineContainer }

// Kind implements Inline.
func (*Highlight) Kind() InlineKind { return KindHighlight }

// NewHighlight constructs a Highlight node.
func NewHighlight(content []Inline, info *sourcemap.Info) *Highlight {
	return &Highlight{inlineContainer{base{info}, content}}
}

// EditComment is an editorial comment mark.
type EditComment struct{ inlineContainer }

// Kind implements Inline.
func (*EditComment) Kind() InlineKind { return KindEditComment }

// NewEditComment constructs an EditComment node.
func NewEditComment(content []Inline, info *sourcemap.Info) *EditComment {
	return &EditComment{inlineContainer{base{info}, content}}
}

// Quoted is single- or double-quoted content.
type Quoted struct {
	inlineContainer
	QKind QuotedKind
}

// Kind implements Inline.
func (*Quoted) Kind() InlineKind { return KindQuoted }

// NewQuoted constructs a Quoted node.
func NewQuoted(kind QuotedKind, content []Inline, info *sourcemap.Info) *Quoted {
	return &Quoted{inlineContainer{base{info}, content}, kind}
}

// Target is a (url, title) pair, the destination of a Link or Image.
type Target struct {
	URL   string
	Title string
}

// Link is a hyperlink: attr, link text content, and target.
type Link struct {
	inlineContainer
	Attr   Attr
	Target Target
}

// Kind implements Inline.
func (*Link) Kind() InlineKind { return KindLink }

// NewLink constructs a Link node.
func NewLink(attr Attr, content []Inline, target Target, info *sourcemap.Info) *Link {
	return &Link{inlineContainer{base{info}, content}, attr, target}
}

// Image is an embedded image: attr, alt-text content, and target.
type Image struct {
	inlineContainer
	Attr   Attr
	Target Target
}

// Kind implements Inline.
func (*Image) Kind() InlineKind { return KindImage }

// NewImage constructs an Image node.
func NewImage(attr Attr, content []Inline, target Target, info *sourcemap.Info) *Image {
	return &Image{inlineContainer{base{info}, content}, attr, target}
}

// Span is a generic inline container with an attribute block.
type Span struct {
	inlineContainer
	Attr Attr
}

// Kind implements Inline.
func (*Span) Kind() InlineKind { return KindSpan }

// NewSpan constructs a Span node.
func NewSpan(attr Attr, content []Inline, info *sourcemap.Info) *Span {
	return &Span{inlineContainer{base{info}, content}, attr}
}

// Note is a footnote/endnote carrying its own block content.
type Note struct {
	base
	Blocks []Block
}

// Kind implements Inline.
func (*Note) Kind() InlineKind { return KindNote }

// NewNote constructs a Note node.
func NewNote(blocks []Block, info *sourcemap.Info) *Note {
	return &Note{base{info}, blocks}
}

// Cite is one or more Citations plus the rendered inline content (as
// produced by a CSL processor, or the literal `@key` text pre-render).
type Cite struct {
	inlineContainer
	Citations []Citation
}

// Kind implements Inline.
func (*Cite) Kind() InlineKind { return KindCite }

// NewCite constructs a Cite node.
func NewCite(citations []Citation, content []Inline, info *sourcemap.Info) *Cite {
	return &Cite{inlineContainer{base{info}, content}, citations}
}

// CustomInline is an extension inline node opaque to most passes,
// identified by TypeName and carrying named Slots (spec 3.3/4.9).
type CustomInline struct {
	base
	TypeName string
	Slots    *SlotMap
}

// Kind implements Inline.
func (*CustomInline) Kind() InlineKind { return KindCustomInline }

// NewCustomInline constructs a CustomInline node.
func NewCustomInline(typeName string, slots *SlotMap, info *sourcemap.Info) *CustomInline {
	return &CustomInline{base{info}, typeName, slots}
}

// inlineContainerKinds are the inline variants considered "containers" for
// reconciliation purposes (spec 4.9's inline container taxonomy). Note is
// deliberately absent: it is special-cased (recurses via a block plan).
var inlineContainerKinds = map[InlineKind]bool{
	KindEmph: true, KindStrong: true, KindUnderline: true, KindStrikeout: true,
	KindSuperscript: true, KindSubscript: true, KindSmallCaps: true, KindQuoted: true,
	KindCite: true, KindLink: true, KindImage: true, KindSpan: true,
	KindInsert: true, KindDelete: true, KindHighlight: true, KindEditComment: true,
	KindCustomInline: true,
}

// IsContainerInline reports whether k is an inline "container" kind per
// spec 4.9's taxonomy.
func IsContainerInline(k InlineKind) bool { return inlineContainerKinds[k] }

// InlineChildren returns an inline node's direct inline children, or nil
// for leaves, Note (its children are blocks, exposed via Note.Blocks), and
// CustomInline (its children live in Slots).
func InlineChildren(n Inline) []Inline {
	switch v := n.(type) {
	case *Emph:
		return v.Content
	case *Strong:
		return v.Content
	case *Underline:
		return v.Content
	case *Strikeout:
		return v.Content
	case *Superscript:
		return v.Content
	case *Subscript:
		return v.Content
	case *SmallCaps:
		return v.Content
	case *Insert:
		return v.Content
	case *Delete:
		return v.Content
	case *Highlight:
		return v.Content
	case *EditComment:
		return v.Content
	case *Quoted:
		return v.Content
	case *Link:
		return v.Content
	case *Image:
		return v.Content
	case *Span:
		return v.Content
	case *Cite:
		return v.Content
	default:
		return nil
	}
}

// SetInlineChildren replaces n's direct inline children in place. It
// panics if n has no Content field (leaves, Note, and CustomInline,
// though CustomInline counts as a container kind), since that is always a caller
// bug (post-processing passes only call this on nodes they already
// type-switched on).
func SetInlineChildren(n Inline, children []Inline) {
	switch v := n.(type) {
	case *Emph:
		v.Content = children
	case *Strong:
		v.Content = children
	case *Underline:
		v.Content = children
	case *Strikeout:
		v.Content = children
	case *Superscript:
		v.Content = children
	case *Subscript:
		v.Content = children
	case *SmallCaps:
		v.Content = children
	case *Insert:
		v.Content = children
	case *Delete:
		v.Content = children
	case *Highlight:
		v.Content = children
	case *EditComment:
		v.Content = children
	case *Quoted:
		v.Content = children
	case *Link:
		v.Content = children
	case *Image:
		v.Content = children
	case *Span:
		v.Content = children
	case *Cite:
		v.Content = children
	default:
		panic("ast: SetInlineChildren called on a non-container inline")
	}
}
