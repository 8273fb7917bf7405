// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package ast

import "github.com/quarto-go/qcore/pkg/sourcemap"

// BlockKind discriminates the Block tagged union (spec 3.3).
type BlockKind int

// Recognized block variants.
const (
	KindPlain BlockKind = iota
	KindParagraph
	KindLineBlock
	KindCodeBlock
	KindRawBlock
	KindBlockQuote
	KindOrderedList
	KindBulletList
	KindDefinitionList
	KindHeader
	KindHorizontalRule
	KindTable
	KindFigure
	KindDiv
	KindBlockMetadata
	KindNoteDefinitionPara
	KindNoteDefinitionFencedBlock
	KindCaptionBlock
	KindCustomBlock
)

func (k BlockKind) String() string {
	names := [...]string{
		"Plain", "Paragraph", "LineBlock", "CodeBlock", "RawBlock", "BlockQuote",
		"OrderedList", "BulletList", "DefinitionList", "Header", "HorizontalRule",
		"Table", "Figure", "Div", "BlockMetadata", "NoteDefinitionPara",
		"NoteDefinitionFencedBlock", "CaptionBlock", "Custom",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "Unknown"
	}
	return names[k]
}

// Block is implemented by every block AST node variant.
type Block interface {
	Kind() BlockKind
	Info() *sourcemap.Info
	SetInfo(*sourcemap.Info)
	blockNode()
}

type blockBase struct {
	info *sourcemap.Info
}

// Info returns this node's SourceInfo.
func (b *blockBase) Info() *sourcemap.Info { return b.info }

// SetInfo replaces this node's SourceInfo.
func (b *blockBase) SetInfo(i *sourcemap.Info) { b.info = i }

func (*blockBase) blockNode() {}

// blockInlineContainer is embedded by blocks whose payload is inline
// content (Plain, Paragraph, Header).
type blockInlineContainer struct {
	blockBase
	Content []Inline
}

// Plain is unwrapped inline content (no paragraph breaks around it).
type Plain struct{ blockInlineContainer }

// Kind implements Block.
func (*Plain) Kind() BlockKind { return KindPlain }

// NewPlain constructs a Plain block.
func NewPlain(content []Inline, info *sourcemap.Info) *Plain {
	return &Plain{blockInlineContainer{blockBase{info}, content}}
}

// Paragraph is a normal paragraph.
type Paragraph struct{ blockInlineContainer }

// Kind implements Block.
func (*Paragraph) Kind() BlockKind { return KindParagraph }

// NewParagraph constructs a Paragraph block.
func NewParagraph(content []Inline, info *sourcemap.Info) *Paragraph {
	return &Paragraph{blockInlineContainer{blockBase{info}, content}}
}

// LineBlock is a sequence of lines, each preserved verbatim (Pandoc's
// `|`-prefixed line blocks); each element of Lines is one line's inlines.
type LineBlock struct {
	blockBase
	Lines [][]Inline
}

// Kind implements Block.
func (*LineBlock) Kind() BlockKind { return KindLineBlock }

// NewLineBlock constructs a LineBlock.
func NewLineBlock(lines [][]Inline, info *sourcemap.Info) *LineBlock {
	return &LineBlock{blockBase{info}, lines}
}

// CodeBlock is a fenced or indented code block.
type CodeBlock struct {
	blockBase
	Attr Attr
	Text string
}

// Kind implements Block.
func (*CodeBlock) Kind() BlockKind { return KindCodeBlock }

// NewCodeBlock constructs a CodeBlock.
func NewCodeBlock(attr Attr, text string, info *sourcemap.Info) *CodeBlock {
	return &CodeBlock{blockBase{info}, attr, text}
}

// RawBlock is raw content in a named target format (e.g. a front-matter
// fence before transformation: format "quarto_minus_metadata").
type RawBlock struct {
	blockBase
	Format string
	Text   string
}

// Kind implements Block.
func (*RawBlock) Kind() BlockKind { return KindRawBlock }

// NewRawBlock constructs a RawBlock.
func NewRawBlock(format, text string, info *sourcemap.Info) *RawBlock {
	return &RawBlock{blockBase{info}, format, text}
}

// QuartoMinusMetadataFormat is the RawBlock format used for an
// as-yet-untransformed YAML front-matter fence (spec 4.5).
const QuartoMinusMetadataFormat = "quarto_minus_metadata"

// HorizontalRule is a thematic break.
type HorizontalRule struct{ blockBase }

// Kind implements Block.
func (*HorizontalRule) Kind() BlockKind { return KindHorizontalRule }

// NewHorizontalRule constructs a HorizontalRule block.
func NewHorizontalRule(info *sourcemap.Info) *HorizontalRule {
	return &HorizontalRule{blockBase{info}}
}

// BlockMetadata is an embedded metadata block (e.g. a resolved front
// matter YAML block retained in the AST for round-tripping).
type BlockMetadata struct {
	blockBase
	Meta MetaValue
}

// Kind implements Block.
func (*BlockMetadata) Kind() BlockKind { return KindBlockMetadata }

// NewBlockMetadata constructs a BlockMetadata block.
func NewBlockMetadata(meta MetaValue, info *sourcemap.Info) *BlockMetadata {
	return &BlockMetadata{blockBase{info}, meta}
}

// NoteDefinitionPara is an orphaned (unreferenced, or pre-resolution)
// footnote definition written as a paragraph-style note definition.
type NoteDefinitionPara struct {
	blockBase
	ID     string
	Blocks []Block
}

// Kind implements Block.
func (*NoteDefinitionPara) Kind() BlockKind { return KindNoteDefinitionPara }

// NewNoteDefinitionPara constructs a NoteDefinitionPara block.
func NewNoteDefinitionPara(id string, blocks []Block, info *sourcemap.Info) *NoteDefinitionPara {
	return &NoteDefinitionPara{blockBase{info}, id, blocks}
}

// NoteDefinitionFencedBlock is a footnote definition written using a
// fenced-block syntax rather than the paragraph-continuation syntax.
type NoteDefinitionFencedBlock struct {
	blockBase
	ID     string
	Blocks []Block
}

// Kind implements Block.
func (*NoteDefinitionFencedBlock) Kind() BlockKind { return KindNoteDefinitionFencedBlock }

// NewNoteDefinitionFencedBlock constructs a NoteDefinitionFencedBlock block.
func NewNoteDefinitionFencedBlock(id string, blocks []Block, info *sourcemap.Info) *NoteDefinitionFencedBlock {
	return &NoteDefinitionFencedBlock{blockBase{info}, id, blocks}
}

// CaptionBlock is a standalone caption (e.g. a table caption written as
// its own block before being attached to the Table/Figure it precedes).
type CaptionBlock struct {
	blockBase
	Content []Inline
}

// Kind implements Block.
func (*CaptionBlock) Kind() BlockKind { return KindCaptionBlock }

// NewCaptionBlock constructs a CaptionBlock.
func NewCaptionBlock(content []Inline, info *sourcemap.Info) *CaptionBlock {
	return &CaptionBlock{blockBase{info}, content}
}

// --- Container blocks --------------------------------------------------

// blockContainer is embedded by blocks whose payload is a sequence of
// child blocks (BlockQuote, Div).
type blockContainer struct {
	blockBase
	Content []Block
}

// BlockQuote is a quoted sequence of blocks.
type BlockQuote struct{ blockContainer }

// Kind implements Block.
func (*BlockQuote) Kind() BlockKind { return KindBlockQuote }

// NewBlockQuote constructs a BlockQuote.
func NewBlockQuote(content []Block, info *sourcemap.Info) *BlockQuote {
	return &BlockQuote{blockContainer{blockBase{info}, content}}
}

// ListNumberStyle is the numbering style of an OrderedList.
type ListNumberStyle int

// Recognized list-number styles.
const (
	DefaultStyle ListNumberStyle = iota
	Decimal
	LowerRoman
	UpperRoman
	LowerAlpha
	UpperAlpha
)

// ListNumberDelim is the delimiter rendered after an ordered list number.
type ListNumberDelim int

// Recognized list-number delimiters.
const (
	DefaultDelim ListNumberDelim = iota
	Period
	OneParen
	TwoParens
)

// ListAttributes is the (start, style, delim) triple of an OrderedList.
type ListAttributes struct {
	Start int
	Style ListNumberStyle
	Delim ListNumberDelim
}

// OrderedList is a numbered list; each element of Items is one list
// item's block content.
type OrderedList struct {
	blockBase
	ListAttrs ListAttributes
	Items     [][]Block
}

// Kind implements Block.
func (*OrderedList) Kind() BlockKind { return KindOrderedList }

// NewOrderedList constructs an OrderedList.
func NewOrderedList(attrs ListAttributes, items [][]Block, info *sourcemap.Info) *OrderedList {
	return &OrderedList{blockBase{info}, attrs, items}
}

// BulletList is an unnumbered list; each element of Items is one list
// item's block content.
type BulletList struct {
	blockBase
	Items [][]Block
}

// Kind implements Block.
func (*BulletList) Kind() BlockKind { return KindBulletList }

// NewBulletList constructs a BulletList.
func NewBulletList(items [][]Block, info *sourcemap.Info) *BulletList {
	return &BulletList{blockBase{info}, items}
}

// DefinitionItem is one (term, definitions) pair of a DefinitionList.
type DefinitionItem struct {
	Term        []Inline
	Definitions [][]Block
}

// DefinitionList is a sequence of (term, [definition blocks]) pairs.
type DefinitionList struct {
	blockBase
	Items []DefinitionItem
}

// Kind implements Block.
func (*DefinitionList) Kind() BlockKind { return KindDefinitionList }

// NewDefinitionList constructs a DefinitionList.
func NewDefinitionList(items []DefinitionItem, info *sourcemap.Info) *DefinitionList {
	return &DefinitionList{blockBase{info}, items}
}

// Header is a section heading.
type Header struct {
	blockInlineContainer
	Level int
	Attr  Attr
}

// Kind implements Block.
func (*Header) Kind() BlockKind { return KindHeader }

// NewHeader constructs a Header block.
func NewHeader(level int, attr Attr, content []Inline, info *sourcemap.Info) *Header {
	return &Header{blockInlineContainer{blockBase{info}, content}, level, attr}
}

// Figure is promoted from a lone-image paragraph (spec 4.6 pass 4), or
// written explicitly; Caption is the figure's caption inlines.
type Figure struct {
	blockBase
	Attr    Attr
	Caption []Inline
	Content []Block
}

// Kind implements Block.
func (*Figure) Kind() BlockKind { return KindFigure }

// NewFigure constructs a Figure block.
func NewFigure(attr Attr, caption []Inline, content []Block, info *sourcemap.Info) *Figure {
	return &Figure{blockBase{info}, attr, caption, content}
}

// Div is a generic block container with an attribute block.
type Div struct {
	blockContainer
	Attr Attr
}

// Kind implements Block.
func (*Div) Kind() BlockKind { return KindDiv }

// NewDiv constructs a Div block.
func NewDiv(attr Attr, content []Block, info *sourcemap.Info) *Div {
	return &Div{blockContainer{blockBase{info}, content}, attr}
}

// CustomBlock is an extension block node opaque to most passes,
// identified by TypeName and carrying named Slots (spec 3.3/4.9).
type CustomBlock struct {
	blockBase
	TypeName string
	Slots    *SlotMap
}

// Kind implements Block.
func (*CustomBlock) Kind() BlockKind { return KindCustomBlock }

// NewCustomBlock constructs a CustomBlock.
func NewCustomBlock(typeName string, slots *SlotMap, info *sourcemap.Info) *CustomBlock {
	return &CustomBlock{blockBase{info}, typeName, slots}
}

// blockContainerKinds are the block variants considered "containers" for
// reconciliation purposes (spec 4.9): Div, BlockQuote, OrderedList,
// BulletList, DefinitionList, Figure, Custom.
var blockContainerKinds = map[BlockKind]bool{
	KindDiv: true, KindBlockQuote: true, KindOrderedList: true, KindBulletList: true,
	KindDefinitionList: true, KindFigure: true, KindCustomBlock: true,
}

// IsContainerBlock reports whether k is a block "container" kind per
// spec 4.9's taxonomy.
func IsContainerBlock(k BlockKind) bool { return blockContainerKinds[k] }

// HasInlineContent reports whether k is a block kind whose payload is a
// flat inline sequence (Plain, Paragraph, Header) — the set eligible for
// inline-level reconciliation per spec 4.9 step (c).
func HasInlineContent(k BlockKind) bool {
	return k == KindPlain || k == KindParagraph || k == KindHeader
}

// InlineContentOf returns a block's direct inline content if it is one of
// the HasInlineContent kinds, or nil otherwise.
func InlineContentOf(b Block) []Inline {
	switch v := b.(type) {
	case *Plain:
		return v.Content
	case *Paragraph:
		return v.Content
	case *Header:
		return v.Content
	default:
		return nil
	}
}

// SetInlineContentOf replaces a block's direct inline content in place.
// It panics if b is not one of the HasInlineContent kinds.
func SetInlineContentOf(b Block, content []Inline) {
	switch v := b.(type) {
	case *Plain:
		v.Content = content
	case *Paragraph:
		v.Content = content
	case *Header:
		v.Content = content
	default:
		panic("ast: SetInlineContentOf called on a block with no flat inline content")
	}
}
