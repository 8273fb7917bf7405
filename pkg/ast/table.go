// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package ast

import "github.com/quarto-go/qcore/pkg/sourcemap"

// Alignment is a table column's horizontal alignment.
type Alignment int

// Recognized alignments.
const (
	AlignDefault Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// ColWidth is a table column's width, either left to the writer
// (ColWidthDefault) or an explicit fraction of the table width.
type ColWidth struct {
	Default bool
	Width   float64
}

// ColSpec pairs a column's alignment with its width.
type ColSpec struct {
	Alignment Alignment
	Width     ColWidth
}

// Cell is one table cell.
type Cell struct {
	Attr    Attr
	Align   Alignment
	RowSpan int
	ColSpan int
	Content []Block
	Info    *sourcemap.Info
}

// Row is one table row.
type Row struct {
	Attr  Attr
	Cells []Cell
	Info  *sourcemap.Info
}

// TableHead is the table's header row group.
type TableHead struct {
	Attr Attr
	Rows []Row
}

// TableBodyGroup is one intermediate body group, carrying its own
// head-row count (RowHeadColumns) per Pandoc's table model.
type TableBodyGroup struct {
	Attr           Attr
	RowHeadColumns int
	Head           []Row
	Body           []Row
}

// TableFoot is the table's footer row group.
type TableFoot struct {
	Attr Attr
	Rows []Row
}

// Caption is a table or figure caption: an optional short form and the
// full-form block content.
type Caption struct {
	Short []Inline
	Long  []Block
}

// Table is a full Pandoc-style table (spec 3.3).
type Table struct {
	blockBase
	Attr    Attr
	Caption Caption
	ColSpecs []ColSpec
	Head    TableHead
	Bodies  []TableBodyGroup
	Foot    TableFoot
}

// Kind implements Block.
func (*Table) Kind() BlockKind { return KindTable }

// NewTable constructs a Table block.
func NewTable(attr Attr, caption Caption, colSpecs []ColSpec, head TableHead, bodies []TableBodyGroup, foot TableFoot, info *sourcemap.Info) *Table {
	return &Table{blockBase{info}, attr, caption, colSpecs, head, bodies, foot}
}
