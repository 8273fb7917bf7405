// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package sourcemap implements the universal location model described in
// spec.md section 3.1/4.1: a file registry plus a SourceInfo type that
// chains Original -> Substring -> Transformed -> Concat locations back to
// the bytes of a registered file, surviving arbitrary AST transformations.
package sourcemap

import "fmt"

// FileID identifies a file registered with a SourceContext.
type FileID uint32

// NoFile is the zero value of FileID; it never identifies a real file.
const NoFile FileID = 0

// Location is a 0-indexed offset/row/column triple, presented 1-indexed
// to callers that render it (see Location.Display).
type Location struct {
	Offset int
	Row    int
	Column int
}

// Display returns the 1-indexed row/column pair used in rendered output.
func (l Location) Display() (row, column int) {
	return l.Row + 1, l.Column + 1
}

func (l Location) String() string {
	row, col := l.Display()
	return fmt.Sprintf("%d:%d", row, col)
}

// Range is a half-open byte range [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes spanned by the range.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether offset falls within [Start, End).
func (r Range) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

type registeredFile struct {
	path    string
	content []byte
	// lineStarts[i] is the byte offset of the first byte of line i (0-indexed).
	// Computed lazily on first MapOffset call against this file.
	lineStarts []int
}

// SourceContext owns the set of files registered during a single
// compilation. SourceInfo values hold FileIDs, never references, so the
// context can be passed around freely and outlives every AST it produced.
type SourceContext struct {
	files []*registeredFile
	byKey map[string]FileID
}

// NewSourceContext creates an empty file registry.
func NewSourceContext() *SourceContext {
	return &SourceContext{
		files: []*registeredFile{nil}, // index 0 reserved for NoFile
		byKey: make(map[string]FileID),
	}
}

// AddFile registers a file, returning its FileID. If content is nil the
// file is disk-backed: its bytes are not held in memory and must be
// supplied later via SetContent, or resolved by a caller that reads the
// path directly. Re-registering the same path returns the existing ID.
func (sc *SourceContext) AddFile(path string, content []byte) FileID {
	if id, ok := sc.byKey[path]; ok {
		if content != nil && sc.files[id].content == nil {
			sc.files[id].content = content
		}
		return id
	}
	id := FileID(len(sc.files))
	sc.files = append(sc.files, &registeredFile{path: path, content: content})
	sc.byKey[path] = id
	return id
}

// SetContent attaches content to an already-registered, disk-backed file.
func (sc *SourceContext) SetContent(id FileID, content []byte) {
	if f := sc.file(id); f != nil {
		f.content = content
		f.lineStarts = nil
	}
}

func (sc *SourceContext) file(id FileID) *registeredFile {
	if int(id) <= 0 || int(id) >= len(sc.files) {
		return nil
	}
	return sc.files[id]
}

// GetFile returns the path and, if ephemeral, the content of a registered
// file. ok is false for an unknown FileID.
func (sc *SourceContext) GetFile(id FileID) (path string, content []byte, ok bool) {
	f := sc.file(id)
	if f == nil {
		return "", nil, false
	}
	return f.path, f.content, true
}

func (sc *SourceContext) lineStarts(f *registeredFile) []int {
	if f.lineStarts != nil {
		return f.lineStarts
	}
	starts := []int{0}
	for i, b := range f.content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	f.lineStarts = starts
	return starts
}

// locationInFile computes row/column for an offset into a known file's
// content using a cached line-start index (binary search).
func (sc *SourceContext) locationInFile(id FileID, offset int) (Location, bool) {
	f := sc.file(id)
	if f == nil || f.content == nil {
		return Location{}, false
	}
	if offset < 0 || offset > len(f.content) {
		return Location{}, false
	}
	starts := sc.lineStarts(f)
	// binary search for the last lineStart <= offset
	lo, hi := 0, len(starts)-1
	row := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if starts[mid] <= offset {
			row = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return Location{Offset: offset, Row: row, Column: offset - starts[row]}, true
}

// ConcatPiece is one contributor to a Concat SourceInfo: a local byte
// range within the concatenated output, mapped back to a source SourceInfo.
type ConcatPiece struct {
	Local  Range
	Source *Info
}

// TransformKind names the opaque kind of a Transformed SourceInfo.
type TransformKind string

// Recognized transform kinds (spec 3.1).
const (
	TransformYAML    TransformKind = "yaml"
	TransformInclude TransformKind = "include"
	TransformExec    TransformKind = "exec"
)

// infoVariant discriminates the Info tagged union.
type infoVariant int

const (
	variantZero infoVariant = iota
	variantOriginal
	variantSubstring
	variantTransformed
	variantConcat
)

// Info is a semantic location: a chain that can always be walked back to
// an Original{file, range}. The zero value is a legal "synthesized node"
// marker (IsZero() reports true).
type Info struct {
	variant infoVariant

	// Original
	file  FileID
	rng   Range

	// Substring
	parent *Info
	start  int
	end    int

	// Transformed
	kind TransformKind

	// Concat
	pieces []ConcatPiece
}

// IsZero reports whether this is the default/synthesized SourceInfo.
func (i *Info) IsZero() bool {
	return i == nil || i.variant == variantZero
}

// Original constructs a direct file/range location.
func Original(file FileID, rng Range) *Info {
	return &Info{variant: variantOriginal, file: file, rng: rng}
}

// Substring constructs a location describing a slice [start, end) of a
// parent location's own coordinate space.
func Substring(parent *Info, start, end int) *Info {
	return &Info{variant: variantSubstring, parent: parent, start: start, end: end}
}

// Transformed constructs an opaque-transform location whose parent is the
// pre-transform original.
func Transformed(parent *Info, kind TransformKind) *Info {
	return &Info{variant: variantTransformed, parent: parent, kind: kind}
}

// Concat constructs a location assembled from multiple source pieces.
func Concat(pieces []ConcatPiece) *Info {
	return &Info{variant: variantConcat, pieces: pieces}
}

// Combine merges two adjacent SourceInfos into one Concat, used by
// postprocess passes that fuse adjacent Str inlines (spec 4.6 merge_strs).
// If both inputs already describe a contiguous Original range they are
// collapsed back into a single Original rather than wrapped in Concat.
func Combine(a, b *Info) *Info {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if a.variant == variantOriginal && b.variant == variantOriginal &&
		a.file == b.file && a.rng.End == b.rng.Start {
		return Original(a.file, Range{Start: a.rng.Start, End: b.rng.End})
	}
	aLen := spanLen(a)
	return Concat([]ConcatPiece{
		{Local: Range{Start: 0, End: aLen}, Source: a},
		{Local: Range{Start: aLen, End: aLen + spanLen(b)}, Source: b},
	})
}

// Len returns the number of bytes this location's own coordinate space
// covers; offset Len() is the exclusive end position accepted by
// MapOffset for Original/Substring chains.
func (i *Info) Len() int {
	if i.IsZero() {
		return 0
	}
	return spanLen(i)
}

// spanLen returns the number of bytes this location's own coordinate
// space covers, used by Combine to lay out Concat pieces.
func spanLen(i *Info) int {
	switch i.variant {
	case variantOriginal:
		return i.rng.Len()
	case variantSubstring:
		return i.end - i.start
	case variantTransformed:
		return spanLen(i.parent)
	case variantConcat:
		total := 0
		for _, p := range i.pieces {
			total += p.Local.Len()
		}
		return total
	default:
		return 0
	}
}

// MapOffset resolves offset (in this SourceInfo's own coordinate space)
// to a concrete (file, location) pair in a registered file, descending
// through the chain as described in spec 4.1. It returns ok=false if the
// offset cannot be resolved (outside range, zero SourceInfo, or an
// unregistered/content-less file).
func (i *Info) MapOffset(offset int, ctx *SourceContext) (FileID, Location, bool) {
	if i.IsZero() {
		return NoFile, Location{}, false
	}
	switch i.variant {
	case variantOriginal:
		if offset < 0 || offset > i.rng.Len() {
			return NoFile, Location{}, false
		}
		loc, ok := ctx.locationInFile(i.file, i.rng.Start+offset)
		if !ok {
			return NoFile, Location{}, false
		}
		return i.file, loc, true
	case variantSubstring:
		if offset < 0 || i.start+offset > i.end {
			return NoFile, Location{}, false
		}
		return i.parent.MapOffset(i.start+offset, ctx)
	case variantTransformed:
		return i.parent.MapOffset(offset, ctx)
	case variantConcat:
		for _, p := range i.pieces {
			if p.Local.Contains(offset) || (offset == p.Local.End && p.Local.Len() == 0) {
				local := offset - p.Local.Start
				return p.Source.MapOffset(local, ctx)
			}
		}
		return NoFile, Location{}, false
	default:
		return NoFile, Location{}, false
	}
}

// OriginalFile walks the chain to find the ultimate Original file id this
// location resolves to at its start offset, used by diagnostics to decide
// which file's snippet to render. Returns ok=false for a zero SourceInfo
// or one whose chain cannot be resolved at offset 0.
func (i *Info) OriginalFile(ctx *SourceContext) (FileID, bool) {
	id, _, ok := i.MapOffset(0, ctx)
	return id, ok
}
