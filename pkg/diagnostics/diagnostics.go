// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package diagnostics implements tidyverse-style structured diagnostic
// messages (spec.md section 4.2): a code, title, kind, ordered details
// and hints, and an optional source location, with text and JSON
// renderers that resolve locations back through a sourcemap.SourceContext
// to the original file.
package diagnostics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/quarto-go/qcore/pkg/sourcemap"
)

// Kind classifies a DiagnosticMessage or a DetailItem.
type Kind int

// Recognized kinds.
const (
	Error Kind = iota
	Warning
	Info
	Note
)

func (k Kind) String() string {
	switch k {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

func (k Kind) bullet() string {
	switch k {
	case Error:
		return "✖" // tidyverse x bullet
	case Info:
		return "ℹ" // i bullet
	default:
		return "*"
	}
}

// DetailKind is the presentation style of a Detail (spec 4.2).
type DetailKind int

// Recognized detail kinds, mirroring Kind but scoped to Detail.
const (
	DetailError DetailKind = iota
	DetailInfo
	DetailNote
)

// kind maps a DetailKind to the Kind whose bullet it renders with.
func (k DetailKind) kind() Kind {
	switch k {
	case DetailError:
		return Error
	case DetailInfo:
		return Info
	default:
		return Note
	}
}

// Detail is one bulleted supporting line in a DiagnosticMessage.
type Detail struct {
	Kind     DetailKind
	Content  string
	Location *sourcemap.Info
}

// DiagnosticMessage is a single structured diagnostic (spec 4.2).
type DiagnosticMessage struct {
	Code     string
	Title    string
	Kind     Kind
	Problem  string
	Details  []Detail
	Hints    []string
	Location *sourcemap.Info
}

func (d DiagnosticMessage) Error() string {
	if d.Code != "" {
		return fmt.Sprintf("[%s] %s: %s", d.Code, d.Kind, d.Title)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Title)
}

// Builder constructs a DiagnosticMessage incrementally, enforcing the
// tidyverse structure (title required, details/hints appended in order).
type Builder struct {
	msg DiagnosticMessage
}

// New starts a Builder for a diagnostic of the given kind and title.
func New(kind Kind, title string) *Builder {
	return &Builder{msg: DiagnosticMessage{Kind: kind, Title: title}}
}

// Code sets the diagnostic code (e.g. "Q-1-2").
func (b *Builder) Code(code string) *Builder {
	b.msg.Code = code
	return b
}

// Problem sets the optional markdown problem description.
func (b *Builder) Problem(problem string) *Builder {
	b.msg.Problem = problem
	return b
}

// At sets the diagnostic's source location.
func (b *Builder) At(loc *sourcemap.Info) *Builder {
	b.msg.Location = loc
	return b
}

// Detail appends an ordered detail line.
func (b *Builder) Detail(kind DetailKind, content string, loc *sourcemap.Info) *Builder {
	b.msg.Details = append(b.msg.Details, Detail{Kind: kind, Content: content, Location: loc})
	return b
}

// Hint appends an ordered hint line.
func (b *Builder) Hint(hint string) *Builder {
	b.msg.Hints = append(b.msg.Hints, hint)
	return b
}

// Build returns the constructed message.
func (b *Builder) Build() DiagnosticMessage {
	return b.msg
}

// docURLs maps known codes to documentation URLs (spec 6.5).
var docURLs = map[string]string{
	"Q-1-100": "https://quarto-go.example/docs/errors/Q-1-100",
	"Q-1-101": "https://quarto-go.example/docs/errors/Q-1-101",
	"Q-2-1":   "https://quarto-go.example/docs/errors/Q-2-1",
	"Q-3-1":   "https://quarto-go.example/docs/errors/Q-3-1",
}

// DocsURL returns the documentation URL for d's code, if known.
func (d DiagnosticMessage) DocsURL() (string, bool) {
	u, ok := docURLs[d.Code]
	return u, ok
}

// Collector accumulates non-fatal diagnostics over the course of a pass,
// mirroring the teacher's *multierror.Error accumulation in
// pkg/jobs/jobs.go. Warnings/Info/Note never halt a pass; Errors may be
// accumulated here or returned immediately depending on the pass contract
// (spec section 7).
type Collector struct {
	messages []DiagnosticMessage
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends a diagnostic.
func (c *Collector) Add(d DiagnosticMessage) {
	c.messages = append(c.messages, d)
}

// Warnf is a convenience for appending a Warning with a formatted title.
func (c *Collector) Warnf(code, format string, args ...interface{}) {
	c.Add(New(Warning, fmt.Sprintf(format, args...)).Code(code).Build())
}

// Errorf is a convenience for appending an Error with a formatted title.
func (c *Collector) Errorf(code, format string, args ...interface{}) {
	c.Add(New(Error, fmt.Sprintf(format, args...)).Code(code).Build())
}

// Messages returns all collected diagnostics in the order they were added
// (spec section 5: "Diagnostics are emitted in source-offset order within
// a file; across layers, in layer-load order" — ordering is the caller's
// responsibility since the collector itself is order-preserving FIFO).
func (c *Collector) Messages() []DiagnosticMessage {
	return c.messages
}

// HasErrors reports whether any collected diagnostic is of Kind Error.
func (c *Collector) HasErrors() bool {
	for _, m := range c.messages {
		if m.Kind == Error {
			return true
		}
	}
	return false
}

// Err folds all Error-kind messages into a *multierror.Error, or returns
// nil if there are none. This is the boundary where the collector's
// open-ended accumulation becomes a single Go error for callers that must
// return (T, error).
func (c *Collector) Err() error {
	var result *multierror.Error
	for _, m := range c.messages {
		if m.Kind == Error {
			msg := m
			result = multierror.Append(result, msg)
		}
	}
	return result.ErrorOrNil()
}

// RenderText renders a diagnostic as tidyverse-style text. If ctx is
// non-nil and the diagnostic's location (or any detail's location)
// resolves through the chain to a registered file, a source snippet is
// rendered above the bulleted details/hints.
func RenderText(w io.Writer, d DiagnosticMessage, ctx *sourcemap.SourceContext) error {
	var buf bytes.Buffer

	header := fmt.Sprintf("%s", d.Kind)
	if d.Code != "" {
		header = fmt.Sprintf("%s [%s]", header, d.Code)
	}
	fmt.Fprintf(&buf, "%s: %s\n", header, d.Title)

	if snippet, ok := renderSnippet(d.Location, ctx); ok {
		buf.WriteString(snippet)
	}

	if d.Problem != "" {
		fmt.Fprintf(&buf, "%s\n", d.Problem)
	}

	for _, det := range d.Details {
		bullet := det.Kind.kind().bullet()
		fmt.Fprintf(&buf, "%s %s\n", bullet, det.Content)
		if snippet, ok := renderSnippet(det.Location, ctx); ok {
			buf.WriteString(snippet)
		}
	}

	for _, hint := range d.Hints {
		fmt.Fprintf(&buf, "ℹ %s\n", hint)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// renderSnippet produces a "file:row:col" label line for loc, walking the
// chain through ctx to the original file. It deliberately does not print
// the surrounding source text itself (no terminal-report library is
// wired in this core; see DESIGN.md) but gives callers enough to open the
// file at the right place.
func renderSnippet(loc *sourcemap.Info, ctx *sourcemap.SourceContext) (string, bool) {
	if loc.IsZero() || ctx == nil {
		return "", false
	}
	fileID, location, ok := loc.MapOffset(0, ctx)
	if !ok {
		return "", false
	}
	path, _, ok := ctx.GetFile(fileID)
	if !ok {
		return "", false
	}
	row, col := location.Display()
	return fmt.Sprintf("  --> %s:%d:%d\n", path, row, col), true
}

// jsonDetail and jsonMessage mirror spec section 6.3's "{kind, content,
// location?}" / "{kind, title, code?, ...}" JSON shapes.
type jsonLocation struct {
	File   string `json:"file"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
}

type jsonDetail struct {
	Kind     string        `json:"kind"`
	Content  string        `json:"content"`
	Location *jsonLocation `json:"location,omitempty"`
}

type jsonMessage struct {
	Kind     string        `json:"kind"`
	Title    string        `json:"title"`
	Code     string        `json:"code,omitempty"`
	Problem  string        `json:"problem,omitempty"`
	Details  []jsonDetail  `json:"details"`
	Hints    []string      `json:"hints"`
	Location *jsonLocation `json:"location,omitempty"`
}

func toJSONLocation(loc *sourcemap.Info, ctx *sourcemap.SourceContext) *jsonLocation {
	if loc.IsZero() || ctx == nil {
		return nil
	}
	fileID, location, ok := loc.MapOffset(0, ctx)
	if !ok {
		return nil
	}
	path, _, ok := ctx.GetFile(fileID)
	if !ok {
		return nil
	}
	return &jsonLocation{File: path, Row: location.Row, Column: location.Column, Offset: location.Offset}
}

func detailKindString(k DetailKind) string {
	switch k {
	case DetailError:
		return "error"
	case DetailInfo:
		return "info"
	case DetailNote:
		return "note"
	default:
		return "note"
	}
}

// RenderJSON marshals d into the structured JSON object from spec 4.2.
func RenderJSON(d DiagnosticMessage, ctx *sourcemap.SourceContext) ([]byte, error) {
	jm := jsonMessage{
		Kind:     d.Kind.String(),
		Title:    d.Title,
		Code:     d.Code,
		Problem:  d.Problem,
		Hints:    d.Hints,
		Location: toJSONLocation(d.Location, ctx),
	}
	if jm.Hints == nil {
		jm.Hints = []string{}
	}
	jm.Details = make([]jsonDetail, 0, len(d.Details))
	for _, det := range d.Details {
		jm.Details = append(jm.Details, jsonDetail{
			Kind:     detailKindString(det.Kind),
			Content:  det.Content,
			Location: toJSONLocation(det.Location, ctx),
		})
	}
	return json.Marshal(jm)
}
