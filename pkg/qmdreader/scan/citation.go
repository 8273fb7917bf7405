// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"strings"

	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// citationKeyByte reports whether b may appear inside a citation key
// (word characters plus the punctuation Pandoc allows: `:`, `.`, `#`, `$`,
// `%`, `&`, `-`, `+`, `?`, `<`, `>`, `~`, `/`).
func citationKeyByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case strings.IndexByte(":.#$%&-+?<>~/_", b) >= 0:
		return true
	default:
		return false
	}
}

// BareCitationParser recognizes a standalone `@key` citation (not inside
// a bracketed group). A leading `-` is not part of the match, so `-@key`
// reads as the text `-` followed by an ordinary citation.
type BareCitationParser struct{}

var _ parser.InlineParser = (*BareCitationParser)(nil)

// Trigger implements parser.InlineParser.
func (p *BareCitationParser) Trigger() []byte { return []byte{'@'} }

// Parse implements parser.InlineParser: it consumes `@` plus a run of
// citationKeyByte characters and, if at least one key character followed,
// emits a CitationNode; otherwise it declines (returns nil) and the `@`
// is treated as plain text by goldmark's fallback text parser.
func (p *BareCitationParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	line, _ := block.PeekLine()
	if len(line) == 0 || line[0] != '@' {
		return nil
	}
	i := 1
	for i < len(line) && citationKeyByte(line[i]) {
		i++
	}
	if i == 1 {
		return nil
	}
	key := string(line[1:i])
	block.Advance(i)
	return &CitationNode{
		Form:  CitationBare,
		Items: []CitationItem{{Key: key}},
	}
}

// BracketedCitationParser recognizes `[@key1 p. 3; @key2]`-style groups.
// It is registered at a lower priority number than goldmark's built-in
// link parser so it gets the first look at `[`, declining (returning
// nil) for anything that is not immediately `[` followed (after optional
// whitespace/prefix text) by an `@`-led citation item, so ordinary links
// still fall through to the link parser.
type BracketedCitationParser struct{}

var _ parser.InlineParser = (*BracketedCitationParser)(nil)

// Trigger implements parser.InlineParser.
func (p *BracketedCitationParser) Trigger() []byte { return []byte{'['} }

// Parse implements parser.InlineParser.
func (p *BracketedCitationParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	line, _ := block.PeekLine()
	if len(line) == 0 || line[0] != '[' {
		return nil
	}
	close := indexByteFrom(line, 1, ']')
	if close < 0 {
		return nil
	}
	inner := string(line[1:close])
	if !looksLikeCitationGroup(inner) {
		return nil
	}
	items := parseCitationItems(inner)
	if len(items) == 0 {
		return nil
	}
	block.Advance(close + 1)
	return &CitationNode{Form: CitationBracketed, Items: items}
}

// looksLikeCitationGroup is a cheap pre-check: the bracket content must
// contain an `@` and no `[` (which would suggest a nested link instead).
// Backslash escapes and the shape of any prefix text are not checked.
func looksLikeCitationGroup(inner string) bool {
	return strings.Contains(inner, "@") && !strings.Contains(inner, "[")
}

// parseCitationItems splits a bracketed citation group on `;` and, for
// each part, extracts the leading prefix text, the `@key`, and any
// trailing suffix text.
func parseCitationItems(inner string) []CitationItem {
	var items []CitationItem
	for _, part := range strings.Split(inner, ";") {
		part = strings.TrimSpace(part)
		at := strings.IndexByte(part, '@')
		if at < 0 {
			continue
		}
		prefix := strings.TrimSpace(part[:at])
		suppressed := strings.HasSuffix(prefix, "-")
		if suppressed {
			prefix = strings.TrimSpace(strings.TrimSuffix(prefix, "-"))
		}
		rest := part[at+1:]
		j := 0
		for j < len(rest) && citationKeyByte(rest[j]) {
			j++
		}
		if j == 0 {
			continue
		}
		items = append(items, CitationItem{
			Key:        rest[:j],
			Prefix:     prefix,
			Suffix:     strings.TrimSpace(rest[j:]),
			Suppressed: suppressed,
		})
	}
	return items
}

func indexByteFrom(b []byte, from int, c byte) int {
	for i := from; i < len(b); i++ {
		if b[i] == c {
			return i
		}
	}
	return -1
}
