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

// BraceParser recognizes the two `{`-led constructs this reader adds to
// plain CommonMark: shortcodes (`{{< name arg ... >}}`) and trailing
// attribute blocks (`{#id .class key="value"}`). Both share a trigger
// byte, so one parser disambiguates by looking at what follows the first
// `{` rather than registering two parsers that would race on priority.
type BraceParser struct{}

var _ parser.InlineParser = (*BraceParser)(nil)

// Trigger implements parser.InlineParser.
func (p *BraceParser) Trigger() []byte { return []byte{'{'} }

// Parse implements parser.InlineParser.
func (p *BraceParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	line, _ := block.PeekLine()
	if len(line) < 2 {
		return nil
	}
	if line[1] == '{' {
		return parseShortcode(block, line)
	}
	return parseAttr(block, line)
}

func parseShortcode(block text.Reader, line []byte) gast.Node {
	end := indexOf(line, "}}")
	if end < 0 || !strings.HasPrefix(string(line[2:]), "<") {
		return nil
	}
	closeAngle := indexOf(line[:end], ">")
	if closeAngle < 0 {
		return nil
	}
	raw := strings.TrimSpace(string(line[3:closeAngle]))
	block.Advance(end + 2)
	return &ShortcodeNode{Raw: raw}
}

func parseAttr(block text.Reader, line []byte) gast.Node {
	close := indexByteFrom(line, 1, '}')
	if close < 0 {
		return nil
	}
	inner := string(line[1:close])
	if inner == "" || !looksLikeAttr(inner) {
		return nil
	}
	node := &AttrNode{}
	for _, tok := range splitAttrTokens(inner) {
		switch {
		case strings.HasPrefix(tok, "#"):
			node.ID = tok[1:]
		case strings.HasPrefix(tok, "."):
			node.Classes = append(node.Classes, tok[1:])
		case strings.Contains(tok, "="):
			kv := strings.SplitN(tok, "=", 2)
			node.KVs = append(node.KVs, AttrKV{Key: kv[0], Value: unquote(kv[1])})
		}
	}
	block.Advance(close + 1)
	return node
}

// looksLikeAttr requires the content to start with `#`, `.`, or a bareword
// immediately followed by `=`, ruling out ordinary `{` braces used as
// literal text (e.g. in code spans, which never reach inline parsing).
func looksLikeAttr(inner string) bool {
	if inner[0] == '#' || inner[0] == '.' {
		return true
	}
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '=' {
			return i > 0
		}
		if c == ' ' {
			return false
		}
	}
	return false
}

func splitAttrTokens(inner string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ' ' && !inQuote:
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func indexOf(b []byte, sub string) int {
	return strings.Index(string(b), sub)
}
