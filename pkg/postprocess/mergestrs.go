// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package postprocess

import (
	"strings"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/sourcemap"
)

// abbreviations is the fixed list of abbreviations kept attached to the
// following word with a non-breaking space (spec 4.6).
var abbreviations = []string{
	"Mr.", "Mrs.", "Ms.", "Capt.", "Dr.", "Prof.", "Gen.", "Gov.", "e.g.",
	"i.e.", "Sgt.", "St.", "vol.", "vs.", "Sen.", "Rep.", "Pres.", "Hon.",
	"Rev.", "Ph.D.", "M.D.", "M.A.", "p.", "pp.", "ch.", "chap.", "sec.",
	"cf.", "cp.",
}

// hasAbbrevBoundary reports whether text ends with abbrev at a word
// boundary: the abbreviation is the whole string, or the byte before it
// is not alphanumeric.
func hasAbbrevBoundary(text, abbrev string) bool {
	if !strings.HasSuffix(text, abbrev) {
		return false
	}
	prefix := text[:len(text)-len(abbrev)]
	if prefix == "" {
		return true
	}
	last := rune(prefix[len(prefix)-1])
	return !isAlphanumeric(last)
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func endsWithAbbreviation(text string) bool {
	for _, abbrev := range abbreviations {
		if hasAbbrevBoundary(text, abbrev) {
			return true
		}
	}
	return false
}

// smartStr applies smart punctuation to a whole Str token (spec 4.6:
// `...` to ellipsis, `--` to en dash, `---` to em dash).
func smartStr(s string) string {
	switch s {
	case "...":
		return "…"
	case "--":
		return "–"
	case "---":
		return "—"
	default:
		return s
	}
}

// coalesceAbbreviations absorbs the word following an abbreviation into
// the abbreviation's Str with a U+00A0 between, continuing while the
// combined text still ends with an abbreviation, and absorbing a lone
// trailing Space as the non-breaking space when no word follows.
func coalesceAbbreviations(inlines []ast.Inline) ([]ast.Inline, bool) {
	var result []ast.Inline
	didCoalesce := false
	i := 0
	for i < len(inlines) {
		str, ok := inlines[i].(*ast.Str)
		if !ok {
			result = append(result, inlines[i])
			i++
			continue
		}

		text := str.Text
		info := str.Info()
		j := i + 1

		if endsWithAbbreviation(text) {
			startJ := j
			for j+1 < len(inlines) {
				_, isSpace := inlines[j].(*ast.Space)
				next, isStr := inlines[j+1].(*ast.Str)
				if !isSpace || !isStr {
					break
				}
				text += "\u00a0" + next.Text
				info = sourcemap.Combine(info, next.Info())
				j += 2
				didCoalesce = true
				if !endsWithAbbreviation(text) {
					break
				}
			}
			if j == startJ && j < len(inlines) {
				if sp, isSpace := inlines[j].(*ast.Space); isSpace {
					text += "\u00a0"
					info = sourcemap.Combine(info, sp.Info())
					j++
					didCoalesce = true
				}
			}
		}

		if j > i+1 {
			result = append(result, ast.NewStr(text, info))
		} else {
			result = append(result, str)
		}
		i = j
	}
	return result, didCoalesce
}

// mergeStrsFilter fuses adjacent Str inlines (combining their source
// ranges), applies smart punctuation, then coalesces abbreviations.
type mergeStrsFilter struct{}

func (*mergeStrsFilter) Name() string { return "merge-strs" }

func (*mergeStrsFilter) FilterInlines(inlines []ast.Inline) ([]ast.Inline, bool) {
	var result []ast.Inline
	var currentText string
	var currentInfo *sourcemap.Info
	haveCurrent := false
	didMerge := false

	flush := func() {
		if haveCurrent {
			result = append(result, ast.NewStr(currentText, currentInfo))
			haveCurrent = false
			currentInfo = nil
		}
	}

	for _, in := range inlines {
		s, ok := in.(*ast.Str)
		if !ok {
			flush()
			result = append(result, in)
			continue
		}
		text := smartStr(s.Text)
		if haveCurrent {
			currentText += text
			currentInfo = sourcemap.Combine(currentInfo, s.Info())
			didMerge = true
		} else {
			currentText = text
			currentInfo = s.Info()
			haveCurrent = true
			if text != s.Text {
				didMerge = true
			}
		}
	}
	flush()

	coalesced, didCoalesce := coalesceAbbreviations(result)
	return coalesced, didMerge || didCoalesce
}

// MergeStrs runs the Str-fusion pass over the whole document. Beyond its
// first application it is idempotent for inputs with no abbreviation to
// coalesce (spec 8, P1).
func MergeStrs(doc *ast.Pandoc) {
	NewPipeline(&mergeStrsFilter{}).Run(doc)
}
