// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package qmdreader

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

// ErrFrontMatterNotClosed signals that a document opened a `---`
// frontmatter fence but never closed it.
var ErrFrontMatterNotClosed = errors.New("missing closing frontmatter `---`")

// StripFrontMatter splits content into its YAML frontmatter (nil if
// absent) and the remaining document body. Only whitespace may precede
// the opening `---`; any other leading text means the document has no
// frontmatter at all, and fm is returned as nil with body == content.
// fmRange gives the byte range of fm's content within content itself
// (zero-valued when fm is nil), letting a caller anchor the extracted
// frontmatter's SourceInfo without re-deriving it from slice identity.
func StripFrontMatter(content []byte) (fm []byte, body []byte, fmRange Range, err error) {
	var (
		started      bool
		yamlBeg      int
		yamlEnd      int
		contentStart int
	)

	buf := bytes.NewBuffer(content)

	for {
		line, readErr := buf.ReadString('\n')

		if errors.Is(readErr, io.EOF) {
			if started && yamlEnd == 0 {
				if strings.TrimSpace(line) == "---" {
					yamlEnd = len(content) - buf.Len() - len(line)
					contentStart = len(content)
				}
			}
			break
		}
		if readErr != nil {
			return nil, nil, Range{}, readErr
		}

		if l := strings.TrimSpace(line); l != "---" {
			if !started && len(l) > 0 {
				return nil, content, Range{}, nil
			}
			continue
		}

		if !started {
			started = true
			yamlBeg = len(content) - buf.Len()
		} else {
			yamlEnd = len(content) - buf.Len() - len(line)
			contentStart = yamlEnd + len(line)
			break
		}
	}

	if started && yamlEnd == 0 {
		return nil, nil, Range{}, ErrFrontMatterNotClosed
	}
	if !started {
		return nil, content, Range{}, nil
	}

	return content[yamlBeg:yamlEnd], content[contentStart:], Range{Start: yamlBeg, End: yamlEnd}, nil
}

// Range is a half-open byte range with the same shape as sourcemap.Range;
// Read hands it to sourcemap.Original to anchor the frontmatter block.
type Range struct {
	Start int
	End   int
}
