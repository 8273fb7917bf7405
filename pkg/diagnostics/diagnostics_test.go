// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarto-go/qcore/pkg/sourcemap"
)

func TestBuilderRoundTrip(t *testing.T) {
	ctx := sourcemap.NewSourceContext()
	id := ctx.AddFile("doc.qmd", []byte("title: [oops\n"))
	loc := sourcemap.Original(id, sourcemap.Range{Start: 7, End: 12})

	msg := New(Warning, "unclosed markdown syntax").
		Code("Q-1-101").
		Problem("the string could not be parsed as markdown").
		At(loc).
		Detail(DetailInfo, "falling back to a literal string", nil).
		Hint("wrap the value in `!str` to silence this warning").
		Build()

	assert.Equal(t, "Q-1-101", msg.Code)
	assert.Equal(t, Warning, msg.Kind)
	require.Len(t, msg.Details, 1)
	require.Len(t, msg.Hints, 1)

	url, ok := msg.DocsURL()
	require.True(t, ok)
	assert.Contains(t, url, "Q-1-101")
}

func TestRenderTextWithLocation(t *testing.T) {
	ctx := sourcemap.NewSourceContext()
	id := ctx.AddFile("doc.qmd", []byte("line one\nline two\n"))
	loc := sourcemap.Original(id, sourcemap.Range{Start: 9, End: 13})

	msg := New(Error, "bad thing happened").Code("Q-0-1").At(loc).Build()

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, msg, ctx))
	out := buf.String()
	assert.Contains(t, out, "error [Q-0-1]: bad thing happened")
	assert.Contains(t, out, "doc.qmd:2:1")
}

func TestRenderTextWithoutContext(t *testing.T) {
	msg := New(Info, "fyi").Build()
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, msg, nil))
	assert.Equal(t, "info: fyi\n", buf.String())
}

func TestRenderJSON(t *testing.T) {
	ctx := sourcemap.NewSourceContext()
	id := ctx.AddFile("doc.qmd", []byte("abc"))
	loc := sourcemap.Original(id, sourcemap.Range{Start: 0, End: 1})

	msg := New(Error, "broken").Code("Q-2-1").At(loc).
		Detail(DetailError, "specifically here", loc).Build()

	data, err := RenderJSON(msg, ctx)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"kind":"error"`)
	assert.Contains(t, s, `"code":"Q-2-1"`)
	assert.Contains(t, s, `"file":"doc.qmd"`)
}

func TestCollectorAccumulatesAndErr(t *testing.T) {
	c := NewCollector()
	c.Warnf("Q-1-101", "warn %d", 1)
	c.Errorf("Q-0-1", "error %d", 2)

	assert.Len(t, c.Messages(), 2)
	assert.True(t, c.HasErrors())

	err := c.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error 2")
}

func TestCollectorNoErrorsYieldsNilErr(t *testing.T) {
	c := NewCollector()
	c.Warnf("Q-1-101", "just a warning")
	assert.False(t, c.HasErrors())
	assert.NoError(t, c.Err())
}
