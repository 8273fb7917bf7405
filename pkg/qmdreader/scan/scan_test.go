// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCitationKeyByteAcceptsPandocPunctuation(t *testing.T) {
	for _, b := range []byte("abcXYZ019:.#$%&-+?<>~/_") {
		assert.True(t, citationKeyByte(b), "expected %q to be a key byte", b)
	}
	for _, b := range []byte(" ;,@[]{}") {
		assert.False(t, citationKeyByte(b), "expected %q to not be a key byte", b)
	}
}

func TestParseCitationItemsSingle(t *testing.T) {
	items := parseCitationItems("@smith04")
	assert.Equal(t, []CitationItem{{Key: "smith04"}}, items)
}

func TestParseCitationItemsWithPrefixAndSuffix(t *testing.T) {
	items := parseCitationItems("see @smith04 p. 33")
	assert.Equal(t, []CitationItem{{Key: "smith04", Prefix: "see", Suffix: "p. 33"}}, items)
}

func TestParseCitationItemsMultiple(t *testing.T) {
	items := parseCitationItems("@smith04; @doe99 chap. 2")
	assert.Equal(t, []CitationItem{
		{Key: "smith04"},
		{Key: "doe99", Suffix: "chap. 2"},
	}, items)
}

func TestParseCitationItemsSuppressedAuthor(t *testing.T) {
	items := parseCitationItems("-@smith04")
	assert.Len(t, items, 1)
	assert.True(t, items[0].Suppressed)
	assert.Equal(t, "smith04", items[0].Key)
}

func TestLooksLikeCitationGroupRejectsNestedLink(t *testing.T) {
	assert.False(t, looksLikeCitationGroup("text [inner] @key"))
	assert.True(t, looksLikeCitationGroup("@key"))
	assert.False(t, looksLikeCitationGroup("no at sign here"))
}

func TestSplitAttrTokensRespectsQuotes(t *testing.T) {
	tokens := splitAttrTokens(`#fig-1 .column-margin caption="a b c"`)
	assert.Equal(t, []string{"#fig-1", ".column-margin", `caption="a b c"`}, tokens)
}

func TestLooksLikeAttrRecognizesIdAndClassAndKV(t *testing.T) {
	assert.True(t, looksLikeAttr("#fig-1"))
	assert.True(t, looksLikeAttr(".column-margin"))
	assert.True(t, looksLikeAttr("key=value"))
	assert.False(t, looksLikeAttr("plain text"))
}

func TestUnquoteStripsSurroundingQuotes(t *testing.T) {
	assert.Equal(t, "a b c", unquote(`"a b c"`))
	assert.Equal(t, "bare", unquote("bare"))
}
