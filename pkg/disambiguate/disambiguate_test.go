// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package disambiguate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleData(pairs ...string) []DisambData {
	// pairs is (id, rendered) interleaved.
	var out []DisambData
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, DisambData{ItemID: pairs[i], Rendered: pairs[i+1]})
	}
	return out
}

// D1: identical renderings of distinct items form one ambiguity group.
func TestFindAmbiguitiesBasic(t *testing.T) {
	ambiguities := FindAmbiguities(simpleData(
		"ref1", "Smith (2020)",
		"ref2", "Smith (2020)",
		"ref3", "Jones (2021)",
	))
	require.Len(t, ambiguities, 1)
	assert.Len(t, ambiguities[0], 2)
}

func TestFindAmbiguitiesNone(t *testing.T) {
	ambiguities := FindAmbiguities(simpleData(
		"ref1", "Smith (2020)",
		"ref2", "Jones (2021)",
	))
	assert.Empty(t, ambiguities)
}

// The same item cited twice is not ambiguous with itself.
func TestFindAmbiguitiesSameItemNotAmbiguous(t *testing.T) {
	ambiguities := FindAmbiguities(simpleData(
		"ref1", "Smith (2020)",
		"ref1", "Smith (2020)",
	))
	assert.Empty(t, ambiguities)
}

func TestFindAmbiguitiesMultipleGroups(t *testing.T) {
	ambiguities := FindAmbiguities(simpleData(
		"ref1", "Smith (2020)",
		"ref2", "Smith (2020)",
		"ref3", "Jones (2021)",
		"ref4", "Jones (2021)",
	))
	assert.Len(t, ambiguities, 2)
}

func TestInitialsNormalization(t *testing.T) {
	assert.Equal(t, "J.", initials("John"))
	assert.Equal(t, "J. P.", initials("John Paul"))
	assert.Equal(t, "M. J. W.", initials("Mary Jane Watson"))
	assert.Equal(t, "J. J.", initials("J. J."))
	assert.Equal(t, "J. J.", initials("J.J."))
	assert.Equal(t, "J. P.", initials("J.P."))
	assert.Equal(t, "J. P.", initials("J. P."))
}

func TestNormalizeGivenName(t *testing.T) {
	assert.Equal(t, normalizeGivenName("J. J."), normalizeGivenName("J.J."))
	assert.NotEqual(t, normalizeGivenName("John"), normalizeGivenName("James"))
}

func taggedItem(id string, names []Name, rendered string) *Output {
	return Tagged(Tag{Kind: TagItem, ItemType: NormalCite, ItemID: id},
		Tagged(Tag{Kind: TagNames, Variable: "author", Names: names},
			Literal(rendered)))
}

func TestExtractDisambDataFromOutputs(t *testing.T) {
	name1 := Name{Family: "Malone", Given: "Nolan J."}
	name2 := Name{Family: "Malone", Given: "Kemp"}
	output := Sequence(
		taggedItem("ITEM-1", []Name{name1}, "Malone"),
		taggedItem("ITEM-2", []Name{name2}, "Malone"),
	)

	data := ExtractDisambData([]*Output{output})
	require.Len(t, data, 2)
	assert.Equal(t, "ITEM-1", data[0].ItemID)
	require.Len(t, data[0].Names, 1)
	assert.Equal(t, "Nolan J.", data[0].Names[0].Given)
	assert.Equal(t, "Malone", data[0].Rendered)
	assert.Equal(t, "Malone", data[1].Rendered)

	ambiguities := FindAmbiguities(data)
	require.Len(t, ambiguities, 1)
	assert.Len(t, ambiguities[0], 2)
}

// D2: all-names rule adds given-name hints; initials suffice when they
// distinguish.
func TestGlobalNameDisambiguationAllNames(t *testing.T) {
	kemp := Name{Family: "Malone", Given: "Kemp"}
	nolan := Name{Family: "Malone", Given: "Nolan J."}
	outputs := []*Output{Sequence(
		taggedItem("ITEM-1", []Name{nolan}, "Malone"),
		taggedItem("ITEM-2", []Name{kemp}, "Malone"),
	)}

	decisions := Run(outputs, Strategy{GivenNameRule: AllNames}, nil)

	// "N." vs "K." differ, so initials are enough.
	assert.Equal(t, AddInitials, decisions.NameHints[NameRef{ItemID: "ITEM-1", Name: nolan}])
	assert.Equal(t, AddInitials, decisions.NameHints[NameRef{ItemID: "ITEM-2", Name: kemp}])
}

func TestGlobalNameDisambiguationNeedsFullGivenName(t *testing.T) {
	john := Name{Family: "Smith", Given: "John"}
	james := Name{Family: "Smith", Given: "James"}
	outputs := []*Output{Sequence(
		taggedItem("a", []Name{john}, "Smith"),
		taggedItem("b", []Name{james}, "Smith"),
	)}

	decisions := Run(outputs, Strategy{GivenNameRule: AllNames}, nil)

	// Both initial to "J.": only the full given names distinguish.
	assert.Equal(t, AddGivenName, decisions.NameHints[NameRef{ItemID: "a", Name: john}])
	assert.Equal(t, AddGivenName, decisions.NameHints[NameRef{ItemID: "b", Name: james}])
}

func TestParticleKeepsFamiliesDistinct(t *testing.T) {
	santos := Name{Family: "Santos", Given: "Ana"}
	dosSantos := Name{Family: "Santos", Given: "Bruno", NonDroppingParticle: "dos"}
	outputs := []*Output{Sequence(
		taggedItem("a", []Name{santos}, "Santos"),
		taggedItem("b", []Name{dosSantos}, "Santos"),
	)}

	decisions := Run(outputs, Strategy{GivenNameRule: AllNames}, nil)

	// Different family groups: no name hints needed.
	assert.Empty(t, decisions.NameHints)
}

func TestYearSuffixesFollowBibliographyOrder(t *testing.T) {
	outputs := []*Output{Sequence(
		taggedItem("late", nil, "Smith (2020)"),
		taggedItem("early", nil, "Smith (2020)"),
	)}
	bibOrder := map[string]int{"early": 0, "late": 1}

	decisions := Run(outputs, Strategy{AddYearSuffix: true},
		func(id string) int { return bibOrder[id] })

	assert.Equal(t, 1, decisions.YearSuffixes["early"])
	assert.Equal(t, 2, decisions.YearSuffixes["late"])
	assert.Equal(t, "a", SuffixLetter(decisions.YearSuffixes["early"]))
	assert.Equal(t, "b", SuffixLetter(decisions.YearSuffixes["late"]))
}

func TestDisambConditionAlwaysSetForAmbiguousItems(t *testing.T) {
	outputs := []*Output{Sequence(
		taggedItem("x", nil, "Doe (1999)"),
		taggedItem("y", nil, "Doe (1999)"),
	)}

	// No methods enabled; the condition flag still fires.
	decisions := Run(outputs, Strategy{}, nil)
	assert.True(t, decisions.DisambCondition["x"])
	assert.True(t, decisions.DisambCondition["y"])
}

func TestAddNamesExpandsEtAl(t *testing.T) {
	a1 := Name{Family: "Smith", Given: "A"}
	a2 := Name{Family: "Jones", Given: "B"}
	a3 := Name{Family: "Brown", Given: "C"}
	outputs := []*Output{Sequence(
		taggedItem("p1", []Name{a1, a2}, "Smith et al. (2020)"),
		taggedItem("p2", []Name{a1, a3}, "Smith et al. (2020)"),
	)}

	decisions := Run(outputs, Strategy{AddNames: true}, nil)

	// Showing two names distinguishes Smith/Jones from Smith/Brown.
	assert.Equal(t, 2, decisions.EtAlUseFirst["p1"])
	assert.Equal(t, 2, decisions.EtAlUseFirst["p2"])
}

func TestSuffixLetterWraps(t *testing.T) {
	assert.Equal(t, "a", SuffixLetter(1))
	assert.Equal(t, "z", SuffixLetter(26))
	assert.Equal(t, "aa", SuffixLetter(27))
	assert.Equal(t, "", SuffixLetter(0))
}
