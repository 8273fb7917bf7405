// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package disambiguate

import (
	"sort"
	"strings"
)

// GivenNameRule is the style's givenname-disambiguation-rule.
type GivenNameRule int

// Recognized rules. RuleNone disables given-name disambiguation.
const (
	RuleNone GivenNameRule = iota
	ByCite
	AllNames
	AllNamesWithInitials
	PrimaryName
	PrimaryNameWithInitials
)

func (r GivenNameRule) withInitialsOnly() bool {
	return r == AllNamesWithInitials || r == PrimaryNameWithInitials
}

func (r GivenNameRule) primaryOnly() bool {
	return r == PrimaryName || r == PrimaryNameWithInitials
}

// NameHint is the escalation decided for one rendered name.
type NameHint int

// Recognized hints, in escalation order.
const (
	AddInitials NameHint = iota + 1
	AddGivenName
)

// Strategy is the style's enabled disambiguation methods.
type Strategy struct {
	AddNames      bool
	GivenNameRule GivenNameRule
	AddYearSuffix bool
}

// DisambData is the per-citation-item evidence the algorithm works on.
type DisambData struct {
	ItemID   string
	Names    []Name
	Rendered string
}

// ToDisambData extracts the evidence for one tagged item.
func ToDisambData(itemID string, output *Output) DisambData {
	return DisambData{
		ItemID:   itemID,
		Names:    output.ExtractAllNames(),
		Rendered: output.Render(),
	}
}

// ExtractDisambData collects DisambData for every NormalCite item across
// the rendered outputs.
func ExtractDisambData(outputs []*Output) []DisambData {
	var result []DisambData
	for _, output := range outputs {
		for _, item := range output.ExtractCitationItems() {
			if item.Type == NormalCite {
				result = append(result, ToDisambData(item.ItemID, item.Output))
			}
		}
	}
	return result
}

// FindAmbiguities groups citations by rendered text and keeps the groups
// citing more than one distinct item (spec 8, D1: identical rendering of
// the same item is not ambiguous). Groups are returned in first-seen
// rendering order.
func FindAmbiguities(items []DisambData) [][]DisambData {
	groups := make(map[string][]DisambData)
	var order []string
	for _, data := range items {
		if _, seen := groups[data.Rendered]; !seen {
			order = append(order, data.Rendered)
		}
		groups[data.Rendered] = append(groups[data.Rendered], data)
	}

	var result [][]DisambData
	for _, rendered := range order {
		group := groups[rendered]
		unique := make(map[string]bool)
		for _, d := range group {
			unique[d.ItemID] = true
		}
		if len(unique) > 1 {
			result = append(result, group)
		}
	}
	return result
}

// NameRef keys a per-name decision by the item it renders under.
type NameRef struct {
	ItemID string
	Name   Name
}

// Decisions is the algorithm's output: the rendering adjustments a CSL
// processor applies before re-rendering. YearSuffixes are 1-based
// (1 -> "a"); DisambCondition marks items whose <if disambiguate="true">
// branches fire.
type Decisions struct {
	EtAlUseFirst    map[string]int
	NameHints       map[NameRef]NameHint
	YearSuffixes    map[string]int
	DisambCondition map[string]bool
}

func newDecisions() *Decisions {
	return &Decisions{
		EtAlUseFirst:    make(map[string]int),
		NameHints:       make(map[NameRef]NameHint),
		YearSuffixes:    make(map[string]int),
		DisambCondition: make(map[string]bool),
	}
}

// SuffixLetter renders a 1-based year suffix as its letter form.
func SuffixLetter(n int) string {
	if n < 1 {
		return ""
	}
	var sb strings.Builder
	for n > 0 {
		n--
		sb.WriteByte(byte('a' + n%26))
		n /= 26
	}
	// Digits accumulate least-significant first.
	out := []byte(sb.String())
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// Run applies the disambiguation methods in order (spec 4.10): global
// given-name disambiguation for non-ByCite rules, et-al expansion,
// per-group given names for ByCite, year suffixes in bibliography order,
// and finally the disambiguate condition, set for every item of every
// group that was ambiguous before these methods ran; whether a method
// already resolved a group is not re-checked.
// bibOrder supplies the bibliography sort position per item id; nil
// falls back to lexicographic item-id order. The condition flag is set
// even when no explicit method is enabled, since style conditionals
// depend on it.
func Run(outputs []*Output, strategy Strategy, bibOrder func(itemID string) int) *Decisions {
	data := ExtractDisambData(outputs)
	ambiguities := FindAmbiguities(data)
	decisions := newDecisions()

	if strategy.GivenNameRule != RuleNone && strategy.GivenNameRule != ByCite {
		applyGlobalNameDisambiguation(decisions, data, strategy.GivenNameRule)
	}

	if strategy.AddNames {
		tryAddNames(decisions, ambiguities, strategy.GivenNameRule)
	}

	if strategy.GivenNameRule == ByCite {
		tryAddGivenNames(decisions, ambiguities, ByCite)
	}

	if strategy.AddYearSuffix {
		assignYearSuffixes(decisions, ambiguities, bibOrder)
	}

	for _, group := range ambiguities {
		for _, item := range group {
			decisions.DisambCondition[item.ItemID] = true
		}
	}

	return decisions
}

// tryAddNames escalates et_al_use_first until every item in an ambiguous
// group is distinguishable by its visible name list, or names run out.
// Each step that distinguishes some item sets the count for the items
// still undistinguished, so an item keeps the count at which it first
// became distinguishable.
func tryAddNames(d *Decisions, ambiguities [][]DisambData, rule GivenNameRule) {
	for _, group := range ambiguities {
		if len(group) < 2 {
			continue
		}

		maxNames := 0
		remaining := make(map[string]bool)
		for _, item := range group {
			if len(item.Names) > maxNames {
				maxNames = len(item.Names)
			}
			remaining[item.ItemID] = true
		}

		for n := 1; n <= maxNames; n++ {
			var distinguished []string
			for _, item := range group {
				if isDistinguishedAtNameCount(item, group, n, rule) {
					distinguished = append(distinguished, item.ItemID)
				}
			}
			if len(distinguished) == 0 {
				continue
			}
			for id := range remaining {
				d.EtAlUseFirst[id] = n
			}
			for _, id := range distinguished {
				delete(remaining, id)
			}
			if len(remaining) == 0 {
				break
			}
		}
	}
}

func isDistinguishedAtNameCount(item DisambData, group []DisambData, n int, rule GivenNameRule) bool {
	sig := nameSignature(item.Names, n, rule)
	for _, other := range group {
		if other.ItemID == item.ItemID {
			continue
		}
		if signaturesEqual(sig, nameSignature(other.Names, n, rule)) {
			return false
		}
	}
	return true
}

type namePart struct {
	family string
	given  string
}

// nameSignature is the visible form of the first n names under the
// given-name rule, used to decide whether two items still look alike.
func nameSignature(names []Name, n int, rule GivenNameRule) []namePart {
	if n > len(names) {
		n = len(names)
	}
	sig := make([]namePart, 0, n)
	for i := 0; i < n; i++ {
		name := names[i]
		var given string
		switch rule {
		case AllNames, ByCite:
			given = name.Given
		case AllNamesWithInitials:
			given = initials(name.Given)
		case PrimaryName:
			if i == 0 {
				given = name.Given
			}
		case PrimaryNameWithInitials:
			if i == 0 {
				given = initials(name.Given)
			}
		}
		sig = append(sig, namePart{family: name.familyKey(), given: given})
	}
	return sig
}

func signaturesEqual(a, b []namePart) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// initials reduces a given name to normalized initials: "J.J.",
// "J. J.", and "John James" all become "J. J.".
func initials(given string) string {
	parts := splitNameParts(given)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		r := []rune(part)
		out = append(out, string(r[0])+".")
	}
	return strings.Join(out, " ")
}

// normalizeGivenName collapses whitespace and period placement so
// "J. J." and "J.J." compare equal, while full words stay words.
func normalizeGivenName(given string) string {
	parts := splitNameParts(given)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if len([]rune(part)) == 1 {
			out = append(out, part+".")
		} else {
			out = append(out, part)
		}
	}
	return strings.Join(out, " ")
}

func splitNameParts(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == ' ' || r == '\t' || r == '\n'
	})
}

// tryAddGivenNames applies per-group given-name escalation (the ByCite
// rule): for each name position, items sharing a family name get
// AddInitials when initials distinguish them and AddGivenName otherwise
// (spec 8, D2).
func tryAddGivenNames(d *Decisions, ambiguities [][]DisambData, rule GivenNameRule) {
	for _, group := range ambiguities {
		if len(group) < 2 {
			continue
		}

		maxNames := 0
		for _, item := range group {
			if len(item.Names) > maxNames {
				maxNames = len(item.Names)
			}
		}
		positions := maxNames
		if rule.primaryOnly() {
			positions = 1
		}

		for pos := 0; pos < positions; pos++ {
			slots := make([]nameSlot, 0, len(group))
			for i := range group {
				var name *Name
				if pos < len(group[i].Names) {
					name = &group[i].Names[pos]
				}
				slots = append(slots, nameSlot{itemID: group[i].ItemID, name: name})
			}

			for _, s := range slots {
				if s.name == nil {
					continue
				}
				hint := hintFor(*s.name, slots, rule)
				if hint != 0 {
					d.NameHints[NameRef{ItemID: s.itemID, Name: *s.name}] = hint
				}
			}
		}
	}
}

// nameSlot pairs one item with its name at the position under review.
type nameSlot struct {
	itemID string
	name   *Name
}

func hintFor(name Name, slots []nameSlot, rule GivenNameRule) NameHint {
	var familyMatches []Name
	for _, s := range slots {
		if s.name == nil || *s.name == name {
			continue
		}
		if s.name.familyKey() == name.familyKey() {
			familyMatches = append(familyMatches, *s.name)
		}
	}
	if len(familyMatches) == 0 {
		return 0
	}

	nameInitials := initials(name.Given)
	initialsDistinguish := true
	for _, other := range familyMatches {
		if initials(other.Given) == nameInitials {
			initialsDistinguish = false
			break
		}
	}

	if rule.withInitialsOnly() || initialsDistinguish {
		return AddInitials
	}
	return AddGivenName
}

// applyGlobalNameDisambiguation handles non-ByCite rules: names sharing
// a family across ALL citations (not just ambiguous groups) get hints so
// distinct people never render identically.
func applyGlobalNameDisambiguation(d *Decisions, all []DisambData, rule GivenNameRule) {
	type ref struct {
		itemID string
		name   Name
	}
	var relevant []ref
	if rule.primaryOnly() {
		for _, data := range all {
			if len(data.Names) > 0 {
				relevant = append(relevant, ref{itemID: data.ItemID, name: data.Names[0]})
			}
		}
	} else {
		for _, data := range all {
			for _, n := range data.Names {
				relevant = append(relevant, ref{itemID: data.ItemID, name: n})
			}
		}
	}

	familyGroups := make(map[string][]ref)
	var familyOrder []string
	for _, r := range relevant {
		if r.name.Family == "" {
			continue
		}
		key := r.name.familyKey()
		if _, seen := familyGroups[key]; !seen {
			familyOrder = append(familyOrder, key)
		}
		familyGroups[key] = append(familyGroups[key], r)
	}

	for _, key := range familyOrder {
		group := familyGroups[key]

		uniqueInitials := make(map[string]bool)
		uniqueFull := make(map[string]bool)
		for _, r := range group {
			if r.name.Given != "" {
				uniqueInitials[initials(r.name.Given)] = true
				uniqueFull[normalizeGivenName(r.name.Given)] = true
			}
		}

		// All effectively the same person: nothing to distinguish.
		if len(uniqueInitials) <= 1 && len(uniqueFull) <= 1 {
			continue
		}

		initialsDistinguish := len(uniqueInitials) >= len(uniqueFull) && len(uniqueInitials) > 1

		switch {
		case rule.withInitialsOnly():
			if initialsDistinguish {
				for _, r := range group {
					d.NameHints[NameRef{ItemID: r.itemID, Name: r.name}] = AddInitials
				}
			}
		case initialsDistinguish:
			for _, r := range group {
				d.NameHints[NameRef{ItemID: r.itemID, Name: r.name}] = AddInitials
			}
		case len(uniqueFull) > 1:
			for _, r := range group {
				d.NameHints[NameRef{ItemID: r.itemID, Name: r.name}] = AddGivenName
			}
		}
	}
}

// assignYearSuffixes gives each distinct item of an ambiguous group a
// sequential suffix (1 -> a) in bibliography sort order.
func assignYearSuffixes(d *Decisions, ambiguities [][]DisambData, bibOrder func(itemID string) int) {
	for _, group := range ambiguities {
		unique := make(map[string]bool)
		for _, item := range group {
			unique[item.ItemID] = true
		}
		if len(unique) < 2 {
			continue
		}

		ids := make([]string, 0, len(unique))
		for id := range unique {
			ids = append(ids, id)
		}
		if bibOrder != nil {
			sort.Slice(ids, func(i, j int) bool {
				oi, oj := bibOrder(ids[i]), bibOrder(ids[j])
				if oi != oj {
					return oi < oj
				}
				return ids[i] < ids[j]
			})
		} else {
			sort.Strings(ids)
		}

		for idx, id := range ids {
			d.YearSuffixes[id] = idx + 1
		}
	}
}
