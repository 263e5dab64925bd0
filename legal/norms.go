// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package legal

import (
	"regexp"
	"slices"
	"strings"

	"github.com/poiesic/lexis/core"
)

// LawAbbreviations is the fixed set of codified-law abbreviations recognized
// in citations.
var LawAbbreviations = []string{
	"BGB", "EGBGB", "HGB", "StGB", "StPO", "ZPO", "GG", "GmbHG", "AktG", "UmwG",
	"BeurkG", "BNotO", "GNotKG", "GBO", "ZVG", "WEG", "ErbbauRG", "BauGB",
	"ErbStG", "GrEStG", "EStG", "UStG", "AO", "FamFG", "LPartG", "VersAusglG",
	"InsO", "AnfG", "VwVfG", "VwGO", "GVG", "BetrVG", "KSchG", "PStG", "GenG",
}

var (
	lawSet = func() map[string]bool {
		m := make(map[string]bool, len(LawAbbreviations))
		for _, law := range LawAbbreviations {
			m[strings.ToLower(law)] = true
		}
		return m
	}()

	// §, §§, Art. or Artikel; one or more paragraph numbers; optional
	// Abs./Satz/Nr. qualifiers; a known law abbreviation.
	normPattern = regexp.MustCompile(
		`(§§?|Art\.|Artikel)\s*` +
			`(\d+[a-z]?(?:\s*(?:,|und|bis|-|–)\s*\d+[a-z]?)*)` +
			`(?:\s+Abs\.\s*(\d+))?` +
			`(?:\s+(?:S\.|Satz)\s*\d+)?` +
			`(?:\s+(?:Nr\.|Ziff\.)\s*\d+[a-z]?)?` +
			`\s+(` + alternation(LawAbbreviations) + `)\b`)

	// A bare "280 BGB" without a section sign.
	barePattern = regexp.MustCompile(`\b(\d+[a-z]?)\s+(` + alternation(LawAbbreviations) + `)\b`)

	paragraphPattern = regexp.MustCompile(`\d+[a-z]?`)
)

// Words that, directly before a bare number, make it part of a longer citation.
var qualifierSuffixes = []string{"Abs.", "S.", "Satz", "Nr.", "Ziff.", ",", "und", "bis", "-", "–", "§", "§§", "Art.", "Artikel"}

// alternation orders abbreviations longest first so that the regexp prefers
// "GmbHG" over "G..." prefixes.
func alternation(words []string) string {
	sorted := slices.Clone(words)
	slices.SortStableFunc(sorted, func(a, b string) int {
		return len(b) - len(a)
	})
	for i, w := range sorted {
		sorted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(sorted, "|")
}

// IsLawAbbreviation reports whether word (any case) is a known law abbreviation.
func IsLawAbbreviation(word string) bool {
	return lawSet[strings.ToLower(word)]
}

// ExtractNorms finds statutory citations in text, in order of appearance,
// without duplicates. A list citation such as "§§ 280, 281 BGB" yields one
// norm per paragraph; a bare "280 BGB" is read as a section.
func ExtractNorms(text string) []core.LegalNorm {
	type found struct {
		pos  int
		norm core.LegalNorm
	}
	var hits []found

	qualified := normPattern.FindAllStringSubmatchIndex(text, -1)
	for _, m := range qualified {
		kind := "§"
		if strings.HasPrefix(text[m[2]:m[3]], "Art") {
			kind = "Art."
		}
		subsection := ""
		if m[6] >= 0 {
			subsection = text[m[6]:m[7]]
		}
		law := text[m[8]:m[9]]
		paragraphs := paragraphPattern.FindAllString(text[m[4]:m[5]], -1)
		for i, p := range paragraphs {
			norm := core.LegalNorm{Kind: kind, Paragraph: p, Law: law}
			// The Abs. qualifier follows the last paragraph of a list.
			if i == len(paragraphs)-1 {
				norm.Subsection = subsection
			}
			hits = append(hits, found{pos: m[0], norm: norm})
		}
	}

	for _, m := range barePattern.FindAllStringSubmatchIndex(text, -1) {
		if insideAny(m[0], qualified) || qualifiedBefore(text[:m[0]]) {
			continue
		}
		norm := core.LegalNorm{Kind: "§", Paragraph: text[m[2]:m[3]], Law: text[m[4]:m[5]]}
		hits = append(hits, found{pos: m[0], norm: norm})
	}

	if len(hits) == 0 {
		return nil
	}
	slices.SortStableFunc(hits, func(a, b found) int { return a.pos - b.pos })

	seen := make(map[core.LegalNorm]bool, len(hits))
	norms := make([]core.LegalNorm, 0, len(hits))
	for _, h := range hits {
		if seen[h.norm] {
			continue
		}
		seen[h.norm] = true
		norms = append(norms, h.norm)
	}
	return norms
}

func insideAny(pos int, spans [][]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

func qualifiedBefore(prefix string) bool {
	prefix = strings.TrimRight(prefix, " \t\n")
	for _, q := range qualifierSuffixes {
		if strings.HasSuffix(prefix, q) {
			return true
		}
	}
	return false
}

// NormStrings renders norms in their canonical form, dropping duplicates
// that differ only by subsection.
func NormStrings(norms []core.LegalNorm) []string {
	if len(norms) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(norms))
	out := make([]string, 0, len(norms))
	for _, n := range norms {
		s := n.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
