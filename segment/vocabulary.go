package segment

import (
	"regexp"
	"strings"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/legal"
)

// headingWords maps lowercase heading words to the section they introduce.
var headingWords = map[string]core.SectionType{
	"sachverhalt":   core.SectionFactPattern,
	"tatbestand":    core.SectionFactPattern,
	"sachlage":      core.SectionFactPattern,
	"ausgangslage":  core.SectionFactPattern,
	"tatsachen":     core.SectionFactPattern,
	"facts":         core.SectionFactPattern,
	"background":    core.SectionFactPattern,
	"frage":         core.SectionLegalQuestion,
	"fragen":        core.SectionLegalQuestion,
	"fragestellung": core.SectionLegalQuestion,
	"rechtsfrage":   core.SectionLegalQuestion,
	"rechtsfragen":  core.SectionLegalQuestion,
	"anfrage":       core.SectionLegalQuestion,
	"question":      core.SectionLegalQuestion,
	"questions":     core.SectionLegalQuestion,
	"issue":         core.SectionLegalQuestion,
	"issues":        core.SectionLegalQuestion,

	"rechtslage":          core.SectionLegalAnalysis,
	"würdigung":           core.SectionLegalAnalysis,
	"gutachten":           core.SectionLegalAnalysis,
	"entscheidungsgründe": core.SectionLegalAnalysis,
	"stellungnahme":       core.SectionLegalAnalysis,
	"prüfung":             core.SectionLegalAnalysis,
	"analysis":            core.SectionLegalAnalysis,
	"discussion":          core.SectionLegalAnalysis,

	"ergebnis":          core.SectionConclusion,
	"ergebnisse":        core.SectionConclusion,
	"zusammenfassung":   core.SectionConclusion,
	"fazit":             core.SectionConclusion,
	"schlussbemerkung":  core.SectionConclusion,
	"conclusion":        core.SectionConclusion,
	"conclusions":       core.SectionConclusion,
	"summary":           core.SectionConclusion,
	"einleitung":        core.SectionIntroduction,
	"vorbemerkung":      core.SectionIntroduction,
	"vorbemerkungen":    core.SectionIntroduction,
	"introduction":      core.SectionIntroduction,
	"überblick":         core.SectionIntroduction,
	"gutachtenauftrag":  core.SectionIntroduction,
}

// indicators are body phrases that count as evidence for a section type.
var indicators = map[core.SectionType][]string{
	core.SectionFactPattern: {
		"sachverhalt", "mitgeteilt", "verstarb", "verstorben", "hinterließ",
		"erwarb", "beabsichtig", "eigentümer", "tatbestand",
	},
	core.SectionLegalQuestion: {
		"frage", "gefragt", "bitte um", "zu klären", "klärungsbedürftig",
	},
	core.SectionLegalAnalysis: {
		"würdigung", "rechtslage", "rechtsprechung", "auffassung", "herrschende meinung",
		"voraussetzung", "auslegung", "anwendbar", "entscheidungsgründe", "bgh",
	},
	core.SectionConclusion: {
		"ergebnis", "zusammenfassend", "fazit", "folglich", "somit",
	},
	core.SectionIntroduction: {
		"vorbemerkung", "einleitung", "vorab", "gutachtenauftrag",
	},
}

// classifyHeading returns the section type of the first vocabulary word in
// heading, or SectionUnclassified.
func classifyHeading(heading string) core.SectionType {
	for _, token := range legal.Tokenize(heading) {
		if st, ok := headingWords[token]; ok {
			return st
		}
	}
	return core.SectionUnclassified
}

// indicatorHits counts indicator phrases per section type in body.
func indicatorHits(body string) map[core.SectionType]int {
	lowered := legal.Lower(legal.Normalize(body))
	hits := make(map[core.SectionType]int, len(indicators))
	for st, phrases := range indicators {
		for _, p := range phrases {
			hits[st] += strings.Count(lowered, p)
		}
	}
	return hits
}

// headingTokens returns the content tokens of a heading. Leading
// enumerators such as "I.", "b)" or "2.3" are dropped from each part of a
// joined heading.
func headingTokens(heading string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, part := range strings.Split(heading, " / ") {
		part = enumeratorPrefix.ReplaceAllString(part, "")
		for _, token := range legal.Tokenize(part) {
			set[token] = struct{}{}
		}
	}
	return set
}

var enumeratorPrefix = regexp.MustCompile(`^\s*(?:[IVXLC]+\.|[A-Za-z][.)]|\d{1,2}(?:\.\d{1,2})*\.?)\s+`)
