package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/legal"
)

// Boundary marks the start of a section. Start is the byte offset of the
// heading line; the section extends to the next boundary.
type Boundary struct {
	Start   int
	Heading string
	// Type is a section type already determined by the strategy.
	// SectionUnclassified means the heading is classified by vocabulary.
	Type core.SectionType
}

// Strategy finds section boundaries in a document. A strategy that does not
// apply to a document returns no boundaries.
type Strategy interface {
	Name() string
	Boundaries(text string) []Boundary
}

// DefaultStrategies returns the cascade in priority order.
func DefaultStrategies(cfg Config) []Strategy {
	return []Strategy{
		&MajorHeadings{MaxHeadingLength: cfg.MaxHeadingLength},
		&NumberedHeadings{MaxHeadingLength: cfg.MaxHeadingLength},
		&KeywordHeadings{MaxHeadingLength: cfg.MaxHeadingLength, MinBodyLength: cfg.MinKeywordBodyLength},
		&CitationAnchors{MinAnchors: cfg.MinCitationAnchors, MaxHeadingLength: cfg.MaxHeadingLength},
	}
}

// line is one line of the text with its byte offset.
type line struct {
	start int
	text  string
}

func splitLines(text string) []line {
	var lines []line
	start := 0
	for start <= len(text) {
		end := strings.IndexByte(text[start:], '\n')
		if end < 0 {
			lines = append(lines, line{start: start, text: strings.TrimSuffix(text[start:], "\r")})
			break
		}
		lines = append(lines, line{start: start, text: strings.TrimSuffix(text[start:start+end], "\r")})
		start += end + 1
	}
	return lines
}

// validTitle rejects titles that read like list items or running text.
func validTitle(title string, maxLen int) bool {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > maxLen {
		return false
	}
	if strings.HasSuffix(title, ".") || strings.HasSuffix(title, ";") || strings.HasSuffix(title, ",") {
		return false
	}
	first, _ := utf8.DecodeRuneInString(title)
	return unicode.IsLetter(first)
}

// MajorHeadings matches roman numeral or capital letter headings such as
// "I. Sachverhalt" or "B. Rechtslage".
type MajorHeadings struct {
	MaxHeadingLength int
}

var majorPattern = regexp.MustCompile(`^[ \t]*((?:[IVX]{1,5}|[A-H])\.)[ \t]+(\S.*?)[ \t]*$`)

func (s *MajorHeadings) Name() string { return "major_headings" }

func (s *MajorHeadings) Boundaries(text string) []Boundary {
	return headingBoundaries(text, majorPattern, s.MaxHeadingLength)
}

// NumberedHeadings matches numbered headings such as "1. Frage" or "2.3.1 Auslegung".
type NumberedHeadings struct {
	MaxHeadingLength int
}

var numberedPattern = regexp.MustCompile(`^[ \t]*(\d{1,2}\.(?:\d{1,2}\.?)*)[ \t]+(\S.*?)[ \t]*$`)

func (s *NumberedHeadings) Name() string { return "numbered_headings" }

func (s *NumberedHeadings) Boundaries(text string) []Boundary {
	return headingBoundaries(text, numberedPattern, s.MaxHeadingLength)
}

func headingBoundaries(text string, pattern *regexp.Regexp, maxLen int) []Boundary {
	var out []Boundary
	for _, l := range splitLines(text) {
		m := pattern.FindStringSubmatch(l.text)
		if m == nil || !validTitle(m[2], maxLen) {
			continue
		}
		out = append(out, Boundary{Start: l.start, Heading: m[1] + " " + m[2]})
	}
	return out
}

// KeywordHeadings matches short lines built around a section name from the
// heading vocabulary ("Sachverhalt", "Rechtliche Würdigung:", "Zur Frage").
// A candidate is kept only when its body is long enough, contains a complete
// sentence and does not open with a statute quotation.
type KeywordHeadings struct {
	MaxHeadingLength int
	MinBodyLength    int
}

const maxKeywordHeadingWords = 6

var sentencePattern = regexp.MustCompile(`\p{Lu}[^.!?]*\s[^.!?]*[.!?]`)

func (s *KeywordHeadings) Name() string { return "keyword_headings" }

func (s *KeywordHeadings) Boundaries(text string) []Boundary {
	type candidate struct {
		Boundary
		bodyStart int
	}
	var candidates []candidate
	for _, l := range splitLines(text) {
		heading, rest, ok := s.match(l.text)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{
			Boundary:  Boundary{Start: l.start, Heading: heading, Type: classifyHeading(heading)},
			bodyStart: l.start + len(l.text) - len(rest),
		})
	}

	var out []Boundary
	for i, c := range candidates {
		end := len(text)
		if i+1 < len(candidates) {
			end = candidates[i+1].Start
		}
		if s.validBody(text[c.bodyStart:end]) {
			out = append(out, c.Boundary)
		}
	}
	return out
}

// match reports whether a line is a keyword heading, returning the heading
// and any body text following a colon on the same line.
func (s *KeywordHeadings) match(text string) (heading, rest string, ok bool) {
	candidate := strings.TrimSpace(text)
	if i := strings.Index(candidate, ":"); i >= 0 {
		rest = strings.TrimSpace(candidate[i+1:])
		candidate = strings.TrimSpace(candidate[:i])
	}
	if len(strings.Fields(candidate)) > maxKeywordHeadingWords {
		return "", "", false
	}
	if !validTitle(candidate, s.MaxHeadingLength) {
		return "", "", false
	}
	if classifyHeading(candidate) == core.SectionUnclassified {
		return "", "", false
	}
	return candidate, rest, true
}

func (s *KeywordHeadings) validBody(body string) bool {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) < s.MinBodyLength {
		return false
	}
	if quotesStatute(body) {
		return false
	}
	return sentencePattern.MatchString(body)
}

func quotesStatute(body string) bool {
	body = strings.TrimLeft(body, "„\"»'“ ")
	return strings.HasPrefix(body, "§") || strings.HasPrefix(body, "Art.") || strings.HasPrefix(body, "Artikel")
}

// CitationAnchors starts a section at every line that opens with a statutory
// reference ("§ 2325 BGB", "Art. 25 EGBGB"). Fewer than MinAnchors anchors
// are not meaningful and yield no boundaries.
type CitationAnchors struct {
	MinAnchors       int
	MaxHeadingLength int
}

var citationLine = regexp.MustCompile(`^[ \t]*(?:§§?|Art\.)[ \t]*\d`)

func (s *CitationAnchors) Name() string { return "citation_anchors" }

func (s *CitationAnchors) Boundaries(text string) []Boundary {
	var out []Boundary
	for _, l := range splitLines(text) {
		if !citationLine.MatchString(l.text) {
			continue
		}
		heading := strings.TrimSpace(l.text)
		if norms := legal.ExtractNorms(heading); len(norms) > 0 {
			heading = norms[0].String()
		} else if utf8.RuneCountInString(heading) > s.MaxHeadingLength {
			heading = string([]rune(heading)[:s.MaxHeadingLength])
		}
		out = append(out, Boundary{Start: l.start, Heading: heading, Type: core.SectionLegalAnalysis})
	}
	if len(out) < s.MinAnchors {
		return nil
	}
	return out
}

var (
	_ Strategy = (*MajorHeadings)(nil)
	_ Strategy = (*NumberedHeadings)(nil)
	_ Strategy = (*KeywordHeadings)(nil)
	_ Strategy = (*CitationAnchors)(nil)
)
