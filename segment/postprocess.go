package segment

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/legal"
)

func (s *Segmenter) length(text string, sec section) int {
	return utf8.RuneCountInString(strings.TrimSpace(text[sec.start:sec.end]))
}

// mergeShort merges every segment shorter than MinSegmentLength into the
// next segment, or into the previous one when it is the last.
func (s *Segmenter) mergeShort(text string, sections []section) []section {
	for len(sections) > 1 {
		short := -1
		for i, sec := range sections {
			if s.length(text, sec) < s.cfg.MinSegmentLength {
				short = i
				break
			}
		}
		if short < 0 {
			break
		}
		if short == len(sections)-1 {
			sections[short-1] = join(sections[short-1], sections[short], sections[short-1].typ, sections[short].typ)
		} else {
			sections[short] = join(sections[short], sections[short+1], sections[short+1].typ, sections[short].typ)
			sections = append(sections[:short+1], sections[short+2:]...)
			continue
		}
		sections = sections[:short]
	}
	return sections
}

// mergeSimilarHeadings runs when too many segments are still short: adjacent
// segments whose heading vocabularies overlap are combined.
func (s *Segmenter) mergeSimilarHeadings(text string, sections []section) []section {
	if len(sections) < 2 {
		return sections
	}
	short := 0
	for _, sec := range sections {
		if s.length(text, sec) < s.cfg.ShortSegmentLength {
			short++
		}
	}
	if float64(short)/float64(len(sections)) <= s.cfg.ShortSegmentRatio {
		return sections
	}

	out := []section{sections[0]}
	for _, next := range sections[1:] {
		last := &out[len(out)-1]
		a, b := headingTokens(last.heading), headingTokens(next.heading)
		if legal.Jaccard(a, b) >= s.cfg.HeadingOverlap || legal.IsSubset(a, b) || legal.IsSubset(b, a) {
			*last = join(*last, next, last.typ, next.typ)
			continue
		}
		out = append(out, next)
	}
	return out
}

// join combines two adjacent sections. The section type is preferred unless
// it is unclassified, in which case fallback is used.
func join(a, b section, preferred, fallback core.SectionType) section {
	typ := preferred
	if typ == core.SectionUnclassified {
		typ = fallback
	}
	return section{
		start:   a.start,
		end:     b.end,
		heading: joinHeadings(a.heading, b.heading),
		typ:     typ,
	}
}

func joinHeadings(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " / " + b
}

// relabel corrects section types when the body clearly argues for another type.
func (s *Segmenter) relabel(documentID, text string, sections []section) {
	for i := range sections {
		sec := &sections[i]
		hits := indicatorHits(text[sec.start:sec.end])

		best := sec.typ
		for _, st := range core.SectionTypes {
			if hits[st] > hits[best] {
				best = st
			}
		}
		if best == sec.typ || hits[best] < s.cfg.RelabelMinHits {
			continue
		}
		if float64(hits[best]) < s.cfg.RelabelDominance*float64(hits[sec.typ]) {
			continue
		}
		s.logger.Debug("segment relabeled from body evidence",
			"document", documentID,
			"heading", sec.heading,
			"from", sec.typ.String(),
			"to", best.String(),
			"hits", hits[best])
		sec.typ = best
	}
}
