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


// Package sentence splits text into sentences with byte spans.
//
// Two splitters are provided: a Unicode splitter following UAX #29 sentence
// boundaries, and a punctuation regexp splitter for environments where the
// Unicode rules produce poor results. Both repair breaks after common German
// legal abbreviations ("Abs.", "vgl.", "i.V.m."). The implementation is
// chosen once at startup with New.
package sentence

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// ErrUnknownKind is returned by New for an unsupported splitter kind.
var ErrUnknownKind = errors.New("unknown sentence splitter")

// Sentence is one sentence of a text. Start and End are byte offsets into the
// text passed to Split, and Text == text[Start:End] with surrounding
// whitespace excluded.
type Sentence struct {
	Text  string
	Start int
	End   int
}

// Splitter splits text into ordered, non-overlapping sentences.
// Implementations must be safe for concurrent use.
type Splitter interface {
	Split(text string) []Sentence
}

// Kind names a Splitter implementation.
type Kind string

const (
	KindUnicode Kind = "unicode"
	KindRegex   Kind = "regex"
)

// New returns the splitter for kind. The empty kind selects the Unicode splitter.
func New(kind Kind) (Splitter, error) {
	switch kind {
	case "", KindUnicode:
		return NewUnicodeSplitter(), nil
	case KindRegex:
		return NewRegexSplitter(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Texts returns the text of each sentence.
func Texts(sents []Sentence) []string {
	out := make([]string, len(sents))
	for i, s := range sents {
		out[i] = s.Text
	}
	return out
}

// UnicodeSplitter splits on UAX #29 sentence boundaries.
type UnicodeSplitter struct{}

func NewUnicodeSplitter() *UnicodeSplitter {
	return &UnicodeSplitter{}
}

func (s *UnicodeSplitter) Split(text string) []Sentence {
	var raw []Sentence
	iter := sentences.FromString(text)
	for iter.Next() {
		raw = appendTrimmed(raw, text, iter.Start(), iter.End())
	}
	return repair(text, raw)
}

// RegexSplitter splits after runs of '.', '!' and '?'.
type RegexSplitter struct {
	pattern *regexp.Regexp
}

func NewRegexSplitter() *RegexSplitter {
	return &RegexSplitter{
		pattern: regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`),
	}
}

func (s *RegexSplitter) Split(text string) []Sentence {
	var raw []Sentence
	for _, loc := range s.pattern.FindAllStringIndex(text, -1) {
		raw = appendTrimmed(raw, text, loc[0], loc[1])
	}
	return repair(text, raw)
}

var (
	_ Splitter = (*UnicodeSplitter)(nil)
	_ Splitter = (*RegexSplitter)(nil)
)

func appendTrimmed(out []Sentence, text string, start, end int) []Sentence {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	if start == end {
		return out
	}
	return append(out, Sentence{Text: text[start:end], Start: start, End: end})
}

// Abbreviations that end in a period without ending the sentence.
var abbreviations = map[string]bool{
	"abs.": true, "nr.": true, "s.": true, "art.": true, "z.b.": true, "vgl.": true,
	"ggf.": true, "bzw.": true, "u.a.": true, "d.h.": true, "i.v.m.": true, "rn.": true,
	"rdnr.": true, "urt.": true, "az.": true, "f.": true, "ff.": true, "bd.": true,
	"aufl.": true, "hrsg.": true, "dr.": true, "prof.": true, "str.": true, "ziff.": true,
	"lit.": true, "u.u.": true, "insb.": true, "evtl.": true, "sog.": true, "m.w.n.": true,
	"a.a.o.": true, "allg.": true, "gem.": true, "bspw.": true, "inkl.": true, "ca.": true,
	"v.": true, "e.v.": true, "abschn.": true, "anm.": true, "beschl.": true, "no.": true,
}

var months = map[string]bool{
	"januar": true, "februar": true, "märz": true, "april": true, "mai": true, "juni": true,
	"juli": true, "august": true, "september": true, "oktober": true, "november": true, "dezember": true,
}

var ordinalEnd = regexp.MustCompile(`(?:^|\s)\d{1,2}\.$`)

// repair merges fragments produced by breaks that are not sentence ends.
func repair(text string, raw []Sentence) []Sentence {
	if len(raw) < 2 {
		return raw
	}
	out := make([]Sentence, 0, len(raw))
	out = append(out, raw[0])
	for _, next := range raw[1:] {
		last := &out[len(out)-1]
		if continues(last.Text, next.Text) {
			last.End = next.End
			last.Text = text[last.Start:last.End]
			continue
		}
		out = append(out, next)
	}
	return out
}

func continues(prev, next string) bool {
	// Enumerators and heading labels such as "I." or "1."
	if utf8.RuneCountInString(prev) <= 3 {
		return true
	}
	fields := strings.Fields(prev)
	lastWord := strings.ToLower(fields[len(fields)-1])
	if abbreviations[lastWord] {
		return true
	}
	first, _ := utf8.DecodeRuneInString(next)
	if unicode.IsLower(first) {
		return true
	}
	if ordinalEnd.MatchString(prev) {
		nextFields := strings.Fields(next)
		return months[strings.ToLower(strings.Trim(nextFields[0], ",."))]
	}
	return false
}
