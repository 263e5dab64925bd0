package cluster

import (
	"regexp"
	"unicode/utf8"
)

// span is a byte range of the text being chunked.
type span struct {
	start, end int
}

var wordPattern = regexp.MustCompile(`\S+`)

// words returns the word spans of text. Words longer than maxRunes are cut
// into pieces of maxRunes runes.
func words(text string, maxRunes int) []span {
	var out []span
	for _, loc := range wordPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		for utf8.RuneCountInString(text[start:end]) > maxRunes {
			cut := start
			for range maxRunes {
				_, size := utf8.DecodeRuneInString(text[cut:])
				cut += size
			}
			out = append(out, span{start, cut})
			start = cut
		}
		out = append(out, span{start, end})
	}
	return out
}

// wordRange is a half-open range of word indexes.
type wordRange struct {
	from, to int
}

// runes returns the length of the text covered by ws[from:to].
func runes(text string, ws []span, from, to int) int {
	return utf8.RuneCountInString(text[ws[from].start:ws[to-1].end])
}

// pack groups consecutive words into ranges of at most maxRunes. A short
// trailing range is balanced against its predecessor, so every range
// reaches minRunes whenever the whole text does.
func pack(text string, ws []span, minRunes, maxRunes int) []wordRange {
	var out []wordRange
	for from := 0; from < len(ws); {
		to := from + 1
		for to < len(ws) && runes(text, ws, from, to+1) <= maxRunes {
			to++
		}
		out = append(out, wordRange{from, to})
		from = to
	}

	n := len(out)
	if n < 2 || runes(text, ws, out[n-1].from, out[n-1].to) >= minRunes {
		return out
	}
	from, to := out[n-2].from, out[n-1].to
	if runes(text, ws, from, to) <= maxRunes {
		out[n-2] = wordRange{from, to}
		return out[:n-1]
	}
	best, bestDiff := -1, -1
	for mid := from + 1; mid < to; mid++ {
		left, right := runes(text, ws, from, mid), runes(text, ws, mid, to)
		if left > maxRunes || right > maxRunes {
			continue
		}
		diff := left - right
		if diff < 0 {
			diff = -diff
		}
		if best < 0 || diff < bestDiff {
			best, bestDiff = mid, diff
		}
	}
	if best >= 0 {
		out[n-2] = wordRange{from, best}
		out[n-1] = wordRange{best, to}
	}
	return out
}

// windows returns overlapping ranges of up to size words, each capped at
// maxRunes. A short final window is widened backwards until it reaches
// minRunes.
func windows(text string, ws []span, size, overlap, minRunes, maxRunes int) []wordRange {
	if len(ws) == 0 {
		return nil
	}
	var out []wordRange
	for from := 0; ; {
		to := min(from+size, len(ws))
		for to > from+1 && runes(text, ws, from, to) > maxRunes {
			to--
		}
		out = append(out, wordRange{from, to})
		if to == len(ws) {
			break
		}
		next := to - overlap
		if next <= from {
			next = from + 1
		}
		from = next
	}

	if n := len(out); n >= 2 {
		last := &out[n-1]
		for last.from > 0 &&
			runes(text, ws, last.from, last.to) < minRunes &&
			runes(text, ws, last.from-1, last.to) <= maxRunes {
			last.from--
		}
	}
	return out
}
