package timeline

import "github.com/okanehara/rubi/internal/subtitles"

// rubySpan is one mapped annotation: the reading, the surface length in
// characters, and the span's position within the line's reading list.
// The span index survives dropped spans so that grouping stays stable.
type rubySpan struct {
	Ruby   string
	Length int
	Index  int
}

// mapReadings aligns reading annotations to character offsets in clean,
// line-break-free text. Spans are matched left to right with a cursor
// that only moves forward, so a span can never match before the end of
// the previous match. A span whose surface text is not found from the
// cursor onward is dropped; its index is still consumed, leaving a gap
// in the index sequence. Dropped span indices are returned for warning
// reporting.
func mapReadings(text []rune, readings []subtitles.Reading) (map[int]rubySpan, []int) {
	mapping := make(map[int]rubySpan)
	var dropped []int

	cursor := 0
	for k, reading := range readings {
		if cursor >= len(text) {
			break
		}

		surface := []rune(reading.Surface)
		if len(surface) == 0 {
			dropped = append(dropped, k)
			continue
		}

		i := runeIndex(text, surface, cursor)
		if i < 0 {
			dropped = append(dropped, k)
			continue
		}

		mapping[i] = rubySpan{
			Ruby:   reading.Ruby,
			Length: len(surface),
			Index:  k,
		}
		cursor = i + len(surface)
	}

	return mapping, dropped
}

// runeIndex returns the first occurrence of needle in haystack at or
// after from, or -1.
func runeIndex(haystack, needle []rune, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
