package timeline

import "strings"

// DefaultLineWidth is the caption wrap width in display characters.
const DefaultLineWidth = 16

var breakStripper = strings.NewReplacer("\r", "", "\n", "")

// stripBreaks removes manual line breaks. Wrapping is always fully
// automatic; manual breaks in source text are not respected. Upstream
// tools sometimes insert breaks the renderer cannot honor, so the line
// index math in the layout engine assumes break-free text.
func stripBreaks(text string) string {
	return breakStripper.Replace(text)
}

// Wrap splits text into lines of at most width characters. Manual line
// breaks are stripped first. Wrapping counts characters only, with no
// word-boundary awareness, which is correct for non-spaced scripts.
// Empty input yields a single empty line.
func Wrap(text string, width int) []string {
	if width <= 0 {
		width = DefaultLineWidth
	}

	runes := []rune(stripBreaks(text))
	if len(runes) <= width {
		return []string{string(runes)}
	}

	var lines []string
	for len(runes) > width {
		lines = append(lines, string(runes[:width]))
		runes = runes[width:]
	}
	if len(runes) > 0 {
		lines = append(lines, string(runes))
	}
	return lines
}
