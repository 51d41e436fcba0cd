package timeline

import (
	"fmt"
	"strings"

	"github.com/okanehara/rubi/internal/subtitles"
)

// Caption placement constants. The vertical values were tuned visually
// against the target renderer, whose coordinate conventions are not
// documented; treat them as a unit and re-validate on screen rather
// than deriving new ones.
const (
	mainAnchorX = 0.5052
	mainAnchorY = 0.6944

	rubyStackY  = -0.4   // vertical center of the wrapped line block
	lineHeight  = 0.2    // spacing between wrapped lines
	rubyYOffset = -1.185 // subtracted from a line's Y to sit above it
	rubyScale   = 0.6

	fullCharWidth = 0.0580 // CJK and other full-width characters
	halfCharWidth = 0.0290 // ASCII range
)

// charWidth implements the two-class width model: single-byte
// characters take half a cell, everything else a full cell.
func charWidth(c rune) float64 {
	if c < 128 {
		return halfCharWidth
	}
	return fullCharWidth
}

// LayoutResult holds positioned caption segments. Ruby tracks are
// ordered by annotation slot: the first annotation of every line lands
// on the first track, the second on the next, and so on, so annotations
// within one line never share a track.
type LayoutResult struct {
	Main     Track
	Ruby     []Track
	Warnings []Warning
}

// Layout positions main captions and their stacked ruby annotations.
type Layout struct {
	// MaxLineWidth is the wrap width in display characters; zero means
	// DefaultLineWidth.
	MaxLineWidth int
}

func (l *Layout) width() int {
	if l.MaxLineWidth > 0 {
		return l.MaxLineWidth
	}
	return DefaultLineWidth
}

// Captions lays out subtitle lines against the built audio track.
// Line i takes its timing from audio segment i, always: timing embedded
// in the subtitle data is ignored so captions can never drift from the
// audio. Lines beyond the audio segment count are skipped and reported.
func (l *Layout) Captions(lines []subtitles.Line, audio Track) LayoutResult {
	result := LayoutResult{
		Main: Track{Type: TrackText},
	}

	count := len(lines)
	if len(audio.Segments) < count {
		count = len(audio.Segments)
		result.Warnings = append(result.Warnings, Warning{
			Reason: fmt.Sprintf(
				"%d subtitle lines but only %d audio segments: excess lines skipped",
				len(lines), len(audio.Segments)),
		})
	}

	rubyByIndex := make(map[int][]Segment)
	maxRubyIndex := -1
	renderIndex := 0

	for i := 0; i < count; i++ {
		seg := audio.Segments[i]
		if seg.Target.Duration <= 0 {
			result.Warnings = append(result.Warnings, Warning{
				Index:  i,
				Reason: "audio segment has zero duration: line skipped",
			})
			continue
		}

		clean := []rune(stripBreaks(lines[i].Text))
		mapping, droppedSpans := mapReadings(clean, lines[i].Readings)
		for _, spanIdx := range droppedSpans {
			result.Warnings = append(result.Warnings, Warning{
				Index: i,
				Reason: fmt.Sprintf(
					"reading %d (%q) not found in line text: annotation dropped",
					spanIdx, lines[i].Readings[spanIdx].Surface),
			})
		}

		wrapped := Wrap(string(clean), l.width())

		result.Main.Segments = append(result.Main.Segments, Segment{
			Type:        TrackText,
			Content:     strings.Join(wrapped, "\n"),
			Source:      TimeRange{Start: 0, Duration: seg.Target.Duration},
			Target:      seg.Target,
			RenderIndex: renderIndex,
			Position:    &Position{X: mainAnchorX, Y: mainAnchorY, Scale: 1.0},
		})

		// the wrapped block is vertically centered on the stack anchor;
		// line 0 sits highest and later lines step down
		topY := rubyStackY + float64(len(wrapped)-1)*lineHeight*0.5

		offset := 0
		for lineIdx, lineText := range wrapped {
			lineRunes := []rune(lineText)
			baseY := topY - float64(lineIdx)*lineHeight

			var lineWidth float64
			for _, c := range lineRunes {
				lineWidth += charWidth(c)
			}

			x := 0.5 - lineWidth/2

			for charIdx, c := range lineRunes {
				if span, ok := mapping[offset]; ok {
					// a span straddling the wrap boundary is truncated
					// to the characters left on this line, not wrapped
					spanLen := span.Length
					if remaining := len(lineRunes) - charIdx; remaining < spanLen {
						spanLen = remaining
					}

					var groupWidth float64
					for k := 0; k < spanLen; k++ {
						groupWidth += charWidth(lineRunes[charIdx+k])
					}

					rubyByIndex[span.Index] = append(rubyByIndex[span.Index], Segment{
						Type:        TrackText,
						Ruby:        true,
						Content:     span.Ruby,
						Source:      TimeRange{Start: 0, Duration: seg.Target.Duration},
						Target:      seg.Target,
						RenderIndex: renderIndex,
						Position: &Position{
							X:     x + groupWidth/2,
							Y:     baseY - rubyYOffset,
							Scale: rubyScale,
						},
					})
					if span.Index > maxRubyIndex {
						maxRubyIndex = span.Index
					}
				}

				x += charWidth(c)
				offset++
			}
		}

		renderIndex++
	}

	// one track per annotation slot, in slot order; slots left empty by
	// dropped spans are simply absent
	for idx := 0; idx <= maxRubyIndex; idx++ {
		if segs, ok := rubyByIndex[idx]; ok {
			result.Ruby = append(result.Ruby, Track{Type: TrackText, Segments: segs})
		}
	}

	return result
}
