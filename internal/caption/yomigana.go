package caption

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/okanehara/rubi/internal/subtitles"
)

// Annotator extracts reading annotations from Japanese caption text
// with a morphological analyzer.
type Annotator struct {
	tok *tokenizer.Tokenizer
}

func NewAnnotator() (*Annotator, error) {
	tok, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}
	return &Annotator{tok: tok}, nil
}

// Readings returns one annotation per kanji-bearing token, in text
// order. Tokens without kanji or without a dictionary reading are
// passed over.
func (a *Annotator) Readings(text string) []subtitles.Reading {
	var readings []subtitles.Reading
	for _, token := range a.tok.Tokenize(text) {
		if !hasKanji(token.Surface) {
			continue
		}
		reading, ok := token.Reading()
		if !ok || reading == "" || reading == "*" {
			continue
		}
		readings = append(readings, subtitles.Reading{
			Surface: token.Surface,
			Ruby:    katakanaToHiragana(reading),
		})
	}
	return readings
}

// Annotate fills the reading list of every caption from its Japanese
// text.
func (a *Annotator) Annotate(items []Item) {
	for i := range items {
		items[i].Readings = a.Readings(items[i].TextJA)
	}
}

func hasKanji(s string) bool {
	for _, c := range s {
		if c >= 0x4e00 && c <= 0x9fff {
			return true
		}
	}
	return false
}

// dictionary readings come back in katakana; ruby text is
// conventionally hiragana
func katakanaToHiragana(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, c := range s {
		if c >= 0x30a1 && c <= 0x30f6 {
			c -= 0x60
		}
		sb.WriteRune(c)
	}
	return sb.String()
}
