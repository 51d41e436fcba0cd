// Package caption turns narration audio into timed, translated,
// reading-annotated caption records using generative AI providers.
package caption

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/okanehara/rubi/internal/subtitles"
)

// Item is one caption: timing from transcription, text per language,
// and reading annotations for the Japanese text.
type Item struct {
	Start   time.Duration
	End     time.Duration
	Speaker string

	TextJA string
	TextEN string
	TextKO string

	Readings []subtitles.Reading
}

// Text returns the caption text for a language.
func (it *Item) Text(lang subtitles.Language) string {
	switch lang {
	case subtitles.LanguageEN:
		return it.TextEN
	case subtitles.LanguageKO:
		return it.TextKO
	default:
		return it.TextJA
	}
}

// SetText stores the caption text for a language.
func (it *Item) SetText(lang subtitles.Language, text string) {
	switch lang {
	case subtitles.LanguageEN:
		it.TextEN = text
	case subtitles.LanguageKO:
		it.TextKO = text
	default:
		it.TextJA = text
	}
}

// masterItem is the on-disk form of Item in the master JSON.
type masterItem struct {
	Start   string              `json:"start"`
	End     string              `json:"end"`
	Speaker string              `json:"speaker,omitempty"`
	TextJA  string              `json:"text_ja"`
	TextEN  string              `json:"text_en,omitempty"`
	TextKO  string              `json:"text_ko,omitempty"`
	Kanjis  []subtitles.Reading `json:"kanjis"`
}

// SaveMaster writes the full multilingual caption list.
func SaveMaster(items []Item, path string) error {
	out := make([]masterItem, len(items))
	for i, it := range items {
		out[i] = masterItem{
			Start:   subtitles.FormatSRTTime(it.Start),
			End:     subtitles.FormatSRTTime(it.End),
			Speaker: it.Speaker,
			TextJA:  it.TextJA,
			TextEN:  it.TextEN,
			TextKO:  it.TextKO,
			Kanjis:  it.Readings,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Lines converts captions to synced subtitle lines for one language.
// Only Japanese lines carry readings.
func Lines(items []Item, lang subtitles.Language) []subtitles.Line {
	lines := make([]subtitles.Line, len(items))
	for i, it := range items {
		lines[i] = subtitles.Line{Text: it.Text(lang)}
		if lang == subtitles.LanguageJA {
			lines[i].Readings = it.Readings
		}
	}
	return lines
}

// Entries converts captions to timed cues for SRT output. A speaker
// label is prefixed in brackets when present.
func Entries(items []Item, lang subtitles.Language) []subtitles.Entry {
	entries := make([]subtitles.Entry, len(items))
	for i, it := range items {
		text := it.Text(lang)
		if it.Speaker != "" {
			text = fmt.Sprintf("[%s] %s", it.Speaker, text)
		}
		entries[i] = subtitles.Entry{
			Index: i + 1,
			Start: it.Start,
			End:   it.End,
			Text:  text,
		}
	}
	return entries
}
