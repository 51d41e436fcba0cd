package subtitles

import (
	"encoding/json"
	"fmt"
	"os"
)

// target language of a subtitle stream
type Language string

const (
	LanguageJA Language = "ja"
	LanguageEN Language = "en"
	LanguageKO Language = "ko"
)

// ParseLanguage validates a language code.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LanguageJA, LanguageEN, LanguageKO:
		return Language(s), nil
	default:
		return "", fmt.Errorf("unsupported language %q: use ja, en, or ko", s)
	}
}

// Reading annotates a surface word with its phonetic reading.
// Only Japanese lines carry readings in this system.
type Reading struct {
	Surface string `json:"kanji"`
	Ruby    string `json:"yomigana"`
}

// Line is one spoken subtitle line, index-aligned with the audio clip
// list for its language.
type Line struct {
	Text     string    `json:"text"`
	Readings []Reading `json:"kanjis"`
}

// LoadLines reads a synced subtitle file (JSON array of lines).
func LoadLines(path string) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}

	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("failed to parse subtitle file %s: %w", path, err)
	}
	return lines, nil
}

// SaveLines writes lines as a synced subtitle file.
func SaveLines(lines []Line, path string) error {
	data, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
