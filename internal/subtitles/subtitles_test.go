package subtitles

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLines(t *testing.T) {
	content := `[
  {"text": "今日は良い天気です", "kanjis": [
    {"kanji": "今日", "yomigana": "きょう"},
    {"kanji": "天気", "yomigana": "てんき"}
  ]},
  {"text": "Hello", "kanjis": []}
]`
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "ja.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	lines, err := LoadLines(path)
	if err != nil {
		t.Fatalf("LoadLines returned error: %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text != "今日は良い天気です" {
		t.Errorf("unexpected text: %q", lines[0].Text)
	}
	if len(lines[0].Readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(lines[0].Readings))
	}
	if lines[0].Readings[0].Surface != "今日" || lines[0].Readings[0].Ruby != "きょう" {
		t.Errorf("unexpected reading: %+v", lines[0].Readings[0])
	}
}

func TestSaveLinesRoundTrip(t *testing.T) {
	lines := []Line{
		{Text: "一行目", Readings: []Reading{{Surface: "一", Ruby: "いち"}}},
		{Text: "二行目"},
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := SaveLines(lines, path); err != nil {
		t.Fatalf("SaveLines returned error: %v", err)
	}

	loaded, err := LoadLines(path)
	if err != nil {
		t.Fatalf("LoadLines returned error: %v", err)
	}
	if len(loaded) != 2 || loaded[0].Text != "一行目" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if loaded[0].Readings[0].Ruby != "いち" {
		t.Errorf("reading lost in round trip: %+v", loaded[0].Readings)
	}
}

func TestLoadLinesMissingFileErrors(t *testing.T) {
	_, err := LoadLines(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseLanguage(t *testing.T) {
	for _, code := range []string{"ja", "en", "ko"} {
		lang, err := ParseLanguage(code)
		if err != nil {
			t.Errorf("ParseLanguage(%q) returned error: %v", code, err)
		}
		if string(lang) != code {
			t.Errorf("ParseLanguage(%q) = %q", code, lang)
		}
	}

	if _, err := ParseLanguage("fr"); err == nil {
		t.Error("expected error for unsupported language")
	}
}
