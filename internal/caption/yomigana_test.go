package caption

import (
	"testing"
	"unicode"
)

func TestHasKanji(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"漢字", true},
		{"ひらがな", false},
		{"カタカナ", false},
		{"hello", false},
		{"食べる", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := hasKanji(tt.in); got != tt.want {
			t.Errorf("hasKanji(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKatakanaToHiragana(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"キョウ", "きょう"},
		{"テンキ", "てんき"},
		{"すでにひらがな", "すでにひらがな"},
		{"ミックスabc", "みっくすabc"},
	}
	for _, tt := range tests {
		if got := katakanaToHiragana(tt.in); got != tt.want {
			t.Errorf("katakanaToHiragana(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAnnotatorReadings(t *testing.T) {
	a, err := NewAnnotator()
	if err != nil {
		t.Fatalf("NewAnnotator returned error: %v", err)
	}

	readings := a.Readings("今日は良い天気です")
	if len(readings) == 0 {
		t.Fatal("expected readings for kanji-bearing text")
	}

	for _, r := range readings {
		if !hasKanji(r.Surface) {
			t.Errorf("surface %q carries no kanji", r.Surface)
		}
		for _, c := range r.Ruby {
			if !unicode.In(c, unicode.Hiragana) {
				t.Errorf("ruby %q for %q is not hiragana", r.Ruby, r.Surface)
			}
		}
	}
}

func TestAnnotatorSkipsKanaOnlyText(t *testing.T) {
	a, err := NewAnnotator()
	if err != nil {
		t.Fatalf("NewAnnotator returned error: %v", err)
	}

	if readings := a.Readings("こんにちは"); len(readings) != 0 {
		t.Errorf("expected no readings, got %+v", readings)
	}
}

func TestAnnotateFillsAllItems(t *testing.T) {
	a, err := NewAnnotator()
	if err != nil {
		t.Fatalf("NewAnnotator returned error: %v", err)
	}

	items := []Item{
		{TextJA: "天気です"},
		{TextJA: "はい"},
	}
	a.Annotate(items)

	if len(items[0].Readings) == 0 {
		t.Error("expected readings for the first item")
	}
	if len(items[1].Readings) != 0 {
		t.Errorf("expected no readings for kana text, got %+v", items[1].Readings)
	}
}
