package timeline

import (
	"math"
	"strings"
	"testing"

	"github.com/okanehara/rubi/internal/subtitles"
)

func audioTrackFor(durations ...int64) Track {
	tr := Track{Type: TrackAudio}
	var cursor int64
	for i, d := range durations {
		tr.Segments = append(tr.Segments, Segment{
			Type:        TrackAudio,
			Target:      TimeRange{Start: cursor, Duration: d},
			RenderIndex: i,
		})
		cursor += d
	}
	return tr
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLayoutCopiesTimingFromAudio(t *testing.T) {
	lines := []subtitles.Line{
		{Text: "こんにちは"},
		{Text: "さようなら"},
	}
	audio := audioTrackFor(3_000_000, 2_000_000)

	var l Layout
	result := l.Captions(lines, audio)

	if len(result.Main.Segments) != 2 {
		t.Fatalf("expected 2 main segments, got %d", len(result.Main.Segments))
	}
	for i, seg := range result.Main.Segments {
		if seg.Target != audio.Segments[i].Target {
			t.Errorf("segment %d target: got %+v, want %+v",
				i, seg.Target, audio.Segments[i].Target)
		}
		if seg.Source.Start != 0 || seg.Source.Duration != audio.Segments[i].Target.Duration {
			t.Errorf("segment %d source: got %+v", i, seg.Source)
		}
	}
}

func TestLayoutMainCaptionAnchor(t *testing.T) {
	lines := []subtitles.Line{{Text: "こんにちは"}}
	audio := audioTrackFor(1_000_000)

	var l Layout
	result := l.Captions(lines, audio)

	pos := result.Main.Segments[0].Position
	if pos == nil {
		t.Fatal("main segment has no position")
	}
	if !almostEqual(pos.X, 0.5052) || !almostEqual(pos.Y, 0.6944) || !almostEqual(pos.Scale, 1.0) {
		t.Errorf("unexpected main anchor: %+v", pos)
	}
}

func TestLayoutWrapsContentIntoMainSegment(t *testing.T) {
	lines := []subtitles.Line{{Text: strings.Repeat("あ", 20)}}
	audio := audioTrackFor(1_000_000)

	var l Layout
	result := l.Captions(lines, audio)

	content := result.Main.Segments[0].Content
	parts := strings.Split(content, "\n")
	if len(parts) != 2 {
		t.Fatalf("expected 2 wrapped lines in content, got %q", content)
	}
	if len([]rune(parts[0])) != 16 {
		t.Errorf("expected first wrapped line of 16 chars, got %d", len([]rune(parts[0])))
	}
}

func TestLayoutRubyPositionSingleLine(t *testing.T) {
	lines := []subtitles.Line{{
		Text: "今日は良い天気です",
		Readings: []subtitles.Reading{
			{Surface: "今日", Ruby: "きょう"},
			{Surface: "天気", Ruby: "てんき"},
		},
	}}
	audio := audioTrackFor(2_000_000)

	var l Layout
	result := l.Captions(lines, audio)

	if len(result.Ruby) != 2 {
		t.Fatalf("expected 2 ruby tracks, got %d", len(result.Ruby))
	}

	// 9 full-width chars: the line spans 0.522 centered on 0.5
	lineStart := 0.5 - 9*0.0580/2

	first := result.Ruby[0].Segments[0]
	if first.Content != "きょう" {
		t.Errorf("expected きょう, got %q", first.Content)
	}
	if !almostEqual(first.Position.X, lineStart+0.0580) {
		t.Errorf("first ruby X: got %v, want %v", first.Position.X, lineStart+0.0580)
	}
	// single wrapped line sits at the stack anchor; ruby floats above it
	if !almostEqual(first.Position.Y, -0.4+1.185) {
		t.Errorf("first ruby Y: got %v, want %v", first.Position.Y, -0.4+1.185)
	}
	if !almostEqual(first.Position.Scale, 0.6) {
		t.Errorf("ruby scale: got %v", first.Position.Scale)
	}
	if !first.Ruby {
		t.Error("ruby segment not flagged")
	}

	second := result.Ruby[1].Segments[0]
	if second.Content != "てんき" {
		t.Errorf("expected てんき, got %q", second.Content)
	}
	if !almostEqual(second.Position.X, lineStart+5*0.0580+0.0580) {
		t.Errorf("second ruby X: got %v", second.Position.X)
	}
}

func TestLayoutHalfWidthCharsNarrowTheLine(t *testing.T) {
	lines := []subtitles.Line{{
		Text: "ABCD漢字",
		Readings: []subtitles.Reading{
			{Surface: "漢字", Ruby: "かんじ"},
		},
	}}
	audio := audioTrackFor(1_000_000)

	var l Layout
	result := l.Captions(lines, audio)

	// 4 ASCII chars at half width plus 2 full-width chars
	lineWidth := 4*0.0290 + 2*0.0580
	lineStart := 0.5 - lineWidth/2
	wantX := lineStart + 4*0.0290 + 0.0580

	got := result.Ruby[0].Segments[0].Position.X
	if !almostEqual(got, wantX) {
		t.Errorf("ruby X: got %v, want %v", got, wantX)
	}
}

func TestLayoutSpanTruncatedAtWrapBoundary(t *testing.T) {
	// the span starts on the last character of the first wrapped line
	text := strings.Repeat("あ", 15) + "漢字語"
	lines := []subtitles.Line{{
		Text: text,
		Readings: []subtitles.Reading{
			{Surface: "漢字語", Ruby: "かんじご"},
		},
	}}
	audio := audioTrackFor(1_000_000)

	var l Layout
	result := l.Captions(lines, audio)

	if len(result.Ruby) != 1 {
		t.Fatalf("expected 1 ruby track, got %d", len(result.Ruby))
	}
	segs := result.Ruby[0].Segments
	if len(segs) != 1 {
		t.Fatalf("a truncated span yields one segment, got %d", len(segs))
	}

	// only one character of the span is left on the line, so the ruby
	// centers over that character
	lineStart := 0.5 - 16*0.0580/2
	wantX := lineStart + 15*0.0580 + 0.0580/2
	if !almostEqual(segs[0].Position.X, wantX) {
		t.Errorf("truncated ruby X: got %v, want %v", segs[0].Position.X, wantX)
	}
}

func TestLayoutMultiLineRubyStacking(t *testing.T) {
	// 21 chars wrap into two lines; a span on each line
	text := "今日" + strings.Repeat("あ", 14) + "出発します"
	lines := []subtitles.Line{{
		Text: text,
		Readings: []subtitles.Reading{
			{Surface: "今日", Ruby: "きょう"},
			{Surface: "出発", Ruby: "しゅっぱつ"},
		},
	}}
	audio := audioTrackFor(1_000_000)

	var l Layout
	result := l.Captions(lines, audio)

	if len(result.Ruby) != 2 {
		t.Fatalf("expected 2 ruby tracks, got %d", len(result.Ruby))
	}

	// two wrapped lines: top line sits half a line height above the
	// stack anchor, the second a full line height below the first
	topY := -0.4 + 0.2*0.5
	first := result.Ruby[0].Segments[0]
	if !almostEqual(first.Position.Y, topY+1.185) {
		t.Errorf("line 0 ruby Y: got %v, want %v", first.Position.Y, topY+1.185)
	}
	second := result.Ruby[1].Segments[0]
	if !almostEqual(second.Position.Y, topY-0.2+1.185) {
		t.Errorf("line 1 ruby Y: got %v, want %v", second.Position.Y, topY-0.2+1.185)
	}
}

func TestLayoutGroupsRubyBySpanIndex(t *testing.T) {
	lines := []subtitles.Line{
		{
			Text: "今日は天気",
			Readings: []subtitles.Reading{
				{Surface: "今日", Ruby: "きょう"},
				{Surface: "天気", Ruby: "てんき"},
			},
		},
		{
			Text: "明日は雨",
			Readings: []subtitles.Reading{
				{Surface: "明日", Ruby: "あした"},
				{Surface: "雨", Ruby: "あめ"},
			},
		},
	}
	audio := audioTrackFor(1_000_000, 1_000_000)

	var l Layout
	result := l.Captions(lines, audio)

	if len(result.Ruby) != 2 {
		t.Fatalf("expected 2 ruby tracks, got %d", len(result.Ruby))
	}
	// first track carries the first annotation of every line
	if got := len(result.Ruby[0].Segments); got != 2 {
		t.Errorf("track 0: expected 2 segments, got %d", got)
	}
	if result.Ruby[0].Segments[0].Content != "きょう" || result.Ruby[0].Segments[1].Content != "あした" {
		t.Errorf("track 0 contents: %q, %q",
			result.Ruby[0].Segments[0].Content, result.Ruby[0].Segments[1].Content)
	}
	if result.Ruby[1].Segments[0].Content != "てんき" || result.Ruby[1].Segments[1].Content != "あめ" {
		t.Errorf("track 1 contents: %q, %q",
			result.Ruby[1].Segments[0].Content, result.Ruby[1].Segments[1].Content)
	}
}

func TestLayoutSkipsZeroDurationLines(t *testing.T) {
	lines := []subtitles.Line{
		{Text: "一行目"},
		{Text: "二行目"},
		{Text: "三行目"},
	}
	audio := audioTrackFor(1_000_000, 0, 1_000_000)

	var l Layout
	result := l.Captions(lines, audio)

	if len(result.Main.Segments) != 2 {
		t.Fatalf("expected 2 main segments, got %d", len(result.Main.Segments))
	}
	if result.Main.Segments[1].Content != "三行目" {
		t.Errorf("expected the third line after the skip, got %q",
			result.Main.Segments[1].Content)
	}

	found := false
	for _, w := range result.Warnings {
		if w.Index == 1 {
			found = true
		}
	}
	if !found {
		t.Error("expected a warning for the zero-duration line")
	}
}

func TestLayoutExcessLinesWarn(t *testing.T) {
	lines := []subtitles.Line{
		{Text: "一行目"},
		{Text: "二行目"},
	}
	audio := audioTrackFor(1_000_000)

	var l Layout
	result := l.Captions(lines, audio)

	if len(result.Main.Segments) != 1 {
		t.Errorf("expected 1 main segment, got %d", len(result.Main.Segments))
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning for excess subtitle lines")
	}
}

func TestLayoutDroppedSpanWarns(t *testing.T) {
	lines := []subtitles.Line{{
		Text: "今日は晴れ",
		Readings: []subtitles.Reading{
			{Surface: "雪", Ruby: "ゆき"},
		},
	}}
	audio := audioTrackFor(1_000_000)

	var l Layout
	result := l.Captions(lines, audio)

	if len(result.Ruby) != 0 {
		t.Errorf("expected no ruby tracks, got %d", len(result.Ruby))
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(result.Warnings))
	}
	if !strings.Contains(result.Warnings[0].Reason, "雪") {
		t.Errorf("warning should name the surface text: %s", result.Warnings[0].Reason)
	}
}
