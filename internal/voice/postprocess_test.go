package voice

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	ffmpegbin "github.com/okanehara/rubi/internal/ffmpeg"
)

func TestPreprocessFallsBackToInputWhenStagesFail(t *testing.T) {
	// a missing input makes both stages fail, so the caller captions
	// the original path
	missing := filepath.Join(t.TempDir(), "missing.mp3")

	path, stageErrs := Preprocess(context.Background(), missing, t.TempDir())
	if path != missing {
		t.Errorf("expected fallback to the input path, got %q", path)
	}
	if len(stageErrs) != 2 {
		t.Errorf("expected both stages to report, got %v", stageErrs)
	}
}

func TestPreprocessKeepsInputUntouched(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "narration.mp3")
	original := []byte("not really audio")
	if err := os.WriteFile(input, original, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	Preprocess(context.Background(), input, t.TempDir())

	data, err := os.ReadFile(input)
	if err != nil {
		t.Fatalf("failed to read input back: %v", err)
	}
	if string(data) != string(original) {
		t.Error("preprocessing must work on a copy, not the input file")
	}
}

// Integration test: only runs if ffmpeg is installed
func TestWriteSilence(t *testing.T) {
	if _, err := ffmpegbin.FFmpegPath(); err != nil {
		t.Skip("ffmpeg not found; skipping integration test")
	}

	path := filepath.Join(t.TempDir(), "out", "000.mp3")
	if err := WriteSilence(context.Background(), path, 200*time.Millisecond); err != nil {
		t.Fatalf("WriteSilence returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("placeholder not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected a non-empty placeholder file")
	}
}
