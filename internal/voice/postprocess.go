package voice

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/okanehara/rubi/internal/ffmpeg"
)

// Preprocess prepares a narration recording for captioning: loudness
// normalization followed by demucs vocal isolation, so background
// music does not pollute the transcript. Every stage is best effort; a
// stage that fails is reported and skipped, the last good file carries
// forward, and the worst case returns the input unchanged.
func Preprocess(ctx context.Context, inputPath, workDir string) (string, []error) {
	var warnings []error
	current := inputPath

	normPath := filepath.Join(workDir, "normalized"+filepath.Ext(inputPath))
	if err := copyFile(inputPath, normPath); err != nil {
		warnings = append(warnings, fmt.Errorf("normalization skipped: %w", err))
	} else if err := Normalize(ctx, normPath); err != nil {
		warnings = append(warnings, fmt.Errorf("normalization skipped: %w", err))
	} else {
		current = normPath
	}

	vocals, err := IsolateVocals(ctx, current, workDir)
	if err != nil {
		warnings = append(warnings, fmt.Errorf("vocal isolation skipped: %w", err))
		return current, warnings
	}
	return vocals, warnings
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// Normalize rewrites an audio file in place with broadcast loudness
// normalization so synthesized lines sit at a consistent level.
func Normalize(ctx context.Context, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("audio file not found: %s", path)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	tmpPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".norm")

	kwargs := ffmpeg.KwArgs{
		"af": "loudnorm=I=-16:LRA=11:TP=-1.5",
		"f":  "mp3",
		"y":  "",
	}

	err = ffmpeg.Input(path).
		Output(tmpPath, kwargs).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("normalization failed: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// WriteSilence writes a silent audio file of the given length. Used as
// a placeholder when a caption line has no text, so the audio file
// list stays index-aligned with the caption list.
func WriteSilence(ctx context.Context, path string, d time.Duration) error {
	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	err = ffmpeg.Input("anullsrc=r=44100:cl=mono", ffmpeg.KwArgs{"f": "lavfi", "t": d.Seconds()}).
		Output(path, ffmpeg.KwArgs{"acodec": "libmp3lame", "y": ""}).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		return fmt.Errorf("silence generation failed: %w", err)
	}
	return nil
}

// IsolateVocals separates the voice stem from a mixed recording using
// demucs and returns the path of the extracted vocals file.
func IsolateVocals(ctx context.Context, inputPath, outputDir string) (string, error) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return "", fmt.Errorf("input file not found: %s", inputPath)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	args := []string{"--two-stems=vocals", "-o", outputDir, inputPath}

	var cmd *exec.Cmd
	if _, err := exec.LookPath("demucs"); err == nil {
		cmd = exec.CommandContext(ctx, "demucs", args...)
	} else {
		cmd = exec.CommandContext(ctx, "python", append([]string{"-m", "demucs"}, args...)...)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("demucs failed: %w (output: %s)", err, truncateOutput(out))
	}

	base := filepath.Base(inputPath)
	stem := base[:len(base)-len(filepath.Ext(base))]
	vocals := filepath.Join(outputDir, "htdemucs", stem, "vocals.wav")
	if _, err := os.Stat(vocals); err != nil {
		return "", fmt.Errorf("vocals stem not found at %s", vocals)
	}

	return vocals, nil
}

func truncateOutput(out []byte) string {
	const maxLen = 400
	if len(out) <= maxLen {
		return string(out)
	}
	return string(out[len(out)-maxLen:])
}
