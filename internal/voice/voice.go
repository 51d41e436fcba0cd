// Package voice synthesizes narration audio for caption lines through
// an external GPT-SoVITS inference script and post-processes the
// results for mixing.
package voice

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// Synthesizer drives a GPT-SoVITS inference process. Each Synthesize
// call runs one subprocess producing one audio file.
type Synthesizer struct {
	// PythonPath is the interpreter to run; empty means "python".
	PythonPath string

	// InferenceScript is the GPT-SoVITS CLI entry point.
	InferenceScript string

	// GPTModel and SoVITSModel are checkpoint paths.
	GPTModel    string
	SoVITSModel string

	// RefAudio, RefText and RefLanguage describe the voice reference
	// sample the model clones.
	RefAudio    string
	RefText     string
	RefLanguage string

	// SpeedFactor stretches speech rate; zero means 1.0.
	SpeedFactor float64

	// OnOutput, when set, receives each line of subprocess output.
	OnOutput func(line string)
}

// Synthesize renders text in the given language to outputPath.
func (s *Synthesizer) Synthesize(ctx context.Context, text, language, outputPath string) error {
	if s.InferenceScript == "" {
		return fmt.Errorf("inference script is required")
	}
	if text == "" {
		return fmt.Errorf("text is empty")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	python := s.PythonPath
	if python == "" {
		python = "python"
	}

	speed := s.SpeedFactor
	if speed == 0 {
		speed = 1.0
	}

	args := []string{
		s.InferenceScript,
		"--gpt_model", s.GPTModel,
		"--sovits_model", s.SoVITSModel,
		"--ref_audio", s.RefAudio,
		"--ref_text", s.RefText,
		"--ref_language", s.RefLanguage,
		"--target_text", text,
		"--target_language", language,
		"--output_path", outputPath,
		"--speed_factor", strconv.FormatFloat(speed, 'f', -1, 64),
		"--text_split_method", "cut5",
	}

	cmd := exec.CommandContext(ctx, python, args...)
	cmd.Dir = filepath.Dir(s.InferenceScript)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start inference: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if s.OnOutput != nil {
			s.OnOutput(scanner.Text())
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("inference produced no output at %s", outputPath)
	}

	return nil
}
