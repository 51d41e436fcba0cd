package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okanehara/rubi/internal/subtitles"
	"github.com/okanehara/rubi/internal/voice"
)

var voiceCmd = &cobra.Command{
	Use:   "voice [project]",
	Short: "Synthesize narration audio for caption lines",
	Long: `Synthesize one narration audio file per caption line with GPT-SoVITS.

Lines are read from subtitles/synced/<lang>.json in the project
directory and rendered to audios/<lang>/NNN.mp3, index-aligned with the
caption list so the generate command can pair them up.

Examples:
  rubi voice myproject --ref-audio ref.wav --ref-text "こんにちは"
  rubi voice myproject --language en --normalize
  rubi voice myproject --speed 1.1`,
	Args: cobra.ExactArgs(1),
	RunE: runVoice,
}

func init() {
	rootCmd.AddCommand(voiceCmd)

	voiceCmd.Flags().
		StringP("language", "l", "ja", "Language of the lines to synthesize")
	voiceCmd.Flags().
		String("gpt-model", "", "GPT checkpoint path")
	voiceCmd.Flags().
		String("sovits-model", "", "SoVITS checkpoint path")
	voiceCmd.Flags().
		String("ref-audio", "", "Reference audio sample for voice cloning")
	voiceCmd.Flags().
		String("ref-text", "", "Transcript of the reference audio")
	voiceCmd.Flags().
		String("ref-language", "ja", "Language of the reference audio")
	voiceCmd.Flags().
		Float64("speed", 1.0, "Speech rate factor")
	voiceCmd.Flags().
		Bool("normalize", false, "Loudness-normalize each synthesized file")
	voiceCmd.Flags().
		Bool("skip-existing", false, "Skip lines whose output file already exists")
}

func runVoice(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	projectDir := filepath.Join(cfg.Workspace, args[0])

	langCode, _ := cmd.Flags().GetString("language")
	gptModel, _ := cmd.Flags().GetString("gpt-model")
	sovitsModel, _ := cmd.Flags().GetString("sovits-model")
	refAudio, _ := cmd.Flags().GetString("ref-audio")
	refText, _ := cmd.Flags().GetString("ref-text")
	refLanguage, _ := cmd.Flags().GetString("ref-language")
	speed, _ := cmd.Flags().GetFloat64("speed")
	normalize, _ := cmd.Flags().GetBool("normalize")
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")

	lang, err := subtitles.ParseLanguage(langCode)
	if err != nil {
		return err
	}

	linesPath := filepath.Join(projectDir, "subtitles", "synced", string(lang)+".json")
	lines, err := subtitles.LoadLines(linesPath)
	if err != nil {
		return fmt.Errorf("failed to load caption lines: %w", err)
	}

	synth := &voice.Synthesizer{
		PythonPath:      cfg.Voice.PythonPath,
		InferenceScript: cfg.Voice.InferenceScript,
		GPTModel:        gptModel,
		SoVITSModel:     sovitsModel,
		RefAudio:        refAudio,
		RefText:         refText,
		RefLanguage:     refLanguage,
		SpeedFactor:     speed,
		OnOutput: func(line string) {
			logger.Debugw("Inference output", "line", line)
		},
	}

	outputDir := filepath.Join(projectDir, "audios", string(lang))

	logger.Infow("Synthesizing narration",
		"language", lang,
		"lines", len(lines),
		"output", outputDir,
	)

	for i, line := range lines {
		outputPath := filepath.Join(outputDir, fmt.Sprintf("%03d.mp3", i))

		if skipExisting {
			if _, err := os.Stat(outputPath); err == nil {
				logger.Debugw("Skipping existing line", "index", i)
				continue
			}
		}

		text := strings.TrimSpace(line.Text)
		if text == "" {
			// generate pairs audio files to caption lines by scan-order
			// position, so a missing file here would shift every later
			// pairing by one
			logger.Warnw("Empty caption line: writing silent placeholder", "index", i)
			if err := voice.WriteSilence(ctx, outputPath, 200*time.Millisecond); err != nil {
				return fmt.Errorf("line %d placeholder failed: %w", i, err)
			}
			continue
		}

		if err := synth.Synthesize(ctx, text, string(lang), outputPath); err != nil {
			return fmt.Errorf("line %d failed: %w", i, err)
		}

		if normalize {
			if err := voice.Normalize(ctx, outputPath); err != nil {
				return fmt.Errorf("line %d normalization failed: %w", i, err)
			}
		}

		logger.Infow("Line synthesized",
			"index", i,
			"path", outputPath,
		)
	}

	return nil
}
