package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okanehara/rubi/internal/caption"
	"github.com/okanehara/rubi/internal/subtitles"
	"github.com/okanehara/rubi/internal/voice"
)

var captionsCmd = &cobra.Command{
	Use:   "captions [project] [audio_file]",
	Short: "Generate multilingual captions for a narration recording",
	Long: `Generate timed captions from a narration audio file.

The audio is loudness-normalized and its vocal stem isolated before
upload (each stage falls back to the previous file on failure), then
captioned in Japanese with Gemini, optionally translated to English
and Korean, and annotated with kanji readings. Outputs are written
under the project directory:
  subtitles/master.json       full multilingual caption list
  subtitles/<lang>.srt        per-language subtitle files
  subtitles/synced/<lang>.json  per-language caption lines for generate

Examples:
  rubi captions myproject narration.mp3
  rubi captions myproject narration.mp3 --languages ja
  rubi captions myproject narration.mp3 --translator anthropic`,
	Args: cobra.ExactArgs(2),
	RunE: runCaptions,
}

func init() {
	rootCmd.AddCommand(captionsCmd)

	captionsCmd.Flags().
		StringP("api-key", "k", "", "Gemini API key (or set GEMINI_API_KEY env var)")
	captionsCmd.Flags().
		String("model", "", "Gemini model for captioning")
	captionsCmd.Flags().
		StringSlice("languages", nil, "Languages to produce (default from config)")
	captionsCmd.Flags().
		String("translator", "gemini", "Translation provider (gemini, openai, anthropic)")
	captionsCmd.Flags().
		String("translator-model", "", "Model override for the translation provider")
	captionsCmd.Flags().
		Int("concurrency", 3, "Number of parallel translation requests")
	captionsCmd.Flags().
		Bool("preprocess", true, "Normalize and isolate vocals before captioning")
}

func runCaptions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	projectDir := filepath.Join(cfg.Workspace, args[0])
	audioPath := args[1]

	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	langCodes, _ := cmd.Flags().GetStringSlice("languages")
	translatorName, _ := cmd.Flags().GetString("translator")
	translatorModel, _ := cmd.Flags().GetString("translator-model")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("Gemini API key is required: use --api-key flag or set GEMINI_API_KEY environment variable")
	}
	if model == "" {
		model = cfg.Gemini.ModelID
	}
	if len(langCodes) == 0 {
		langCodes = cfg.Languages
	}

	langs := make([]subtitles.Language, 0, len(langCodes))
	for _, code := range langCodes {
		lang, err := subtitles.ParseLanguage(code)
		if err != nil {
			return err
		}
		langs = append(langs, lang)
	}

	logger.Infow("Captioning narration",
		"audio", audioPath,
		"model", model,
		"languages", langCodes,
	)

	if preprocess, _ := cmd.Flags().GetBool("preprocess"); preprocess {
		tempDir, err := os.MkdirTemp("", "rubi-*")
		if err != nil {
			return fmt.Errorf("failed to create temp directory: %w", err)
		}
		defer os.RemoveAll(tempDir)

		cleaned, stageErrs := voice.Preprocess(ctx, audioPath, tempDir)
		for _, stageErr := range stageErrs {
			logger.Warnw("Audio preprocessing degraded", "error", stageErr)
		}
		if cleaned != audioPath {
			logger.Infow("Audio preprocessed", "path", cleaned)
		}
		audioPath = cleaned
	}

	captioner, err := caption.NewGeminiCaptioner(ctx, apiKey, model)
	if err != nil {
		return err
	}

	items, err := captioner.Caption(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("captioning failed: %w", err)
	}
	logger.Infow("Captions received", "count", len(items))

	for _, lang := range langs {
		if lang == subtitles.LanguageJA {
			continue
		}
		if err := translateInto(ctx, cmd, items, lang, translatorName, translatorModel, concurrency); err != nil {
			return err
		}
		logger.Infow("Translation complete", "language", lang)
	}

	annotator, err := caption.NewAnnotator()
	if err != nil {
		return err
	}
	annotator.Annotate(items)

	subtitlesDir := filepath.Join(projectDir, "subtitles")
	if err := os.MkdirAll(filepath.Join(subtitlesDir, "synced"), 0755); err != nil {
		return fmt.Errorf("failed to create subtitles directory: %w", err)
	}

	if err := caption.SaveMaster(items, filepath.Join(subtitlesDir, "master.json")); err != nil {
		return fmt.Errorf("failed to save master captions: %w", err)
	}

	for _, lang := range langs {
		srtPath := filepath.Join(subtitlesDir, string(lang)+".srt")
		if err := subtitles.WriteSRT(caption.Entries(items, lang), srtPath); err != nil {
			return fmt.Errorf("failed to write %s: %w", srtPath, err)
		}

		syncedPath := filepath.Join(subtitlesDir, "synced", string(lang)+".json")
		if err := subtitles.SaveLines(caption.Lines(items, lang), syncedPath); err != nil {
			return fmt.Errorf("failed to write %s: %w", syncedPath, err)
		}
	}

	logger.Infow("Captions written",
		"dir", subtitlesDir,
		"lines", len(items),
	)
	return nil
}

func translateInto(ctx context.Context, cmd *cobra.Command, items []caption.Item, lang subtitles.Language, providerName, model string, concurrency int) error {
	provider := caption.Provider(providerName)

	apiKey := os.Getenv(apiKeyEnv(provider))
	if provider == caption.ProviderGemini && apiKey == "" {
		apiKey, _ = cmd.Flags().GetString("api-key")
	}
	if apiKey == "" {
		return fmt.Errorf("API key for translation provider %s is required: set %s", provider, apiKeyEnv(provider))
	}

	opts := caption.TranslateOptions{
		InputLanguage:  "Japanese",
		TargetLanguage: languageName(lang),
		Model:          model,
		Concurrency:    concurrency,
	}

	translator, err := caption.Factory(ctx, provider, apiKey, opts)
	if err != nil {
		return err
	}

	if err := caption.Translate(ctx, translator, items, lang); err != nil {
		return fmt.Errorf("translation to %s failed: %w", lang, err)
	}
	return nil
}

func apiKeyEnv(provider caption.Provider) string {
	switch provider {
	case caption.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case caption.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

func languageName(lang subtitles.Language) string {
	switch lang {
	case subtitles.LanguageEN:
		return "English"
	case subtitles.LanguageKO:
		return "Korean"
	default:
		return "Japanese"
	}
}
