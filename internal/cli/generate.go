package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okanehara/rubi/internal/draft"
	"github.com/okanehara/rubi/internal/media"
	"github.com/okanehara/rubi/internal/subtitles"
	"github.com/okanehara/rubi/internal/timeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate [project]",
	Short: "Build an editing project from a project's clips and captions",
	Long: `Generate a CapCut-compatible draft project from a project directory.

The project directory under the workspace must contain:
  simulated/             ordered video clips (mp4)
  audios/ja/             one narration audio file per caption line (mp3)
  subtitles/synced/ja.json  caption lines with reading annotations

Audio clips define all timing. Video clips are reused cyclically and
trimmed to their paired narration line. The draft is written to
<project>/capcut_draft/ unless --export places it directly into the
editor's drafts directory.

Examples:
  rubi generate myproject
  rubi generate myproject --export
  rubi generate myproject --snap-frames --concurrency 8`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().
		Bool("export", false, "Write the draft into the editor's drafts directory")
	generateCmd.Flags().
		Bool("snap-frames", false, "Snap audio durations to the 30 fps frame grid")
	generateCmd.Flags().
		Int("concurrency", 4, "Number of parallel duration probes")
	generateCmd.Flags().
		String("template", "", "Draft template directory to use instead of the built-in one")
	generateCmd.Flags().
		IntP("line-width", "w", 0, "Caption wrap width in display characters")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	projectDir := filepath.Join(cfg.Workspace, args[0])
	if _, err := os.Stat(projectDir); os.IsNotExist(err) {
		return fmt.Errorf("project directory not found: %s", projectDir)
	}

	export, _ := cmd.Flags().GetBool("export")
	snapFrames, _ := cmd.Flags().GetBool("snap-frames")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	templateDir, _ := cmd.Flags().GetString("template")
	lineWidth, _ := cmd.Flags().GetInt("line-width")
	outputPath, _ := cmd.Flags().GetString("output")

	if !cmd.Flags().Changed("snap-frames") {
		snapFrames = cfg.Layout.SnapToFrames
	}
	if lineWidth == 0 {
		lineWidth = cfg.Layout.MaxLineWidth
	}

	videoPaths, err := media.ScanDir(filepath.Join(projectDir, "simulated"), ".mp4")
	if err != nil {
		return fmt.Errorf("failed to list video clips: %w", err)
	}
	audioPaths, err := media.ScanDir(filepath.Join(projectDir, "audios", "ja"), ".mp3")
	if err != nil {
		return fmt.Errorf("failed to list audio clips: %w", err)
	}

	logger.Infow("Resolving clip durations",
		"videos", len(videoPaths),
		"audios", len(audioPaths),
		"concurrency", concurrency,
	)

	resolver := media.NewResolver()
	videoClips, videoFailures := resolver.ResolveAll(ctx, videoPaths, concurrency)
	audioClips, audioFailures := resolver.ResolveAll(ctx, audioPaths, concurrency)
	for _, f := range append(videoFailures, audioFailures...) {
		logger.Warnw("Duration probe failed",
			"path", f.Path,
			"error", f.Err,
		)
	}

	warningCount := len(videoFailures) + len(audioFailures)

	sequencer := timeline.Sequencer{SnapDurations: snapFrames}
	tl, err := sequencer.Build(audioClips, videoClips)
	if err != nil {
		return err
	}
	logWarnings(tl.Warnings)
	warningCount += len(tl.Warnings)

	lines, err := subtitles.LoadLines(filepath.Join(projectDir, "subtitles", "synced", "ja.json"))
	if err != nil {
		return fmt.Errorf("failed to load caption lines: %w", err)
	}

	layout := timeline.Layout{MaxLineWidth: lineWidth}
	captions := layout.Captions(lines, tl.Audio)
	logWarnings(captions.Warnings)
	warningCount += len(captions.Warnings)

	assembler, err := newAssembler(templateDir)
	if err != nil {
		return err
	}

	// track order is render order: video underneath, then audio, then
	// the caption text, then every ruby track above it
	tracks := []timeline.Track{tl.Video, tl.Audio, captions.Main}
	tracks = append(tracks, captions.Ruby...)
	for _, tr := range tracks {
		if err := assembler.AddTrack(tr); err != nil {
			return fmt.Errorf("failed to add track: %w", err)
		}
	}
	assembler.SetDuration(tl.Duration)

	name := args[0]
	if export {
		dir, err := assembler.Export(name)
		if err != nil {
			return fmt.Errorf("failed to export draft: %w", err)
		}
		logger.Infow("Draft exported",
			"path", dir,
			"warnings", warningCount,
		)
		return nil
	}

	draftDir := outputPath
	if draftDir == "" {
		draftDir = filepath.Join(projectDir, "capcut_draft")
	}
	if err := assembler.Save(draftDir, name); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	logger.Infow("Draft written",
		"path", draftDir,
		"duration_us", tl.Duration,
		"lines", len(lines),
		"warnings", warningCount,
	)
	return nil
}

func newAssembler(templateDir string) (*draft.Assembler, error) {
	if templateDir == "" {
		return draft.NewAssembler()
	}

	content, err := os.ReadFile(filepath.Join(templateDir, "draft_content.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	meta, err := os.ReadFile(filepath.Join(templateDir, "draft_meta_info.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return draft.NewAssemblerFromTemplates(content, meta)
}

func logWarnings(warnings []timeline.Warning) {
	for _, w := range warnings {
		logger.Warnw("Timeline warning",
			"index", w.Index,
			"path", w.Path,
			"reason", w.Reason,
		)
	}
}
