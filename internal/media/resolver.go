package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tmp3 "github.com/tcolgate/mp3"

	ffmpegbin "github.com/okanehara/rubi/internal/ffmpeg"
)

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Resolver reports media durations in microseconds. The primary
// strategy is ffprobe; mp3 files fall back to frame-walking the stream
// when probing fails.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the duration of a media file in microseconds.
// A failure here is non-fatal for the batch: callers place the clip
// with zero duration and log the error.
func (r *Resolver) Resolve(ctx context.Context, path string) (int64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, fmt.Errorf("file not found: %s", path)
	}

	us, probeErr := probeDuration(ctx, path)
	if probeErr == nil {
		return us, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if us, err := mp3Duration(path); err == nil {
			return us, nil
		}
	}

	return 0, probeErr
}

// ResolveError records one clip whose duration could not be resolved.
type ResolveError struct {
	Path string
	Err  error
}

// ResolveAll resolves durations for all paths with a bounded worker
// pool. Results keep input order. Clips that fail to resolve get zero
// duration and an entry in the returned error list; the batch never
// aborts. If concurrency is 0 or negative it defaults to 4 workers.
func (r *Resolver) ResolveAll(ctx context.Context, paths []string, concurrency int) ([]Clip, []ResolveError) {
	if concurrency <= 0 {
		concurrency = 4
	}

	clips := make([]Clip, len(paths))
	var (
		mu       sync.Mutex
		failures []ResolveError
		wg       sync.WaitGroup
	)

	sem := make(chan struct{}, concurrency)

	for i, path := range paths {
		clips[i] = Clip{Path: path}

		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			us, err := r.Resolve(ctx, path)
			if err != nil {
				mu.Lock()
				failures = append(failures, ResolveError{Path: path, Err: err})
				mu.Unlock()
				return
			}
			clips[i].Duration = us
		}(i, path)
	}

	wg.Wait()

	return clips, failures
}

func probeDuration(ctx context.Context, path string) (int64, error) {
	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(probe.Format.Duration, "%f", &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return int64(math.Round(seconds * 1e6)), nil
}

// mp3Duration sums frame durations from the embedded stream. Used as a
// fallback for audio files ffprobe cannot handle.
func mp3Duration(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder := tmp3.NewDecoder(f)

	var (
		frame   tmp3.Frame
		skipped int
		total   time.Duration
	)
	for {
		if err := decoder.Decode(&frame, &skipped); err != nil {
			if err == io.EOF {
				break
			}
			return 0, fmt.Errorf("mp3 decode failed: %w", err)
		}
		total += frame.Duration()
	}

	return total.Microseconds(), nil
}
