package timeline

import (
	"errors"
	"fmt"

	"github.com/okanehara/rubi/internal/media"
)

// ErrNoVideoClips aborts the batch: without a video clip there is no
// visual track at all.
var ErrNoVideoClips = errors.New("timeline: no video clips available")

// Timeline is the sequencer's output: a gapless audio track, a matching
// video track, and the total duration in microseconds.
type Timeline struct {
	Audio    Track
	Video    Track
	Duration int64
	Warnings []Warning
}

// Sequencer builds the timeline from ordered clip lists. The audio
// clips define all timing: segments are placed strictly back to back
// with no gap and no overlap, and every video segment's target range
// matches its paired audio segment exactly.
type Sequencer struct {
	// SnapDurations rounds each audio duration to the 30 fps frame grid
	// before placement. Snapping before placement keeps the track
	// gapless. Off by default; raw microseconds are the timing source
	// of truth.
	SnapDurations bool
}

// Build walks the audio clips in order. Video clips are reused
// cyclically when there are fewer videos than audio lines. A video
// shorter than its audio is trimmed at the source and ends early on
// screen; it is never looped or extended.
//
// An unresolvable audio clip still gets a zero-duration segment so that
// audio segment i keeps lining up with subtitle line i; the layout
// engine drops the line when it sees the zero duration.
func (s *Sequencer) Build(audioClips, videoClips []media.Clip) (Timeline, error) {
	if len(videoClips) == 0 {
		return Timeline{}, ErrNoVideoClips
	}

	tl := Timeline{
		Audio: Track{Type: TrackAudio},
		Video: Track{Type: TrackVideo},
	}

	if len(audioClips) == 0 {
		tl.Warnings = append(tl.Warnings, Warning{
			Reason: "no audio clips: timeline is empty",
		})
		return tl, nil
	}

	var cursor int64

	for i, audio := range audioClips {
		audioDur := audio.Duration
		if s.SnapDurations {
			audioDur = SnapToFrame(audioDur)
		}

		if audioDur <= 0 {
			audioDur = 0
			tl.Warnings = append(tl.Warnings, Warning{
				Index:  i,
				Path:   audio.Path,
				Reason: "audio clip has no duration: line will be skipped",
			})
		}

		video := videoClips[i%len(videoClips)]
		if video.Duration <= 0 {
			tl.Warnings = append(tl.Warnings, Warning{
				Index:  i,
				Path:   video.Path,
				Reason: "video clip has no duration: degenerate segment placed",
			})
		}

		target := TimeRange{Start: cursor, Duration: audioDur}

		tl.Audio.Segments = append(tl.Audio.Segments, Segment{
			Type:         TrackAudio,
			Path:         audio.Path,
			Source:       TimeRange{Start: 0, Duration: audioDur},
			Target:       target,
			ClipDuration: audioDur,
			RenderIndex:  i,
		})

		// trim the video to the audio's duration; a shorter video is
		// left as-is and the renderer holds past its end
		sourceDur := video.Duration
		if audioDur < sourceDur {
			sourceDur = audioDur
		}

		tl.Video.Segments = append(tl.Video.Segments, Segment{
			Type:         TrackVideo,
			Path:         video.Path,
			Source:       TimeRange{Start: 0, Duration: sourceDur},
			Target:       target,
			ClipDuration: video.Duration,
			RenderIndex:  i,
		})

		cursor += audioDur
	}

	tl.Duration = cursor

	if len(audioClips) != len(videoClips) {
		tl.Warnings = append(tl.Warnings, Warning{
			Reason: fmt.Sprintf(
				"clip count mismatch: %d audio vs %d video (videos reused cyclically)",
				len(audioClips), len(videoClips)),
		})
	}

	return tl, nil
}
