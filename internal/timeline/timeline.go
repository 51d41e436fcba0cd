package timeline

// track types understood by the project backend
type TrackType string

const (
	TrackAudio TrackType = "audio"
	TrackVideo TrackType = "video"
	TrackText  TrackType = "text"
)

// frame grid of the target renderer
const (
	FPS     = 30
	FrameUS = 1_000_000 / FPS
)

// a {start, duration} pair in integer microseconds
type TimeRange struct {
	Start    int64
	Duration int64
}

func (r TimeRange) End() int64 {
	return r.Start + r.Duration
}

// normalized renderer coordinates; X is centered at 0.5
type Position struct {
	X     float64
	Y     float64
	Scale float64
}

// Segment places one source clip or text at a range on a track.
// Segments are write-once: created by the sequencer or layout engine
// and only ever appended to a track.
type Segment struct {
	Type    TrackType
	Path    string // media segments
	Content string // text segments

	Source TimeRange // portion of the source used
	Target TimeRange // position on the timeline

	// full duration of the source material, which may exceed
	// Source.Duration for trimmed video
	ClipDuration int64

	RenderIndex int
	Position    *Position // text segments only
	Ruby        bool      // phonetic annotation rather than main caption
}

// an ordered list of segments of one type
type Track struct {
	Type     TrackType
	Segments []Segment
}

// Warning records one skipped or degraded item. Per-item failures never
// abort the batch; callers receive warnings alongside best-effort output.
type Warning struct {
	Index  int
	Path   string
	Reason string
}

// Sink receives finished tracks in render order. The serialization
// backend is pluggable behind this interface.
type Sink interface {
	AddTrack(Track) error
	SetDuration(totalUS int64)
}

// SnapToFrame rounds a timestamp to the nearest frame boundary.
func SnapToFrame(us int64) int64 {
	frames := (us + FrameUS/2) / FrameUS
	return frames * FrameUS
}
