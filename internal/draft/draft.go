// Package draft assembles timeline tracks into a CapCut-style draft
// project: a draft_content.json holding materials and tracks, plus a
// draft_meta_info.json describing the project folder.
package draft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/okanehara/rubi/internal/timeline"
)

// Assembler implements timeline.Sink against the draft JSON format.
// Tracks are appended in the order received; the draft's own track
// order is its render order.
type Assembler struct {
	content  string
	meta     string
	defaults styleDefaults
	err      error
}

// NewAssembler builds an assembler from the embedded default template.
func NewAssembler() (*Assembler, error) {
	return NewAssemblerFromTemplates(defaultContentTemplate, defaultMetaTemplate)
}

// NewAssemblerFromTemplates builds an assembler from caller-supplied
// template documents, e.g. a draft saved from the real editor whose
// styling should be preserved.
func NewAssemblerFromTemplates(contentJSON, metaJSON []byte) (*Assembler, error) {
	if !gjson.ValidBytes(contentJSON) {
		return nil, fmt.Errorf("content template is not valid JSON")
	}
	if !gjson.ValidBytes(metaJSON) {
		return nil, fmt.Errorf("meta template is not valid JSON")
	}

	defaults, err := extractDefaults(string(contentJSON))
	if err != nil {
		return nil, err
	}

	a := &Assembler{
		content:  string(contentJSON),
		meta:     string(metaJSON),
		defaults: defaults,
	}

	// the prototype tracks and materials have served their purpose;
	// the generated project starts empty
	a.setRaw(&a.content, "tracks", "[]")
	a.setRaw(&a.content, "materials.videos", "[]")
	a.setRaw(&a.content, "materials.audios", "[]")
	a.setRaw(&a.content, "materials.texts", "[]")
	if a.err != nil {
		return nil, a.err
	}

	return a, nil
}

// AddTrack appends one track and its backing materials to the draft.
func (a *Assembler) AddTrack(tr timeline.Track) error {
	if len(tr.Segments) == 0 {
		return nil
	}

	track := fmt.Sprintf(`{"id":%q,"type":%q,"attribute":0,"flag":0,"segments":[]}`,
		newID(), string(tr.Type))

	for _, seg := range tr.Segments {
		segJSON, err := a.appendMaterial(seg)
		if err != nil {
			return err
		}
		a.setRaw(&track, "segments.-1", segJSON)
	}

	a.setRaw(&a.content, "tracks.-1", track)
	return a.err
}

// SetDuration records the total project duration in microseconds.
func (a *Assembler) SetDuration(totalUS int64) {
	a.set(&a.content, "duration", totalUS)
}

// appendMaterial creates the material for one segment, appends it to
// the draft's material lists, and returns the finished segment JSON
// referencing it.
func (a *Assembler) appendMaterial(seg timeline.Segment) (string, error) {
	materialID := newID()

	switch seg.Type {
	case timeline.TrackVideo:
		mat := a.mediaMaterial(a.defaults.videoMaterial, materialID, seg)
		a.setRaw(&a.content, "materials.videos.-1", mat)
		return a.mediaSegment(a.defaults.videoSegment, materialID, seg), a.err

	case timeline.TrackAudio:
		mat := a.mediaMaterial(a.defaults.audioMaterial, materialID, seg)
		a.setRaw(&a.content, "materials.audios.-1", mat)
		return a.mediaSegment(a.defaults.audioSegment, materialID, seg), a.err

	case timeline.TrackText:
		matProto, segProto := a.defaults.textMaterial, a.defaults.textSegment
		if seg.Ruby {
			matProto, segProto = a.defaults.rubyMaterial, a.defaults.rubySegment
		}
		mat := a.textMaterial(matProto, materialID, seg.Content)
		a.setRaw(&a.content, "materials.texts.-1", mat)
		return a.textSegment(segProto, materialID, seg), a.err

	default:
		return "", fmt.Errorf("unsupported track type %q", seg.Type)
	}
}

func (a *Assembler) mediaMaterial(proto, id string, seg timeline.Segment) string {
	mat := proto
	a.set(&mat, "id", id)
	a.set(&mat, "path", normalizePath(seg.Path))
	a.set(&mat, "duration", seg.ClipDuration)
	return mat
}

func (a *Assembler) textMaterial(proto, id, text string) string {
	mat := proto
	a.set(&mat, "id", id)

	// the material's content field is itself a JSON document; only the
	// text and the style ranges change, everything else is template
	// styling
	inner := gjson.Get(proto, "content").String()
	a.set(&inner, "text", text)
	runeLen := utf8.RuneCountInString(text)
	for i := range gjson.Get(inner, "styles").Array() {
		a.set(&inner, fmt.Sprintf("styles.%d.range", i), []int{0, runeLen})
	}
	a.set(&mat, "content", inner)

	return mat
}

func (a *Assembler) mediaSegment(proto, materialID string, seg timeline.Segment) string {
	s := proto
	a.set(&s, "id", newID())
	a.set(&s, "material_id", materialID)
	a.set(&s, "source_timerange.start", seg.Source.Start)
	a.set(&s, "source_timerange.duration", seg.Source.Duration)
	a.set(&s, "target_timerange.start", seg.Target.Start)
	a.set(&s, "target_timerange.duration", seg.Target.Duration)
	a.set(&s, "render_index", seg.RenderIndex)
	return s
}

func (a *Assembler) textSegment(proto, materialID string, seg timeline.Segment) string {
	s := a.mediaSegment(proto, materialID, seg)
	if seg.Position != nil {
		a.set(&s, "clip.transform.x", seg.Position.X)
		a.set(&s, "clip.transform.y", seg.Position.Y)
		a.set(&s, "clip.scale.x", seg.Position.Scale)
		a.set(&s, "clip.scale.y", seg.Position.Scale)
	}
	return s
}

// Save writes the draft project files into dir, replacing any previous
// draft at that location.
func (a *Assembler) Save(dir, name string) error {
	if a.err != nil {
		return a.err
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear draft directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create draft directory: %w", err)
	}

	meta := a.meta
	a.set(&meta, "draft_id", newID())
	a.set(&meta, "draft_name", name)
	a.set(&meta, "draft_root_path", normalizePath(dir))
	a.set(&meta, "draft_fold_path", normalizePath(dir))
	a.set(&meta, "tm_duration", gjson.Get(a.content, "duration").Int())
	if a.err != nil {
		return a.err
	}

	if err := writeIndented(filepath.Join(dir, "draft_content.json"), a.content); err != nil {
		return err
	}
	return writeIndented(filepath.Join(dir, "draft_meta_info.json"), meta)
}

// Export writes the draft directly into the editor's local drafts
// directory, under a timestamped folder name, and returns that path.
func (a *Assembler) Export(name string) (string, error) {
	base := draftsRoot()
	folder := fmt.Sprintf("%s_%s", name, time.Now().Format("20060102_1504"))
	dir := filepath.Join(base, folder)

	// the folder name doubles as the draft name so the editor's
	// project list stays unambiguous
	if err := a.Save(dir, folder); err != nil {
		return "", err
	}
	return dir, nil
}

// draftsRoot locates the editor's local draft storage.
func draftsRoot() string {
	local := os.Getenv("LOCALAPPDATA")
	if local == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			local = filepath.Join(home, "AppData", "Local")
		}
	}
	return filepath.Join(local, "CapCut", "User Data", "Projects", "com.lveditor.draft")
}

// set records the first sjson failure; later calls become no-ops so
// call sites stay linear.
func (a *Assembler) set(doc *string, path string, value any) {
	if a.err != nil {
		return
	}
	out, err := sjson.Set(*doc, path, value)
	if err != nil {
		a.err = fmt.Errorf("failed to set %s: %w", path, err)
		return
	}
	*doc = out
}

func (a *Assembler) setRaw(doc *string, path, raw string) {
	if a.err != nil {
		return
	}
	out, err := sjson.SetRaw(*doc, path, raw)
	if err != nil {
		a.err = fmt.Errorf("failed to set %s: %w", path, err)
		return
	}
	*doc = out
}

// newID generates an uppercase UUID, the id style the editor uses.
func newID() string {
	return strings.ToUpper(uuid.NewString())
}

func normalizePath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	return strings.ReplaceAll(abs, "\\", "/")
}

func writeIndented(path, doc string) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(doc), "", "    "); err != nil {
		return fmt.Errorf("failed to format %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
