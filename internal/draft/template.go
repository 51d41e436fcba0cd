package draft

import (
	_ "embed"
	"fmt"

	"github.com/tidwall/gjson"
)

//go:embed assets/draft_content_template.json
var defaultContentTemplate []byte

//go:embed assets/draft_meta_template.json
var defaultMetaTemplate []byte

// styleDefaults holds the prototype JSON for each material and segment
// kind, extracted once from the template. These prototypes carry all
// the styling fields the layout engine does not control; emitting a
// segment means merging the computed fields onto a copy of the
// matching prototype.
type styleDefaults struct {
	videoMaterial string
	audioMaterial string
	textMaterial  string
	rubyMaterial  string

	videoSegment string
	audioSegment string
	textSegment  string
	rubySegment  string
}

// extractDefaults pulls material and segment prototypes out of a
// template document. The template must carry at least one video
// material and one populated track per media type. A template without
// a second text material/track reuses the main text style for ruby.
func extractDefaults(content string) (styleDefaults, error) {
	var d styleDefaults

	d.videoMaterial = gjson.Get(content, "materials.videos.0").Raw
	d.audioMaterial = gjson.Get(content, "materials.audios.0").Raw
	d.textMaterial = gjson.Get(content, "materials.texts.0").Raw
	d.rubyMaterial = gjson.Get(content, "materials.texts.1").Raw
	if d.rubyMaterial == "" {
		d.rubyMaterial = d.textMaterial
	}

	textTrackSeen := false
	for _, track := range gjson.Get(content, "tracks").Array() {
		seg := track.Get("segments.0")
		if !seg.Exists() {
			continue
		}
		switch track.Get("type").String() {
		case "video":
			if d.videoSegment == "" {
				d.videoSegment = seg.Raw
			}
		case "audio":
			if d.audioSegment == "" {
				d.audioSegment = seg.Raw
			}
		case "text":
			if !textTrackSeen {
				d.textSegment = seg.Raw
				textTrackSeen = true
			} else if d.rubySegment == "" {
				d.rubySegment = seg.Raw
			}
		}
	}
	if d.rubySegment == "" {
		d.rubySegment = d.textSegment
	}

	if d.videoMaterial == "" || d.videoSegment == "" {
		return d, fmt.Errorf("template is missing video prototypes")
	}
	if d.audioMaterial == "" || d.audioSegment == "" {
		return d, fmt.Errorf("template is missing audio prototypes")
	}
	if d.textMaterial == "" || d.textSegment == "" {
		return d, fmt.Errorf("template is missing text prototypes")
	}

	return d, nil
}
