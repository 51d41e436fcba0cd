package subtitles

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one timed subtitle cue for file output.
type Entry struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// WriteSRT writes entries to an SRT file, creating parent directories.
func WriteSRT(entries []Entry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var sb strings.Builder
	for i, entry := range entries {
		// index (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			FormatSRTTime(entry.Start),
			FormatSRTTime(entry.End)))

		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

func FormatSRTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// ParseSRTTime parses an HH:MM:SS,mmm timestamp.
func ParseSRTTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ".", ","))

	var hours, minutes, seconds, millis int
	if _, err := fmt.Sscanf(s, "%d:%d:%d,%d", &hours, &minutes, &seconds, &millis); err != nil {
		return 0, fmt.Errorf("invalid SRT timestamp %q: %w", s, err)
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}
