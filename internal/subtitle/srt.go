// Package subtitle renders transcript segments as SRT cue blocks.
package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"subtitle-generator/internal/domain"
)

// Cue is one rendered SRT entry.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Compose renders segments as SRT text. Cues are re-numbered 1..N in
// input order regardless of each segment's own index; segment text is
// emitted verbatim, embedded newlines included. Zero segments compose
// to an empty document.
func Compose(segments []domain.TranscriptSegment) string {
	var b strings.Builder
	for i, segment := range segments {
		b.WriteString(fmt.Sprintf("%d\n", i+1))
		b.WriteString(FormatTimestamp(segment.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(segment.End))
		b.WriteString("\n")
		b.WriteString(segment.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// FormatTimestamp renders seconds as SRT HH:MM:SS,mmm syntax. Negative
// offsets clamp to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}

	totalMillis := int64(seconds*1000 + 0.5)
	hours := totalMillis / 3_600_000
	minutes := (totalMillis % 3_600_000) / 60_000
	secs := (totalMillis % 60_000) / 1000
	millis := totalMillis % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// Save writes content as <video_basename>.srt under outputDir and
// returns the full path, overwriting any existing file.
func Save(content, videoPath, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	srtPath := filepath.Join(outputDir, FileName(videoPath))
	if err := os.WriteFile(srtPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write subtitle file: %w", err)
	}
	return srtPath, nil
}

// FileName derives the subtitle filename from the video's base name.
func FileName(videoPath string) string {
	base := filepath.Base(videoPath)
	name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "subtitles"
	}
	return name + ".srt"
}
