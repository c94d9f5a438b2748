// Package extract demuxes and transcodes a video's audio track to MP3
// via an external ffmpeg binary.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"subtitle-generator/internal/execx"
)

// ExtractionError reports an ffmpeg failure during audio extraction.
type ExtractionError struct {
	Message    string
	CommandLog execx.Log
	Err        error
}

// Error formats the failure with command context when available.
func (e *ExtractionError) Error() string {
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("extract audio: %s", e.Message)
	}
	return fmt.Sprintf("extract audio: %s (cmd=%s exit=%d)", e.Message, e.CommandLog.Command, e.CommandLog.ExitCode)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor converts a video's audio track into an MP3 file.
type Extractor struct {
	ffmpegPath string
	runner     execx.Runner
	stat       func(name string) (os.FileInfo, error)
	mkdirAll   func(path string, perm os.FileMode) error
	onLog      func(log execx.Log)
}

// New constructs an extractor using the given ffmpeg binary.
func New(ffmpegPath string) *Extractor {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Extractor{
		ffmpegPath: ffmpegPath,
		runner:     execx.NewRunner(),
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
	}
}

// OnLog registers a callback receiving each command invocation log.
func (e *Extractor) OnLog(cb func(log execx.Log)) {
	e.onLog = cb
}

// Extract writes <video_basename>.mp3 into outputDir and returns its
// path. Any prior file of the same derived name is overwritten.
func (e *Extractor) Extract(ctx context.Context, videoPath, outputDir string) (string, error) {
	if strings.TrimSpace(videoPath) == "" {
		return "", &ExtractionError{Message: "video path is required"}
	}
	if _, err := e.stat(videoPath); err != nil {
		return "", &ExtractionError{
			Message: fmt.Sprintf("cannot access video file: %s", videoPath),
			Err:     err,
		}
	}
	if err := e.mkdirAll(outputDir, 0o755); err != nil {
		return "", &ExtractionError{
			Message: fmt.Sprintf("cannot create output directory: %s", outputDir),
			Err:     err,
		}
	}

	audioPath := filepath.Join(outputDir, audioFileName(videoPath))
	args := buildFFmpegArgs(videoPath, audioPath)

	result, runErr := e.runner.Run(ctx, e.ffmpegPath, args...)
	log := execx.NewLog(e.ffmpegPath, args, result)
	if e.onLog != nil {
		e.onLog(log)
	}
	if runErr != nil {
		return "", &ExtractionError{
			Message:    "ffmpeg audio extraction failed",
			CommandLog: log,
			Err:        runErr,
		}
	}

	info, err := e.stat(audioPath)
	if err != nil {
		return "", &ExtractionError{
			Message:    "ffmpeg completed but audio file is missing",
			CommandLog: log,
			Err:        err,
		}
	}
	if info.Size() == 0 {
		return "", &ExtractionError{
			Message:    "ffmpeg produced an empty audio file",
			CommandLog: log,
		}
	}

	return audioPath, nil
}

// buildFFmpegArgs builds extraction args for 44.1kHz stereo 192k MP3.
func buildFFmpegArgs(videoPath, audioPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "mp3",
		"-ar", "44100",
		"-ac", "2",
		"-ab", "192k",
		audioPath,
	}
}

// audioFileName derives the audio filename from the video's base name.
func audioFileName(videoPath string) string {
	base := filepath.Base(videoPath)
	name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "audio"
	}
	return name + ".mp3"
}

// NewForTests constructs an extractor with injectable dependencies.
func NewForTests(
	ffmpegPath string,
	runner execx.Runner,
	stat func(name string) (os.FileInfo, error),
	mkdirAll func(path string, perm os.FileMode) error,
) *Extractor {
	return &Extractor{
		ffmpegPath: ffmpegPath,
		runner:     runner,
		stat:       stat,
		mkdirAll:   mkdirAll,
	}
}
