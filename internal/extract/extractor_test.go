package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subtitle-generator/internal/execx"
)

// fakeRunner simulates ffmpeg execution outcomes.
type fakeRunner struct {
	run func(ctx context.Context, name string, args ...string) (execx.Result, error)
}

// Run delegates to injected behavior.
func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (execx.Result, error) {
	if f.run == nil {
		return execx.Result{}, nil
	}
	return f.run(ctx, name, args...)
}

// TestExtractSuccess checks happy path output naming and arguments.
func TestExtractSuccess(t *testing.T) {
	root := t.TempDir()
	videoPath := filepath.Join(root, "lecture.mp4")
	outputDir := filepath.Join(root, "out")
	mustWriteFile(t, videoPath, "media")

	var gotName string
	var gotArgs []string
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (execx.Result, error) {
			gotName = name
			gotArgs = append([]string{}, args...)
			mustWriteFile(t, args[len(args)-1], "mp3 bytes")
			return execx.Result{ExitCode: 0}, nil
		},
	}

	extractor := NewForTests("ffmpeg-custom", runner, os.Stat, os.MkdirAll)
	var logs []execx.Log
	extractor.OnLog(func(log execx.Log) { logs = append(logs, log) })

	audioPath, err := extractor.Extract(context.Background(), videoPath, outputDir)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if audioPath != filepath.Join(outputDir, "lecture.mp3") {
		t.Fatalf("audio path = %q", audioPath)
	}
	if gotName != "ffmpeg-custom" {
		t.Fatalf("command = %q, want ffmpeg-custom", gotName)
	}
	if len(logs) != 1 || logs[0].Command != "ffmpeg-custom" {
		t.Fatalf("unexpected logs: %+v", logs)
	}

	want := []string{
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
	if len(gotArgs) != len(want) {
		t.Fatalf("args len = %d, want %d", len(gotArgs), len(want))
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q", i, gotArgs[i], want[i])
		}
	}
}

// TestExtractMissingVideoFailsWithoutRunning checks source validation.
func TestExtractMissingVideoFailsWithoutRunning(t *testing.T) {
	root := t.TempDir()

	calls := 0
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (execx.Result, error) {
			calls++
			return execx.Result{}, nil
		},
	}

	extractor := NewForTests("ffmpeg", runner, os.Stat, os.MkdirAll)
	_, err := extractor.Extract(context.Background(), filepath.Join(root, "missing.mp4"), root)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 0 {
		t.Fatalf("runner calls = %d, want 0", calls)
	}

	var eErr *ExtractionError
	if !errors.As(err, &eErr) {
		t.Fatalf("error type = %T, want *ExtractionError", err)
	}
}

// TestExtractFFmpegFailureCapturesCommandLog checks error payload.
func TestExtractFFmpegFailureCapturesCommandLog(t *testing.T) {
	root := t.TempDir()
	videoPath := filepath.Join(root, "clip.mkv")
	mustWriteFile(t, videoPath, "media")

	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (execx.Result, error) {
			return execx.Result{
				Stderr:   "no audio stream",
				ExitCode: 1,
			}, errors.New("exit status 1")
		},
	}

	extractor := NewForTests("ffmpeg", runner, os.Stat, os.MkdirAll)
	_, err := extractor.Extract(context.Background(), videoPath, filepath.Join(root, "out"))
	if err == nil {
		t.Fatal("expected error")
	}

	var eErr *ExtractionError
	if !errors.As(err, &eErr) {
		t.Fatalf("error type = %T, want *ExtractionError", err)
	}
	if eErr.CommandLog.Command != "ffmpeg" {
		t.Fatalf("command = %q, want ffmpeg", eErr.CommandLog.Command)
	}
	if eErr.CommandLog.ExitCode != 1 {
		t.Fatalf("exit code = %d, want 1", eErr.CommandLog.ExitCode)
	}
	if eErr.CommandLog.Stderr != "no audio stream" {
		t.Fatalf("stderr = %q", eErr.CommandLog.Stderr)
	}
}

// TestExtractEmptyOutputFails checks zero-byte output detection.
func TestExtractEmptyOutputFails(t *testing.T) {
	root := t.TempDir()
	videoPath := filepath.Join(root, "clip.mp4")
	mustWriteFile(t, videoPath, "media")

	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (execx.Result, error) {
			mustWriteFile(t, args[len(args)-1], "")
			return execx.Result{ExitCode: 0}, nil
		},
	}

	extractor := NewForTests("ffmpeg", runner, os.Stat, os.MkdirAll)
	_, err := extractor.Extract(context.Background(), videoPath, filepath.Join(root, "out"))
	if err == nil {
		t.Fatal("expected error for empty audio file")
	}

	var eErr *ExtractionError
	if !errors.As(err, &eErr) {
		t.Fatalf("error type = %T, want *ExtractionError", err)
	}
}

// TestAudioFileName checks basename derivation edge cases.
func TestAudioFileName(t *testing.T) {
	cases := []struct {
		videoPath string
		want      string
	}{
		{"/media/talk.mkv", "talk.mp3"},
		{"clip.mp4", "clip.mp3"},
		{".", "audio.mp3"},
	}

	for _, tc := range cases {
		if got := audioFileName(tc.videoPath); got != tc.want {
			t.Fatalf("audioFileName(%q) = %q, want %q", tc.videoPath, got, tc.want)
		}
	}
}

// mustWriteFile creates parent directory and writes file content.
func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir parent: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}
