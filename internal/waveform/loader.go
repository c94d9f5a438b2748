// Package waveform decodes and resamples audio to the 16kHz mono
// float32 signal the speech model consumes. The ffmpeg-backed loader
// replaces the model's own audio decoding so the binary location stays
// under this application's control; alternative loaders can be swapped
// in without touching model loading or inference.
package waveform

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"subtitle-generator/internal/execx"
)

// SampleRate is the signal rate expected by the speech model.
const SampleRate = 16000

// DecodeError reports an ffmpeg failure during decode/resample.
type DecodeError struct {
	Message    string
	CommandLog execx.Log
	Err        error
}

// Error formats the failure with command context when available.
func (e *DecodeError) Error() string {
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("decode audio: %s", e.Message)
	}
	return fmt.Sprintf("decode audio: %s (cmd=%s exit=%d)", e.Message, e.CommandLog.Command, e.CommandLog.ExitCode)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *DecodeError) Unwrap() error { return e.Err }

// Loader produces a normalized mono 16kHz waveform from an audio file.
type Loader interface {
	Load(ctx context.Context, audioPath string) ([]float32, error)
}

// FFmpegLoader pipes raw s16le PCM out of ffmpeg and normalizes it.
type FFmpegLoader struct {
	ffmpegPath string
	runner     execx.Runner
	onLog      func(log execx.Log)
}

// NewFFmpegLoader constructs the production loader.
func NewFFmpegLoader(ffmpegPath string) *FFmpegLoader {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegLoader{
		ffmpegPath: ffmpegPath,
		runner:     execx.NewRunner(),
	}
}

// OnLog registers a callback receiving each command invocation log.
func (l *FFmpegLoader) OnLog(cb func(log execx.Log)) {
	l.onLog = cb
}

// Load decodes audioPath to signed 16-bit PCM on stdout and converts
// each sample to float32 in [-1.0, 1.0] by dividing by 32768.
func (l *FFmpegLoader) Load(ctx context.Context, audioPath string) ([]float32, error) {
	args := buildDecodeArgs(audioPath)

	result, runErr := l.runner.Run(ctx, l.ffmpegPath, args...)
	log := execx.NewLog(l.ffmpegPath, args, result)
	if l.onLog != nil {
		l.onLog(log)
	}
	if runErr != nil {
		return nil, &DecodeError{
			Message:    "ffmpeg audio decode failed",
			CommandLog: log,
			Err:        runErr,
		}
	}

	return pcm16ToFloat32(result.Stdout), nil
}

// buildDecodeArgs requests raw little-endian s16 mono 16kHz on stdout.
func buildDecodeArgs(audioPath string) []string {
	return []string{
		"-nostdin",
		"-threads", "0",
		"-i", audioPath,
		"-f", "s16le",
		"-ac", "1",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-",
	}
}

// pcm16ToFloat32 converts little-endian signed 16-bit PCM bytes to a
// normalized float32 waveform. A trailing odd byte is dropped.
func pcm16ToFloat32(raw []byte) []float32 {
	n := len(raw) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float32(sample) / 32768.0
	}
	return samples
}

// float32ToPCM16 converts a normalized waveform back to signed 16-bit
// PCM, clamping out-of-range samples.
func float32ToPCM16(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, sample := range samples {
		scaled := math.Round(float64(sample) * 32767)
		if scaled > math.MaxInt16 {
			scaled = math.MaxInt16
		}
		if scaled < math.MinInt16 {
			scaled = math.MinInt16
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(scaled)))
	}
	return out
}

// NewFFmpegLoaderForTests constructs a loader with an injected runner.
func NewFFmpegLoaderForTests(ffmpegPath string, runner execx.Runner) *FFmpegLoader {
	return &FFmpegLoader{ffmpegPath: ffmpegPath, runner: runner}
}
