// Package pipeline sequences audio extraction, transcription, and
// subtitle composition for one job.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"subtitle-generator/internal/domain"
	"subtitle-generator/internal/execx"
	"subtitle-generator/internal/extract"
	"subtitle-generator/internal/subtitle"
	"subtitle-generator/internal/waveform"
	"subtitle-generator/internal/whisper"
)

// Stage names reported through OnStage callbacks.
const (
	StageExtracting   = "extracting"
	StageTranscribing = "transcribing"
	StageComposing    = "composing"
)

// ErrorKind discriminates pipeline failures so callers can branch on
// kind instead of parsing messages.
type ErrorKind string

const (
	KindExtraction    ErrorKind = "extraction"
	KindDecode        ErrorKind = "decode"
	KindModelLoad     ErrorKind = "model-load"
	KindTranscription ErrorKind = "transcription"
	KindIO            ErrorKind = "io"
)

// Error is a kind-tagged pipeline failure with optional command context.
type Error struct {
	Kind       ErrorKind `json:"kind"`
	Stage      string    `json:"stage"`
	Message    string    `json:"message"`
	CommandLog execx.Log `json:"commandLog"`
	Err        error     `json:"-"`
}

// Error formats pipeline failures for logs and UI.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s (cmd=%s exit=%d)", e.Stage, e.Message, e.CommandLog.Command, e.CommandLog.ExitCode)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Request contains input media and execution callbacks for one run.
type Request struct {
	VideoPath string
	OutputDir string
	ModelTier domain.ModelTier
	Language  string
	OnStage   func(stage string)
	OnLog     func(log execx.Log)
}

// Result contains output artifact paths for one completed run.
type Result struct {
	AudioPath    string
	SRTPath      string
	SegmentCount int
}

// audioExtractor isolates audio extraction for testability.
type audioExtractor interface {
	Extract(ctx context.Context, videoPath, outputDir string) (string, error)
}

// transcriber isolates model transcription for testability.
type transcriber interface {
	Transcribe(ctx context.Context, audioPath string, tier domain.ModelTier, language string) ([]domain.TranscriptSegment, error)
}

// Config selects the external binaries and model weights location.
type Config struct {
	FFmpegPath  string
	WhisperPath string
	ModelsDir   string
}

// Pipeline orchestrates the extract -> transcribe -> compose sequence.
type Pipeline struct {
	extractor   audioExtractor
	transcriber transcriber
	compose     func(segments []domain.TranscriptSegment) string
	save        func(content, videoPath, outputDir string) (string, error)

	mu    sync.Mutex
	onLog func(log execx.Log)
}

// New constructs the production pipeline from binary paths.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		compose: subtitle.Compose,
		save:    subtitle.Save,
	}

	extractor := extract.New(cfg.FFmpegPath)
	extractor.OnLog(p.emitLog)

	loader := waveform.NewFFmpegLoader(cfg.FFmpegPath)
	loader.OnLog(p.emitLog)

	engine := whisper.NewEngine(cfg.WhisperPath, cfg.ModelsDir)
	engine.OnLog(p.emitLog)

	p.extractor = extractor
	p.transcriber = whisper.NewService(engine, loader)
	return p
}

// Run executes all three phases in order. The context is checked at the
// phase boundaries after extraction and after transcription; a phase in
// progress is not preempted by the checkpoint itself, though cancelling
// the context does terminate a running child process. Failures are
// never retried and partial artifacts stay on disk.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	p.setLogCallback(req.OnLog)
	defer p.setLogCallback(nil)

	emitStage(req.OnStage, StageExtracting)
	audioPath, err := p.extractor.Extract(ctx, req.VideoPath, req.OutputDir)
	if err != nil {
		return Result{}, p.classify(StageExtracting, err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	emitStage(req.OnStage, StageTranscribing)
	segments, err := p.transcriber.Transcribe(ctx, audioPath, req.ModelTier, req.Language)
	if err != nil {
		return Result{}, p.classify(StageTranscribing, err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	emitStage(req.OnStage, StageComposing)
	content := p.compose(segments)
	srtPath, err := p.save(content, req.VideoPath, req.OutputDir)
	if err != nil {
		return Result{}, &Error{
			Kind:    KindIO,
			Stage:   StageComposing,
			Message: err.Error(),
			Err:     err,
		}
	}

	return Result{
		AudioPath:    audioPath,
		SRTPath:      srtPath,
		SegmentCount: len(segments),
	}, nil
}

// classify maps component errors to kind-tagged pipeline errors while
// letting context cancellation pass through untouched.
func (p *Pipeline) classify(stage string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var extractErr *extract.ExtractionError
	if errors.As(err, &extractErr) {
		return &Error{
			Kind:       KindExtraction,
			Stage:      stage,
			Message:    extractErr.Message,
			CommandLog: extractErr.CommandLog,
			Err:        err,
		}
	}

	var decodeErr *waveform.DecodeError
	if errors.As(err, &decodeErr) {
		return &Error{
			Kind:       KindDecode,
			Stage:      stage,
			Message:    decodeErr.Message,
			CommandLog: decodeErr.CommandLog,
			Err:        err,
		}
	}

	var loadErr *whisper.ModelLoadError
	if errors.As(err, &loadErr) {
		return &Error{
			Kind:    KindModelLoad,
			Stage:   stage,
			Message: loadErr.Message,
			Err:     err,
		}
	}

	var transcribeErr *whisper.TranscriptionError
	if errors.As(err, &transcribeErr) {
		return &Error{
			Kind:       KindTranscription,
			Stage:      stage,
			Message:    transcribeErr.Message,
			CommandLog: transcribeErr.CommandLog,
			Err:        err,
		}
	}

	return &Error{
		Kind:    KindIO,
		Stage:   stage,
		Message: err.Error(),
		Err:     err,
	}
}

// setLogCallback swaps the forwarding target for command logs.
func (p *Pipeline) setLogCallback(cb func(log execx.Log)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onLog = cb
}

// emitLog forwards a command log to the active request callback.
func (p *Pipeline) emitLog(log execx.Log) {
	p.mu.Lock()
	cb := p.onLog
	p.mu.Unlock()
	if cb != nil {
		cb(log)
	}
}

// emitStage forwards stage updates when callback is configured.
func emitStage(cb func(stage string), stage string) {
	if cb != nil {
		cb(stage)
	}
}

// NewForTests constructs a pipeline with injectable components.
func NewForTests(
	extractor audioExtractor,
	trans transcriber,
	compose func(segments []domain.TranscriptSegment) string,
	save func(content, videoPath, outputDir string) (string, error),
) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		transcriber: trans,
		compose:     compose,
		save:        save,
	}
}
