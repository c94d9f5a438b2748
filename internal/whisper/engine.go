// Package whisper loads pretrained speech-recognition model weights by
// tier and runs inference through the whisper.cpp CLI. Audio decoding
// is not performed here; callers inject a waveform.Loader.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"subtitle-generator/internal/domain"
	"subtitle-generator/internal/execx"
	"subtitle-generator/internal/waveform"
)

// ModelLoadError reports unavailable or unloadable model weights.
type ModelLoadError struct {
	Tier    domain.ModelTier
	Message string
	Err     error
}

// Error formats the failure with the requested tier.
func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %s: %s", e.Tier, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ModelLoadError) Unwrap() error { return e.Err }

// TranscriptionError reports a whisper CLI failure during inference.
type TranscriptionError struct {
	Message    string
	CommandLog execx.Log
	Err        error
}

// Error formats the failure with command context when available.
func (e *TranscriptionError) Error() string {
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("transcribe: %s", e.Message)
	}
	return fmt.Sprintf("transcribe: %s (cmd=%s exit=%d)", e.Message, e.CommandLog.Command, e.CommandLog.ExitCode)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *TranscriptionError) Unwrap() error { return e.Err }

// Engine resolves model weights and constructs runnable models.
type Engine struct {
	whisperPath string
	modelsDir   string
	runner      execx.Runner
	mkdirTemp   func(dir, pattern string) (string, error)
	removeAll   func(path string) error
	stat        func(name string) (os.FileInfo, error)
	readFile    func(name string) ([]byte, error)
	onLog       func(log execx.Log)
}

// NewEngine constructs the production engine.
func NewEngine(whisperPath, modelsDir string) *Engine {
	if strings.TrimSpace(whisperPath) == "" {
		whisperPath = "whisper-cli"
	}
	return &Engine{
		whisperPath: whisperPath,
		modelsDir:   modelsDir,
		runner:      execx.NewRunner(),
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		stat:        os.Stat,
		readFile:    os.ReadFile,
	}
}

// OnLog registers a callback receiving each command invocation log.
func (e *Engine) OnLog(cb func(log execx.Log)) {
	e.onLog = cb
}

// LoadModel resolves weights for the requested tier. First use of a
// tier normally requires downloading the weights beforehand; missing
// weights fail here, not at inference time.
func (e *Engine) LoadModel(tier domain.ModelTier) (*Model, error) {
	modelPath, err := ModelFilePath(e.modelsDir, tier)
	if err != nil {
		return nil, &ModelLoadError{Tier: tier, Message: err.Error(), Err: err}
	}

	info, err := e.stat(modelPath)
	if err != nil {
		return nil, &ModelLoadError{
			Tier:    tier,
			Message: fmt.Sprintf("model weights not found: %s", modelPath),
			Err:     err,
		}
	}
	if info.IsDir() || info.Size() == 0 {
		return nil, &ModelLoadError{
			Tier:    tier,
			Message: fmt.Sprintf("model weights unusable: %s", modelPath),
		}
	}

	return &Model{engine: e, tier: tier, modelPath: modelPath}, nil
}

// Model is a loaded speech-recognition model for one tier.
type Model struct {
	engine    *Engine
	tier      domain.ModelTier
	modelPath string
}

// Tier returns the model's tier.
func (m *Model) Tier() domain.ModelTier { return m.tier }

// Transcribe runs inference over a mono 16kHz waveform and returns the
// recognized segments in ascending start order. An empty or "auto"
// language triggers automatic detection.
func (m *Model) Transcribe(ctx context.Context, samples []float32, language string) ([]domain.TranscriptSegment, error) {
	e := m.engine

	tempDir, err := e.mkdirTemp("", "subtitle-generator-*")
	if err != nil {
		return nil, &TranscriptionError{Message: "failed to create temporary workspace", Err: err}
	}
	defer func() { _ = e.removeAll(tempDir) }()

	audioPath := filepath.Join(tempDir, "waveform-16k-mono.wav")
	if err := waveform.EncodeWAV(audioPath, samples); err != nil {
		return nil, &TranscriptionError{Message: "failed to stage waveform for inference", Err: err}
	}

	outBase := filepath.Join(tempDir, "transcript")
	args := buildWhisperArgs(m.modelPath, audioPath, outBase, language)

	result, runErr := e.runner.Run(ctx, e.whisperPath, args...)
	log := execx.NewLog(e.whisperPath, args, result)
	if e.onLog != nil {
		e.onLog(log)
	}
	if runErr != nil {
		return nil, &TranscriptionError{
			Message:    "whisper inference failed",
			CommandLog: log,
			Err:        runErr,
		}
	}

	payload, err := e.readFile(outBase + ".json")
	if err != nil {
		return nil, &TranscriptionError{
			Message:    "whisper completed but JSON output is missing",
			CommandLog: log,
			Err:        err,
		}
	}

	segments, err := parseSegments(payload)
	if err != nil {
		return nil, &TranscriptionError{
			Message:    "cannot parse whisper JSON output",
			CommandLog: log,
			Err:        err,
		}
	}
	return segments, nil
}

// buildWhisperArgs builds whisper.cpp args for JSON segment export.
func buildWhisperArgs(modelPath, audioPath, outBase, language string) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", outBase,
		"-oj",
		"-np",
	}
	if lang := normalizeLanguage(language); lang != "" {
		args = append(args, "-l", lang)
	}
	return args
}

// normalizeLanguage maps "auto" and empty language to no CLI override.
func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, domain.LanguageAuto) {
		return ""
	}
	return lang
}

// whisperPayload mirrors the whisper.cpp JSON output file.
type whisperPayload struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseSegments converts whisper.cpp millisecond offsets to seconds.
func parseSegments(data []byte) ([]domain.TranscriptSegment, error) {
	var payload whisperPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	segments := make([]domain.TranscriptSegment, 0, len(payload.Transcription))
	for i, entry := range payload.Transcription {
		segments = append(segments, domain.TranscriptSegment{
			Index: i,
			Start: float64(entry.Offsets.From) / 1000,
			End:   float64(entry.Offsets.To) / 1000,
			Text:  strings.TrimSpace(entry.Text),
		})
	}
	return segments, nil
}

// NewEngineForTests constructs an engine with injectable dependencies.
func NewEngineForTests(
	whisperPath string,
	modelsDir string,
	runner execx.Runner,
	mkdirTemp func(dir, pattern string) (string, error),
	removeAll func(path string) error,
	stat func(name string) (os.FileInfo, error),
	readFile func(name string) ([]byte, error),
) *Engine {
	return &Engine{
		whisperPath: whisperPath,
		modelsDir:   modelsDir,
		runner:      runner,
		mkdirTemp:   mkdirTemp,
		removeAll:   removeAll,
		stat:        stat,
		readFile:    readFile,
	}
}
