package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"subtitle-generator/internal/domain"
)

// Checker validates external tools and required filesystem paths.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	readDir    func(string) ([]os.DirEntry, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		readDir:    os.ReadDir,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool(toolName(settings.FFmpegPath, "ffmpeg")),
		c.checkTool(toolName(settings.WhisperPath, "whisper-cli")),
		c.checkModelsDir(settings.ModelsDir),
		c.checkOutputDir(settings.OutputDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// toolName prefers a configured binary override over the default name.
func toolName(configured, fallback string) string {
	if trimmed := strings.TrimSpace(configured); trimmed != "" {
		return trimmed
	}
	return fallback
}

// checkTool verifies a required executable exists on PATH or at the
// configured absolute path.
func (c *Checker) checkTool(name string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "tool_" + filepath.Base(name),
		Name: filepath.Base(name),
	}

	if filepath.IsAbs(name) {
		if _, err := c.stat(name); err != nil {
			item.Status = domain.DiagnosticStatusFail
			item.Message = fmt.Sprintf("Configured binary not found: %s", name)
			item.Hint = "Fix the binary path in settings or clear it to use PATH lookup."
			return item
		}
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Found at %s", name)
		return item
	}

	path, err := c.lookPath(name)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Tool not found in PATH: %s", name)
		item.Hint = "Install it and ensure the binary is available on PATH before starting a job."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkModelsDir validates the models directory contains usable weights.
func (c *Checker) checkModelsDir(modelsDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "models_dir",
		Name: "Models directory",
	}

	if strings.TrimSpace(modelsDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Models directory is empty."
		item.Hint = "Set a directory for downloaded model weights."
		return item
	}

	info, err := c.stat(modelsDir)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		if errors.Is(err, os.ErrNotExist) {
			item.Message = fmt.Sprintf("Models directory does not exist: %s", modelsDir)
		} else {
			item.Message = fmt.Sprintf("Cannot access models directory: %s", modelsDir)
		}
		item.Hint = "Download a model from the catalog to create it."
		return item
	}
	if !info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Models path is not a directory: %s", modelsDir)
		return item
	}

	entries, err := c.readDir(modelsDir)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot read models directory: %s", modelsDir)
		item.Hint = "Check permissions for the models directory."
		return item
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) == ".bin" {
			item.Status = domain.DiagnosticStatusPass
			item.Message = fmt.Sprintf("Model weights present in %s", modelsDir)
			return item
		}
	}

	item.Status = domain.DiagnosticStatusFail
	item.Message = fmt.Sprintf("No model weights found in: %s", modelsDir)
	item.Hint = "Download a model tier from the catalog before starting a job."
	return item
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Output directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output directory is empty."
		item.Hint = "Set an output directory where subtitle files can be written."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for subtitle export."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	readDir func(string) ([]os.DirEntry, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		readDir:    readDir,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
