package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"subtitle-generator/internal/applock"
	"subtitle-generator/internal/config"
	"subtitle-generator/internal/diagnostics"
	"subtitle-generator/internal/domain"
	"subtitle-generator/internal/execx"
	"subtitle-generator/internal/jobs"
	"subtitle-generator/internal/logging"
	"subtitle-generator/internal/pipeline"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var videoDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Video files",
		Pattern:     "*.mp4;*.mkv;*.avi;*.mov;*.flv;*.wmv;*.webm",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// pipelineRunner isolates the generation pipeline behind an interface.
type pipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// App wires configuration, jobs, pipeline, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Manager
	Diagnostics domain.DiagnosticReport

	assets      fs.FS
	checker     *diagnostics.Checker
	logger      *slog.Logger
	lock        *applock.Lock
	newPipeline func(cfg pipeline.Config) pipelineRunner

	mu          sync.Mutex
	activeJobID string
	cancel      context.CancelFunc
	events      *jobs.EventBus
	runtimeCtx  context.Context
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}
	if err := ensureLocalBinOnPATH(homeDir); err != nil {
		return nil, fmt.Errorf("prepare local tool path: %w", err)
	}

	store := config.NewTOMLStore(config.DefaultSettingsPath())
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	logger, err := logging.New(logging.Options{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)

	return &App{
		Settings:    settings,
		Store:       store,
		Jobs:        jobs.NewManager(),
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		logger:      logger,
		lock:        applock.New(filepath.Join(config.AppDir(), "app.lock")),
		newPipeline: func(cfg pipeline.Config) pipelineRunner {
			return pipeline.New(cfg)
		},
		events: jobs.NewEventBus(1000),
	}, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	if err := a.lock.Acquire(); err != nil {
		return err
	}
	defer func() { _ = a.lock.Release() }()

	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Subtitle Generator",
		Width:       960,
		Height:      720,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetModelTiers returns the selectable model tiers, fastest first.
func (a *App) GetModelTiers() []domain.ModelTier {
	return domain.ModelTiers()
}

// GetLanguages returns the selectable language list, auto first.
func (a *App) GetLanguages() []domain.LanguageOption {
	return domain.SupportedLanguages()
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = normalized
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(normalized)
	}
	a.mu.Unlock()

	return normalized, nil
}

// PickVideoFile opens a native file dialog for video selection.
func (a *App) PickVideoFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select video file",
		Filters: videoDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickOutputDirectory opens a native directory picker for subtitle exports.
func (a *App) PickOutputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select output directory",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// OpenOutputFolder opens the given path (or configured output dir) in file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Settings.OutputDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	return a.refreshDiagnosticsFromSettings(normalizeSettings(settings)), nil
}

// StartGeneration creates a subtitle job and runs it asynchronously.
func (a *App) StartGeneration(videoPath string) (domain.Job, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Job{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	tier, err := domain.ParseModelTier(settings.ModelTier)
	if err != nil {
		return domain.Job{}, err
	}

	outputDir := settings.OutputDir
	if strings.TrimSpace(outputDir) == "" {
		outputDir = filepath.Dir(videoPath)
	}

	job := domain.Job{
		ID:        uuid.NewString(),
		VideoPath: videoPath,
		OutputDir: outputDir,
		ModelTier: string(tier),
		Language:  settings.Language,
	}
	if err := a.Jobs.Start(job); err != nil {
		return domain.Job{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.activeJobID = job.ID
	a.cancel = cancel
	a.Settings = settings
	a.mu.Unlock()

	a.publishStatus(job.ID, domain.JobStatusExtracting, "Job started")

	go a.runGenerationJob(ctx, job, settings)
	return a.Jobs.Current(), nil
}

// CancelGeneration requests cancellation of the running job, if any.
// Cancellation is cooperative: a phase already in progress finishes or
// is cut short only by child-process termination.
func (a *App) CancelGeneration() error {
	a.mu.Lock()
	cancel := a.cancel
	activeJobID := a.activeJobID
	a.mu.Unlock()

	if cancel == nil {
		return jobs.ErrNoRunningJob
	}

	cancel()
	if err := a.Jobs.Cancel(); err != nil && !errors.Is(err, jobs.ErrNoRunningJob) {
		return err
	}

	if activeJobID != "" {
		a.publishStatus(activeJobID, domain.JobStatusCancelled, "Cancellation requested")
	}
	return nil
}

// CurrentJob returns current job metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Jobs.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// runGenerationJob executes the pipeline and maps outcomes to job events.
func (a *App) runGenerationJob(ctx context.Context, job domain.Job, settings domain.Settings) {
	runner := a.newPipeline(pipeline.Config{
		FFmpegPath:  settings.FFmpegPath,
		WhisperPath: settings.WhisperPath,
		ModelsDir:   settings.ModelsDir,
	})

	req := pipeline.Request{
		VideoPath: job.VideoPath,
		OutputDir: job.OutputDir,
		ModelTier: domain.ModelTier(job.ModelTier),
		Language:  job.Language,
		OnStage: func(stage string) {
			status, ok := mapStageToStatus(stage)
			if !ok {
				return
			}
			if err := a.Jobs.Transition(status); err == nil {
				a.publishStatus(job.ID, status, "Running "+stage+" phase")
			}
		},
		OnLog: func(log execx.Log) {
			a.publishEvent(jobs.Event{
				JobID:    job.ID,
				Type:     jobs.EventTypeLog,
				Message:  "Command completed",
				Command:  log.Command,
				Args:     log.Args,
				ExitCode: log.ExitCode,
				Stderr:   log.Stderr,
			})
		},
	}

	result, err := runner.Run(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			_ = a.Jobs.Transition(domain.JobStatusCancelled)
			a.publishStatus(job.ID, domain.JobStatusCancelled, "Job cancelled")
			a.clearActiveJob(job.ID)
			return
		}

		_ = a.Jobs.Transition(domain.JobStatusFailed)
		a.publishStatus(job.ID, domain.JobStatusFailed, "Job failed")
		a.publishEvent(jobs.Event{
			JobID:   job.ID,
			Type:    jobs.EventTypeError,
			Status:  domain.JobStatusFailed,
			Message: err.Error(),
		})

		var pipelineErr *pipeline.Error
		if errors.As(err, &pipelineErr) && pipelineErr.CommandLog.Command != "" {
			a.publishEvent(jobs.Event{
				JobID:    job.ID,
				Type:     jobs.EventTypeLog,
				Message:  "Failed command",
				Command:  pipelineErr.CommandLog.Command,
				Args:     pipelineErr.CommandLog.Args,
				ExitCode: pipelineErr.CommandLog.ExitCode,
				Stderr:   pipelineErr.CommandLog.Stderr,
			})
		}

		a.logger.Error("job failed", "jobId", job.ID, "error", err)
		a.clearActiveJob(job.ID)
		return
	}

	if err := a.Jobs.Transition(domain.JobStatusDone); err == nil {
		a.publishStatus(job.ID, domain.JobStatusDone, "Job completed")
	}
	a.publishEvent(jobs.Event{
		JobID:   job.ID,
		Type:    jobs.EventTypeResult,
		Status:  domain.JobStatusDone,
		Message: fmt.Sprintf("Subtitles exported (%d cues)", result.SegmentCount),
		SRTPath: result.SRTPath,
	})
	a.logger.Info("job completed", "jobId", job.ID, "srtPath", result.SRTPath)
	a.clearActiveJob(job.ID)
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(jobID string, status domain.JobStatus, message string) {
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "job:event", published)
	}
}

// clearActiveJob clears cancellation handles for completed job IDs.
func (a *App) clearActiveJob(jobID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeJobID == jobID {
		a.activeJobID = ""
		a.cancel = nil
	}
}

// mapStageToStatus maps pipeline stage names to job statuses.
func mapStageToStatus(stage string) (domain.JobStatus, bool) {
	switch stage {
	case pipeline.StageExtracting:
		return domain.JobStatusExtracting, true
	case pipeline.StageTranscribing:
		return domain.JobStatusTranscribing, true
	case pipeline.StageComposing:
		return domain.JobStatusComposing, true
	default:
		return "", false
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and applies defaults when empty.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.ModelsDir = strings.TrimSpace(settings.ModelsDir)
	settings.OutputDir = strings.TrimSpace(settings.OutputDir)
	settings.ModelTier = strings.TrimSpace(settings.ModelTier)
	settings.Language = strings.TrimSpace(settings.Language)
	settings.FFmpegPath = strings.TrimSpace(settings.FFmpegPath)
	settings.WhisperPath = strings.TrimSpace(settings.WhisperPath)
	if settings.ModelTier == "" {
		settings.ModelTier = string(domain.ModelTierTiny)
	}
	if settings.Language == "" || !domain.IsSupportedLanguage(settings.Language) {
		settings.Language = domain.LanguageAuto
	}
	return settings
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
