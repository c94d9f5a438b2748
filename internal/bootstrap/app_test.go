package bootstrap

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"subtitle-generator/internal/domain"
	"subtitle-generator/internal/execx"
	"subtitle-generator/internal/jobs"
	"subtitle-generator/internal/logging"
	"subtitle-generator/internal/pipeline"
)

// fakeStore returns deterministic settings for App tests.
type fakeStore struct {
	settings domain.Settings
	saved    *domain.Settings
}

// Load returns preconfigured settings.
func (s *fakeStore) Load() (domain.Settings, error) {
	return s.settings, nil
}

// Save records the last persisted settings.
func (s *fakeStore) Save(settings domain.Settings) error {
	s.saved = &settings
	s.settings = settings
	return nil
}

// fakePipeline allows injecting custom run behavior per test.
type fakePipeline struct {
	run func(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Run delegates to injected function.
func (p *fakePipeline) Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	if p.run == nil {
		return pipeline.Result{}, nil
	}
	return p.run(ctx, req)
}

// newTestApp assembles an App around a fake store and pipeline.
func newTestApp(t *testing.T, store *fakeStore, runner *fakePipeline) *App {
	t.Helper()
	logger, err := logging.New(logging.Options{Writer: io.Discard})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return &App{
		Store:  store,
		Jobs:   jobs.NewManager(),
		logger: logger,
		newPipeline: func(cfg pipeline.Config) pipelineRunner {
			return runner
		},
		events: jobs.NewEventBus(100),
	}
}

// TestStartGenerationEnforcesSingleRunningJob checks single-job guard.
func TestStartGenerationEnforcesSingleRunningJob(t *testing.T) {
	store := &fakeStore{
		settings: domain.Settings{
			ModelsDir: "/tmp/models",
			OutputDir: t.TempDir(),
			ModelTier: "tiny",
			Language:  "auto",
		},
	}

	app := newTestApp(t, store, &fakePipeline{run: func(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
		<-ctx.Done()
		return pipeline.Result{}, ctx.Err()
	}})

	if _, err := app.StartGeneration("/tmp/input.mp4"); err != nil {
		t.Fatalf("start first job: %v", err)
	}
	if _, err := app.StartGeneration("/tmp/input-2.mp4"); !errors.Is(err, jobs.ErrJobAlreadyRunning) {
		t.Fatalf("second start error = %v, want %v", err, jobs.ErrJobAlreadyRunning)
	}

	if err := app.CancelGeneration(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusCancelled)
}

// TestStartGenerationPublishesProgressAndResultEvents checks event flow.
func TestStartGenerationPublishesProgressAndResultEvents(t *testing.T) {
	root := t.TempDir()
	outputDir := filepath.Join(root, "out")
	store := &fakeStore{
		settings: domain.Settings{
			ModelsDir: "/tmp/models",
			OutputDir: outputDir,
			ModelTier: "base",
			Language:  "en",
		},
	}

	app := newTestApp(t, store, &fakePipeline{run: func(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
		if req.ModelTier != domain.ModelTierBase {
			t.Errorf("tier = %s, want base", req.ModelTier)
		}
		if req.OnStage != nil {
			req.OnStage(pipeline.StageExtracting)
			req.OnStage(pipeline.StageTranscribing)
			req.OnStage(pipeline.StageComposing)
		}
		if req.OnLog != nil {
			req.OnLog(execx.Log{Command: "ffmpeg", ExitCode: 0})
			req.OnLog(execx.Log{Command: "whisper-cli", ExitCode: 0})
		}
		return pipeline.Result{
			AudioPath:    filepath.Join(outputDir, "clip.mp3"),
			SRTPath:      filepath.Join(outputDir, "clip.srt"),
			SegmentCount: 3,
		}, nil
	}})

	if _, err := app.StartGeneration(filepath.Join(root, "clip.mp4")); err != nil {
		t.Fatalf("start job: %v", err)
	}

	waitForStatus(t, app, domain.JobStatusDone)
	events := app.JobEvents(0)
	if len(events) == 0 {
		t.Fatal("expected events")
	}

	assertEventTypeExists(t, events, jobs.EventTypeStatus)
	assertEventTypeExists(t, events, jobs.EventTypeLog)
	assertEventTypeExists(t, events, jobs.EventTypeResult)

	for _, event := range events {
		if event.Type == jobs.EventTypeResult && event.SRTPath != filepath.Join(outputDir, "clip.srt") {
			t.Fatalf("result srt path = %q", event.SRTPath)
		}
	}
}

// TestStartGenerationPublishesFailureEvents checks error path emissions.
func TestStartGenerationPublishesFailureEvents(t *testing.T) {
	root := t.TempDir()
	store := &fakeStore{
		settings: domain.Settings{
			ModelsDir: "/tmp/models",
			OutputDir: filepath.Join(root, "out"),
			ModelTier: "tiny",
			Language:  "en",
		},
	}

	app := newTestApp(t, store, &fakePipeline{run: func(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
		return pipeline.Result{}, &pipeline.Error{
			Kind:    pipeline.KindTranscription,
			Stage:   pipeline.StageTranscribing,
			Message: "whisper inference failed",
			CommandLog: execx.Log{
				Command:  "whisper-cli",
				Args:     []string{"-m", "/tmp/models/ggml-tiny.bin"},
				ExitCode: 1,
				Stderr:   "bad model",
			},
			Err: errors.New("exit status 1"),
		}
	}})

	if _, err := app.StartGeneration(filepath.Join(root, "clip.mp4")); err != nil {
		t.Fatalf("start job: %v", err)
	}

	waitForStatus(t, app, domain.JobStatusFailed)
	events := app.JobEvents(0)
	if len(events) == 0 {
		t.Fatal("expected events")
	}

	assertEventTypeExists(t, events, jobs.EventTypeStatus)
	assertEventTypeExists(t, events, jobs.EventTypeError)
	assertEventTypeExists(t, events, jobs.EventTypeLog)
}

// TestStartGenerationCancelledJobSkipsResultEvent checks no success
// notification after cooperative cancellation.
func TestStartGenerationCancelledJobSkipsResultEvent(t *testing.T) {
	store := &fakeStore{
		settings: domain.Settings{
			ModelsDir: "/tmp/models",
			OutputDir: t.TempDir(),
			ModelTier: "tiny",
			Language:  "auto",
		},
	}

	app := newTestApp(t, store, &fakePipeline{run: func(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
		<-ctx.Done()
		return pipeline.Result{}, ctx.Err()
	}})

	if _, err := app.StartGeneration("/tmp/input.mp4"); err != nil {
		t.Fatalf("start job: %v", err)
	}
	if err := app.CancelGeneration(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusCancelled)

	for _, event := range app.JobEvents(0) {
		if event.Type == jobs.EventTypeResult {
			t.Fatalf("cancelled job should not publish result event: %+v", event)
		}
	}
}

// TestStartGenerationRejectsUnknownTier checks settings validation.
func TestStartGenerationRejectsUnknownTier(t *testing.T) {
	store := &fakeStore{
		settings: domain.Settings{
			ModelsDir: "/tmp/models",
			OutputDir: t.TempDir(),
			ModelTier: "gigantic",
		},
	}

	app := newTestApp(t, store, &fakePipeline{})
	if _, err := app.StartGeneration("/tmp/input.mp4"); err == nil {
		t.Fatal("expected error for unknown model tier")
	}
}

// TestStartGenerationDefaultsOutputDirToVideoDir checks fallback.
func TestStartGenerationDefaultsOutputDirToVideoDir(t *testing.T) {
	store := &fakeStore{
		settings: domain.Settings{
			ModelsDir: "/tmp/models",
			ModelTier: "tiny",
			Language:  "auto",
		},
	}

	var gotOutputDir string
	done := make(chan struct{})
	app := newTestApp(t, store, &fakePipeline{run: func(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
		gotOutputDir = req.OutputDir
		close(done)
		return pipeline.Result{SRTPath: filepath.Join(req.OutputDir, "talk.srt")}, nil
	}})

	if _, err := app.StartGeneration("/videos/talk.mp4"); err != nil {
		t.Fatalf("start job: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not run")
	}
	if gotOutputDir != "/videos" {
		t.Fatalf("output dir = %q, want /videos", gotOutputDir)
	}
}

// TestRefreshDiagnosticsUpdatesCachedReport checks the report cache the
// UI reads is rewritten from reloaded settings.
func TestRefreshDiagnosticsUpdatesCachedReport(t *testing.T) {
	store := &fakeStore{
		settings: domain.Settings{
			ModelsDir: "/path/that/does/not/exist",
			OutputDir: t.TempDir(),
			ModelTier: "tiny",
		},
	}

	app := newTestApp(t, store, &fakePipeline{})
	app.checker = failingLookupChecker()

	report, err := app.RefreshDiagnostics()
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !report.HasFailures {
		t.Fatalf("expected failures, got %+v", report.Items)
	}
	if !app.GetDiagnostics().HasFailures {
		t.Fatal("cached report should match the refreshed one")
	}
}

// TestRefreshDiagnosticsDuringRunningJob checks refresh is safe while
// the worker goroutine is updating job state.
func TestRefreshDiagnosticsDuringRunningJob(t *testing.T) {
	store := &fakeStore{
		settings: domain.Settings{
			ModelsDir: t.TempDir(),
			OutputDir: t.TempDir(),
			ModelTier: "tiny",
			Language:  "auto",
		},
	}

	app := newTestApp(t, store, &fakePipeline{run: func(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
		<-ctx.Done()
		return pipeline.Result{}, ctx.Err()
	}})
	app.checker = failingLookupChecker()

	if _, err := app.StartGeneration("/tmp/input.mp4"); err != nil {
		t.Fatalf("start job: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			if _, err := app.RefreshDiagnostics(); err != nil {
				t.Errorf("refresh: %v", err)
				return
			}
		}
	}()

	<-done
	if err := app.CancelGeneration(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusCancelled)
}

// waitForStatus polls until job reaches desired status or times out.
func waitForStatus(t *testing.T, app *App, want domain.JobStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if app.CurrentJob().Status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status = %s, want %s", app.CurrentJob().Status, want)
}

// assertEventTypeExists verifies at least one event of given type exists.
func assertEventTypeExists(t *testing.T, events []jobs.Event, want jobs.EventType) {
	t.Helper()
	for _, event := range events {
		if event.Type == want {
			return
		}
	}
	t.Fatalf("event type %s not found", want)
}
