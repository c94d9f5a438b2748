package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subtitle-generator/internal/config"
	"subtitle-generator/internal/domain"
	"subtitle-generator/internal/whisper"
)

const modelDownloadTimeout = 45 * time.Minute

// InstallOrFixDiagnostic applies a remediation for one failed
// diagnostic item. Missing external binaries are not installed here;
// the diagnostic hint covers that.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.loadNormalizedSettings()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	settingsChanged := false
	var fixErr error

	switch id {
	case "models_dir":
		settings, settingsChanged, fixErr = fixModelsDir(settings)
	case "output_dir":
		settings, settingsChanged, fixErr = fixOutputDir(settings)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

// refreshDiagnosticsFromSettings reruns checks against new settings.
func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

// fixModelsDir ensures a models directory exists and downloads the
// configured tier's weights when missing.
func fixModelsDir(settings domain.Settings) (domain.Settings, bool, error) {
	changed := false
	if strings.TrimSpace(settings.ModelsDir) == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return settings, false, fmt.Errorf("resolve user home: %w", err)
		}
		settings.ModelsDir = filepath.Join(homeDir, config.AppDirName, "models")
		changed = true
	}

	if err := os.MkdirAll(settings.ModelsDir, 0o755); err != nil {
		return settings, changed, fmt.Errorf("create models directory: %w", err)
	}

	tier, err := domain.ParseModelTier(settings.ModelTier)
	if err != nil {
		tier = domain.ModelTierTiny
		settings.ModelTier = string(tier)
		changed = true
	}

	targetPath, err := whisper.ModelFilePath(settings.ModelsDir, tier)
	if err != nil {
		return settings, changed, err
	}
	if _, statErr := os.Stat(targetPath); statErr == nil {
		return settings, changed, nil
	}

	entry, ok := whisper.CatalogEntry(tier)
	if !ok {
		return settings, changed, fmt.Errorf("no catalog entry for tier: %s", tier)
	}
	if err := downloadURLToFile(targetPath, entry.URL, modelDownloadTimeout); err != nil {
		return settings, changed, fmt.Errorf("download model %s: %w", entry.Name, err)
	}
	return settings, changed, nil
}

// fixOutputDir ensures a writable output directory is configured.
func fixOutputDir(settings domain.Settings) (domain.Settings, bool, error) {
	changed := false
	if strings.TrimSpace(settings.OutputDir) == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return settings, false, fmt.Errorf("resolve user home: %w", err)
		}
		settings.OutputDir = filepath.Join(homeDir, "Documents", "Subtitles")
		changed = true
	}

	if err := os.MkdirAll(settings.OutputDir, 0o755); err != nil {
		return settings, changed, fmt.Errorf("create output directory: %w", err)
	}
	return settings, changed, nil
}

// ensureLocalBinOnPATH prepends the per-user bin directory so bundled
// binaries take precedence over system installs.
func ensureLocalBinOnPATH(homeDir string) error {
	binDir := localBinDir(homeDir)
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}

	current := os.Getenv("PATH")
	entries := filepath.SplitList(current)
	for _, entry := range entries {
		if filepath.Clean(entry) == filepath.Clean(binDir) {
			return nil
		}
	}

	if current == "" {
		return os.Setenv("PATH", binDir)
	}
	return os.Setenv("PATH", binDir+string(os.PathListSeparator)+current)
}

// localBinDir is the per-user directory for bundled tool binaries.
func localBinDir(homeDir string) string {
	return filepath.Join(homeDir, config.AppDirName, "bin")
}

// downloadURLToFile downloads sourceURL into destinationPath via a
// temporary file and atomic rename.
func downloadURLToFile(destinationPath string, sourceURL string, timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(destinationPath), 0o755); err != nil {
		return fmt.Errorf("prepare destination directory: %w", err)
	}

	tmpPath := destinationPath + ".download"
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale temp file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "subtitle-generator")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	_, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write destination file: %w", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close destination file: %w", closeErr)
	}

	if err := os.Remove(destinationPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("remove old destination file: %w", err)
	}
	if err := os.Rename(tmpPath, destinationPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("move downloaded file into place: %w", err)
	}

	return nil
}
