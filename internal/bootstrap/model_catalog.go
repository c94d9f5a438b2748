package bootstrap

import (
	"fmt"
	"strings"

	"subtitle-generator/internal/domain"
	"subtitle-generator/internal/whisper"
)

// GetModelCatalog returns the five tier presets with download state.
func (a *App) GetModelCatalog() []domain.ModelOption {
	models := whisper.Catalog()

	settings, err := a.loadNormalizedSettings()
	if err == nil && settings.ModelsDir != "" {
		whisper.MarkDownloaded(models, settings.ModelsDir)
	}
	return models
}

// DownloadModel fetches weights for one tier into the models directory
// and selects that tier in settings.
func (a *App) DownloadModel(tierID string) (domain.Settings, error) {
	tier, err := domain.ParseModelTier(strings.TrimSpace(tierID))
	if err != nil {
		return domain.Settings{}, err
	}

	entry, ok := whisper.CatalogEntry(tier)
	if !ok {
		return domain.Settings{}, fmt.Errorf("no catalog entry for tier: %s", tier)
	}

	if a.Store == nil {
		return domain.Settings{}, fmt.Errorf("settings store is not configured")
	}

	settings, err := a.loadNormalizedSettings()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	targetPath, err := whisper.ModelFilePath(settings.ModelsDir, tier)
	if err != nil {
		return domain.Settings{}, err
	}
	if err := downloadURLToFile(targetPath, entry.URL, modelDownloadTimeout); err != nil {
		return domain.Settings{}, fmt.Errorf("download model %s: %w", entry.Name, err)
	}

	settings.ModelTier = string(tier)
	if err := a.Store.Save(settings); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.refreshDiagnosticsFromSettings(settings)
	return settings, nil
}

// loadNormalizedSettings loads and normalizes persisted settings.
func (a *App) loadNormalizedSettings() (domain.Settings, error) {
	if a.Store == nil {
		return domain.Settings{}, fmt.Errorf("settings store is not configured")
	}
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, err
	}
	return normalizeSettings(settings), nil
}
