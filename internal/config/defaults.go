package config

import (
	"os"
	"path/filepath"

	"subtitle-generator/internal/domain"
)

// AppDirName is the per-user configuration directory name.
const AppDirName = ".subtitle-generator"

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		ModelsDir: filepath.Join(homeDir, AppDirName, "models"),
		OutputDir: filepath.Join(homeDir, "Documents", "Subtitles"),
		ModelTier: string(domain.ModelTierTiny),
		Language:  domain.LanguageAuto,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// AppDir returns the per-user configuration directory.
func AppDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, AppDirName)
}

// DefaultSettingsPath returns the settings file location.
func DefaultSettingsPath() string {
	return filepath.Join(AppDir(), "settings.toml")
}
