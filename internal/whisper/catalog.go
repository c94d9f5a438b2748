package whisper

import (
	"fmt"
	"os"
	"path/filepath"

	"subtitle-generator/internal/domain"
)

var modelCatalog = []domain.ModelOption{
	{
		Tier:        domain.ModelTierTiny,
		Name:        "Tiny",
		FileName:    "ggml-tiny.bin",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny.bin",
		SizeLabel:   "~75 MB",
		Description: "Fastest, least accurate.",
	},
	{
		Tier:        domain.ModelTierBase,
		Name:        "Base",
		FileName:    "ggml-base.bin",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin",
		SizeLabel:   "~142 MB",
		Description: "Balanced speed and quality.",
	},
	{
		Tier:        domain.ModelTierSmall,
		Name:        "Small",
		FileName:    "ggml-small.bin",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.bin",
		SizeLabel:   "~466 MB",
		Description: "Higher quality, slower.",
	},
	{
		Tier:        domain.ModelTierMedium,
		Name:        "Medium",
		FileName:    "ggml-medium.bin",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium.bin",
		SizeLabel:   "~1.5 GB",
		Description: "High quality, slow.",
	},
	{
		Tier:        domain.ModelTierLarge,
		Name:        "Large",
		FileName:    "ggml-large-v3.bin",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3.bin",
		SizeLabel:   "~2.9 GB",
		Description: "Best quality, slowest.",
	},
}

// Catalog returns the downloadable model presets, one per tier.
func Catalog() []domain.ModelOption {
	models := make([]domain.ModelOption, len(modelCatalog))
	copy(models, modelCatalog)
	return models
}

// CatalogEntry returns the preset for one tier.
func CatalogEntry(tier domain.ModelTier) (domain.ModelOption, bool) {
	for _, model := range modelCatalog {
		if model.Tier == tier {
			return model, true
		}
	}
	return domain.ModelOption{}, false
}

// ModelFilePath returns the expected weights path for a tier under
// modelsDir without checking existence.
func ModelFilePath(modelsDir string, tier domain.ModelTier) (string, error) {
	entry, ok := CatalogEntry(tier)
	if !ok {
		return "", fmt.Errorf("unknown model tier: %s", tier)
	}
	return filepath.Join(modelsDir, entry.FileName), nil
}

// MarkDownloaded fills Downloaded/LocalPath for presets whose weights
// exist under modelsDir.
func MarkDownloaded(models []domain.ModelOption, modelsDir string) {
	for i := range models {
		candidate := filepath.Join(modelsDir, models[i].FileName)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		models[i].Downloaded = true
		models[i].LocalPath = candidate
	}
}
