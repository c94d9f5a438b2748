package domain

import "fmt"

// ModelTier selects one of the five trained whisper model variants,
// trading inference speed against transcription accuracy.
type ModelTier string

const (
	ModelTierTiny   ModelTier = "tiny"
	ModelTierBase   ModelTier = "base"
	ModelTierSmall  ModelTier = "small"
	ModelTierMedium ModelTier = "medium"
	ModelTierLarge  ModelTier = "large"
)

// ModelTiers lists all supported tiers from fastest to most accurate.
func ModelTiers() []ModelTier {
	return []ModelTier{
		ModelTierTiny,
		ModelTierBase,
		ModelTierSmall,
		ModelTierMedium,
		ModelTierLarge,
	}
}

// ParseModelTier validates a raw tier string.
func ParseModelTier(raw string) (ModelTier, error) {
	for _, tier := range ModelTiers() {
		if string(tier) == raw {
			return tier, nil
		}
	}
	return "", fmt.Errorf("unsupported model tier: %q", raw)
}

// ModelOption describes one downloadable whisper model preset.
type ModelOption struct {
	Tier        ModelTier `json:"tier"`
	Name        string    `json:"name"`
	FileName    string    `json:"fileName"`
	URL         string    `json:"url"`
	SizeLabel   string    `json:"sizeLabel,omitempty"`
	Description string    `json:"description,omitempty"`
	Downloaded  bool      `json:"downloaded"`
	LocalPath   string    `json:"localPath,omitempty"`
}
