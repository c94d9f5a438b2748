package whisper

import (
	"context"

	"subtitle-generator/internal/domain"
	"subtitle-generator/internal/waveform"
)

// Service is the transcriber: it loads the requested model tier, feeds
// the decoded waveform through it, and returns ordered segments. The
// waveform loader is injected so the decode/resample step can be
// swapped without touching model loading or inference.
type Service struct {
	engine *Engine
	loader waveform.Loader
}

// NewService builds a transcriber from an engine and a waveform loader.
func NewService(engine *Engine, loader waveform.Loader) *Service {
	return &Service{engine: engine, loader: loader}
}

// Transcribe loads tier weights, decodes audioPath to a normalized
// waveform, and runs inference. Model loading failures surface before
// any decode work starts.
func (s *Service) Transcribe(ctx context.Context, audioPath string, tier domain.ModelTier, language string) ([]domain.TranscriptSegment, error) {
	model, err := s.engine.LoadModel(tier)
	if err != nil {
		return nil, err
	}

	samples, err := s.loader.Load(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	return model.Transcribe(ctx, samples, language)
}
