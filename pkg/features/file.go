package features

import (
	"context"
	"fmt"

	"voice-insight/pkg/audio"
	"voice-insight/pkg/config"
	"voice-insight/pkg/models"
)

// FileExtractor loads a stored clip and reduces it to a FeatureVector.
type FileExtractor struct {
	ext  *Extractor
	opts audio.LoadOptions
}

// NewFileExtractor analyzes the window and rate described by cfg.
func NewFileExtractor(cfg config.FeatureConfig) *FileExtractor {
	return &FileExtractor{
		ext: New(DefaultConfig()),
		opts: audio.LoadOptions{
			OffsetSeconds:   cfg.OffsetSeconds,
			DurationSeconds: cfg.DurationSeconds,
			SampleRate:      cfg.SampleRate,
		},
	}
}

// ExtractFile decodes path and returns its averaged cepstral coefficients.
func (f *FileExtractor) ExtractFile(ctx context.Context, path string) (models.FeatureVector, error) {
	clip, err := audio.Load(ctx, path, f.opts)
	if err != nil {
		return nil, err
	}
	vec, err := f.ext.Extract(clip.Samples, clip.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return vec, nil
}
