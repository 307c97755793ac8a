package pipeline

import (
	"context"
	"fmt"
	"time"

	"voice-insight/pkg/audio"
	"voice-insight/pkg/models"
)

type job struct {
	clip     *models.UploadedClip
	analysis *models.Analysis
}

type stage struct {
	name   string
	status models.ProcessingStatus
	run    func(ctx context.Context, j *job) error
}

func (m *Manager) validateClip(_ context.Context, j *job) error {
	if m.metrics != nil {
		m.metrics.RecordUpload(int64(j.clip.Size))
	}
	if len(j.clip.Data) == 0 {
		return fmt.Errorf("%w: empty upload", audio.ErrEmptyAudio)
	}
	return nil
}

func (m *Manager) storeClip(ctx context.Context, j *job) error {
	stored, err := m.clips.Write(ctx, j.clip)
	if err != nil {
		return err
	}
	j.clip = stored
	j.analysis.Filename = stored.Filename
	j.analysis.ClipPath = stored.Path
	return nil
}

func (m *Manager) extractFeatures(ctx context.Context, j *job) error {
	start := time.Now()
	vec, err := m.extractor.ExtractFile(ctx, j.clip.Path)
	if err != nil {
		return err
	}
	if m.metrics != nil {
		m.metrics.RecordExtraction(time.Since(start).Seconds())
	}
	j.analysis.Features = vec
	return nil
}

func (m *Manager) classify(ctx context.Context, j *job) error {
	p, err := m.classifier.Predict(ctx, j.analysis.Features)
	if err != nil {
		return err
	}
	if m.metrics != nil {
		for _, c := range models.Categories {
			m.metrics.RecordPrediction(string(c), p.Label(c))
		}
	}
	j.analysis.Prediction = &p
	return nil
}

func (m *Manager) renderCharts(ctx context.Context, j *job) error {
	set, err := m.charts.Render(ctx, j.analysis.ID, *j.analysis.Prediction)
	if err != nil {
		return err
	}
	j.analysis.Charts = set
	return nil
}
