// Package pipeline runs one uploaded clip through validation, storage,
// feature extraction, classification and chart rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voice-insight/pkg/audio"
	"voice-insight/pkg/charts"
	"voice-insight/pkg/classifier"
	"voice-insight/pkg/config"
	"voice-insight/pkg/features"
	"voice-insight/pkg/logger"
	"voice-insight/pkg/metrics"
	"voice-insight/pkg/models"
	"voice-insight/pkg/storage"
)

var ErrNoClip = errors.New("no clip submitted")

// Extractor turns a stored clip into a FeatureVector.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (models.FeatureVector, error)
}

// ChartRenderer draws the chart set of one analysis.
type ChartRenderer interface {
	Render(ctx context.Context, id string, p models.PredictionResult) (models.ChartSet, error)
}

type Manager struct {
	clips      *storage.ClipStore
	store      storage.AnalysisStore
	extractor  Extractor
	classifier classifier.Classifier
	charts     ChartRenderer
	metrics    *metrics.Manager
	log        logger.Logger
	stages     []stage
}

// Option overrides a collaborator built from the configuration.
type Option func(*Manager)

func WithExtractor(e Extractor) Option {
	return func(m *Manager) { m.extractor = e }
}

func WithChartRenderer(r ChartRenderer) Option {
	return func(m *Manager) { m.charts = r }
}

func WithMetrics(mm *metrics.Manager) Option {
	return func(m *Manager) { m.metrics = mm }
}

func NewManager(cfg *config.Config, store storage.AnalysisStore, cls classifier.Classifier, log logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		clips:      storage.NewClipStore(cfg.Storage.UploadDir),
		store:      store,
		extractor:  features.NewFileExtractor(cfg.Features),
		classifier: cls,
		charts:     charts.NewRenderer(cfg.Storage.GraphDir),
		log:        log.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.stages = []stage{
		{name: "validation", status: models.StatusValidating, run: m.validateClip},
		{name: "storage", status: models.StatusStoring, run: m.storeClip},
		{name: "extraction", status: models.StatusExtracting, run: m.extractFeatures},
		{name: "classification", status: models.StatusClassifying, run: m.classify},
		{name: "rendering", status: models.StatusRendering, run: m.renderCharts},
	}
	return m
}

// Process runs every stage for clip and records the outcome. The returned
// Analysis is non-nil whenever clip is, including on failure.
func (m *Manager) Process(ctx context.Context, clip *models.UploadedClip) (*models.Analysis, error) {
	if clip == nil {
		return nil, ErrNoClip
	}
	start := time.Now()
	j := &job{clip: clip, analysis: models.NewAnalysis(clip)}
	log := m.log
	fields := []logger.Field{
		logger.String("analysis_id", clip.ID),
		logger.String("filename", clip.Filename),
		logger.Int("size", clip.Size),
	}
	log.Info(ctx, "processing clip", fields...)

	for _, s := range m.stages {
		if err := ctx.Err(); err != nil {
			return m.fail(ctx, j, s.name, err)
		}
		j.analysis.Status = s.status
		if err := s.run(ctx, j); err != nil {
			return m.fail(ctx, j, s.name, err)
		}
		log.Debug(ctx, "stage complete", logger.String("analysis_id", clip.ID), logger.String("stage", s.name))
	}

	j.analysis.Status = models.StatusCompleted
	j.analysis.ProcessedAt = time.Now()
	if err := m.store.Save(ctx, j.analysis); err != nil {
		return m.fail(ctx, j, "record", fmt.Errorf("save analysis: %w", err))
	}
	m.recordAnalysis(models.StatusCompleted)

	log.Info(ctx, "clip processed", append(fields,
		logger.Any("prediction", *j.analysis.Prediction),
		logger.Float64("duration_seconds", time.Since(start).Seconds()))...)
	return j.analysis, nil
}

// Get returns a recorded analysis.
func (m *Manager) Get(ctx context.Context, id string) (*models.Analysis, error) {
	return m.store.Get(ctx, id)
}

// List returns the newest recorded analyses.
func (m *Manager) List(ctx context.Context, limit int) ([]*models.Analysis, error) {
	return m.store.List(ctx, limit)
}

func (m *Manager) fail(ctx context.Context, j *job, stage string, err error) (*models.Analysis, error) {
	j.analysis.Fail(err)
	m.log.Error(ctx, "clip processing failed",
		logger.String("analysis_id", j.analysis.ID),
		logger.String("stage", stage),
		logger.Error(err))

	if serr := m.store.Save(context.WithoutCancel(ctx), j.analysis); serr != nil {
		m.log.Error(ctx, "failed to record failed analysis",
			logger.String("analysis_id", j.analysis.ID), logger.Error(serr))
	}
	m.recordAnalysis(models.StatusFailed)
	return j.analysis, fmt.Errorf("%s: %w", stage, err)
}

func (m *Manager) recordAnalysis(status models.ProcessingStatus) {
	if m.metrics != nil {
		m.metrics.RecordAnalysis(string(status))
	}
}

// IsClientError reports whether err was caused by the submitted clip
// rather than by the server.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoClip) ||
		errors.Is(err, audio.ErrEmptyAudio) ||
		errors.Is(err, audio.ErrDecode) ||
		errors.Is(err, audio.ErrUnsupportedFormat)
}
