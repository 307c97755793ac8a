package storage

import (
	"context"
	"sync"

	"voice-insight/pkg/models"
)

type memoryStore struct {
	analyses map[string]*models.Analysis
	mu       sync.RWMutex
}

// NewMemoryStore keeps analyses for the life of the process.
func NewMemoryStore() AnalysisStore {
	return &memoryStore{
		analyses: make(map[string]*models.Analysis),
	}
}

func (s *memoryStore) Save(ctx context.Context, a *models.Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.analyses[a.ID] = clone(a)
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (*models.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.analyses[id]
	if !exists {
		return nil, ErrAnalysisNotFound
	}
	return clone(a), nil
}

func (s *memoryStore) List(_ context.Context, limit int) ([]*models.Analysis, error) {
	s.mu.RLock()
	list := make([]*models.Analysis, 0, len(s.analyses))
	for _, a := range s.analyses {
		list = append(list, clone(a))
	}
	s.mu.RUnlock()

	return newestFirst(list, limit), nil
}

func (s *memoryStore) Close() error { return nil }

func clone(a *models.Analysis) *models.Analysis {
	c := *a
	if a.Features != nil {
		c.Features = append(models.FeatureVector(nil), a.Features...)
	}
	if a.Prediction != nil {
		p := *a.Prediction
		c.Prediction = &p
	}
	if a.Charts != nil {
		c.Charts = make(models.ChartSet, len(a.Charts))
		for k, v := range a.Charts {
			c.Charts[k] = v
		}
	}
	return &c
}
