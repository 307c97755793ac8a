// Package classifier maps feature vectors to per-category labels.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"voice-insight/pkg/models"
)

var ErrInvalidFeatures = errors.New("invalid feature vector")

// Classifier predicts one label per category from a FeatureVector.
type Classifier interface {
	Predict(ctx context.Context, features models.FeatureVector) (models.PredictionResult, error)
}

// RandomClassifier ignores the features and draws each label uniformly.
// It stands in until a trained model is available.
type RandomClassifier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomClassifier draws from src. A nil src is seeded from the clock.
func NewRandomClassifier(src rand.Source) *RandomClassifier {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &RandomClassifier{rng: rand.New(src)}
}

func (c *RandomClassifier) Predict(ctx context.Context, features models.FeatureVector) (models.PredictionResult, error) {
	var result models.PredictionResult
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if len(features) != models.FeatureSize {
		return result, fmt.Errorf("%w: got %d values, want %d", ErrInvalidFeatures, len(features), models.FeatureSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cat := range models.Categories {
		labels := cat.Labels()
		result.Set(cat, labels[c.rng.Intn(len(labels))])
	}
	return result, nil
}
