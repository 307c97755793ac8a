// Package storage keeps uploaded clips on disk and analysis records in a
// key-value store.
package storage

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"voice-insight/pkg/models"
)

var ErrAnalysisNotFound = errors.New("analysis not found")

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// AnalysisStore persists pipeline results.
type AnalysisStore interface {
	Save(ctx context.Context, a *models.Analysis) error
	Get(ctx context.Context, id string) (*models.Analysis, error)
	// List returns up to limit analyses, newest first.
	List(ctx context.Context, limit int) ([]*models.Analysis, error)
	Close() error
}

func encodeAnalysis(a *models.Analysis) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeAnalysis(b []byte) (*models.Analysis, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	var a models.Analysis
	if err := dec.Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

func newestFirst(list []*models.Analysis, limit int) []*models.Analysis {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}
