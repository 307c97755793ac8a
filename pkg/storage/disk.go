package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"

	"voice-insight/pkg/models"
)

const keyPrefix = "analysis/"

type diskStore struct {
	db *badger.DB
}

// NewDiskStore opens a badger database below path.
func NewDiskStore(path string) (AnalysisStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return openBadger(badger.DefaultOptions(filepath.Join(path, "badger")))
}

// NewInMemoryDiskStore runs the badger store without touching disk.
func NewInMemoryDiskStore() (AnalysisStore, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true))
}

func openBadger(opts badger.Options) (AnalysisStore, error) {
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &diskStore{db: db}, nil
}

func analysisKey(id string) []byte {
	return []byte(keyPrefix + id)
}

func (s *diskStore) Save(ctx context.Context, a *models.Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeAnalysis(a)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(analysisKey(a.ID), data)
	})
}

func (s *diskStore) Get(_ context.Context, id string) (*models.Analysis, error) {
	var a *models.Analysis

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(analysisKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			a, err = decodeAnalysis(val)
			return err
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

func (s *diskStore) List(ctx context.Context, limit int) ([]*models.Analysis, error) {
	var list []*models.Analysis

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				a, err := decodeAnalysis(val)
				if err != nil {
					return err
				}
				list = append(list, a)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return newestFirst(list, limit), nil
}

func (s *diskStore) Close() error {
	return s.db.Close()
}
