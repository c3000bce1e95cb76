package community

import (
	"context"

	"commgraph/internal/storage"
	"commgraph/pkg/logger"

	"go.uber.org/zap"
)

// Store is a cache-aside layer over one persistence adapter. Reads populate
// the in-memory map on miss; writes go through to the adapter before the
// cache is touched, so the cache is never ahead of durable storage. A
// name-to-id index is built eagerly from a load-all at construction and
// maintained on every save, so GetByName sees everything durable from the
// start of the process.
type Store[T storage.Entity] struct {
	repo     storage.Repository[T]
	byID     map[int64]T
	idByName map[string]int64
	logger   *zap.Logger
}

// NewStore builds a store and pre-populates it from the backing adapter.
func NewStore[T storage.Entity](ctx context.Context, repo storage.Repository[T]) (*Store[T], error) {
	s := &Store[T]{
		repo:     repo,
		byID:     make(map[int64]T),
		idByName: make(map[string]int64),
		logger:   logger.Get(),
	}

	entities, err := repo.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		s.byID[e.EntityID()] = e
		s.idByName[e.EntityName()] = e.EntityID()
	}

	return s, nil
}

// Get returns the cached entity for id, reading through the adapter on a
// miss. Absence is reported via the bool, never as an error.
func (s *Store[T]) Get(ctx context.Context, id int64) (T, bool, error) {
	if e, ok := s.byID[id]; ok {
		return e, true, nil
	}

	e, ok, err := s.repo.Load(ctx, id)
	if err != nil || !ok {
		var zero T
		return zero, false, err
	}

	s.byID[id] = e
	s.idByName[e.EntityName()] = id
	return e, true, nil
}

// GetByName resolves a display name through the name index, then the id path.
func (s *Store[T]) GetByName(ctx context.Context, name string) (T, bool, error) {
	id, ok := s.idByName[name]
	if !ok {
		var zero T
		return zero, false, nil
	}
	return s.Get(ctx, id)
}

// Save writes through to the adapter, then updates the cache and name index.
func (s *Store[T]) Save(ctx context.Context, entity T) error {
	saved, err := s.repo.Save(ctx, entity)
	if err != nil {
		return err
	}

	s.byID[saved.EntityID()] = saved
	s.idByName[saved.EntityName()] = saved.EntityID()
	return nil
}

// Delete removes the entity from the cache, the name index and the adapter.
// Deleting an absent id is a no-op.
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	if e, ok := s.byID[id]; ok {
		if mapped, found := s.idByName[e.EntityName()]; found && mapped == id {
			delete(s.idByName, e.EntityName())
		}
		delete(s.byID, id)
	}
	return s.repo.Delete(ctx, id)
}

// Len returns the number of cached entities.
func (s *Store[T]) Len() int {
	return len(s.byID)
}
