// Package storage defines the persistence adapter contract shared by the
// file-based and relational backends. Adapters are dumb: they own the durable
// copy of each record and nothing else. Caching, name lookup and cross-entity
// consistency live above them.
package storage

import "context"

// Entity is anything storable by id with a display name.
type Entity interface {
	EntityID() int64
	EntityName() string
}

// Repository is the per-entity-type persistence contract.
//
// Save upserts by id and is idempotent. Load reports absence via the bool,
// never via an error. Delete of an absent id is a no-op. All enumerates every
// stored record in unspecified order. Clear empties the backing store and is
// intended for test reset.
type Repository[T Entity] interface {
	Save(ctx context.Context, entity T) (T, error)
	Load(ctx context.Context, id int64) (T, bool, error)
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
	All(ctx context.Context) ([]T, error)
}

// FindBy returns every stored record matching the predicate. This is the
// default full-scan implementation; backends with indexes expose their own
// query methods with the same semantics.
func FindBy[T Entity](ctx context.Context, r Repository[T], predicate func(T) bool) ([]T, error) {
	entities, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]T, 0)
	for _, e := range entities {
		if predicate(e) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// FindOneBy returns the first stored record matching the predicate.
func FindOneBy[T Entity](ctx context.Context, r Repository[T], predicate func(T) bool) (T, bool, error) {
	entities, err := r.All(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	for _, e := range entities {
		if predicate(e) {
			return e, true, nil
		}
	}
	var zero T
	return zero, false, nil
}
