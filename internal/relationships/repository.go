package relationships

import "context"

// Repository stores typed edges. Save is insert-or-ignore on the unique
// triple: an existing matching row is left untouched, including its
// created_at. SaveMany commits its rows as one batch. Delete of an absent
// triple is a no-op.
type Repository interface {
	Save(ctx context.Context, rel Relationship) (Relationship, error)
	SaveMany(ctx context.Context, rels []Relationship) error
	Delete(ctx context.Context, subjectID, objectID int64, t Type) error
	Clear(ctx context.Context) error
	All(ctx context.Context) ([]Relationship, error)

	// FindBySubject and FindByObject return edges of any of the given
	// types (all types when none are given). Backends keep indexes on
	// (type, subject) and (type, object) for these.
	FindBySubject(ctx context.Context, subjectID int64, types ...Type) ([]Relationship, error)
	FindByObject(ctx context.Context, objectID int64, types ...Type) ([]Relationship, error)
}

// FindBy is the default full-scan predicate query over a repository.
func FindBy(ctx context.Context, r Repository, predicate func(Relationship) bool) ([]Relationship, error) {
	rels, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]Relationship, 0)
	for _, rel := range rels {
		if predicate(rel) {
			matched = append(matched, rel)
		}
	}
	return matched, nil
}

// FindOneBy returns the first edge matching the predicate.
func FindOneBy(ctx context.Context, r Repository, predicate func(Relationship) bool) (Relationship, bool, error) {
	rels, err := r.All(ctx)
	if err != nil {
		return Relationship{}, false, err
	}
	for _, rel := range rels {
		if predicate(rel) {
			return rel, true, nil
		}
	}
	return Relationship{}, false, nil
}
