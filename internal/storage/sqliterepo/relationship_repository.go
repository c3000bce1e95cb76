package sqliterepo

import (
	"context"

	"commgraph/internal/relationships"
	apperrors "commgraph/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipRepository stores typed edges with a uniqueness constraint on
// the (subject_id, object_id, type) triple.
type RelationshipRepository struct {
	db *gorm.DB
}

func NewRelationshipRepository(db *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// Save is insert-or-ignore: an existing triple keeps its row, surrogate id
// and created_at, and that stored row is returned.
func (r *RelationshipRepository) Save(ctx context.Context, rel relationships.Relationship) (relationships.Relationship, error) {
	m := relationshipModel{
		SubjectID: rel.SubjectID,
		ObjectID:  rel.ObjectID,
		Type:      string(rel.Type),
		CreatedAt: rel.CreatedAt,
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if result.Error != nil && !apperrors.IsConstraintViolation(result.Error) {
		return relationships.Relationship{}, result.Error
	}
	if result.Error == nil && result.RowsAffected > 0 {
		return m.toDomain(), nil
	}

	// Conflict: the triple already exists, return the stored row as-is.
	var existing relationshipModel
	err := r.db.WithContext(ctx).
		First(&existing, "subject_id = ? AND object_id = ? AND type = ?", rel.SubjectID, rel.ObjectID, string(rel.Type)).Error
	if err != nil {
		return relationships.Relationship{}, err
	}
	return existing.toDomain(), nil
}

// SaveMany inserts the batch inside one transaction, ignoring triples that
// already exist.
func (r *RelationshipRepository) SaveMany(ctx context.Context, rels []relationships.Relationship) error {
	if len(rels) == 0 {
		return nil
	}
	models := make([]relationshipModel, 0, len(rels))
	for _, rel := range rels {
		models = append(models, relationshipModel{
			SubjectID: rel.SubjectID,
			ObjectID:  rel.ObjectID,
			Type:      string(rel.Type),
			CreatedAt: rel.CreatedAt,
		})
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models).Error
	})
}

// Delete removes the triple. Deleting an absent triple is a no-op.
func (r *RelationshipRepository) Delete(ctx context.Context, subjectID, objectID int64, t relationships.Type) error {
	return r.db.WithContext(ctx).
		Delete(&relationshipModel{}, "subject_id = ? AND object_id = ? AND type = ?", subjectID, objectID, string(t)).Error
}

// DeleteByID removes a row by surrogate id.
func (r *RelationshipRepository) DeleteByID(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&relationshipModel{}, "id = ?", id).Error
}

// DeleteMany removes rows by surrogate id.
func (r *RelationshipRepository) DeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&relationshipModel{}, "id IN ?", ids).Error
}

func (r *RelationshipRepository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM relationships").Error
}

func (r *RelationshipRepository) All(ctx context.Context) ([]relationships.Relationship, error) {
	rows := make([]relationshipModel, 0)
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows), nil
}

// FindBySubject uses the (type, subject_id) index.
func (r *RelationshipRepository) FindBySubject(ctx context.Context, subjectID int64, types ...relationships.Type) ([]relationships.Relationship, error) {
	q := r.db.WithContext(ctx).Where("subject_id = ?", subjectID)
	if len(types) > 0 {
		q = q.Where("type IN ?", typeStrings(types))
	}
	rows := make([]relationshipModel, 0)
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows), nil
}

// FindByObject uses the (type, object_id) index.
func (r *RelationshipRepository) FindByObject(ctx context.Context, objectID int64, types ...relationships.Type) ([]relationships.Relationship, error) {
	q := r.db.WithContext(ctx).Where("object_id = ?", objectID)
	if len(types) > 0 {
		q = q.Where("type IN ?", typeStrings(types))
	}
	rows := make([]relationshipModel, 0)
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows), nil
}

func toDomainSlice(rows []relationshipModel) []relationships.Relationship {
	out := make([]relationships.Relationship, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out
}

func typeStrings(types []relationships.Type) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

var _ relationships.Repository = (*RelationshipRepository)(nil)
