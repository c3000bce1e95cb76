package sqliterepo

import (
	"context"
	"errors"
	"time"

	"commgraph/internal/relationships"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommunityRepository stores flat community rows.
type CommunityRepository struct {
	db *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

// Save upserts by id. created_at is written on insert only.
func (r *CommunityRepository) Save(ctx context.Context, c relationships.Community) (relationships.Community, error) {
	m := communityModel{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		CreatedAt:     c.CreatedAt,
		Active:        c.Active,
		DeactivatedAt: c.DeactivatedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "active", "deactivated_at"}),
	}).Create(&m).Error
	if err != nil {
		return relationships.Community{}, err
	}
	return m.toDomain(), nil
}

func (r *CommunityRepository) Load(ctx context.Context, id int64) (relationships.Community, bool, error) {
	var m communityModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return relationships.Community{}, false, nil
	}
	if err != nil {
		return relationships.Community{}, false, err
	}
	return m.toDomain(), true, nil
}

func (r *CommunityRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&communityModel{}, "id = ?", id).Error
}

// Deactivate soft-deletes the row: the record stays, active flips off and
// the deactivation time is stamped. Relationship rows are left alone;
// queries filter on active instead.
func (r *CommunityRepository) Deactivate(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&communityModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"active": false, "deactivated_at": now}).Error
}

func (r *CommunityRepository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM communities").Error
}

func (r *CommunityRepository) All(ctx context.Context) ([]relationships.Community, error) {
	rows := make([]communityModel, 0)
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]relationships.Community, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}
