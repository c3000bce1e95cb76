package sqliterepo

import (
	"context"
	"errors"
	"time"

	"commgraph/internal/relationships"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ServerRepository stores flat server rows in community_servers.
type ServerRepository struct {
	db *gorm.DB
}

func NewServerRepository(db *gorm.DB) *ServerRepository {
	return &ServerRepository{db: db}
}

// Save upserts by id. created_at is written on insert only.
func (r *ServerRepository) Save(ctx context.Context, s relationships.Server) (relationships.Server, error) {
	m := serverModel{
		ID:            s.ID,
		Name:          s.Name,
		CreatedAt:     s.CreatedAt,
		Active:        s.Active,
		DeactivatedAt: s.DeactivatedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "active", "deactivated_at"}),
	}).Create(&m).Error
	if err != nil {
		return relationships.Server{}, err
	}
	return m.toDomain(), nil
}

func (r *ServerRepository) Load(ctx context.Context, id int64) (relationships.Server, bool, error) {
	var m serverModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return relationships.Server{}, false, nil
	}
	if err != nil {
		return relationships.Server{}, false, err
	}
	return m.toDomain(), true, nil
}

func (r *ServerRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&serverModel{}, "id = ?", id).Error
}

// Deactivate soft-deletes the row.
func (r *ServerRepository) Deactivate(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&serverModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"active": false, "deactivated_at": now}).Error
}

func (r *ServerRepository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM community_servers").Error
}

func (r *ServerRepository) All(ctx context.Context) ([]relationships.Server, error) {
	rows := make([]serverModel, 0)
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]relationships.Server, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}
