package sqliterepo

import (
	"time"

	"commgraph/internal/relationships"
)

type communityModel struct {
	ID            int64  `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	Description   string
	CreatedAt     time.Time `gorm:"not null"`
	Active        bool      `gorm:"not null;default:true"`
	DeactivatedAt *time.Time
}

func (communityModel) TableName() string { return "communities" }

func (m communityModel) toDomain() relationships.Community {
	return relationships.Community{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
		Active:        m.Active,
		DeactivatedAt: m.DeactivatedAt,
	}
}

type serverModel struct {
	ID            int64     `gorm:"primaryKey"`
	Name          string    `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	Active        bool      `gorm:"not null;default:true"`
	DeactivatedAt *time.Time
}

func (serverModel) TableName() string { return "community_servers" }

func (m serverModel) toDomain() relationships.Server {
	return relationships.Server{
		ID:            m.ID,
		Name:          m.Name,
		CreatedAt:     m.CreatedAt,
		Active:        m.Active,
		DeactivatedAt: m.DeactivatedAt,
	}
}

type relationshipModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	SubjectID int64     `gorm:"not null;uniqueIndex:idx_relationship_triple"`
	ObjectID  int64     `gorm:"not null;uniqueIndex:idx_relationship_triple"`
	Type      string    `gorm:"not null;uniqueIndex:idx_relationship_triple"`
	CreatedAt time.Time `gorm:"not null"`
}

func (relationshipModel) TableName() string { return "relationships" }

func (m relationshipModel) toDomain() relationships.Relationship {
	return relationships.Relationship{
		ID:        m.ID,
		SubjectID: m.SubjectID,
		ObjectID:  m.ObjectID,
		Type:      relationships.Type(m.Type),
		CreatedAt: m.CreatedAt,
	}
}
