package jsonrepo

import (
	"context"
	"time"

	"commgraph/internal/community"
)

type communityRecord struct {
	Type      string          `json:"type"`
	ID        int64           `json:"id"`
	Owner     int64           `json:"owner"`
	Name      string          `json:"name"`
	Users     community.IDSet `json:"users"`
	Servers   community.IDSet `json:"servers"`
	CreatedAt time.Time       `json:"created_at"`
}

// CommunityRepository stores one community per file.
type CommunityRepository struct {
	dir string
}

func NewCommunityRepository(dir string) *CommunityRepository {
	return &CommunityRepository{dir: dir}
}

func (r *CommunityRepository) Save(ctx context.Context, c *community.Community) (*community.Community, error) {
	record := communityRecord{
		Type:      "community",
		ID:        c.ID,
		Owner:     c.Owner,
		Name:      c.Name,
		Users:     c.Users,
		Servers:   c.Servers,
		CreatedAt: c.CreatedAt,
	}
	if err := writeRecord(entityPath(r.dir, "community", c.ID), record); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CommunityRepository) Load(ctx context.Context, id int64) (*community.Community, bool, error) {
	var record communityRecord
	ok, err := readRecord(entityPath(r.dir, "community", id), &record)
	if err != nil || !ok {
		return nil, false, err
	}
	return &community.Community{
		ID:        record.ID,
		Owner:     record.Owner,
		Name:      record.Name,
		Users:     orEmpty(record.Users),
		Servers:   orEmpty(record.Servers),
		CreatedAt: record.CreatedAt,
	}, true, nil
}

func (r *CommunityRepository) Delete(ctx context.Context, id int64) error {
	return removeRecord(entityPath(r.dir, "community", id))
}

func (r *CommunityRepository) Clear(ctx context.Context) error {
	return clearType(r.dir, "community")
}

func (r *CommunityRepository) All(ctx context.Context) ([]*community.Community, error) {
	ids, err := listIDs(r.dir, "community")
	if err != nil {
		return nil, err
	}
	communities := make([]*community.Community, 0, len(ids))
	for _, id := range ids {
		c, ok, err := r.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			communities = append(communities, c)
		}
	}
	return communities, nil
}
