package jsonrepo

import (
	"context"
	"time"

	"commgraph/internal/community"
)

type serverRecord struct {
	Type      string          `json:"type"`
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Users     community.IDSet `json:"users"`
	Community *int64          `json:"community"`
	CreatedAt time.Time       `json:"created_at"`
}

// ServerRepository stores one server per file.
type ServerRepository struct {
	dir string
}

func NewServerRepository(dir string) *ServerRepository {
	return &ServerRepository{dir: dir}
}

func (r *ServerRepository) Save(ctx context.Context, s *community.Server) (*community.Server, error) {
	record := serverRecord{
		Type:      "server",
		ID:        s.ID,
		Name:      s.Name,
		Users:     s.Users,
		Community: s.Community,
		CreatedAt: s.CreatedAt,
	}
	if err := writeRecord(entityPath(r.dir, "server", s.ID), record); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ServerRepository) Load(ctx context.Context, id int64) (*community.Server, bool, error) {
	var record serverRecord
	ok, err := readRecord(entityPath(r.dir, "server", id), &record)
	if err != nil || !ok {
		return nil, false, err
	}
	return &community.Server{
		ID:        record.ID,
		Name:      record.Name,
		Users:     orEmpty(record.Users),
		Community: record.Community,
		CreatedAt: record.CreatedAt,
	}, true, nil
}

func (r *ServerRepository) Delete(ctx context.Context, id int64) error {
	return removeRecord(entityPath(r.dir, "server", id))
}

func (r *ServerRepository) Clear(ctx context.Context) error {
	return clearType(r.dir, "server")
}

func (r *ServerRepository) All(ctx context.Context) ([]*community.Server, error) {
	ids, err := listIDs(r.dir, "server")
	if err != nil {
		return nil, err
	}
	servers := make([]*community.Server, 0, len(ids))
	for _, id := range ids {
		s, ok, err := r.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			servers = append(servers, s)
		}
	}
	return servers, nil
}
