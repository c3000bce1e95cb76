package jsonrepo

import (
	"context"
	"time"

	"commgraph/internal/community"
)

type userRecord struct {
	Type        string          `json:"type"`
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Servers     community.IDSet `json:"servers"`
	Communities community.IDSet `json:"communities"`
	CreatedAt   time.Time       `json:"created_at"`
}

// UserRepository stores one user per file.
type UserRepository struct {
	dir string
}

func NewUserRepository(dir string) *UserRepository {
	return &UserRepository{dir: dir}
}

func (r *UserRepository) Save(ctx context.Context, u *community.User) (*community.User, error) {
	record := userRecord{
		Type:        "user",
		ID:          u.ID,
		Name:        u.Name,
		Servers:     u.Servers,
		Communities: u.Communities,
		CreatedAt:   u.CreatedAt,
	}
	if err := writeRecord(entityPath(r.dir, "user", u.ID), record); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Load(ctx context.Context, id int64) (*community.User, bool, error) {
	var record userRecord
	ok, err := readRecord(entityPath(r.dir, "user", id), &record)
	if err != nil || !ok {
		return nil, false, err
	}
	return &community.User{
		ID:          record.ID,
		Name:        record.Name,
		Servers:     orEmpty(record.Servers),
		Communities: orEmpty(record.Communities),
		CreatedAt:   record.CreatedAt,
	}, true, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return removeRecord(entityPath(r.dir, "user", id))
}

func (r *UserRepository) Clear(ctx context.Context) error {
	return clearType(r.dir, "user")
}

func (r *UserRepository) All(ctx context.Context) ([]*community.User, error) {
	ids, err := listIDs(r.dir, "user")
	if err != nil {
		return nil, err
	}
	users := make([]*community.User, 0, len(ids))
	for _, id := range ids {
		u, ok, err := r.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func orEmpty(s community.IDSet) community.IDSet {
	if s == nil {
		return community.NewIDSet()
	}
	return s
}
