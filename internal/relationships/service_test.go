package relationships_test

import (
	"context"
	"testing"
	"time"

	"commgraph/internal/relationships"
	apperrors "commgraph/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory Repository honoring the unique-triple contract.
type memRepo struct {
	nextID int64
	rows   []relationships.Relationship
}

func newMemRepo() *memRepo { return &memRepo{nextID: 1} }

func (m *memRepo) find(subjectID, objectID int64, t relationships.Type) int {
	for i, r := range m.rows {
		if r.SubjectID == subjectID && r.ObjectID == objectID && r.Type == t {
			return i
		}
	}
	return -1
}

func (m *memRepo) Save(ctx context.Context, rel relationships.Relationship) (relationships.Relationship, error) {
	if i := m.find(rel.SubjectID, rel.ObjectID, rel.Type); i >= 0 {
		return m.rows[i], nil
	}
	rel.ID = m.nextID
	m.nextID++
	m.rows = append(m.rows, rel)
	return rel, nil
}

func (m *memRepo) SaveMany(ctx context.Context, rels []relationships.Relationship) error {
	for _, rel := range rels {
		if _, err := m.Save(ctx, rel); err != nil {
			return err
		}
	}
	return nil
}

func (m *memRepo) Delete(ctx context.Context, subjectID, objectID int64, t relationships.Type) error {
	if i := m.find(subjectID, objectID, t); i >= 0 {
		m.rows = append(m.rows[:i], m.rows[i+1:]...)
	}
	return nil
}

func (m *memRepo) Clear(ctx context.Context) error {
	m.rows = nil
	return nil
}

func (m *memRepo) All(ctx context.Context) ([]relationships.Relationship, error) {
	out := make([]relationships.Relationship, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func (m *memRepo) FindBySubject(ctx context.Context, subjectID int64, types ...relationships.Type) ([]relationships.Relationship, error) {
	out := make([]relationships.Relationship, 0)
	for _, r := range m.rows {
		if r.SubjectID == subjectID && matchesType(r.Type, types) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) FindByObject(ctx context.Context, objectID int64, types ...relationships.Type) ([]relationships.Relationship, error) {
	out := make([]relationships.Relationship, 0)
	for _, r := range m.rows {
		if r.ObjectID == objectID && matchesType(r.Type, types) {
			out = append(out, r)
		}
	}
	return out, nil
}

func matchesType(t relationships.Type, types []relationships.Type) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

// memDirectory serves flat records for the active-entity checks.
type memDirectory[T any] struct {
	rows map[int64]T
}

func (d *memDirectory[T]) Load(ctx context.Context, id int64) (T, bool, error) {
	var zero T
	if d == nil || d.rows == nil {
		return zero, false, nil
	}
	row, ok := d.rows[id]
	if !ok {
		return zero, false, nil
	}
	return row, true, nil
}

type serverDir = memDirectory[relationships.Server]
type communityDir = memDirectory[relationships.Community]

func TestService_LinkIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := relationships.NewService(newMemRepo(), nil, nil)

	first, err := svc.Link(ctx, 1, 100, relationships.TypeServerMember)
	require.NoError(t, err)

	second, err := svc.Link(ctx, 1, 100, relationships.TypeServerMember)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
}

func TestService_LinkRefusesInactiveEndpoints(t *testing.T) {
	ctx := context.Background()
	servers := &serverDir{rows: map[int64]relationships.Server{
		100: {ID: 100, Name: "dead", Active: false},
	}}
	communities := &communityDir{rows: map[int64]relationships.Community{
		55: {ID: 55, Name: "dead", Active: false},
	}}
	svc := relationships.NewService(newMemRepo(), servers, communities)

	_, err := svc.Link(ctx, 1, 100, relationships.TypeServerMember)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeRelationship))

	_, err = svc.Link(ctx, 1, 55, relationships.TypeCommunityMember)
	require.Error(t, err)

	// Unknown ids pass: there is no row to say the endpoint is inactive.
	_, err = svc.Link(ctx, 1, 200, relationships.TypeServerMember)
	assert.NoError(t, err)
}

func TestService_UnlinkAbsentIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc := relationships.NewService(newMemRepo(), nil, nil)

	assert.NoError(t, svc.Unlink(ctx, 1, 100, relationships.TypeServerMember))
}

func TestService_SyncServerMembers(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := relationships.NewService(repo, nil, nil)

	added, removed, err := svc.SyncServerMembers(ctx, 100, []int64{10, 11, 12})
	require.NoError(t, err)
	assert.Equal(t, 3, added)
	assert.Equal(t, 0, removed)

	stored, err := repo.FindByObject(ctx, 100, relationships.TypeServerMember)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	survivorCreatedAt := make(map[int64]time.Time)
	for _, rel := range stored {
		survivorCreatedAt[rel.SubjectID] = rel.CreatedAt
	}

	// 10 leaves, 13 joins, 11 and 12 stay.
	added, removed, err = svc.SyncServerMembers(ctx, 100, []int64{11, 12, 13})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)

	stored, err = repo.FindByObject(ctx, 100, relationships.TypeServerMember)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	for _, rel := range stored {
		switch rel.SubjectID {
		case 10:
			t.Error("subject 10 should have been removed")
		case 11, 12:
			assert.True(t, rel.CreatedAt.Equal(survivorCreatedAt[rel.SubjectID]),
				"survivor %d must keep its created_at", rel.SubjectID)
		}
	}

	// Re-running with the same input changes nothing.
	added, removed, err = svc.SyncServerMembers(ctx, 100, []int64{11, 12, 13})
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 0, removed)
}

func TestService_CommunitiesOfFiltersInactive(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	communities := &communityDir{rows: map[int64]relationships.Community{
		55: {ID: 55, Name: "alive", Active: true},
		66: {ID: 66, Name: "dead", Active: false},
	}}
	svc := relationships.NewService(repo, nil, communities)

	require.NoError(t, repo.SaveMany(ctx, []relationships.Relationship{
		relationships.New(1, 55, relationships.TypeCommunityMember),
		relationships.New(1, 66, relationships.TypeCommunityAdmin),
		relationships.New(1, 100, relationships.TypeServerMember), // not a membership edge
	}))

	got, err := svc.CommunitiesOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{55}, got)
}

func TestService_ServersOfFiltersInactive(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	servers := &serverDir{rows: map[int64]relationships.Server{
		100: {ID: 100, Name: "alive", Active: true},
		200: {ID: 200, Name: "dead", Active: false},
	}}
	svc := relationships.NewService(repo, servers, nil)

	require.NoError(t, repo.SaveMany(ctx, []relationships.Relationship{
		relationships.New(100, 55, relationships.TypeCommunityServer),
		relationships.New(200, 55, relationships.TypeCommunityServer),
	}))

	got, err := svc.ServersOf(ctx, 55)
	require.NoError(t, err)
	assert.Equal(t, []int64{100}, got)
}

func TestService_FindPredicate(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := relationships.NewService(repo, nil, nil)

	require.NoError(t, repo.SaveMany(ctx, []relationships.Relationship{
		relationships.New(1, 100, relationships.TypeServerMember),
		relationships.New(2, 100, relationships.TypeServerModerator),
		relationships.New(1, 55, relationships.TypeCommunityOwner),
	}))

	got, err := svc.Find(ctx, func(r relationships.Relationship) bool {
		return r.SubjectID == 1
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestService_MembersOf(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := relationships.NewService(repo, nil, nil)

	require.NoError(t, repo.SaveMany(ctx, []relationships.Relationship{
		relationships.New(1, 100, relationships.TypeServerMember),
		relationships.New(2, 100, relationships.TypeServerMember),
		relationships.New(3, 200, relationships.TypeServerMember),
	}))

	got, err := svc.MembersOf(ctx, 100)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, got)
}
