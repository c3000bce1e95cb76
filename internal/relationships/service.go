package relationships

import (
	"context"

	apperrors "commgraph/pkg/errors"
	"commgraph/pkg/logger"

	"go.uber.org/zap"
)

// ServerDirectory resolves flat server records, used to filter inactive
// servers out of link operations and queries.
type ServerDirectory interface {
	Load(ctx context.Context, id int64) (Server, bool, error)
}

// CommunityDirectory resolves flat community records.
type CommunityDirectory interface {
	Load(ctx context.Context, id int64) (Community, bool, error)
}

// Service answers graph questions over the relationship index and keeps
// server membership reconciled against the platform's authoritative member
// lists. Soft-deleted servers and communities are treated as absent: links
// against them are refused and they are filtered out of query results.
type Service struct {
	rels        Repository
	servers     ServerDirectory
	communities CommunityDirectory
	logger      *zap.Logger
}

// NewService builds a service. The directories may be nil, in which case
// the active-entity filtering is skipped.
func NewService(rels Repository, servers ServerDirectory, communities CommunityDirectory) *Service {
	return &Service{
		rels:        rels,
		servers:     servers,
		communities: communities,
		logger:      logger.Get(),
	}
}

// Link records the typed edge, idempotently. Re-linking an existing triple
// returns the stored row unchanged.
func (s *Service) Link(ctx context.Context, subjectID, objectID int64, t Type) (Relationship, error) {
	if err := s.requireActive(ctx, subjectID, objectID, t); err != nil {
		return Relationship{}, err
	}
	return s.rels.Save(ctx, New(subjectID, objectID, t))
}

// Unlink removes the typed edge. Removing an absent edge is a no-op.
func (s *Service) Unlink(ctx context.Context, subjectID, objectID int64, t Type) error {
	return s.rels.Delete(ctx, subjectID, objectID, t)
}

// MembersOf returns the user ids holding SERVER_MEMBER edges to the server.
func (s *Service) MembersOf(ctx context.Context, serverID int64) ([]int64, error) {
	rels, err := s.rels.FindByObject(ctx, serverID, TypeServerMember)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rels))
	for _, rel := range rels {
		ids = append(ids, rel.SubjectID)
	}
	return ids, nil
}

// CommunitiesOf returns the ids of active communities the user belongs to
// through any membership edge kind.
func (s *Service) CommunitiesOf(ctx context.Context, userID int64) ([]int64, error) {
	rels, err := s.rels.FindBySubject(ctx, userID, MembershipTypes...)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rels))
	for _, rel := range rels {
		active, err := s.communityActive(ctx, rel.ObjectID)
		if err != nil {
			return nil, err
		}
		if active {
			ids = append(ids, rel.ObjectID)
		}
	}
	return ids, nil
}

// ServersOf returns the ids of active servers attached to the community.
func (s *Service) ServersOf(ctx context.Context, communityID int64) ([]int64, error) {
	rels, err := s.rels.FindByObject(ctx, communityID, TypeCommunityServer)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rels))
	for _, rel := range rels {
		active, err := s.serverActive(ctx, rel.SubjectID)
		if err != nil {
			return nil, err
		}
		if active {
			ids = append(ids, rel.SubjectID)
		}
	}
	return ids, nil
}

// SyncServerMembers reconciles the stored SERVER_MEMBER edges for a server
// against the authoritative current member list. Additions go in as one
// batch; removals are deleted individually. The whole pass is idempotent:
// surviving rows keep their created_at, re-running with the same input
// changes nothing.
func (s *Service) SyncServerMembers(ctx context.Context, serverID int64, current []int64) (added, removed int, err error) {
	stored, err := s.rels.FindByObject(ctx, serverID, TypeServerMember)
	if err != nil {
		return 0, 0, err
	}

	storedSet := make(map[int64]struct{}, len(stored))
	for _, rel := range stored {
		storedSet[rel.SubjectID] = struct{}{}
	}
	currentSet := make(map[int64]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}

	toAdd := make([]Relationship, 0)
	for _, id := range current {
		if _, ok := storedSet[id]; !ok {
			toAdd = append(toAdd, New(id, serverID, TypeServerMember))
		}
	}
	if len(toAdd) > 0 {
		if err := s.rels.SaveMany(ctx, toAdd); err != nil {
			return 0, 0, err
		}
	}

	for _, rel := range stored {
		if _, ok := currentSet[rel.SubjectID]; !ok {
			if err := s.rels.Delete(ctx, rel.SubjectID, rel.ObjectID, rel.Type); err != nil {
				return len(toAdd), removed, err
			}
			removed++
		}
	}

	s.logger.Info("server membership synced",
		zap.Int64("server_id", serverID),
		zap.Int("added", len(toAdd)),
		zap.Int("removed", removed),
	)
	return len(toAdd), removed, nil
}

// Find exposes the full-scan predicate query.
func (s *Service) Find(ctx context.Context, predicate func(Relationship) bool) ([]Relationship, error) {
	return FindBy(ctx, s.rels, predicate)
}

// requireActive refuses links whose server or community side is
// soft-deleted. Unknown ids pass: entity rows are optional for edges whose
// endpoints the directories do not track (users have no table).
func (s *Service) requireActive(ctx context.Context, subjectID, objectID int64, t Type) error {
	switch t {
	case TypeServerMember, TypeServerModerator:
		return s.checkServer(ctx, objectID)
	case TypeCommunityServer:
		if err := s.checkServer(ctx, subjectID); err != nil {
			return err
		}
		return s.checkCommunity(ctx, objectID)
	case TypeCommunityMember, TypeCommunityModerator, TypeCommunityAdmin, TypeCommunityOwner:
		return s.checkCommunity(ctx, objectID)
	}
	return nil
}

func (s *Service) checkServer(ctx context.Context, id int64) error {
	active, err := s.serverActive(ctx, id)
	if err != nil {
		return err
	}
	if !active {
		return apperrors.NewEntityInactive(id)
	}
	return nil
}

func (s *Service) checkCommunity(ctx context.Context, id int64) error {
	active, err := s.communityActive(ctx, id)
	if err != nil {
		return err
	}
	if !active {
		return apperrors.NewEntityInactive(id)
	}
	return nil
}

func (s *Service) serverActive(ctx context.Context, id int64) (bool, error) {
	if s.servers == nil {
		return true, nil
	}
	server, ok, err := s.servers.Load(ctx, id)
	if err != nil {
		return false, err
	}
	if !ok {
		// No row yet; the platform may not have registered the server.
		return true, nil
	}
	return server.Active, nil
}

func (s *Service) communityActive(ctx context.Context, id int64) (bool, error) {
	if s.communities == nil {
		return true, nil
	}
	c, ok, err := s.communities.Load(ctx, id)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return c.Active, nil
}
