package community

import (
	"context"

	"commgraph/internal/storage"
	"commgraph/pkg/logger"

	"go.uber.org/zap"
)

// Manager is the only component allowed to mutate more than one store in a
// single logical operation. It keeps the symmetric membership sets of users,
// servers and communities consistent: for every user u and server s,
// s.id is in u.Servers exactly when u.id is in s.Users, and likewise for the
// other pairs.
//
// Operations are synchronous write-through against local storage and are not
// atomic across stores: a crash between the two sides of a link leaves a
// one-sided edge until a later link heals it. Callers get
// at-least-one-side-durable, not atomic-both-sides. The manager assumes a
// single cooperative caller and takes no locks.
type Manager struct {
	users       *Store[*User]
	servers     *Store[*Server]
	communities *Store[*Community]
	logger      *zap.Logger
}

// NewManager builds a manager over the three entity stores, pre-populating
// each from its backing adapter.
func NewManager(
	ctx context.Context,
	users storage.Repository[*User],
	servers storage.Repository[*Server],
	communities storage.Repository[*Community],
) (*Manager, error) {
	userStore, err := NewStore(ctx, users)
	if err != nil {
		return nil, err
	}
	serverStore, err := NewStore(ctx, servers)
	if err != nil {
		return nil, err
	}
	communityStore, err := NewStore(ctx, communities)
	if err != nil {
		return nil, err
	}

	return &Manager{
		users:       userStore,
		servers:     serverStore,
		communities: communityStore,
		logger:      logger.Get(),
	}, nil
}

// === Lookups

func (m *Manager) GetUser(ctx context.Context, id int64) (*User, bool, error) {
	return m.users.Get(ctx, id)
}

func (m *Manager) GetUserByName(ctx context.Context, name string) (*User, bool, error) {
	return m.users.GetByName(ctx, name)
}

func (m *Manager) GetServer(ctx context.Context, id int64) (*Server, bool, error) {
	return m.servers.Get(ctx, id)
}

func (m *Manager) GetServerByName(ctx context.Context, name string) (*Server, bool, error) {
	return m.servers.GetByName(ctx, name)
}

func (m *Manager) GetCommunity(ctx context.Context, id int64) (*Community, bool, error) {
	return m.communities.Get(ctx, id)
}

func (m *Manager) GetCommunityByName(ctx context.Context, name string) (*Community, bool, error) {
	return m.communities.GetByName(ctx, name)
}

// === Saves

func (m *Manager) SaveUser(ctx context.Context, u *User) error {
	return m.users.Save(ctx, u)
}

func (m *Manager) SaveServer(ctx context.Context, s *Server) error {
	return m.servers.Save(ctx, s)
}

func (m *Manager) SaveCommunity(ctx context.Context, c *Community) error {
	return m.communities.Save(ctx, c)
}

// === Linking

// LinkUserToServer adds each side's id to the other's set and persists both.
// Both sides are written even when one already holds the id, so a previously
// one-sided link is healed rather than short-circuited.
func (m *Manager) LinkUserToServer(ctx context.Context, u *User, s *Server) error {
	m.checkSymmetry(u.Servers.Has(s.ID), s.Users.Has(u.ID), u.ID, s.ID)

	u.Servers.Add(s.ID)
	s.Users.Add(u.ID)

	if err := m.users.Save(ctx, u); err != nil {
		return err
	}
	return m.servers.Save(ctx, s)
}

// UnlinkUserToServer removes the pair from both sets. Absence on either side
// is a no-op, so cleanup paths never fail on an already-removed edge.
func (m *Manager) UnlinkUserToServer(ctx context.Context, u *User, s *Server) error {
	u.Servers.Remove(s.ID)
	s.Users.Remove(u.ID)

	if err := m.users.Save(ctx, u); err != nil {
		return err
	}
	return m.servers.Save(ctx, s)
}

// LinkUserToCommunity mirrors LinkUserToServer for the user/community pair.
func (m *Manager) LinkUserToCommunity(ctx context.Context, u *User, c *Community) error {
	m.checkSymmetry(u.Communities.Has(c.ID), c.Users.Has(u.ID), u.ID, c.ID)

	u.Communities.Add(c.ID)
	c.Users.Add(u.ID)

	if err := m.users.Save(ctx, u); err != nil {
		return err
	}
	return m.communities.Save(ctx, c)
}

// UnlinkUserToCommunity removes the pair from both sets.
func (m *Manager) UnlinkUserToCommunity(ctx context.Context, u *User, c *Community) error {
	u.Communities.Remove(c.ID)
	c.Users.Remove(u.ID)

	if err := m.users.Save(ctx, u); err != nil {
		return err
	}
	return m.communities.Save(ctx, c)
}

// LinkServerToCommunity attaches the server to the community and cascades:
// every user already in the server is linked to the community. The cascade is
// one hop only; it does not walk out to the users' other servers.
func (m *Manager) LinkServerToCommunity(ctx context.Context, s *Server, c *Community) error {
	id := c.ID
	s.Community = &id
	c.Servers.Add(s.ID)

	for _, uid := range s.Users.IDs() {
		u, ok, err := m.users.Get(ctx, uid)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := m.LinkUserToCommunity(ctx, u, c); err != nil {
			return err
		}
	}

	if err := m.servers.Save(ctx, s); err != nil {
		return err
	}
	return m.communities.Save(ctx, c)
}

// UnlinkServerToCommunity detaches the server and evicts each of its users
// from the community only when none of the user's remaining servers is still
// a member of it. A user reaching the community through a second server
// stays.
func (m *Manager) UnlinkServerToCommunity(ctx context.Context, s *Server, c *Community) error {
	s.Community = nil
	c.Servers.Remove(s.ID)

	for _, uid := range s.Users.IDs() {
		u, ok, err := m.users.Get(ctx, uid)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if u.Servers.Intersect(c.Servers).Len() == 0 {
			if err := m.UnlinkUserToCommunity(ctx, u, c); err != nil {
				return err
			}
		}
	}

	if err := m.servers.Save(ctx, s); err != nil {
		return err
	}
	return m.communities.Save(ctx, c)
}

// === Deletion cascades

// DeleteCommunity unlinks every member user and server, then removes the
// community record. Deleting an absent community is a no-op. Membership sets
// are iterated via snapshots because unlinking mutates them.
func (m *Manager) DeleteCommunity(ctx context.Context, id int64) error {
	c, ok, err := m.communities.Get(ctx, id)
	if err != nil || !ok {
		return err
	}

	for _, uid := range c.Users.IDs() {
		u, ok, err := m.users.Get(ctx, uid)
		if err != nil {
			return err
		}
		if ok {
			if err := m.UnlinkUserToCommunity(ctx, u, c); err != nil {
				return err
			}
		}
	}

	for _, sid := range c.Servers.IDs() {
		s, ok, err := m.servers.Get(ctx, sid)
		if err != nil {
			return err
		}
		if ok {
			if err := m.UnlinkServerToCommunity(ctx, s, c); err != nil {
				return err
			}
		}
	}

	m.logger.Info("community deleted", zap.Int64("community_id", id))
	return m.communities.Delete(ctx, id)
}

// DeleteServer unlinks every member user and the owning community, then
// removes the server record.
func (m *Manager) DeleteServer(ctx context.Context, id int64) error {
	s, ok, err := m.servers.Get(ctx, id)
	if err != nil || !ok {
		return err
	}

	for _, uid := range s.Users.IDs() {
		u, ok, err := m.users.Get(ctx, uid)
		if err != nil {
			return err
		}
		if ok {
			if err := m.UnlinkUserToServer(ctx, u, s); err != nil {
				return err
			}
		}
	}

	if s.Community != nil {
		c, ok, err := m.communities.Get(ctx, *s.Community)
		if err != nil {
			return err
		}
		if ok {
			if err := m.UnlinkServerToCommunity(ctx, s, c); err != nil {
				return err
			}
		}
	}

	m.logger.Info("server deleted", zap.Int64("server_id", id))
	return m.servers.Delete(ctx, id)
}

// DeleteUser unlinks the user from every server and community, then removes
// the user record.
func (m *Manager) DeleteUser(ctx context.Context, id int64) error {
	u, ok, err := m.users.Get(ctx, id)
	if err != nil || !ok {
		return err
	}

	for _, sid := range u.Servers.IDs() {
		s, ok, err := m.servers.Get(ctx, sid)
		if err != nil {
			return err
		}
		if ok {
			if err := m.UnlinkUserToServer(ctx, u, s); err != nil {
				return err
			}
		}
	}

	for _, cid := range u.Communities.IDs() {
		c, ok, err := m.communities.Get(ctx, cid)
		if err != nil {
			return err
		}
		if ok {
			if err := m.UnlinkUserToCommunity(ctx, u, c); err != nil {
				return err
			}
		}
	}

	m.logger.Info("user deleted", zap.Int64("user_id", id))
	return m.users.Delete(ctx, id)
}

// === Derived queries

// CommunitiesOf resolves the user's community set. Ids that no longer
// resolve are dropped silently; they are treated as already deleted.
func (m *Manager) CommunitiesOf(ctx context.Context, u *User) ([]*Community, error) {
	out := make([]*Community, 0, u.Communities.Len())
	for _, cid := range u.Communities.IDs() {
		c, ok, err := m.communities.Get(ctx, cid)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// ServersOf resolves the community's server set.
func (m *Manager) ServersOf(ctx context.Context, c *Community) ([]*Server, error) {
	out := make([]*Server, 0, c.Servers.Len())
	for _, sid := range c.Servers.IDs() {
		s, ok, err := m.servers.Get(ctx, sid)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// UsersOfServer resolves the server's user set.
func (m *Manager) UsersOfServer(ctx context.Context, s *Server) ([]*User, error) {
	return m.resolveUsers(ctx, s.Users)
}

// UsersOfCommunity resolves the community's user set.
func (m *Manager) UsersOfCommunity(ctx context.Context, c *Community) ([]*User, error) {
	return m.resolveUsers(ctx, c.Users)
}

func (m *Manager) resolveUsers(ctx context.Context, ids IDSet) ([]*User, error) {
	out := make([]*User, 0, ids.Len())
	for _, uid := range ids.IDs() {
		u, ok, err := m.users.Get(ctx, uid)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// checkSymmetry logs when a link is found to exist on one side only. The
// caller proceeds and writes both sides, healing the edge.
func (m *Manager) checkSymmetry(forward, backward bool, subjectID, objectID int64) {
	if forward != backward {
		m.logger.Warn("healing one-sided link",
			zap.Int64("subject_id", subjectID),
			zap.Int64("object_id", objectID),
			zap.Bool("forward", forward),
			zap.Bool("backward", backward),
		)
	}
}
