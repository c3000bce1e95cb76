// Package relationships is the generalized edge design: instead of two
// membership sets that must agree, each link is a single typed row keyed by
// (subject, object, type). Consistency becomes "one row exists or it
// doesn't"; queries pay a scan unless the backend indexes (type, subject) and
// (type, object).
package relationships

import "time"

// Type is the closed enumeration of edge kinds.
type Type string

const (
	TypeServerMember       Type = "SERVER_MEMBER"
	TypeServerModerator    Type = "SERVER_MODERATOR"
	TypeCommunityMember    Type = "COMMUNITY_MEMBER"
	TypeCommunityServer    Type = "COMMUNITY_SERVER"
	TypeCommunityModerator Type = "COMMUNITY_MODERATOR"
	TypeCommunityAdmin     Type = "COMMUNITY_ADMIN"
	TypeCommunityOwner     Type = "COMMUNITY_OWNER"
)

// MembershipTypes are the edge kinds that make a user part of a community.
var MembershipTypes = []Type{
	TypeCommunityMember,
	TypeCommunityModerator,
	TypeCommunityAdmin,
	TypeCommunityOwner,
}

// Relationship is a typed, directed fact connecting a subject id to an
// object id. ID is a storage-assigned surrogate and may be zero on backends
// without one; identity is the (SubjectID, ObjectID, Type) triple.
type Relationship struct {
	ID        int64     `json:"id,omitempty"`
	SubjectID int64     `json:"subject_id"`
	ObjectID  int64     `json:"object_id"`
	Type      Type      `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// New builds an unsaved relationship stamped with the current time.
func New(subjectID, objectID int64, t Type) Relationship {
	return Relationship{
		SubjectID: subjectID,
		ObjectID:  objectID,
		Type:      t,
		CreatedAt: time.Now(),
	}
}

// Server is the flat relational server record. Membership lives in the
// relationship index, not on the record. Deactivation is the soft-delete
// lifecycle: the row stays, Active flips off and DeactivatedAt is stamped.
type Server struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	CreatedAt     time.Time  `json:"created_at"`
	Active        bool       `json:"active"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// NewServer builds an active server record.
func NewServer(id int64, name string) Server {
	return Server{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now(),
		Active:    true,
	}
}

func (s Server) EntityID() int64    { return s.ID }
func (s Server) EntityName() string { return s.Name }

// Community is the flat relational community record.
type Community struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	Active        bool       `json:"active"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// NewCommunity builds an active community record.
func NewCommunity(id int64, name, description string) Community {
	return Community{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
		Active:      true,
	}
}

func (c Community) EntityID() int64    { return c.ID }
func (c Community) EntityName() string { return c.Name }
