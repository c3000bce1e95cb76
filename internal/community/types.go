package community

import (
	"fmt"
	"time"
)

// User is a tracked platform user. Equality is by id only; the membership
// sets are denormalized views kept consistent by the Manager.
type User struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Servers     IDSet     `json:"servers"`
	Communities IDSet     `json:"communities"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewUser creates a user with empty membership sets.
func NewUser(id int64, name string) *User {
	return &User{
		ID:          id,
		Name:        name,
		Servers:     NewIDSet(),
		Communities: NewIDSet(),
		CreatedAt:   time.Now(),
	}
}

func (u *User) EntityID() int64    { return u.ID }
func (u *User) EntityName() string { return u.Name }

func (u *User) String() string {
	return fmt.Sprintf("User(id=%d, name=%q, in %d servers)", u.ID, u.Name, u.Servers.Len())
}

// Server is a single chat server. Community holds the id of its owning
// community, or nil when unaffiliated; it is non-nil exactly when the
// community's server set contains this server.
type Server struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Users     IDSet     `json:"users"`
	Community *int64    `json:"community"`
	CreatedAt time.Time `json:"created_at"`
}

// NewServer creates a server with no members and no community.
func NewServer(id int64, name string) *Server {
	return &Server{
		ID:        id,
		Name:      name,
		Users:     NewIDSet(),
		CreatedAt: time.Now(),
	}
}

func (s *Server) EntityID() int64    { return s.ID }
func (s *Server) EntityName() string { return s.Name }

func (s *Server) String() string {
	return fmt.Sprintf("Server(id=%d, name=%q, has %d users)", s.ID, s.Name, s.Users.Len())
}

// Community groups servers and their users under an owner.
type Community struct {
	ID        int64     `json:"id"`
	Owner     int64     `json:"owner"`
	Name      string    `json:"name"`
	Users     IDSet     `json:"users"`
	Servers   IDSet     `json:"servers"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCommunity creates an empty community owned by ownerID.
func NewCommunity(id, ownerID int64, name string) *Community {
	return &Community{
		ID:        id,
		Owner:     ownerID,
		Name:      name,
		Users:     NewIDSet(),
		Servers:   NewIDSet(),
		CreatedAt: time.Now(),
	}
}

func (c *Community) EntityID() int64    { return c.ID }
func (c *Community) EntityName() string { return c.Name }

func (c *Community) String() string {
	return fmt.Sprintf("Community(id=%d, name=%q, has %d users in %d servers)",
		c.ID, c.Name, c.Users.Len(), c.Servers.Len())
}

// Display renders a community summary for the command layer.
func (c *Community) Display() string {
	return fmt.Sprintf("Name: %s\nOwned by: <@%d>\nNo. Servers: %d\nNo. Members: %d",
		c.Name, c.Owner, c.Servers.Len(), c.Users.Len())
}
