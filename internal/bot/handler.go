// Package bot translates Discord gateway events and commands into graph
// engine calls. It owns no data: everything goes through the community
// manager and, when configured, the relationship service.
package bot

import (
	"context"

	"commgraph/internal/community"
	"commgraph/internal/relationships"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Handler wires gateway events into the graph engine.
type Handler struct {
	manager *community.Manager
	rels    *relationships.Service // optional
	prefix  string
	logger  *zap.Logger
}

// NewHandler creates a handler. rels may be nil when no relationship
// backend is configured; membership sync is skipped in that case.
func NewHandler(manager *community.Manager, rels *relationships.Service, prefix string, log *zap.Logger) *Handler {
	return &Handler{
		manager: manager,
		rels:    rels,
		prefix:  prefix,
		logger:  log,
	}
}

// Register attaches every event handler to the session.
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(h.HandleGuildCreate)
	s.AddHandler(h.HandleGuildUpdate)
	s.AddHandler(h.HandleMemberAdd)
	s.AddHandler(h.HandleMemberRemove)
	s.AddHandler(h.HandleUserUpdate)
	s.AddHandler(h.HandleMessage)
}

// HandleGuildCreate creates a server record on first observation.
func (h *Handler) HandleGuildCreate(s *discordgo.Session, e *discordgo.GuildCreate) {
	ctx := context.Background()

	guildID, ok := parseSnowflake(e.ID)
	if !ok {
		return
	}

	server, found, err := h.manager.GetServer(ctx, guildID)
	if err != nil {
		h.logger.Error("failed to look up server", zap.String("guild_id", e.ID), zap.Error(err))
		return
	}
	if found {
		return
	}

	server = community.NewServer(guildID, e.Name)
	if err := h.manager.SaveServer(ctx, server); err != nil {
		h.logger.Error("failed to create server", zap.String("guild_id", e.ID), zap.Error(err))
		return
	}
	h.logger.Info("server created", zap.Int64("server_id", guildID), zap.String("name", e.Name))
}

// HandleGuildUpdate renames the server record.
func (h *Handler) HandleGuildUpdate(s *discordgo.Session, e *discordgo.GuildUpdate) {
	ctx := context.Background()

	guildID, ok := parseSnowflake(e.ID)
	if !ok {
		return
	}

	server, found, err := h.manager.GetServer(ctx, guildID)
	if err != nil || !found {
		return
	}

	server.Name = e.Name
	if err := h.manager.SaveServer(ctx, server); err != nil {
		h.logger.Error("failed to rename server", zap.Int64("server_id", guildID), zap.Error(err))
	}
}

// HandleMemberAdd creates the user if needed and links it to the server.
func (h *Handler) HandleMemberAdd(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
	if e.User == nil || e.User.Bot {
		return
	}
	ctx := context.Background()

	userID, ok := parseSnowflake(e.User.ID)
	if !ok {
		return
	}
	guildID, ok := parseSnowflake(e.GuildID)
	if !ok {
		return
	}

	user, err := h.ensureUser(ctx, userID, e.User.Username)
	if err != nil {
		h.logger.Error("failed to ensure user", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	server, found, err := h.manager.GetServer(ctx, guildID)
	if err != nil || !found {
		return
	}

	if err := h.manager.LinkUserToServer(ctx, user, server); err != nil {
		h.logger.Error("failed to link user to server",
			zap.Int64("user_id", userID),
			zap.Int64("server_id", guildID),
			zap.Error(err),
		)
		return
	}

	if h.rels != nil {
		if _, err := h.rels.Link(ctx, userID, guildID, relationships.TypeServerMember); err != nil {
			h.logger.Warn("failed to record membership edge", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
}

// HandleMemberRemove unlinks the user from the server.
func (h *Handler) HandleMemberRemove(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
	if e.User == nil || e.User.Bot {
		return
	}
	ctx := context.Background()

	userID, ok := parseSnowflake(e.User.ID)
	if !ok {
		return
	}
	guildID, ok := parseSnowflake(e.GuildID)
	if !ok {
		return
	}

	user, found, err := h.manager.GetUser(ctx, userID)
	if err != nil || !found {
		return
	}
	server, found, err := h.manager.GetServer(ctx, guildID)
	if err != nil || !found {
		return
	}

	if err := h.manager.UnlinkUserToServer(ctx, user, server); err != nil {
		h.logger.Error("failed to unlink user from server",
			zap.Int64("user_id", userID),
			zap.Int64("server_id", guildID),
			zap.Error(err),
		)
		return
	}

	if h.rels != nil {
		if err := h.rels.Unlink(ctx, userID, guildID, relationships.TypeServerMember); err != nil {
			h.logger.Warn("failed to remove membership edge", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
}

// HandleUserUpdate renames the user record.
func (h *Handler) HandleUserUpdate(s *discordgo.Session, e *discordgo.UserUpdate) {
	if e.User == nil {
		return
	}
	ctx := context.Background()

	userID, ok := parseSnowflake(e.User.ID)
	if !ok {
		return
	}

	user, found, err := h.manager.GetUser(ctx, userID)
	if err != nil || !found {
		return
	}

	user.Name = e.Username
	if err := h.manager.SaveUser(ctx, user); err != nil {
		h.logger.Error("failed to rename user", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// ensureUser returns the tracked user, creating it on first observation.
func (h *Handler) ensureUser(ctx context.Context, id int64, name string) (*community.User, error) {
	user, found, err := h.manager.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if found {
		return user, nil
	}

	user = community.NewUser(id, name)
	if err := h.manager.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	h.logger.Info("user created", zap.Int64("user_id", id), zap.String("name", name))
	return user, nil
}
