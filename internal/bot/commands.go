package bot

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"commgraph/internal/community"
	"commgraph/internal/relationships"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const memberPageSize = 1000

// communityIDSpace bounds the derived community id to eight decimal digits,
// keeping it clear of the platform's snowflake range.
var communityIDSpace = big.NewInt(100_000_000)

// HandleMessage routes prefixed commands. Everything else is ignored.
func (h *Handler) HandleMessage(s *discordgo.Session, e *discordgo.MessageCreate) {
	if e.Author == nil || e.Author.Bot {
		return
	}
	if !strings.HasPrefix(e.Content, h.prefix) {
		return
	}

	ctx := context.Background()
	args := strings.Fields(strings.TrimPrefix(e.Content, h.prefix))
	if len(args) == 0 {
		return
	}

	var err error
	switch args[0] {
	case "community":
		err = h.communityCommand(ctx, s, e, args[1:])
	case "populate":
		err = h.populateCommand(ctx, s, e, args[1:])
	default:
		return
	}
	if err != nil {
		h.logger.Error("command failed",
			zap.String("command", args[0]),
			zap.String("author", e.Author.ID),
			zap.Error(err),
		)
		h.reply(s, e.ChannelID, "Something went wrong, try again later.")
	}
}

func (h *Handler) communityCommand(ctx context.Context, s *discordgo.Session, e *discordgo.MessageCreate, args []string) error {
	if len(args) == 0 {
		h.reply(s, e.ChannelID, "Usage: community <create|register|unregister|inspect> ...")
		return nil
	}

	switch args[0] {
	case "create":
		return h.createCommunity(ctx, s, e, strings.Join(args[1:], " "))
	case "register":
		if len(args) >= 2 && args[1] == "server" {
			return h.registerServer(ctx, s, e, strings.Join(args[2:], " "))
		}
	case "unregister":
		if len(args) >= 2 && args[1] == "server" {
			return h.unregisterServer(ctx, s, e, strings.Join(args[2:], " "))
		}
	case "inspect":
		if len(args) >= 3 {
			return h.inspect(ctx, s, e, args[1], strings.Join(args[2:], " "))
		}
	}

	h.reply(s, e.ChannelID, "Unknown community subcommand.")
	return nil
}

// createCommunity creates a community named by the caller. The id is derived
// from the lowercased name, so recreating a community reuses its id.
func (h *Handler) createCommunity(ctx context.Context, s *discordgo.Session, e *discordgo.MessageCreate, name string) error {
	if name == "" {
		h.reply(s, e.ChannelID, "Usage: community create <name>")
		return nil
	}

	if _, found, err := h.manager.GetCommunityByName(ctx, name); err != nil {
		return err
	} else if found {
		h.reply(s, e.ChannelID, fmt.Sprintf("Community %q already exists.", name))
		return nil
	}

	ownerID, ok := parseSnowflake(e.Author.ID)
	if !ok {
		return fmt.Errorf("bad author id %q", e.Author.ID)
	}

	c := community.NewCommunity(hashCommunityID(name), ownerID, name)
	if err := h.manager.SaveCommunity(ctx, c); err != nil {
		return err
	}

	h.logger.Info("community created",
		zap.Int64("community_id", c.ID),
		zap.String("name", name),
		zap.Int64("owner_id", ownerID),
	)
	h.reply(s, e.ChannelID, fmt.Sprintf("Community %q created.", name))
	return nil
}

// registerServer attaches the current server to the named community and
// records the COMMUNITY_SERVER edge when a relationship backend is wired.
func (h *Handler) registerServer(ctx context.Context, s *discordgo.Session, e *discordgo.MessageCreate, name string) error {
	c, found, err := h.resolveCommunity(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		h.reply(s, e.ChannelID, fmt.Sprintf("Community %q not found.", name))
		return nil
	}

	guildID, ok := parseSnowflake(e.GuildID)
	if !ok {
		h.reply(s, e.ChannelID, "This command only works inside a server.")
		return nil
	}
	server, found, err := h.manager.GetServer(ctx, guildID)
	if err != nil {
		return err
	}
	if !found {
		h.reply(s, e.ChannelID, "This server is not tracked yet.")
		return nil
	}

	if err := h.manager.LinkServerToCommunity(ctx, server, c); err != nil {
		return err
	}

	if h.rels != nil {
		if _, err := h.rels.Link(ctx, guildID, c.ID, relationships.TypeCommunityServer); err != nil {
			h.logger.Warn("failed to record community-server edge", zap.Int64("server_id", guildID), zap.Error(err))
		}
	}

	h.reply(s, e.ChannelID, fmt.Sprintf("Server registered to %q.", c.Name))
	return nil
}

// unregisterServer detaches the current server from the named community.
func (h *Handler) unregisterServer(ctx context.Context, s *discordgo.Session, e *discordgo.MessageCreate, name string) error {
	c, found, err := h.resolveCommunity(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		h.reply(s, e.ChannelID, fmt.Sprintf("Community %q not found.", name))
		return nil
	}

	guildID, ok := parseSnowflake(e.GuildID)
	if !ok {
		h.reply(s, e.ChannelID, "This command only works inside a server.")
		return nil
	}
	server, found, err := h.manager.GetServer(ctx, guildID)
	if err != nil {
		return err
	}
	if !found {
		h.reply(s, e.ChannelID, "This server is not tracked yet.")
		return nil
	}

	if err := h.manager.UnlinkServerToCommunity(ctx, server, c); err != nil {
		return err
	}

	if h.rels != nil {
		if err := h.rels.Unlink(ctx, guildID, c.ID, relationships.TypeCommunityServer); err != nil {
			h.logger.Warn("failed to remove community-server edge", zap.Int64("server_id", guildID), zap.Error(err))
		}
	}

	h.reply(s, e.ChannelID, fmt.Sprintf("Server unregistered from %q.", c.Name))
	return nil
}

// inspect prints a summary of a community, server or user.
func (h *Handler) inspect(ctx context.Context, s *discordgo.Session, e *discordgo.MessageCreate, kind, arg string) error {
	switch kind {
	case "community":
		c, found, err := h.resolveCommunity(ctx, arg)
		if err != nil {
			return err
		}
		if !found {
			h.reply(s, e.ChannelID, fmt.Sprintf("Community %q not found.", arg))
			return nil
		}
		h.reply(s, e.ChannelID, c.Display())
	case "server":
		id, ok := parseSnowflake(arg)
		if !ok {
			h.reply(s, e.ChannelID, "Expected a server id.")
			return nil
		}
		server, found, err := h.manager.GetServer(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			h.reply(s, e.ChannelID, fmt.Sprintf("Server %d not found.", id))
			return nil
		}
		h.reply(s, e.ChannelID, server.String())
	case "user":
		id, ok := parseSnowflake(arg)
		if !ok {
			h.reply(s, e.ChannelID, "Expected a user id.")
			return nil
		}
		user, found, err := h.manager.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			h.reply(s, e.ChannelID, fmt.Sprintf("User %d not found.", id))
			return nil
		}
		h.reply(s, e.ChannelID, user.String())
	default:
		h.reply(s, e.ChannelID, "Usage: community inspect <community|server|user> <id or name>")
	}
	return nil
}

// populateCommand walks the member list of the current server (or of every
// known server with "all") and links each non-bot member, then reconciles the
// relationship index against the fetched list.
func (h *Handler) populateCommand(ctx context.Context, s *discordgo.Session, e *discordgo.MessageCreate, args []string) error {
	if len(args) > 0 && args[0] == "all" {
		guilds := s.State.Guilds
		for _, g := range guilds {
			if err := h.populateServer(ctx, s, g.ID); err != nil {
				return err
			}
		}
		h.reply(s, e.ChannelID, fmt.Sprintf("Populated %d servers.", len(guilds)))
		return nil
	}

	if e.GuildID == "" {
		h.reply(s, e.ChannelID, "This command only works inside a server.")
		return nil
	}
	if err := h.populateServer(ctx, s, e.GuildID); err != nil {
		return err
	}
	h.reply(s, e.ChannelID, "Server populated.")
	return nil
}

func (h *Handler) populateServer(ctx context.Context, s *discordgo.Session, guildID string) error {
	id, ok := parseSnowflake(guildID)
	if !ok {
		return fmt.Errorf("bad guild id %q", guildID)
	}

	server, found, err := h.manager.GetServer(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		guild, err := s.Guild(guildID)
		if err != nil {
			return fmt.Errorf("failed to fetch guild %s: %w", guildID, err)
		}
		server = community.NewServer(id, guild.Name)
		if err := h.manager.SaveServer(ctx, server); err != nil {
			return err
		}
	}

	memberIDs := make([]int64, 0)
	after := ""
	for {
		page, err := s.GuildMembers(guildID, after, memberPageSize)
		if err != nil {
			return fmt.Errorf("failed to list members of %s: %w", guildID, err)
		}
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			if m.User == nil || m.User.Bot {
				continue
			}
			uid, ok := parseSnowflake(m.User.ID)
			if !ok {
				continue
			}
			user, err := h.ensureUser(ctx, uid, m.User.Username)
			if err != nil {
				return err
			}
			if err := h.manager.LinkUserToServer(ctx, user, server); err != nil {
				return err
			}
			memberIDs = append(memberIDs, uid)
		}
		after = page[len(page)-1].User.ID
		if len(page) < memberPageSize {
			break
		}
	}

	if h.rels != nil {
		added, removed, err := h.rels.SyncServerMembers(ctx, id, memberIDs)
		if err != nil {
			return err
		}
		h.logger.Info("membership index reconciled",
			zap.Int64("server_id", id),
			zap.Int("added", added),
			zap.Int("removed", removed),
		)
	}

	h.logger.Info("server populated", zap.Int64("server_id", id), zap.Int("members", len(memberIDs)))
	return nil
}

// resolveCommunity accepts either a numeric id or a name.
func (h *Handler) resolveCommunity(ctx context.Context, arg string) (*community.Community, bool, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return h.manager.GetCommunity(ctx, id)
	}
	return h.manager.GetCommunityByName(ctx, arg)
}

func (h *Handler) reply(s *discordgo.Session, channelID, msg string) {
	if _, err := s.ChannelMessageSend(channelID, msg); err != nil {
		h.logger.Warn("failed to send reply", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func parseSnowflake(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// hashCommunityID derives a stable id from the lowercased community name:
// the SHA-1 digest interpreted as an integer, reduced modulo 10^8.
func hashCommunityID(name string) int64 {
	sum := sha1.Sum([]byte(strings.ToLower(name)))
	n := new(big.Int)
	n.SetString(hex.EncodeToString(sum[:]), 16)
	return n.Mod(n, communityIDSpace).Int64()
}
