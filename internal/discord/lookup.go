package discord

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// sessionLookup resolves objects from the gateway state, falling back to REST.
type sessionLookup struct {
	s *discordgo.Session
}

func (l sessionLookup) BotID() string {
	if l.s.State != nil && l.s.State.User != nil {
		return l.s.State.User.ID
	}
	return ""
}

func (l sessionLookup) User(ctx context.Context, userID string) (*discordgo.User, error) {
	u, err := l.s.User(userID, discordgo.WithContext(ctx))
	return notFound(u, err)
}

func (l sessionLookup) Member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	if m, err := l.s.State.Member(guildID, userID); err == nil {
		return m, nil
	}
	m, err := l.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err == nil && m.GuildID == "" {
		m.GuildID = guildID
	}
	return notFound(m, err)
}

func (l sessionLookup) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if c, err := l.s.State.Channel(channelID); err == nil {
		return c, nil
	}
	c, err := l.s.Channel(channelID, discordgo.WithContext(ctx))
	return notFound(c, err)
}

func (l sessionLookup) Role(ctx context.Context, guildID, roleID string) (*discordgo.Role, error) {
	if r, err := l.s.State.Role(guildID, roleID); err == nil {
		return r, nil
	}
	roles, err := l.s.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	for _, r := range roles {
		if r.ID == roleID {
			return r, nil
		}
	}
	return nil, nil
}

func (l sessionLookup) Guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if g, err := l.s.State.Guild(guildID); err == nil {
		return g, nil
	}
	g, err := l.s.Guild(guildID, discordgo.WithContext(ctx))
	return notFound(g, err)
}

// notFound turns REST 404 and unknown-entity responses into (nil, nil).
func notFound[T any](v *T, err error) (*T, error) {
	if err == nil {
		return v, nil
	}
	if isNotFound(err) {
		return nil, nil
	}
	return nil, err
}

func isNotFound(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return errors.Is(err, discordgo.ErrStateNotFound)
	}
	if rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
		return true
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeUnknownChannel,
			discordgo.ErrCodeUnknownGuild,
			discordgo.ErrCodeUnknownMember,
			discordgo.ErrCodeUnknownRole,
			discordgo.ErrCodeUnknownUser:
			return true
		}
	}
	return false
}
