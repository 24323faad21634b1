package filter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/keshon/dispatch/internal/lookup"
	"github.com/keshon/dispatch/internal/permission"
)

// ErrNotFound is returned by ChannelPermissions when the guild, channel or
// member does not exist.
var ErrNotFound = errors.New("filter: entity not found")

// ChannelPermissions computes the effective permissions of userID in channelID.
// The guild owner gets every permission.
func ChannelPermissions(ctx context.Context, l lookup.Lookup, guildID, channelID, userID string) (int64, error) {
	if l == nil || guildID == "" {
		return 0, ErrNotFound
	}
	guild, err := l.Guild(ctx, guildID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch guild: %w", err)
	}
	if guild == nil {
		return 0, ErrNotFound
	}
	if guild.OwnerID != "" && guild.OwnerID == userID {
		return permission.All, nil
	}

	member, err := l.Member(ctx, guildID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch member: %w", err)
	}
	if member == nil {
		return 0, ErrNotFound
	}

	channel, err := l.Channel(ctx, channelID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch channel: %w", err)
	}
	if channel == nil {
		return 0, ErrNotFound
	}
	// threads inherit the overwrites of their parent
	if channel.IsThread() && channel.ParentID != "" {
		parent, err := l.Channel(ctx, channel.ParentID)
		if err != nil {
			return 0, fmt.Errorf("failed to fetch parent channel: %w", err)
		}
		if parent == nil {
			return 0, ErrNotFound
		}
		channel = parent
	}

	held := make(map[string]struct{}, len(member.Roles))
	for _, id := range member.Roles {
		held[id] = struct{}{}
	}
	var everyone int64
	var rolePerms []int64
	for _, r := range guild.Roles {
		if r.ID == guild.ID {
			everyone = r.Permissions
			continue
		}
		if _, ok := held[r.ID]; ok {
			rolePerms = append(rolePerms, r.Permissions)
		}
	}

	base := permission.Base(everyone, rolePerms...)
	return permission.Resolve(base, permission.FromDiscord(channel.PermissionOverwrites), guild.ID, userID, member.Roles), nil
}

func userHas(ctx context.Context, inv *Invocation, userID string, check func(int64) bool) bool {
	if inv == nil || userID == "" {
		return false
	}
	perms, err := ChannelPermissions(ctx, inv.Lookup, inv.GuildID, inv.ChannelID, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Str("guild", inv.GuildID).Str("channel", inv.ChannelID).Msg("permission lookup failed")
		}
		return false
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return check(perms)
}

// HasPermissions requires the invoker to hold every bit in required in the
// invocation channel. Lookup failures deny.
func HasPermissions(required int64) Predicate {
	return New(
		func(ctx context.Context, inv *Invocation) bool {
			return userHas(ctx, inv, authorOf(inv), func(p int64) bool { return p&required == required })
		},
		func() string {
			return fmt.Sprintf("You need the following permissions to run this command: `%s`",
				strings.Join(permission.Describe(required), "`, `"))
		},
	)
}

// HasAnyPermission requires the invoker to hold at least one of perms.
func HasAnyPermission(perms ...int64) Predicate {
	return New(
		func(ctx context.Context, inv *Invocation) bool {
			return userHas(ctx, inv, authorOf(inv), func(p int64) bool {
				for _, want := range perms {
					if p&want != 0 {
						return true
					}
				}
				return false
			})
		},
		func() string {
			names := make([]string, 0, len(perms))
			for _, p := range perms {
				names = append(names, strings.Join(permission.Describe(p), " + "))
			}
			return fmt.Sprintf("You need at least one of the following permissions to run this command: `%s`",
				strings.Join(names, "`, `"))
		},
	)
}

// BotHasPermissions requires the bot itself to hold every bit in required.
func BotHasPermissions(required int64) Predicate {
	return New(
		func(ctx context.Context, inv *Invocation) bool {
			if inv == nil || inv.Lookup == nil {
				return false
			}
			return userHas(ctx, inv, inv.Lookup.BotID(), func(p int64) bool { return p&required == required })
		},
		func() string {
			return fmt.Sprintf("I need the following permissions in this channel to run this command: `%s`",
				strings.Join(permission.Describe(required), "`, `"))
		},
	)
}

func authorOf(inv *Invocation) string {
	if inv == nil {
		return ""
	}
	return inv.AuthorID
}
