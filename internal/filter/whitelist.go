package filter

import (
	"context"
	"slices"
)

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// UserIn passes when the invoker is one of ids.
func UserIn(ids ...string) Predicate {
	set := idSet(ids)
	return Custom(func(_ context.Context, inv *Invocation) bool {
		_, ok := set[authorOf(inv)]
		return ok
	}, "You are not allowed to use this command.")
}

// Developer passes only for the configured developer id. An empty id never passes.
func Developer(id string) Predicate {
	return Custom(func(_ context.Context, inv *Invocation) bool {
		return id != "" && authorOf(inv) == id
	}, "This command is reserved for the bot developer.")
}

// ChannelIn passes when the command is used in one of ids.
func ChannelIn(ids ...string) Predicate {
	set := idSet(ids)
	return Custom(func(_ context.Context, inv *Invocation) bool {
		if inv == nil {
			return false
		}
		_, ok := set[inv.ChannelID]
		return ok
	}, "This command cannot be used in this channel.")
}

// GuildIn passes when the command is used in one of ids.
func GuildIn(ids ...string) Predicate {
	set := idSet(ids)
	return Custom(func(_ context.Context, inv *Invocation) bool {
		if inv == nil {
			return false
		}
		_, ok := set[inv.GuildID]
		return ok
	}, "This command is not available on this server.")
}

// GuildOnly rejects direct messages.
func GuildOnly() Predicate {
	return Custom(func(_ context.Context, inv *Invocation) bool {
		return inv != nil && inv.GuildID != ""
	}, "You must be in a guild to use this command.")
}

// RoleIn passes when the invoker holds at least one of ids. Roles carried by
// the event are used first; otherwise the member is looked up.
func RoleIn(ids ...string) Predicate {
	return Custom(func(ctx context.Context, inv *Invocation) bool {
		if inv == nil || inv.GuildID == "" {
			return false
		}
		roles := inv.RoleIDs
		if roles == nil {
			if inv.Lookup == nil {
				return false
			}
			m, err := inv.Lookup.Member(ctx, inv.GuildID, inv.AuthorID)
			if err != nil || m == nil {
				return false
			}
			roles = m.Roles
		}
		for _, r := range roles {
			if slices.Contains(ids, r) {
				return true
			}
		}
		return false
	}, "You don't have a role that can use this command.")
}
