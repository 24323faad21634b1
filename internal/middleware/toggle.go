package middleware

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/keshon/dispatch/internal/filter"
)

// GroupToggles reports whether a command group is disabled in a guild.
type GroupToggles interface {
	IsGroupDisabled(guildID, group string) (bool, error)
}

// GroupEnabled passes unless an administrator disabled group in the invoking
// guild. Storage errors let the command through.
func GroupEnabled(store GroupToggles, group string) filter.Predicate {
	return filter.Custom(func(_ context.Context, inv *filter.Invocation) bool {
		if inv == nil || inv.GuildID == "" {
			return true
		}
		disabled, err := store.IsGroupDisabled(inv.GuildID, group)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("failed to read group toggle")
			return true
		}
		return !disabled
	}, "This command is disabled on this server.\nUse `commands status` to check which commands are disabled.")
}
