// Package middleware holds handler middleware and predicates backed by storage.
package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/storage"
)

// HistoryStore records executed commands.
type HistoryStore interface {
	AppendCommand(guildID string, rec storage.CommandRecord) error
}

// WithCommandLogger appends every invocation to the guild's command history.
// The handler's error is passed through unchanged.
func WithCommandLogger(store HistoryStore) command.Middleware {
	return func(next command.Handler) command.Handler {
		return func(ctx context.Context, c *command.Context) error {
			err := next(ctx, c)

			rec := storage.CommandRecord{
				Command:  strings.Join(c.Path, " "),
				Param:    c.RawArgs,
				Datetime: time.Now().UTC(),
			}
			if inv := c.Invocation; inv != nil {
				rec.ChannelID = inv.ChannelID
				rec.UserID = inv.AuthorID
			}
			switch {
			case c.Message != nil:
				rec.Source = "text"
				if c.Message.Author != nil {
					rec.Username = c.Message.Author.Username
				}
			case c.Session != nil:
				rec.Source = "slash"
				rec.Username = username(ctx, c)
			}

			guildID := ""
			if c.Invocation != nil {
				guildID = c.Invocation.GuildID
			}
			if e := store.AppendCommand(guildID, rec); e != nil {
				log.Warn().Err(e).Str("command", rec.Command).Msg("failed to log command")
			}
			return err
		}
	}
}

func username(ctx context.Context, c *command.Context) string {
	inv := c.Invocation
	if inv == nil || inv.Lookup == nil {
		return ""
	}
	u, err := inv.Lookup.User(ctx, inv.AuthorID)
	if err != nil || u == nil {
		return inv.AuthorID
	}
	return u.Username
}
