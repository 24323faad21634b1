package commands

import (
	"context"
	"fmt"

	"github.com/keshon/dispatch/internal/command"
)

func registerPing(tree *command.Tree, deps Deps) error {
	_, err := tree.Command(command.Spec{
		Name:        "ping",
		Description: "Check that the bot is alive",
		Handler: func(ctx context.Context, c *command.Context) error {
			if deps.Latency == nil {
				return c.Reply(ctx, "🏓 Pong!")
			}
			return c.Reply(ctx, fmt.Sprintf("🏓 Pong! Response time: `%dms`", deps.Latency().Milliseconds()))
		},
	})
	return err
}
