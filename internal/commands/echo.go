package commands

import (
	"context"
	"strings"
	"time"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/filter"
	"github.com/keshon/dispatch/internal/middleware"
)

func registerEcho(tree *command.Tree, deps Deps) error {
	var filters []filter.Predicate
	if deps.Store != nil {
		filters = append(filters, middleware.GroupEnabled(deps.Store, "echo"))
	}
	_, err := tree.Command(command.Spec{
		Name:        "echo",
		Aliases:     []string{"say"},
		Description: "Repeat the given text",
		Raw:         true,
		Filters:     filters,
		Handler: command.Apply(func(ctx context.Context, c *command.Context) error {
			text := strings.TrimSpace(c.RawArgs)
			if text == "" {
				return c.Reply(ctx, "Nothing to repeat.")
			}
			return c.Reply(ctx, text)
		}, middleware.NewCooldown(5*time.Second, 2).Middleware()),
	})
	return err
}
