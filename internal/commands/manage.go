package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/args"
	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/filter"
	"github.com/keshon/dispatch/internal/interaction"
)

func registerManage(tree *command.Tree, deps Deps) error {
	if deps.Store == nil {
		return nil
	}
	store := deps.Store

	g, err := tree.Group(command.GroupSpec{
		Name:        "commands",
		Description: "Manage commands on this server",
		Filters: []filter.Predicate{
			filter.GuildOnly(),
			filter.Or(
				filter.HasAnyPermission(discordgo.PermissionAdministrator, discordgo.PermissionManageGuild),
				filter.Developer(deps.DeveloperID),
			),
		},
	})
	if err != nil {
		return err
	}

	groupArg := []args.Arg{{
		Name:        "group",
		Kind:        args.String,
		Required:    true,
		Choices:     Toggleable,
		Description: "Command group",
	}}

	specs := []command.Spec{
		{
			Name:        "status",
			Description: "Show which command groups are disabled",
			Ack:         interaction.AutoEphemeral,
			Handler: func(ctx context.Context, c *command.Context) error {
				disabled, err := store.DisabledGroups(c.Invocation.GuildID)
				if err != nil {
					return err
				}
				var sb strings.Builder
				for _, name := range Toggleable {
					state := "enabled"
					if slices.Contains(disabled, name) {
						state = "disabled"
					}
					fmt.Fprintf(&sb, "`%s`: %s\n", name, state)
				}
				return c.Reply(ctx, strings.TrimRight(sb.String(), "\n"))
			},
		},
		{
			Name:        "disable",
			Description: "Disable a command group",
			Args:        groupArg,
			Handler: func(ctx context.Context, c *command.Context) error {
				group := c.Args.String("group")
				if err := store.DisableGroup(c.Invocation.GuildID, group); err != nil {
					return err
				}
				return c.Reply(ctx, fmt.Sprintf("Disabled `%s`.", group))
			},
		},
		{
			Name:        "enable",
			Description: "Enable a command group",
			Args:        groupArg,
			Handler: func(ctx context.Context, c *command.Context) error {
				group := c.Args.String("group")
				if err := store.EnableGroup(c.Invocation.GuildID, group); err != nil {
					return err
				}
				return c.Reply(ctx, fmt.Sprintf("Enabled `%s`.", group))
			},
		},
		{
			Name:        "log",
			Description: "Show recently used commands",
			Ack:         interaction.AutoEphemeral,
			Handler: func(ctx context.Context, c *command.Context) error {
				history, err := store.CommandHistory(c.Invocation.GuildID)
				if err != nil {
					return err
				}
				if len(history) == 0 {
					return c.Reply(ctx, "No commands used yet.")
				}
				var sb strings.Builder
				for i := len(history) - 1; i >= 0; i-- {
					rec := history[i]
					name := rec.Username
					if name == "" {
						name = rec.UserID
					}
					fmt.Fprintf(&sb, "`%s` %s used `%s` (%s)\n", rec.Datetime.Format("2006-01-02 15:04"), name, rec.Command, rec.Source)
				}
				return c.Reply(ctx, strings.TrimRight(sb.String(), "\n"))
			},
		},
		{
			Name:        "reset",
			Description: "Forget command history and enable every group",
			Handler: func(ctx context.Context, c *command.Context) error {
				existed, err := store.Reset(c.Invocation.GuildID)
				if err != nil {
					return err
				}
				if !existed {
					return c.Reply(ctx, "Nothing to reset.")
				}
				return c.Reply(ctx, "Command history cleared and all groups enabled.")
			},
		},
	}
	for _, spec := range specs {
		if _, err := g.Command(spec); err != nil {
			return err
		}
	}
	return nil
}
