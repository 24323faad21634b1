package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/args"
	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/filter"
	"github.com/keshon/dispatch/internal/middleware"
)

const roleUsage = "Usage: `role on <role> [member]` or `role off <role> [member]`."

var roleArgs = []args.Arg{
	{Name: "role", Kind: args.Role, Required: true, Description: "Role to change"},
	{Name: "member", Kind: args.Member, Description: "Member to change, defaults to you"},
}

func registerRole(tree *command.Tree, deps Deps) error {
	filters := []filter.Predicate{
		filter.GuildOnly(),
		filter.HasPermissions(discordgo.PermissionManageRoles),
		filter.BotHasPermissions(discordgo.PermissionManageRoles),
	}
	if deps.Store != nil {
		filters = append(filters, middleware.GroupEnabled(deps.Store, "role"))
	}

	g, err := tree.Group(command.GroupSpec{
		Name:        "role",
		Aliases:     []string{"roles"},
		Description: "Add or remove roles",
		Filters:     filters,
		Default: func(ctx context.Context, c *command.Context) error {
			return c.Reply(ctx, roleUsage)
		},
		OnError: func(ctx context.Context, c *command.Context, err error) bool {
			var ae *args.ArgumentError
			if !errors.As(err, &ae) {
				return false
			}
			_ = c.Reply(ctx, ae.Message()+"\n"+roleUsage)
			return true
		},
	})
	if err != nil {
		return err
	}

	if _, err := g.Command(command.Spec{
		Name:        "on",
		Aliases:     []string{"add"},
		Description: "Give a role",
		Args:        roleArgs,
		Handler:     changeRole(deps.Roles, true),
	}); err != nil {
		return err
	}
	_, err = g.Command(command.Spec{
		Name:        "off",
		Aliases:     []string{"remove"},
		Description: "Take a role away",
		Args:        roleArgs,
		Handler:     changeRole(deps.Roles, false),
	})
	return err
}

func changeRole(roles RoleManager, add bool) command.Handler {
	return func(ctx context.Context, c *command.Context) error {
		if roles == nil {
			return errors.New("role changes are not available")
		}
		role := c.Args.Role("role")
		userID := c.Invocation.AuthorID
		if m := c.Args.Member("member"); m != nil && m.User != nil {
			userID = m.User.ID
		}
		guildID := c.Invocation.GuildID

		if add {
			if err := roles.AddRole(ctx, guildID, userID, role.ID); err != nil {
				return fmt.Errorf("add role %s: %w", role.ID, err)
			}
			return c.Reply(ctx, fmt.Sprintf("Gave **%s** to <@%s>.", role.Name, userID))
		}
		if err := roles.RemoveRole(ctx, guildID, userID, role.ID); err != nil {
			return fmt.Errorf("remove role %s: %w", role.ID, err)
		}
		return c.Reply(ctx, fmt.Sprintf("Took **%s** from <@%s>.", role.Name, userID))
	}
}
