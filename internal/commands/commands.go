// Package commands registers the bot's built-in commands on a tree.
package commands

import (
	"context"
	"time"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/storage"
)

// Toggleable lists the names administrators can switch off per guild.
var Toggleable = []string{"role", "echo"}

// RoleManager changes member roles on the platform.
type RoleManager interface {
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
}

// Store is the guild state the built-in commands read and write.
type Store interface {
	CommandHistory(guildID string) ([]storage.CommandRecord, error)
	DisableGroup(guildID, group string) error
	EnableGroup(guildID, group string) error
	IsGroupDisabled(guildID, group string) (bool, error)
	DisabledGroups(guildID string) ([]string, error)
	Reset(guildID string) (bool, error)
}

// Deps are the collaborators built-in commands need.
type Deps struct {
	Store       Store
	Roles       RoleManager
	DeveloperID string
	// Prefix is shown in help output.
	Prefix string
	// Latency reports the gateway heartbeat latency, if known.
	Latency func() time.Duration
}

// Register adds every built-in command to tree.
func Register(tree *command.Tree, deps Deps) error {
	for _, register := range []func(*command.Tree, Deps) error{
		registerPing,
		registerHelp,
		registerEcho,
		registerRole,
		registerManage,
	} {
		if err := register(tree, deps); err != nil {
			return err
		}
	}
	return nil
}
