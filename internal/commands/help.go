package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/dispatch/internal/args"
	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/interaction"
)

func registerHelp(tree *command.Tree, deps Deps) error {
	_, err := tree.Command(command.Spec{
		Name:        "help",
		Description: "List available commands",
		Args: []args.Arg{
			{Name: "command", Kind: args.Text, Description: "Command to describe"},
		},
		Ack: interaction.AutoEphemeral,
		Handler: func(ctx context.Context, c *command.Context) error {
			if name := strings.TrimSpace(c.Args.String("command")); name != "" {
				return c.Reply(ctx, describeCommand(tree, deps.Prefix, name))
			}
			return c.Reply(ctx, listCommands(tree, deps.Prefix))
		},
	})
	return err
}

func usageLine(prefix string, cmd *command.Command) string {
	line := prefix + strings.Join(cmd.Path(), " ")
	if cmd.Raw() {
		line += " [text...]"
	} else if u := cmd.Args().Usage(); u != "" {
		line += " " + u
	}
	return line
}

func listCommands(tree *command.Tree, prefix string) string {
	var sb strings.Builder
	sb.WriteString("**Commands**\n")
	tree.Walk(func(cmd *command.Command) {
		fmt.Fprintf(&sb, "`%s` - %s\n", usageLine(prefix, cmd), cmd.Description())
	})
	fmt.Fprintf(&sb, "\nUse `%shelp <command>` for details.", prefix)
	return sb.String()
}

func describeCommand(tree *command.Tree, prefix, name string) string {
	m, ok := tree.Resolve(name)
	if !ok || m.Command == nil || strings.TrimSpace(m.Rest) != "" {
		return fmt.Sprintf("Unknown command `%s`.", name)
	}
	cmd := m.Command

	var sb strings.Builder
	fmt.Fprintf(&sb, "`%s`\n%s\n", usageLine(prefix, cmd), cmd.Description())
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		fmt.Fprintf(&sb, "Aliases: %s\n", strings.Join(aliases, ", "))
	}
	for _, a := range cmd.Args().Args() {
		fmt.Fprintf(&sb, "- `%s` (%s)", a.Name, a.Kind)
		if a.Description != "" {
			sb.WriteString(": " + a.Description)
		}
		if len(a.Choices) > 0 {
			fmt.Fprintf(&sb, " [one of: %s]", strings.Join(a.Choices, ", "))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}
