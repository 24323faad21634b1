package command

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/args"
	"github.com/keshon/dispatch/internal/filter"
	"github.com/keshon/dispatch/internal/interaction"
)

// Handler runs a resolved command.
type Handler func(ctx context.Context, c *Context) error

// ErrorHandler receives argument and handler errors for a command or group.
// It returns true when it handled the error.
type ErrorHandler func(ctx context.Context, c *Context, err error) bool

// Replier sends a reply where the command was invoked.
type Replier interface {
	Reply(ctx context.Context, content string) error
}

// Context is created per invocation and handed to the handler.
type Context struct {
	// Command is the matched command; nil when a group's default handler runs.
	Command *Command
	// Path is the chain of names that led to the command, aliases resolved.
	Path []string
	// RawArgs is the unparsed argument text.
	RawArgs string
	// Args holds parsed values. Nil for raw commands and default handlers.
	Args args.Values

	Invocation *filter.Invocation
	// Message is set for text commands.
	Message *discordgo.Message
	// Session is set for interactions.
	Session *interaction.Session

	Replier Replier
}

// Reply answers the invoker. Interactions reply through the session and stay
// private when the command acknowledges in AutoEphemeral mode.
func (c *Context) Reply(ctx context.Context, content string) error {
	if c.Session != nil {
		_, err := c.Session.Respond(ctx, content, c.Session.Mode() == interaction.AutoEphemeral)
		return err
	}
	if c.Replier == nil {
		return nil
	}
	return c.Replier.Reply(ctx, content)
}
