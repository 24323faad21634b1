package command

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/args"
)

var optionTypes = map[args.Kind]discordgo.ApplicationCommandOptionType{
	args.String:       discordgo.ApplicationCommandOptionString,
	args.Integer:      discordgo.ApplicationCommandOptionInteger,
	args.Float:        discordgo.ApplicationCommandOptionNumber,
	args.Text:         discordgo.ApplicationCommandOptionString,
	args.List:         discordgo.ApplicationCommandOptionString,
	args.User:         discordgo.ApplicationCommandOptionUser,
	args.Member:       discordgo.ApplicationCommandOptionUser,
	args.Channel:      discordgo.ApplicationCommandOptionChannel,
	args.TypedChannel: discordgo.ApplicationCommandOptionChannel,
	args.Role:         discordgo.ApplicationCommandOptionRole,
}

// SlashDefinitions exports the tree as application commands. Root commands
// become chat input commands, root groups become commands with subcommands,
// and nested groups become subcommand groups. Aliases are text-only.
func (t *Tree) SlashDefinitions() []*discordgo.ApplicationCommand {
	var out []*discordgo.ApplicationCommand
	for _, e := range t.root.order {
		switch e := e.(type) {
		case *Command:
			out = append(out, &discordgo.ApplicationCommand{
				Type:        discordgo.ChatApplicationCommand,
				Name:        e.Name(),
				Description: describe(e.Description(), e.Name()),
				Options:     argOptions(e),
			})
		case *Group:
			out = append(out, &discordgo.ApplicationCommand{
				Type:        discordgo.ChatApplicationCommand,
				Name:        e.name,
				Description: describe(e.description, e.name),
				Options:     groupOptions(e),
			})
		}
	}
	return out
}

func groupOptions(g *Group) []*discordgo.ApplicationCommandOption {
	var out []*discordgo.ApplicationCommandOption
	for _, e := range g.order {
		switch e := e.(type) {
		case *Command:
			out = append(out, &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        e.Name(),
				Description: describe(e.Description(), e.Name()),
				Options:     argOptions(e),
			})
		case *Group:
			out = append(out, &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Name:        e.name,
				Description: describe(e.description, e.name),
				Options:     groupOptions(e),
			})
		}
	}
	return out
}

// RawOption is the single option raw commands expose to slash invocations.
const RawOption = "input"

func argOptions(c *Command) []*discordgo.ApplicationCommandOption {
	if c.Raw() {
		return []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        RawOption,
			Description: "Command input",
		}}
	}
	var out []*discordgo.ApplicationCommandOption
	for _, a := range c.Args().Args() {
		opt := &discordgo.ApplicationCommandOption{
			Type:         optionTypes[a.Kind],
			Name:         a.Name,
			Description:  describe(a.Description, a.Name),
			Required:     a.Required,
			ChannelTypes: a.ChannelTypes,
		}
		for _, ch := range a.Choices {
			opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{Name: ch, Value: ch})
		}
		if a.Kind == args.Integer || a.Kind == args.Float {
			opt.MinValue = a.Min
			if a.Max != nil {
				opt.MaxValue = *a.Max
			}
		}
		out = append(out, opt)
	}
	return out
}

func describe(desc, fallback string) string {
	if desc == "" {
		return fallback
	}
	return desc
}
