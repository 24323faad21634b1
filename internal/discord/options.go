package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/args"
	"github.com/keshon/dispatch/internal/dispatch"
)

// slashInvocation flattens subcommand groups and subcommands into a command
// path and returns the leaf options.
func slashInvocation(i *discordgo.Interaction) dispatch.Interaction {
	data := i.ApplicationCommandData()
	in := dispatch.Interaction{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Path:      []string{data.Name},
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		in.AuthorID = i.Member.User.ID
		in.RoleIDs = i.Member.Roles
	case i.User != nil:
		in.AuthorID = i.User.ID
	}

	opts := data.Options
	for len(opts) == 1 && isSubcommand(opts[0].Type) {
		in.Path = append(in.Path, opts[0].Name)
		opts = opts[0].Options
	}
	for _, o := range opts {
		in.Options = append(in.Options, args.Option{Name: o.Name, Value: o.Value})
	}
	return in
}

func isSubcommand(t discordgo.ApplicationCommandOptionType) bool {
	return t == discordgo.ApplicationCommandOptionSubCommand ||
		t == discordgo.ApplicationCommandOptionSubCommandGroup
}
