package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"github.com/keshon/dispatch/internal/args"
)

func chatInteraction(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "g",
		ChannelID: "c",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u"}, Roles: []string{"r1"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:        name,
			CommandType: discordgo.ChatApplicationCommand,
			Options:     opts,
		},
	}
}

func TestSlashInvocationFlattensSubcommands(t *testing.T) {
	i := chatInteraction("admin", &discordgo.ApplicationCommandInteractionDataOption{
		Name: "roles",
		Type: discordgo.ApplicationCommandOptionSubCommandGroup,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "grant",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "role", Type: discordgo.ApplicationCommandOptionRole, Value: "123"},
				{Name: "days", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
			},
		}},
	})

	in := slashInvocation(i)
	assert.Equal(t, []string{"admin", "roles", "grant"}, in.Path)
	assert.Equal(t, []args.Option{{Name: "role", Value: "123"}, {Name: "days", Value: float64(3)}}, in.Options)
	assert.Equal(t, "u", in.AuthorID)
	assert.Equal(t, []string{"r1"}, in.RoleIDs)
	assert.Equal(t, "g", in.GuildID)
}

func TestSlashInvocationInDirectMessage(t *testing.T) {
	i := chatInteraction("ping")
	i.Member = nil
	i.GuildID = ""
	i.User = &discordgo.User{ID: "dm-user"}

	in := slashInvocation(i)
	assert.Equal(t, []string{"ping"}, in.Path)
	assert.Empty(t, in.Options)
	assert.Equal(t, "dm-user", in.AuthorID)
}
