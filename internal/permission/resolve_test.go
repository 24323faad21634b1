package permission

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

const (
	guildID  = "100"
	memberID = "200"
	modRole  = "300"
	muteRole = "301"
)

func TestResolveMemberOverwriteBeatsRole(t *testing.T) {
	base := int64(discordgo.PermissionSendMessages | discordgo.PermissionViewChannel)
	overwrites := []Overwrite{
		{ID: muteRole, Type: OverwriteRole, Deny: discordgo.PermissionSendMessages},
		{ID: memberID, Type: OverwriteMember, Allow: discordgo.PermissionSendMessages},
	}

	got := Resolve(base, overwrites, guildID, memberID, []string{muteRole})
	assert.NotZero(t, got&discordgo.PermissionSendMessages)
	assert.NotZero(t, got&discordgo.PermissionViewChannel)
}

func TestResolveRoleOverwriteBeatsEveryone(t *testing.T) {
	overwrites := []Overwrite{
		{ID: guildID, Type: OverwriteRole, Deny: discordgo.PermissionSendMessages},
		{ID: modRole, Type: OverwriteRole, Allow: discordgo.PermissionSendMessages},
	}

	got := Resolve(0, overwrites, guildID, memberID, []string{modRole})
	assert.NotZero(t, got&discordgo.PermissionSendMessages)

	got = Resolve(discordgo.PermissionSendMessages, overwrites, guildID, memberID, nil)
	assert.Zero(t, got&discordgo.PermissionSendMessages)
}

func TestResolveRoleUnionIsOrderIndependent(t *testing.T) {
	a := Overwrite{ID: modRole, Type: OverwriteRole, Allow: discordgo.PermissionEmbedLinks, Deny: discordgo.PermissionAttachFiles}
	b := Overwrite{ID: muteRole, Type: OverwriteRole, Allow: discordgo.PermissionAttachFiles, Deny: discordgo.PermissionSendMessages}
	base := int64(discordgo.PermissionSendMessages)
	roles := []string{modRole, muteRole}

	first := Resolve(base, []Overwrite{a, b}, guildID, memberID, roles)
	second := Resolve(base, []Overwrite{b, a}, guildID, memberID, roles)
	assert.Equal(t, first, second)

	// allow is applied after deny, so a bit both allowed and denied across roles ends up allowed.
	assert.NotZero(t, first&discordgo.PermissionAttachFiles)
	assert.Zero(t, first&discordgo.PermissionSendMessages)
	assert.NotZero(t, first&discordgo.PermissionEmbedLinks)
}

func TestResolveIgnoresRolesNotHeld(t *testing.T) {
	overwrites := []Overwrite{{ID: muteRole, Type: OverwriteRole, Deny: discordgo.PermissionSendMessages}}
	got := Resolve(discordgo.PermissionSendMessages, overwrites, guildID, memberID, []string{modRole})
	assert.NotZero(t, got&discordgo.PermissionSendMessages)
}

func TestResolveAdministratorShortCircuits(t *testing.T) {
	overwrites := []Overwrite{{ID: memberID, Type: OverwriteMember, Deny: discordgo.PermissionSendMessages}}
	got := Resolve(discordgo.PermissionAdministrator, overwrites, guildID, memberID, nil)
	assert.Equal(t, All, got)
}

func TestResolveMalformedBaseIsZero(t *testing.T) {
	assert.Zero(t, Resolve(-1, nil, guildID, memberID, nil))
}

func TestFromDiscordKeepsLastPerSubject(t *testing.T) {
	got := FromDiscord([]*discordgo.PermissionOverwrite{
		{ID: modRole, Type: discordgo.PermissionOverwriteTypeRole, Allow: 1},
		nil,
		{ID: memberID, Type: discordgo.PermissionOverwriteTypeMember, Deny: 2},
		{ID: modRole, Type: discordgo.PermissionOverwriteTypeRole, Allow: 4},
	})
	assert.Equal(t, []Overwrite{
		{ID: modRole, Type: OverwriteRole, Allow: 4},
		{ID: memberID, Type: OverwriteMember, Deny: 2},
	}, got)
}

func TestBaseUnionsRoles(t *testing.T) {
	assert.Equal(t, int64(7), Base(1, 2, 4, -8))
}

func TestMissingNames(t *testing.T) {
	perms := int64(discordgo.PermissionSendMessages)
	required := int64(discordgo.PermissionSendMessages | discordgo.PermissionManageRoles | discordgo.PermissionKickMembers)
	assert.Equal(t, []string{"Kick Members", "Manage Roles"}, Missing(perms, required))
	assert.Equal(t, "0x4000000000000", Name(1<<50))
}
