package filter

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/dispatch/internal/lookup"
)

func pass(desc string) Predicate {
	return Custom(func(context.Context, *Invocation) bool { return true }, desc)
}

func fail(desc string) Predicate {
	return Custom(func(context.Context, *Invocation) bool { return false }, desc)
}

func neverCalled(t *testing.T) Predicate {
	return Custom(func(context.Context, *Invocation) bool {
		t.Fatal("predicate should not have been evaluated")
		return false
	}, "never")
}

func TestAndShortCircuits(t *testing.T) {
	ok, reason := Evaluate(context.Background(), &Invocation{}, And(fail("first"), neverCalled(t)))
	assert.False(t, ok)
	assert.Equal(t, "first", reason)
}

func TestOrShortCircuits(t *testing.T) {
	ok, reason := Evaluate(context.Background(), &Invocation{}, Or(pass("first"), neverCalled(t)))
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestAndReportsFirstFailure(t *testing.T) {
	ok, reason := Evaluate(context.Background(), &Invocation{}, And(pass("a"), fail("b"), fail("c")))
	assert.False(t, ok)
	assert.Equal(t, "b", reason)
}

func TestOrJoinsAlternatives(t *testing.T) {
	ok, reason := Evaluate(context.Background(), &Invocation{}, Or(fail("a"), Silent(fail("hidden")), fail("c")))
	assert.False(t, ok)
	assert.Equal(t, "a or c", reason)
}

func TestNotInverts(t *testing.T) {
	ctx := context.Background()
	ok, reason := Evaluate(ctx, &Invocation{}, Not(pass("admin")))
	assert.False(t, ok)
	assert.Equal(t, "not: admin", reason)

	ok, _ = Evaluate(ctx, &Invocation{}, Not(fail("admin")))
	assert.True(t, ok)
	assert.True(t, Not(fail("x")).Test(ctx, &Invocation{}))
}

func TestSilentSuppressesDescription(t *testing.T) {
	p := Silent(fail("secret"))
	ok, reason := Evaluate(context.Background(), &Invocation{}, p)
	assert.False(t, ok)
	assert.Empty(t, reason)
	assert.Empty(t, p.Describe())

	ok, reason = EvaluateAll(context.Background(), &Invocation{}, pass("x"), p, fail("after"))
	assert.False(t, ok)
	assert.Empty(t, reason)
}

func TestNestedCombinatorsExplainInnerFailure(t *testing.T) {
	p := And(pass("a"), Or(fail("b"), And(pass("c"), fail("d"))))
	ok, reason := Evaluate(context.Background(), &Invocation{}, p)
	assert.False(t, ok)
	assert.Equal(t, "b or d", reason)
	assert.False(t, p.Test(context.Background(), &Invocation{}))
}

func TestNewDescribesLazilyOnce(t *testing.T) {
	calls := 0
	p := New(func(context.Context, *Invocation) bool { return false }, func() string {
		calls++
		return "lazy"
	})
	assert.Zero(t, calls)
	assert.Equal(t, "lazy", p.Describe())
	assert.Equal(t, "lazy", p.Describe())
	assert.Equal(t, 1, calls)
}

const (
	guildID   = "1"
	channelID = "10"
	botID     = "99"
	userID    = "20"
	ownerID   = "21"
	modRoleID = "30"
)

func seeded() *lookup.Static {
	l := lookup.NewStatic(botID)
	l.AddGuild(&discordgo.Guild{
		ID:      guildID,
		OwnerID: ownerID,
		Roles: []*discordgo.Role{
			{ID: guildID, Permissions: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages},
			{ID: modRoleID, Permissions: discordgo.PermissionManageMessages},
		},
	})
	l.AddChannel(&discordgo.Channel{
		ID:      channelID,
		GuildID: guildID,
		Type:    discordgo.ChannelTypeGuildText,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionSendMessages},
			{ID: botID, Type: discordgo.PermissionOverwriteTypeMember, Allow: discordgo.PermissionSendMessages},
		},
	})
	l.AddMember(&discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: userID}, Roles: []string{modRoleID}})
	l.AddMember(&discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: botID}})
	l.AddMember(&discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: ownerID}})
	return l
}

func invocation(l lookup.Lookup, author string) *Invocation {
	return &Invocation{GuildID: guildID, ChannelID: channelID, AuthorID: author, Lookup: l}
}

func TestChannelPermissionsAppliesOverwrites(t *testing.T) {
	l := seeded()
	perms, err := ChannelPermissions(context.Background(), l, guildID, channelID, userID)
	require.NoError(t, err)
	assert.Zero(t, perms&discordgo.PermissionSendMessages)
	assert.NotZero(t, perms&discordgo.PermissionManageMessages)

	perms, err = ChannelPermissions(context.Background(), l, guildID, channelID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(discordgo.PermissionAll), perms)
}

func TestHasPermissions(t *testing.T) {
	l := seeded()
	ctx := context.Background()

	assert.True(t, HasPermissions(discordgo.PermissionManageMessages).Test(ctx, invocation(l, userID)))
	assert.False(t, HasPermissions(discordgo.PermissionSendMessages).Test(ctx, invocation(l, userID)))
	assert.True(t, HasAnyPermission(discordgo.PermissionSendMessages, discordgo.PermissionManageMessages).Test(ctx, invocation(l, userID)))
	assert.True(t, BotHasPermissions(discordgo.PermissionSendMessages).Test(ctx, invocation(l, userID)))

	ok, reason := Evaluate(ctx, invocation(l, userID), HasPermissions(discordgo.PermissionSendMessages|discordgo.PermissionKickMembers))
	assert.False(t, ok)
	assert.Contains(t, reason, "Send Messages")
	assert.Contains(t, reason, "Kick Members")
}

func TestPermissionPredicatesFailClosed(t *testing.T) {
	l := seeded()
	ctx := context.Background()

	assert.False(t, HasPermissions(0).Test(ctx, invocation(l, "unknown-user")))
	inv := invocation(l, userID)
	inv.ChannelID = "missing"
	assert.False(t, HasPermissions(0).Test(ctx, inv))
	assert.False(t, HasPermissions(0).Test(ctx, &Invocation{ChannelID: channelID, AuthorID: userID}))
}

func TestWhitelists(t *testing.T) {
	l := seeded()
	ctx := context.Background()
	inv := invocation(l, userID)

	assert.True(t, UserIn(userID).Test(ctx, inv))
	assert.False(t, UserIn(ownerID).Test(ctx, inv))
	assert.True(t, ChannelIn(channelID).Test(ctx, inv))
	assert.True(t, GuildIn(guildID).Test(ctx, inv))
	assert.True(t, GuildOnly().Test(ctx, inv))
	assert.False(t, GuildOnly().Test(ctx, &Invocation{AuthorID: userID}))
	assert.True(t, RoleIn(modRoleID).Test(ctx, inv))
	assert.False(t, RoleIn("other").Test(ctx, inv))
	assert.False(t, Developer("").Test(ctx, inv))
	assert.True(t, Developer(userID).Test(ctx, inv))

	inv.RoleIDs = []string{"other"}
	assert.True(t, RoleIn("other").Test(ctx, inv))
}
