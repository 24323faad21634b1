package commands

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/dispatch/datastore"
	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/dispatch"
	"github.com/keshon/dispatch/internal/lookup"
	"github.com/keshon/dispatch/internal/middleware"
	"github.com/keshon/dispatch/internal/storage"
)

const (
	guildID   = "100"
	channelID = "400"
	botID     = "900"

	modRole  = "201"
	fansRole = "202"
	alice    = "301"
	bob      = "302"
	owner    = "303"
)

type roleCall struct {
	add            bool
	userID, roleID string
}

type fakeRoles struct {
	mu    sync.Mutex
	calls []roleCall
}

func (f *fakeRoles) AddRole(_ context.Context, _, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, roleCall{true, userID, roleID})
	return nil
}

func (f *fakeRoles) RemoveRole(_ context.Context, _, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, roleCall{false, userID, roleID})
	return nil
}

type capture struct {
	mu      sync.Mutex
	replies []string
}

func (c *capture) Send(_ context.Context, _ string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, msg.Content)
	return &discordgo.Message{}, nil
}

func (c *capture) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.replies) == 0 {
		return ""
	}
	return c.replies[len(c.replies)-1]
}

type env struct {
	exec  *dispatch.Executor
	out   *capture
	roles *fakeRoles
	store *storage.Storage
}

func newEnv(t *testing.T) *env {
	t.Helper()
	l := lookup.NewStatic(botID)
	l.AddGuild(&discordgo.Guild{
		ID:      guildID,
		OwnerID: owner,
		Roles: []*discordgo.Role{
			{ID: guildID, Name: "@everyone"},
			{ID: modRole, Name: "Mods", Permissions: discordgo.PermissionManageRoles},
			{ID: fansRole, Name: "Fans"},
		},
	})
	l.AddChannel(&discordgo.Channel{ID: channelID, GuildID: guildID, Type: discordgo.ChannelTypeGuildText})
	for _, m := range []*discordgo.Member{
		{GuildID: guildID, User: &discordgo.User{ID: botID}, Roles: []string{modRole}},
		{GuildID: guildID, User: &discordgo.User{ID: alice, Username: "alice"}, Roles: []string{modRole}},
		{GuildID: guildID, User: &discordgo.User{ID: bob, Username: "bob"}},
		{GuildID: guildID, User: &discordgo.User{ID: owner, Username: "owner"}},
	} {
		l.AddMember(m)
	}

	cfg := datastore.DefaultConfig(filepath.Join(t.TempDir(), "store.json"))
	cfg.AutoSaveInterval = 0
	ds, err := datastore.NewWithConfig(cfg)
	require.NoError(t, err)
	store := storage.NewWithDataStore(ds)
	t.Cleanup(func() { store.Close() })

	roles := &fakeRoles{}
	tree := command.NewTree()
	require.NoError(t, Register(tree, Deps{Store: store, Roles: roles, DeveloperID: "dev", Prefix: "!"}))
	require.NoError(t, tree.Use(middleware.WithCommandLogger(store)))

	out := &capture{}
	exec := dispatch.New(tree, dispatch.PrefixResolver{Default: "!"}, out, l)
	return &env{exec: exec, out: out, roles: roles, store: store}
}

func (e *env) run(t *testing.T, author, content string) dispatch.Result {
	t.Helper()
	member := &discordgo.Member{}
	return e.exec.Dispatch(context.Background(), &discordgo.Message{
		ID:        "m",
		GuildID:   guildID,
		ChannelID: channelID,
		Content:   content,
		Author:    &discordgo.User{ID: author, Username: author},
		Member:    member,
	})
}

func TestPing(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, dispatch.Completed, e.run(t, bob, "!ping").State)
	assert.Equal(t, "🏓 Pong!", e.out.last())
}

func TestHelp(t *testing.T) {
	e := newEnv(t)
	e.run(t, bob, "!help")
	assert.Contains(t, e.out.last(), "`!role on <role> [member]` - Give a role")
	assert.Contains(t, e.out.last(), "`!echo [text...]`")

	e.run(t, bob, "!help roles add")
	assert.Contains(t, e.out.last(), "`!role on <role> [member]`")
	assert.Contains(t, e.out.last(), "Aliases: add")

	e.run(t, bob, "!help nothing")
	assert.Equal(t, "Unknown command `nothing`.", e.out.last())
}

func TestRoleOnAndOff(t *testing.T) {
	e := newEnv(t)

	res := e.run(t, alice, "!role on <@&"+fansRole+">")
	require.Equal(t, dispatch.Completed, res.State, res.Err)
	assert.Equal(t, "Gave **Fans** to <@"+alice+">.", e.out.last())

	res = e.run(t, alice, "!role remove "+fansRole+" <@"+bob+">")
	require.Equal(t, dispatch.Completed, res.State, res.Err)
	assert.Equal(t, "Took **Fans** from <@"+bob+">.", e.out.last())

	assert.Equal(t, []roleCall{{true, alice, fansRole}, {false, bob, fansRole}}, e.roles.calls)
}

func TestRoleRequiresPermission(t *testing.T) {
	e := newEnv(t)
	res := e.run(t, bob, "!role on "+fansRole)
	assert.Equal(t, dispatch.FilterRejected, res.State)
	assert.Contains(t, e.out.last(), "You need the following permissions")
	assert.Empty(t, e.roles.calls)
}

func TestRoleDefaultAndArgumentErrors(t *testing.T) {
	e := newEnv(t)

	res := e.run(t, alice, "!role toggle "+fansRole)
	assert.Equal(t, dispatch.Completed, res.State)
	assert.Equal(t, roleUsage, e.out.last())

	res = e.run(t, alice, "!role on 12345")
	assert.Equal(t, dispatch.ArgumentFailed, res.State)
	assert.Contains(t, e.out.last(), "could not be found")
	assert.Contains(t, e.out.last(), roleUsage)
	assert.Empty(t, e.roles.calls)
}

func TestManageToggleAndLog(t *testing.T) {
	e := newEnv(t)

	res := e.run(t, bob, "!commands disable role")
	assert.Equal(t, dispatch.FilterRejected, res.State)

	res = e.run(t, owner, "!commands disable role")
	require.Equal(t, dispatch.Completed, res.State, res.Err)

	res = e.run(t, alice, "!role on "+fansRole)
	assert.Equal(t, dispatch.FilterRejected, res.State)
	assert.Contains(t, e.out.last(), "disabled on this server")

	e.run(t, owner, "!commands status")
	assert.Contains(t, e.out.last(), "`role`: disabled")
	assert.Contains(t, e.out.last(), "`echo`: enabled")

	res = e.run(t, owner, "!commands disable music")
	assert.Equal(t, dispatch.ArgumentFailed, res.State)

	e.run(t, owner, "!commands enable role")
	assert.Equal(t, dispatch.Completed, e.run(t, alice, "!role on "+fansRole).State)

	e.run(t, owner, "!commands log")
	assert.Contains(t, e.out.last(), "used `role on` (text)")

	history, err := e.store.CommandHistory(guildID)
	require.NoError(t, err)
	assert.NotEmpty(t, history)
}

func TestManageReset(t *testing.T) {
	e := newEnv(t)

	e.run(t, owner, "!commands disable echo")
	res := e.run(t, owner, "!commands reset")
	require.Equal(t, dispatch.Completed, res.State, res.Err)
	assert.Equal(t, "Command history cleared and all groups enabled.", e.out.last())

	disabled, err := e.store.DisabledGroups(guildID)
	require.NoError(t, err)
	assert.Empty(t, disabled)
	history, err := e.store.CommandHistory(guildID)
	require.NoError(t, err)
	require.Len(t, history, 1, "only the reset itself is recorded")
	assert.Equal(t, "commands reset", history[0].Command)

	e.run(t, bob, "!echo hi")
	assert.Equal(t, "hi", e.out.last())
}

func TestEcho(t *testing.T) {
	e := newEnv(t)
	e.run(t, bob, "!say   hi  there ")
	assert.Equal(t, "hi  there", e.out.last())
	e.run(t, bob, "!echo")
	assert.Equal(t, "Nothing to repeat.", e.out.last())
}
