package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/fatih/color"

	"github.com/keshon/dispatch/datastore"
	"github.com/keshon/dispatch/internal/args"
	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/commands"
	"github.com/keshon/dispatch/internal/dispatch"
	"github.com/keshon/dispatch/internal/interaction"
	"github.com/keshon/dispatch/internal/lookup"
	"github.com/keshon/dispatch/internal/middleware"
	"github.com/keshon/dispatch/internal/storage"
)

// Ids of the simulated guild the console runs commands in.
const (
	guildID   = "100000000000000001"
	channelID = "100000000000000002"
	botID     = "100000000000000003"
	ownerID   = "100000000000000004"
	guestID   = "100000000000000005"
	modRoleID = "100000000000000006"
	fanRoleID = "100000000000000007"
)

var (
	replyColor  = color.New(color.FgCyan)
	statusColor = color.New(color.FgHiBlack)
	errorColor  = color.New(color.FgRed)
)

type console struct {
	out    io.Writer
	exec   *dispatch.Executor
	slash  *dispatch.InteractionExecutor
	store  *storage.Storage
	lookup *lookup.Static
	author string
	nextID atomic.Uint64
}

type consoleOptions struct {
	Prefix      string
	StoragePath string
	AsGuest     bool
}

func newConsole(out io.Writer, opts consoleOptions) (*console, error) {
	cfg := datastore.DefaultConfig(opts.StoragePath)
	cfg.AutoSaveInterval = 0
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	store := storage.NewWithDataStore(ds)

	c := &console{out: out, store: store, lookup: seedLookup(), author: ownerID}
	if opts.AsGuest {
		c.author = guestID
	}

	tree := command.NewTree()
	if err := commands.Register(tree, commands.Deps{
		Store:       store,
		Roles:       c,
		DeveloperID: ownerID,
		Prefix:      opts.Prefix,
	}); err != nil {
		store.Close()
		return nil, err
	}
	if err := tree.Use(middleware.WithCommandLogger(store)); err != nil {
		store.Close()
		return nil, err
	}
	c.exec = dispatch.New(tree, dispatch.PrefixResolver{Default: opts.Prefix, Mention: true}, c, c.lookup)
	c.slash = dispatch.NewInteractionExecutor(tree, interaction.NewController(), c.lookup)
	return c, nil
}

func defaultStoragePath(dir string) string {
	return filepath.Join(dir, "console-datastore.json")
}

func seedLookup() *lookup.Static {
	l := lookup.NewStatic(botID)
	l.AddGuild(&discordgo.Guild{
		ID:      guildID,
		Name:    "Console",
		OwnerID: ownerID,
		Roles: []*discordgo.Role{
			{ID: guildID, Name: "@everyone", Permissions: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages},
			{ID: modRoleID, Name: "Moderators", Permissions: discordgo.PermissionManageRoles},
			{ID: fanRoleID, Name: "Fans"},
		},
	})
	l.AddChannel(&discordgo.Channel{ID: channelID, GuildID: guildID, Name: "general", Type: discordgo.ChannelTypeGuildText})
	l.AddMember(&discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: botID, Username: "dispatch", Bot: true}, Roles: []string{modRoleID}})
	l.AddMember(&discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: ownerID, Username: "owner"}})
	l.AddMember(&discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: guestID, Username: "guest"}})
	return l
}

func (c *console) Close() error {
	return c.store.Close()
}

// Execute dispatches line from the console user. Lines starting with "/"
// are sent as slash commands, everything else as a chat message.
func (c *console) Execute(ctx context.Context, line string) dispatch.Result {
	if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "/"); ok {
		return c.report(c.slash.Dispatch(ctx, c.slashInteraction(rest), consoleResponder{c}))
	}

	author, _ := c.lookup.Member(ctx, guildID, c.author)
	msg := &discordgo.Message{
		ID:        strconv.FormatUint(c.nextID.Add(1), 10),
		GuildID:   guildID,
		ChannelID: channelID,
		Content:   line,
		Author:    author.User,
		Member:    &discordgo.Member{Roles: author.Roles},
	}
	return c.report(c.exec.Dispatch(ctx, msg))
}

func (c *console) report(res dispatch.Result) dispatch.Result {
	switch res.State {
	case dispatch.Idle:
		statusColor.Fprintln(c.out, "(not a command)")
	case dispatch.Errored:
		errorColor.Fprintf(c.out, "error: %v\n", res.Err)
	}
	return res
}

// slashInteraction reads "name sub key=value key=value". Values are passed
// as strings, the way the platform delivers ids.
func (c *console) slashInteraction(text string) dispatch.Interaction {
	in := dispatch.Interaction{GuildID: guildID, ChannelID: channelID, AuthorID: c.author}
	for _, tok := range strings.Fields(text) {
		if key, value, ok := strings.Cut(tok, "="); ok {
			in.Options = append(in.Options, args.Option{Name: key, Value: value})
			continue
		}
		if len(in.Options) == 0 {
			in.Path = append(in.Path, tok)
		}
	}
	return in
}

// Send implements dispatch.Messenger by printing to the console.
func (c *console) Send(_ context.Context, _ string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	replyColor.Fprintln(c.out, msg.Content)
	return &discordgo.Message{ID: strconv.FormatUint(c.nextID.Add(1), 10), Content: msg.Content}, nil
}

func (c *console) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return c.changeRole(ctx, guildID, userID, roleID, true)
}

func (c *console) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return c.changeRole(ctx, guildID, userID, roleID, false)
}

func (c *console) changeRole(ctx context.Context, guildID, userID, roleID string, add bool) error {
	m, err := c.lookup.Member(ctx, guildID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("member %s not found", userID)
	}
	roles := make([]string, 0, len(m.Roles)+1)
	for _, r := range m.Roles {
		if r != roleID {
			roles = append(roles, r)
		}
	}
	if add {
		roles = append(roles, roleID)
	}
	updated := *m
	updated.Roles = roles
	c.lookup.AddMember(&updated)
	statusColor.Fprintf(c.out, "(member %s roles: %v)\n", userID, roles)
	return nil
}

// consoleResponder prints interaction responses.
type consoleResponder struct {
	c *console
}

func (r consoleResponder) print(format string, a ...any) {
	replyColor.Fprintf(r.c.out, format+"\n", a...)
}

func visibility(ephemeral bool) string {
	if ephemeral {
		return " (only you can see this)"
	}
	return ""
}

func (r consoleResponder) Defer(_ context.Context, ephemeral bool) error {
	statusColor.Fprintf(r.c.out, "(thinking...%s)\n", visibility(ephemeral))
	return nil
}

func (r consoleResponder) Respond(_ context.Context, content string, ephemeral bool) error {
	r.print("%s%s", content, visibility(ephemeral))
	return nil
}

func (r consoleResponder) EditOriginal(_ context.Context, content string) error {
	r.print("%s", content)
	return nil
}

func (r consoleResponder) DeleteOriginal(context.Context) error {
	statusColor.Fprintln(r.c.out, "(response deleted)")
	return nil
}

func (r consoleResponder) Followup(_ context.Context, content string, ephemeral bool) (string, error) {
	r.print("%s%s", content, visibility(ephemeral))
	return strconv.FormatUint(r.c.nextID.Add(1), 10), nil
}

func (r consoleResponder) EditFollowup(_ context.Context, id, content string) error {
	r.print("[%s] %s", id, content)
	return nil
}

func (r consoleResponder) DeleteFollowup(_ context.Context, id string) error {
	statusColor.Fprintf(r.c.out, "(followup %s deleted)\n", id)
	return nil
}
