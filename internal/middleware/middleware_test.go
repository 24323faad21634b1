package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/filter"
	"github.com/keshon/dispatch/internal/lookup"
	"github.com/keshon/dispatch/internal/storage"
)

type memoryStore struct {
	mu       sync.Mutex
	records  map[string][]storage.CommandRecord
	disabled map[string]bool
	err      error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string][]storage.CommandRecord{}, disabled: map[string]bool{}}
}

func (m *memoryStore) AppendCommand(guildID string, rec storage.CommandRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records[guildID] = append(m.records[guildID], rec)
	return nil
}

func (m *memoryStore) IsGroupDisabled(guildID, group string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.disabled[guildID+"/"+group], nil
}

func TestCommandLoggerRecordsTextCommands(t *testing.T) {
	store := newMemoryStore()
	boom := errors.New("boom")
	h := WithCommandLogger(store)(func(context.Context, *command.Context) error { return boom })

	err := h(context.Background(), &command.Context{
		Path:       []string{"role", "on"},
		RawArgs:    "@mods",
		Invocation: &filter.Invocation{GuildID: "g", ChannelID: "c", AuthorID: "u"},
		Message:    &discordgo.Message{Author: &discordgo.User{ID: "u", Username: "alice"}},
	})
	assert.ErrorIs(t, err, boom)

	require.Len(t, store.records["g"], 1)
	rec := store.records["g"][0]
	assert.Equal(t, "role on", rec.Command)
	assert.Equal(t, "@mods", rec.Param)
	assert.Equal(t, "text", rec.Source)
	assert.Equal(t, "alice", rec.Username)
	assert.Equal(t, "c", rec.ChannelID)
	assert.False(t, rec.Datetime.IsZero())
}

func TestCommandLoggerIgnoresStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("disk full")
	h := WithCommandLogger(store)(func(context.Context, *command.Context) error { return nil })
	assert.NoError(t, h(context.Background(), &command.Context{Path: []string{"ping"}}))
}

func TestUsernameFromLookup(t *testing.T) {
	l := lookup.NewStatic("bot")
	l.AddUser(&discordgo.User{ID: "u", Username: "bob"})
	c := &command.Context{Invocation: &filter.Invocation{AuthorID: "u", Lookup: l}}
	assert.Equal(t, "bob", username(context.Background(), c))

	c.Invocation.AuthorID = "ghost"
	assert.Equal(t, "ghost", username(context.Background(), c))
}

func TestGroupEnabled(t *testing.T) {
	store := newMemoryStore()
	store.disabled["g/role"] = true
	p := GroupEnabled(store, "role")
	ctx := context.Background()

	ok, reason := filter.Evaluate(ctx, &filter.Invocation{GuildID: "g"}, p)
	assert.False(t, ok)
	assert.Contains(t, reason, "disabled on this server")

	assert.True(t, p.Test(ctx, &filter.Invocation{GuildID: "other"}))
	assert.True(t, p.Test(ctx, &filter.Invocation{}), "direct messages are never toggled")

	store.err = errors.New("unavailable")
	assert.True(t, p.Test(ctx, &filter.Invocation{GuildID: "g"}))
}

type replies []string

func (r *replies) Reply(_ context.Context, content string) error {
	*r = append(*r, content)
	return nil
}

func TestCooldownThrottlesPerInvoker(t *testing.T) {
	cd := NewCooldown(time.Hour, 2)
	ran := 0
	h := cd.Middleware()(func(context.Context, *command.Context) error {
		ran++
		return nil
	})
	ctx := context.Background()
	var out replies
	call := func(guildID, userID string) {
		require.NoError(t, h(ctx, &command.Context{
			Invocation: &filter.Invocation{GuildID: guildID, AuthorID: userID},
			Replier:    &out,
		}))
	}

	call("g", "u")
	call("g", "u")
	call("g", "u")
	assert.Equal(t, 2, ran)
	require.Len(t, out, 1)
	assert.Equal(t, "This command is on cooldown. Try again in 1h0m0s.", out[0])

	call("g", "other")
	call("g2", "u")
	assert.Equal(t, 4, ran, "buckets are per user and guild")
}
