package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/dispatch/internal/dispatch"
)

func newTestConsole(t *testing.T, guest bool) (*console, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	c, err := newConsole(&out, consoleOptions{
		Prefix:      "!",
		StoragePath: defaultStoragePath(t.TempDir()),
		AsGuest:     guest,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, &out
}

func TestConsoleTextCommands(t *testing.T) {
	c, out := newTestConsole(t, false)
	ctx := context.Background()

	assert.Equal(t, dispatch.Completed, c.Execute(ctx, "!ping").State)
	assert.Contains(t, out.String(), "Pong!")

	assert.Equal(t, dispatch.Idle, c.Execute(ctx, "hello").State)
	assert.Contains(t, out.String(), "(not a command)")

	res := c.Execute(ctx, "!role on "+fanRoleID)
	require.Equal(t, dispatch.Completed, res.State, res.Err)
	assert.Contains(t, out.String(), "Gave **Fans**")

	m, err := c.lookup.Member(ctx, guildID, ownerID)
	require.NoError(t, err)
	assert.Contains(t, m.Roles, fanRoleID)
}

func TestConsoleGuestIsRejected(t *testing.T) {
	c, out := newTestConsole(t, true)
	res := c.Execute(context.Background(), "!role on "+fanRoleID)
	assert.Equal(t, dispatch.FilterRejected, res.State)
	assert.Contains(t, out.String(), "Manage Roles")
}

func TestConsoleSlashCommands(t *testing.T) {
	c, out := newTestConsole(t, false)
	ctx := context.Background()

	res := c.Execute(ctx, "/role off role="+fanRoleID)
	require.Equal(t, dispatch.Completed, res.State, res.Err)
	assert.Contains(t, out.String(), "Took **Fans**")

	res = c.Execute(ctx, "/role off")
	assert.Equal(t, dispatch.ArgumentFailed, res.State)

	res = c.Execute(ctx, "/help")
	assert.Equal(t, dispatch.Completed, res.State)
	assert.Contains(t, out.String(), "(only you can see this)")
}

func TestSlashInteractionParsing(t *testing.T) {
	c, _ := newTestConsole(t, false)
	in := c.slashInteraction("commands disable group=role stray")
	assert.Equal(t, []string{"commands", "disable"}, in.Path)
	require.Len(t, in.Options, 1)
	assert.Equal(t, "group", in.Options[0].Name)
	assert.Equal(t, "role", in.Options[0].Value)
	assert.Equal(t, filepath.Base(defaultStoragePath("x")), "console-datastore.json")
}
