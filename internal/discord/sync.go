package discord

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/pkg/util"
)

const syncWorkers = 4

type syncAction int

const (
	actionCreate syncAction = iota
	actionUpdate
	actionDelete
)

type syncOp struct {
	action syncAction
	// id of the registered command for updates and deletes
	id  string
	cmd *discordgo.ApplicationCommand
}

// planSync compares registered commands against the wanted definitions and
// returns the calls needed to bring the platform in line.
func planSync(existing, wanted []*discordgo.ApplicationCommand) []syncOp {
	registered := make(map[string]*discordgo.ApplicationCommand, len(existing))
	for _, c := range existing {
		registered[c.Name] = c
	}

	var ops []syncOp
	seen := make(map[string]bool, len(wanted))
	for _, w := range wanted {
		seen[w.Name] = true
		old, ok := registered[w.Name]
		switch {
		case !ok:
			ops = append(ops, syncOp{action: actionCreate, cmd: w})
		case hashCommand(old) != hashCommand(w):
			ops = append(ops, syncOp{action: actionUpdate, id: old.ID, cmd: w})
		}
	}
	for _, old := range existing {
		if !seen[old.Name] {
			ops = append(ops, syncOp{action: actionDelete, id: old.ID, cmd: old})
		}
	}
	return ops
}

// syncCommands registers the tree's slash definitions for guildID, or
// globally when guildID is empty.
func (b *Bot) syncCommands(ctx context.Context, guildID string) error {
	appID := b.lookup.BotID()
	if appID == "" {
		return fmt.Errorf("application id unknown")
	}
	existing, err := b.dg.ApplicationCommands(appID, guildID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}

	ops := planSync(existing, b.tree.SlashDefinitions())
	if len(ops) == 0 {
		return nil
	}
	b.logger.Info().Str("guild", guildID).Int("changes", len(ops)).Msg("syncing slash commands")

	return util.Parallel(ctx, ops, syncWorkers, func(ctx context.Context, op syncOp) error {
		var err error
		switch op.action {
		case actionCreate:
			_, err = b.dg.ApplicationCommandCreate(appID, guildID, op.cmd, discordgo.WithContext(ctx))
		case actionUpdate:
			_, err = b.dg.ApplicationCommandEdit(appID, guildID, op.id, op.cmd, discordgo.WithContext(ctx))
		case actionDelete:
			err = b.dg.ApplicationCommandDelete(appID, guildID, op.id, discordgo.WithContext(ctx))
		}
		if err != nil {
			return fmt.Errorf("sync command %s: %w", op.cmd.Name, err)
		}
		return nil
	})
}

// hashCommand creates a deterministic hash for an ApplicationCommand, ignoring
// ids, versions and other fields the platform fills in.
func hashCommand(cmd *discordgo.ApplicationCommand) string {
	data, _ := json.Marshal(map[string]any{
		"name":        cmd.Name,
		"description": cmd.Description,
		"type":        commandType(cmd.Type),
		"options":     normalizeOptions(cmd.Options),
	})
	return fmt.Sprintf("%x", sha1.Sum(data))
}

func commandType(t discordgo.ApplicationCommandType) discordgo.ApplicationCommandType {
	if t == 0 {
		return discordgo.ChatApplicationCommand
	}
	return t
}

func normalizeOptions(opts []*discordgo.ApplicationCommandOption) []map[string]any {
	normalized := make([]map[string]any, len(opts))
	for i, o := range opts {
		entry := map[string]any{
			"name":        o.Name,
			"description": o.Description,
			"type":        o.Type,
			"required":    o.Required,
		}
		if len(o.Choices) > 0 {
			choices := make([]map[string]any, len(o.Choices))
			for j, c := range o.Choices {
				choices[j] = map[string]any{"name": c.Name, "value": fmt.Sprint(c.Value)}
			}
			entry["choices"] = choices
		}
		if len(o.ChannelTypes) > 0 {
			entry["channel_types"] = o.ChannelTypes
		}
		if o.MinValue != nil {
			entry["min_value"] = *o.MinValue
		}
		if o.MaxValue != 0 {
			entry["max_value"] = o.MaxValue
		}
		if len(o.Options) > 0 {
			entry["options"] = normalizeOptions(o.Options)
		}
		normalized[i] = entry
	}
	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i]["name"].(string) < normalized[j]["name"].(string)
	})
	return normalized
}
