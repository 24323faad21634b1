// Package discord connects the command engine to a Discord gateway session.
package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/config"
	"github.com/keshon/dispatch/internal/dispatch"
	"github.com/keshon/dispatch/internal/interaction"
)

// Bot is a Discord bot serving one command tree.
type Bot struct {
	dg     *discordgo.Session
	cfg    *config.Config
	tree   *command.Tree
	lookup sessionLookup
	logger zerolog.Logger

	// set by Run
	ctx   context.Context
	text  *dispatch.Executor
	slash *dispatch.InteractionExecutor
}

// New prepares a bot. No connection is made and no event is handled until Run.
func New(cfg *config.Config, tree *command.Tree) (*Bot, error) {
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	return &Bot{
		dg:     dg,
		cfg:    cfg,
		tree:   tree,
		lookup: sessionLookup{s: dg},
		logger: log.With().Str("component", "discord").Logger(),
	}, nil
}

// Latency returns the gateway heartbeat latency.
func (b *Bot) Latency() time.Duration {
	return b.dg.HeartbeatLatency()
}

// AddRole gives userID the role roleID.
func (b *Bot) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return b.dg.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

// RemoveRole takes roleID away from userID.
func (b *Bot) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return b.dg.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
}

// Run freezes the command tree, attaches the event handlers and serves
// events until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if b.ctx != nil {
		return errors.New("bot is already running")
	}
	b.ctx = ctx

	prefixes := dispatch.PrefixResolver{
		Default: b.cfg.CommandPrefix,
		Extra:   b.cfg.CommandPrefixes,
		Mention: b.cfg.MentionPrefix,
	}
	controller := &interaction.Controller{
		SoftDeadline: b.cfg.AckSoftDeadline,
		HardDeadline: b.cfg.AckHardDeadline,
	}
	b.text = dispatch.New(b.tree, prefixes, messenger{s: b.dg}, b.lookup, dispatch.WithLogger(b.logger))
	b.slash = dispatch.NewInteractionExecutor(b.tree, controller, b.lookup, dispatch.WithLogger(b.logger))

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.logger.Info().Msg("shutdown signal received, closing session")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	// commands are synced from onGuildCreate, which follows for every guild
	for _, g := range r.Guilds {
		b.leaveIfBlacklisted(s, g.ID)
	}
	b.logger.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if b.leaveIfBlacklisted(s, g.ID) {
		return
	}
	b.syncGuild(g.ID)
}

func (b *Bot) leaveIfBlacklisted(s *discordgo.Session, guildID string) bool {
	if !b.cfg.IsGuildBlacklisted(guildID) {
		return false
	}
	b.logger.Info().Str("guild", guildID).Msg("leaving blacklisted guild")
	if err := s.GuildLeave(guildID); err != nil {
		b.logger.Error().Err(err).Str("guild", guildID).Msg("failed to leave guild")
	}
	return true
}

func (b *Bot) syncGuild(guildID string) {
	if !b.cfg.InitSlashCommands {
		return
	}
	if err := b.syncCommands(b.ctx, guildID); err != nil {
		b.logger.Error().Err(err).Str("guild", guildID).Msg("failed to register slash commands")
	}
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || b.cfg.IsGuildBlacklisted(m.GuildID) {
		return
	}
	b.text.Dispatch(b.ctx, m.Message)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.ApplicationCommandData().CommandType != discordgo.ChatApplicationCommand {
		return
	}
	if b.cfg.IsGuildBlacklisted(i.GuildID) {
		return
	}
	b.slash.Dispatch(b.ctx, slashInvocation(i.Interaction), interactionResponder{s: s, i: i.Interaction})
}
