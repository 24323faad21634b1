package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// interactionResponder answers one interaction through the REST API.
type interactionResponder struct {
	s *discordgo.Session
	i *discordgo.Interaction
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func noMentions() *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{}
}

func (r interactionResponder) Defer(ctx context.Context, ephemeral bool) error {
	return r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	}, discordgo.WithContext(ctx))
}

func (r interactionResponder) Respond(ctx context.Context, content string, ephemeral bool) error {
	return r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         content,
			Flags:           flags(ephemeral),
			AllowedMentions: noMentions(),
		},
	}, discordgo.WithContext(ctx))
}

func (r interactionResponder) EditOriginal(ctx context.Context, content string) error {
	_, err := r.s.InteractionResponseEdit(r.i, &discordgo.WebhookEdit{
		Content:         &content,
		AllowedMentions: noMentions(),
	}, discordgo.WithContext(ctx))
	return err
}

func (r interactionResponder) DeleteOriginal(ctx context.Context) error {
	return r.s.InteractionResponseDelete(r.i, discordgo.WithContext(ctx))
}

func (r interactionResponder) Followup(ctx context.Context, content string, ephemeral bool) (string, error) {
	m, err := r.s.FollowupMessageCreate(r.i, true, &discordgo.WebhookParams{
		Content:         content,
		Flags:           flags(ephemeral),
		AllowedMentions: noMentions(),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (r interactionResponder) EditFollowup(ctx context.Context, id, content string) error {
	_, err := r.s.FollowupMessageEdit(r.i, id, &discordgo.WebhookEdit{
		Content:         &content,
		AllowedMentions: noMentions(),
	}, discordgo.WithContext(ctx))
	return err
}

func (r interactionResponder) DeleteFollowup(ctx context.Context, id string) error {
	return r.s.FollowupMessageDelete(r.i, id, discordgo.WithContext(ctx))
}

// messenger sends channel messages for text commands.
type messenger struct {
	s *discordgo.Session
}

func (m messenger) Send(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	return m.s.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
}
