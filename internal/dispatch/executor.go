// Package dispatch turns chat messages into command invocations.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keshon/dispatch/internal/args"
	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/filter"
	"github.com/keshon/dispatch/internal/lookup"
)

// State is where a dispatch stopped.
type State int

const (
	// Idle means the message was not a command.
	Idle State = iota
	FilterRejected
	ArgumentFailed
	Completed
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FilterRejected:
		return "filter-rejected"
	case ArgumentFailed:
		return "argument-failed"
	case Completed:
		return "completed"
	case Errored:
		return "errored"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Messenger sends messages to channels.
type Messenger interface {
	Send(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)
}

// HandlerError wraps an error returned (or a panic raised) by a handler.
type HandlerError struct {
	Path []string
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("command %q failed: %v", strings.Join(e.Path, " "), e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// Result reports how a dispatch ended.
type Result struct {
	State State
	Match command.Match
	// Reason is the rejection text shown for FilterRejected, if any.
	Reason string
	Err    error
}

// Executor dispatches text commands.
type Executor struct {
	tree      *command.Tree
	prefixes  PrefixResolver
	messenger Messenger
	lookup    lookup.Lookup
	logger    zerolog.Logger
}

type options struct {
	logger zerolog.Logger
}

// Option configures an executor.
type Option func(*options)

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New freezes tree and returns an executor for it.
func New(tree *command.Tree, prefixes PrefixResolver, m Messenger, l lookup.Lookup, opts ...Option) *Executor {
	tree.Freeze()
	o := buildOptions(opts)
	return &Executor{tree: tree, prefixes: prefixes, messenger: m, lookup: l, logger: o.logger}
}

// Tree returns the command tree.
func (e *Executor) Tree() *command.Tree { return e.tree }

// Dispatch runs the command in m, if any. It never panics; failures are
// reported in the result and logged. A panic in a filter, lookup or argument
// conversion ends the dispatch as Errored.
func (e *Executor) Dispatch(ctx context.Context, m *discordgo.Message) (res Result) {
	var match command.Match
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v\n%s", p, debug.Stack())
			e.logger.Error().Err(err).Strs("command", match.Path).Msg("dispatch panicked")
			res = Result{State: Errored, Match: match, Err: err}
		}
	}()

	if m == nil || m.Author == nil {
		return Result{State: Idle}
	}
	botID := ""
	if e.lookup != nil {
		botID = e.lookup.BotID()
	}
	if botID != "" && m.Author.ID == botID {
		return Result{State: Idle}
	}

	_, text, ok := e.prefixes.Match(m.Content, botID)
	if !ok {
		return Result{State: Idle}
	}
	match, ok = e.tree.Resolve(text)
	if !ok {
		return Result{State: Idle}
	}

	inv := &filter.Invocation{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		Lookup:    e.lookup,
	}
	if m.Member != nil {
		inv.RoleIDs = m.Member.Roles
	}
	c := &command.Context{
		Command:    match.Command,
		Path:       match.Path,
		RawArgs:    match.Rest,
		Invocation: inv,
		Message:    m,
		Replier:    &channelReplier{messenger: e.messenger, message: m},
	}
	logger := e.logger.With().
		Str("guild", m.GuildID).
		Str("channel", m.ChannelID).
		Str("user", m.Author.ID).
		Str("command", strings.Join(match.Path, " ")).
		Logger()

	if ok, reason := filter.EvaluateAll(ctx, inv, match.Filters()...); !ok {
		logger.Debug().Str("reason", reason).Msg("command rejected by filter")
		if reason != "" {
			e.reply(ctx, c, reason, logger)
		}
		return Result{State: FilterRejected, Match: match, Reason: reason}
	}

	if match.Command != nil && !match.Command.Raw() {
		values, err := args.Parse(ctx, match.Command.Args(), match.Rest, args.Scope{GuildID: m.GuildID, Lookup: e.lookup})
		if err != nil {
			if !handleError(ctx, c, match, err) {
				var ae *args.ArgumentError
				if errors.As(err, &ae) {
					e.reply(ctx, c, ae.Message(), logger)
				} else {
					logger.Error().Err(err).Msg("argument parsing failed")
				}
			}
			return Result{State: ArgumentFailed, Match: match, Err: err}
		}
		c.Args = values
	}

	if err := Invoke(ctx, e.tree.Wrap(match.Handler()), c); err != nil {
		herr := &HandlerError{Path: match.Path, Err: err}
		if !handleError(ctx, c, match, herr) {
			logger.Error().Err(err).Msg("command failed")
		}
		return Result{State: Errored, Match: match, Err: herr}
	}
	logger.Debug().Msg("command completed")
	return Result{State: Completed, Match: match}
}

// Invoke runs h and turns a panic into an error.
func Invoke(ctx context.Context, h command.Handler, c *command.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
		}
	}()
	return h(ctx, c)
}

// handleError offers err to the match's error callbacks, innermost first.
func handleError(ctx context.Context, c *command.Context, match command.Match, err error) (handled bool) {
	for _, h := range match.ErrorHandlers() {
		handled = func() (ok bool) {
			defer func() {
				if p := recover(); p != nil {
					log.Error().Interface("panic", p).Msg("error handler panicked")
					ok = false
				}
			}()
			return h(ctx, c, err)
		}()
		if handled {
			return true
		}
	}
	return false
}

func (e *Executor) reply(ctx context.Context, c *command.Context, content string, logger zerolog.Logger) {
	if err := c.Reply(ctx, content); err != nil {
		logger.Warn().Err(err).Msg("failed to send reply")
	}
}

type channelReplier struct {
	messenger Messenger
	message   *discordgo.Message
}

func (r *channelReplier) Reply(ctx context.Context, content string) error {
	if r.messenger == nil {
		return nil
	}
	_, err := r.messenger.Send(ctx, r.message.ChannelID, &discordgo.MessageSend{
		Content:         content,
		Reference:       r.message.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	return err
}
