package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/keshon/dispatch/internal/args"
	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/filter"
	"github.com/keshon/dispatch/internal/interaction"
	"github.com/keshon/dispatch/internal/lookup"
)

// Interaction is a slash command invocation, already decoded from the
// platform payload.
type Interaction struct {
	GuildID   string
	ChannelID string
	AuthorID  string
	RoleIDs   []string
	// Path is the command name followed by subcommand group and subcommand names.
	Path    []string
	Options []args.Option
}

// InteractionExecutor dispatches slash commands under the acknowledgement
// deadlines.
type InteractionExecutor struct {
	tree       *command.Tree
	controller *interaction.Controller
	lookup     lookup.Lookup
	logger     zerolog.Logger
}

// NewInteractionExecutor freezes tree and returns an executor for it.
func NewInteractionExecutor(tree *command.Tree, c *interaction.Controller, l lookup.Lookup, opts ...Option) *InteractionExecutor {
	tree.Freeze()
	if c == nil {
		c = interaction.NewController()
	}
	o := buildOptions(opts)
	return &InteractionExecutor{tree: tree, controller: c, lookup: l, logger: o.logger}
}

// Dispatch runs the command named by in.Path, answering through r. Rejections
// and argument errors are answered privately. A command that finishes without
// acknowledging ends Errored, or keeps its rejection state with Err set.
func (e *InteractionExecutor) Dispatch(ctx context.Context, in Interaction, r interaction.Responder) Result {
	cmd, ok := e.tree.Find(in.Path...)
	if !ok {
		e.logger.Warn().Strs("path", in.Path).Msg("unknown slash command")
		return Result{State: Idle}
	}
	match := command.MatchCommand(cmd)
	inv := &filter.Invocation{
		GuildID:   in.GuildID,
		ChannelID: in.ChannelID,
		AuthorID:  in.AuthorID,
		RoleIDs:   in.RoleIDs,
		Lookup:    e.lookup,
	}
	logger := e.logger.With().
		Str("guild", in.GuildID).
		Str("channel", in.ChannelID).
		Str("user", in.AuthorID).
		Str("command", strings.Join(match.Path, " ")).
		Logger()

	res := Result{State: Completed, Match: match}
	runErr := e.controller.Run(ctx, cmd.Ack(), r, func(ctx context.Context, s *interaction.Session) error {
		c := &command.Context{
			Command:    cmd,
			Path:       match.Path,
			Invocation: inv,
			Session:    s,
		}

		if ok, reason := filter.EvaluateAll(ctx, inv, match.Filters()...); !ok {
			logger.Debug().Str("reason", reason).Msg("command rejected by filter")
			res = Result{State: FilterRejected, Match: match, Reason: reason}
			if reason != "" {
				if err := s.RespondPrivate(ctx, reason); err != nil {
					logger.Warn().Err(err).Msg("failed to send rejection")
				}
			}
			return nil
		}

		if cmd.Raw() {
			for _, o := range in.Options {
				if o.Name == command.RawOption {
					c.RawArgs = fmt.Sprint(o.Value)
				}
			}
		} else {
			values, err := args.ParseOptions(ctx, cmd.Args(), in.Options, args.Scope{GuildID: in.GuildID, Lookup: e.lookup})
			if err != nil {
				res = Result{State: ArgumentFailed, Match: match, Err: err}
				if !handleError(ctx, c, match, err) {
					var ae *args.ArgumentError
					if errors.As(err, &ae) {
						if err := s.RespondPrivate(ctx, ae.Message()); err != nil {
							logger.Warn().Err(err).Msg("failed to send argument error")
						}
					} else {
						logger.Error().Err(err).Msg("argument parsing failed")
					}
				}
				return nil
			}
			c.Args = values
		}

		if err := Invoke(ctx, e.tree.Wrap(cmd.Handler()), c); err != nil {
			herr := &HandlerError{Path: match.Path, Err: err}
			res = Result{State: Errored, Match: match, Err: herr}
			if !handleError(ctx, c, match, herr) {
				logger.Error().Err(err).Msg("command failed")
			}
		}
		return nil
	})
	if runErr != nil {
		if res.State == FilterRejected {
			logger.Warn().Err(runErr).Msg("silently rejected interaction left unacknowledged")
		} else {
			logger.Error().Err(runErr).Msg("interaction session failed")
		}
		if res.Err == nil {
			res.Err = runErr
		} else {
			res.Err = errors.Join(res.Err, runErr)
		}
		if res.State == Completed {
			res.State = Errored
		}
	}
	return res
}
