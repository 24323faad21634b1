package interaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultSoftDeadline = 250 * time.Millisecond
	DefaultHardDeadline = 3 * time.Second
)

// Handler runs a command against an open session.
type Handler func(ctx context.Context, s *Session) error

// Controller runs handlers under the acknowledgement deadlines.
type Controller struct {
	SoftDeadline time.Duration
	HardDeadline time.Duration
	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

// NewController returns a controller with the platform deadlines.
func NewController() *Controller {
	return &Controller{SoftDeadline: DefaultSoftDeadline, HardDeadline: DefaultHardDeadline}
}

// Run opens a session, runs h, and closes the session when h returns. The
// deadlines are measured from the call to Run and keep running even if ctx
// is cancelled. A session that was never acknowledged, whether it expired at
// the hard deadline or the handler returned first, makes Run return an error
// matching ErrAcknowledgementTimeout, joined with any handler error.
func (c *Controller) Run(ctx context.Context, mode Mode, r Responder, h Handler) (err error) {
	now := c.Now
	if now == nil {
		now = time.Now
	}
	soft, hard := c.SoftDeadline, c.HardDeadline
	if soft <= 0 {
		soft = DefaultSoftDeadline
	}
	if hard <= 0 {
		hard = DefaultHardDeadline
	}

	s := newSession(mode, r, now)
	timerCtx := context.WithoutCancel(ctx)

	var softTimer *time.Timer
	if mode != Manual {
		softTimer = time.AfterFunc(soft, func() {
			if err := s.autoAcknowledge(timerCtx); err != nil {
				log.Warn().Err(err).Str("mode", mode.String()).Msg("automatic acknowledgement failed")
			}
		})
	}
	hardTimer := time.AfterFunc(hard, func() {
		if s.expire() {
			log.Error().Str("mode", mode.String()).Dur("deadline", hard).Msg("interaction was not acknowledged in time")
		}
	})

	defer func() {
		if softTimer != nil {
			softTimer.Stop()
		}
		hardTimer.Stop()
		closeErr := s.close()

		if p := recover(); p != nil {
			err = fmt.Errorf("interaction handler panicked: %v", p)
		}
		if closeErr != nil {
			err = errors.Join(closeErr, err)
		}
	}()

	return h(ctx, s)
}
