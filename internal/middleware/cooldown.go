package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/keshon/dispatch/internal/command"
)

// Cooldown rate limits a handler per invoker and guild.
type Cooldown struct {
	every time.Duration
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewCooldown allows burst uses, refilled one every interval.
func NewCooldown(every time.Duration, burst int) *Cooldown {
	if burst < 1 {
		burst = 1
	}
	return &Cooldown{every: every, burst: burst, limiters: make(map[string]*rate.Limiter)}
}

// Allow takes a token for userID in guildID.
func (c *Cooldown) Allow(guildID, userID string) bool {
	key := guildID + ":" + userID
	c.mu.Lock()
	l, ok := c.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(c.every), c.burst)
		c.limiters[key] = l
	}
	c.mu.Unlock()
	return l.Allow()
}

// Message is the reply sent to a throttled invoker.
func (c *Cooldown) Message() string {
	return fmt.Sprintf("This command is on cooldown. Try again in %s.", c.every.Round(time.Second))
}

// Middleware replies with Message instead of running the handler while the
// invoker is throttled. Only invocations that passed filters and argument
// parsing spend a token.
func (c *Cooldown) Middleware() command.Middleware {
	return func(next command.Handler) command.Handler {
		return func(ctx context.Context, cc *command.Context) error {
			inv := cc.Invocation
			if inv != nil && !c.Allow(inv.GuildID, inv.AuthorID) {
				return cc.Reply(ctx, c.Message())
			}
			return next(ctx, cc)
		}
	}
}
