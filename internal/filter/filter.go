// Package filter implements composable authorization predicates evaluated
// before a command runs.
//
// Every predicate has the same contract: Test may block on lookups and reports
// whether the invocation is allowed; Describe returns the criteria shown to the
// invoker on rejection, or "" when the rejection should stay silent.
package filter

import (
	"context"
	"strings"
	"sync"

	"github.com/keshon/dispatch/internal/lookup"
)

// Invocation is the part of a command invocation that predicates can inspect.
type Invocation struct {
	GuildID   string
	ChannelID string
	AuthorID  string
	// RoleIDs are the author's roles when the event carried them.
	RoleIDs []string
	Lookup  lookup.Lookup
}

// Predicate is a single authorization check.
type Predicate interface {
	Test(ctx context.Context, inv *Invocation) bool
	Describe() string
}

// explainer is implemented by combinators whose rejection reason depends on
// which child failed.
type explainer interface {
	explain(ctx context.Context, inv *Invocation) (bool, string)
}

// Evaluate runs p and returns the reason to surface when it fails.
func Evaluate(ctx context.Context, inv *Invocation, p Predicate) (bool, string) {
	if e, ok := p.(explainer); ok {
		return e.explain(ctx, inv)
	}
	if p.Test(ctx, inv) {
		return true, ""
	}
	return false, p.Describe()
}

// EvaluateAll runs ps in order and stops at the first failure.
func EvaluateAll(ctx context.Context, inv *Invocation, ps ...Predicate) (bool, string) {
	return Evaluate(ctx, inv, And(ps...))
}

type funcPredicate struct {
	test     func(ctx context.Context, inv *Invocation) bool
	describe func() string
}

func (f *funcPredicate) Test(ctx context.Context, inv *Invocation) bool { return f.test(ctx, inv) }
func (f *funcPredicate) Describe() string { return f.describe() }

// New builds a predicate whose description is computed on first use.
func New(test func(ctx context.Context, inv *Invocation) bool, describe func() string) Predicate {
	if describe == nil {
		describe = func() string { return "" }
	}
	return &funcPredicate{test: test, describe: sync.OnceValue(describe)}
}

// Custom wraps fn with a fixed description.
func Custom(fn func(ctx context.Context, inv *Invocation) bool, description string) Predicate {
	return &funcPredicate{test: fn, describe: func() string { return description }}
}

type and []Predicate

// And passes when every predicate passes. Evaluation stops at the first
// failure, whose description becomes the rejection reason.
func And(ps ...Predicate) Predicate { return and(ps) }

func (a and) Test(ctx context.Context, inv *Invocation) bool {
	ok, _ := a.explain(ctx, inv)
	return ok
}

func (a and) explain(ctx context.Context, inv *Invocation) (bool, string) {
	for _, p := range a {
		if ok, reason := Evaluate(ctx, inv, p); !ok {
			return false, reason
		}
	}
	return true, ""
}

func (a and) Describe() string { return join(a, " and ") }

type or []Predicate

// Or passes on the first passing predicate. When all fail their descriptions
// are offered as alternatives.
func Or(ps ...Predicate) Predicate { return or(ps) }

func (o or) Test(ctx context.Context, inv *Invocation) bool {
	ok, _ := o.explain(ctx, inv)
	return ok
}

func (o or) explain(ctx context.Context, inv *Invocation) (bool, string) {
	reasons := make([]string, 0, len(o))
	for _, p := range o {
		ok, reason := Evaluate(ctx, inv, p)
		if ok {
			return true, ""
		}
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}
	return false, strings.Join(reasons, " or ")
}

func (o or) Describe() string { return join(o, " or ") }

type not struct{ p Predicate }

// Not inverts p.
func Not(p Predicate) Predicate { return not{p} }

func (n not) Test(ctx context.Context, inv *Invocation) bool { return !n.p.Test(ctx, inv) }

func (n not) explain(ctx context.Context, inv *Invocation) (bool, string) {
	if n.p.Test(ctx, inv) {
		return false, n.Describe()
	}
	return true, ""
}

func (n not) Describe() string {
	d := n.p.Describe()
	if d == "" {
		return ""
	}
	return "not: " + d
}

type silent struct{ p Predicate }

// Silent evaluates p normally but never explains a rejection.
func Silent(p Predicate) Predicate { return silent{p} }

func (s silent) Test(ctx context.Context, inv *Invocation) bool { return s.p.Test(ctx, inv) }

func (s silent) explain(ctx context.Context, inv *Invocation) (bool, string) {
	return s.p.Test(ctx, inv), ""
}

func (silent) Describe() string { return "" }

func join(ps []Predicate, sep string) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		if d := p.Describe(); d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, sep)
}
