package command

import (
	"strings"
	"unicode"

	"github.com/keshon/dispatch/internal/args"
	"github.com/keshon/dispatch/internal/filter"
)

// Match is the result of resolving invocation text against a tree.
type Match struct {
	// Command is nil when Group's default handler takes the invocation.
	Command *Command
	// Group is the scope the lookup ended in.
	Group *Group
	// Path lists the canonical names walked.
	Path []string
	// Rest is the text after the command name, or the whole unmatched text
	// when the default handler runs.
	Rest string
}

// Handler returns the handler to invoke.
func (m Match) Handler() Handler {
	if m.Command != nil {
		return m.Command.Handler()
	}
	return m.Group.Default()
}

// Filters returns every filter from the root group down to the match, in order.
func (m Match) Filters() []filter.Predicate {
	var chain []*Group
	for g := m.Group; g != nil; g = g.parent {
		chain = append(chain, g)
	}
	var out []filter.Predicate
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].filters...)
	}
	if m.Command != nil {
		out = append(out, m.Command.Filters()...)
	}
	return out
}

// ErrorHandlers returns error callbacks from the command outwards to the root.
func (m Match) ErrorHandlers() []ErrorHandler {
	var out []ErrorHandler
	if m.Command != nil && m.Command.ErrorHandler() != nil {
		out = append(out, m.Command.ErrorHandler())
	}
	for g := m.Group; g != nil; g = g.parent {
		if g.onError != nil {
			out = append(out, g.onError)
		}
	}
	return out
}

// Resolve looks up the first token of text in the root group, descending into
// groups as long as tokens name them. Tokens are case-sensitive. A token that
// names nothing falls through to the current group's default handler with the
// remaining text untouched; without a default there is no match.
func (t *Tree) Resolve(text string) (Match, bool) {
	g := t.root
	var path []string
	rest := text
	for {
		token, after := args.NextToken(rest)
		entry, ok := g.entries[token]
		if token == "" || !ok {
			if g.fallback == nil {
				return Match{}, false
			}
			return Match{Group: g, Path: path, Rest: strings.TrimLeftFunc(rest, unicode.IsSpace)}, true
		}
		switch e := entry.(type) {
		case *Command:
			return Match{Command: e, Group: g, Path: append(path, e.Name()), Rest: strings.TrimLeftFunc(after, unicode.IsSpace)}, true
		case *Group:
			path = append(path, e.name)
			g = e
			rest = after
		}
	}
}

// MatchCommand builds the match for a command found by other means than
// text resolution.
func MatchCommand(c *Command) Match {
	return Match{Command: c, Group: c.Parent(), Path: c.Path()}
}

// Find resolves an exact path of names, as delivered by slash commands.
func (t *Tree) Find(path ...string) (*Command, bool) {
	g := t.root
	for i, name := range path {
		switch e := g.entries[name].(type) {
		case *Command:
			if i == len(path)-1 {
				return e, true
			}
			return nil, false
		case *Group:
			g = e
		default:
			return nil, false
		}
	}
	return nil, false
}

// Walk calls fn for every command in registration order, depth first.
func (t *Tree) Walk(fn func(c *Command)) {
	walk(t.root, fn)
}

func walk(g *Group, fn func(c *Command)) {
	for _, e := range g.order {
		switch e := e.(type) {
		case *Command:
			fn(e)
		case *Group:
			walk(e, fn)
		}
	}
}
