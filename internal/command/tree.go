// Package command holds the registry of text and slash commands: named
// commands, nested groups, their filters and argument specs, and the lookup
// that maps invocation text to a command.
package command

import (
	"fmt"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/keshon/dispatch/internal/args"
	"github.com/keshon/dispatch/internal/filter"
	"github.com/keshon/dispatch/internal/interaction"
)

// MaxGroupDepth bounds group nesting: the root group plus one nested level.
const MaxGroupDepth = 2

// Spec describes a command at registration time.
type Spec struct {
	Name        string
	Aliases     []string
	Description string
	Args        []args.Arg
	// Raw commands receive the unparsed argument text and skip argument parsing.
	Raw     bool
	Filters []filter.Predicate
	// Ack is the acknowledgement mode used when the command runs as an interaction.
	Ack     interaction.Mode
	Handler Handler
	OnError ErrorHandler
}

// Command is a registered, immutable command.
type Command struct {
	spec   Spec
	args   args.Spec
	parent *Group
}

func (c *Command) Name() string { return c.spec.Name }
func (c *Command) Aliases() []string { return append([]string(nil), c.spec.Aliases...) }
func (c *Command) Description() string { return c.spec.Description }
func (c *Command) Args() args.Spec { return c.args }
func (c *Command) Raw() bool { return c.spec.Raw }
func (c *Command) Ack() interaction.Mode { return c.spec.Ack }
func (c *Command) Filters() []filter.Predicate { return c.spec.Filters }
func (c *Command) Handler() Handler { return c.spec.Handler }
func (c *Command) ErrorHandler() ErrorHandler { return c.spec.OnError }
func (c *Command) Parent() *Group { return c.parent }

// Path returns the names from the root group down to c.
func (c *Command) Path() []string {
	return append(c.parent.Path(), c.spec.Name)
}

// Group is a scope of commands and nested groups.
type Group struct {
	name        string
	aliases     []string
	description string
	filters     []filter.Predicate
	depth       int
	parent      *Group
	tree        *Tree

	// entries maps names and aliases to *Command or *Group
	entries  map[string]any
	order    []any
	fallback Handler
	onError  ErrorHandler
}

// GroupSpec describes a nested group.
type GroupSpec struct {
	Name        string
	Aliases     []string
	Description string
	Filters     []filter.Predicate
	// Default runs when no child matches; it receives the remaining text raw.
	Default Handler
	OnError ErrorHandler
}

// Tree is the registry root. Build it completely, then Freeze it before
// dispatching; it is read concurrently afterwards without locking.
type Tree struct {
	root        *Group
	frozen      atomic.Bool
	middlewares []Middleware
}

// NewTree returns a tree whose root group carries filters.
func NewTree(filters ...filter.Predicate) *Tree {
	t := &Tree{}
	t.root = &Group{depth: 1, filters: filters, tree: t, entries: make(map[string]any)}
	return t
}

// Root returns the root group.
func (t *Tree) Root() *Group { return t.root }

// Command registers spec at the root.
func (t *Tree) Command(spec Spec) (*Command, error) { return t.root.Command(spec) }

// Group registers a group at the root.
func (t *Tree) Group(spec GroupSpec) (*Group, error) { return t.root.Group(spec) }

// Freeze ends registration.
func (t *Tree) Freeze() { t.frozen.Store(true) }

// Frozen reports whether registration has ended.
func (t *Tree) Frozen() bool { return t.frozen.Load() }

func (g *Group) Name() string { return g.name }
func (g *Group) Aliases() []string { return append([]string(nil), g.aliases...) }
func (g *Group) Description() string { return g.description }
func (g *Group) Filters() []filter.Predicate { return g.filters }
func (g *Group) Parent() *Group { return g.parent }
func (g *Group) Depth() int { return g.depth }
func (g *Group) Default() Handler { return g.fallback }
func (g *Group) ErrorHandler() ErrorHandler { return g.onError }

// Path returns the names from the root down to g. The root's path is empty.
func (g *Group) Path() []string {
	if g.parent == nil {
		return nil
	}
	return append(g.parent.Path(), g.name)
}

// Children returns commands and groups in registration order.
func (g *Group) Children() []any {
	return append([]any(nil), g.order...)
}

// SetDefault registers the handler for unmatched names in g.
func (g *Group) SetDefault(h Handler) error {
	if err := g.checkOpen(""); err != nil {
		return err
	}
	if g.fallback != nil {
		return g.regErr("default", "default handler already registered")
	}
	g.fallback = h
	return nil
}

// SetErrorHandler registers the error callback for every command under g.
func (g *Group) SetErrorHandler(h ErrorHandler) error {
	if err := g.checkOpen(""); err != nil {
		return err
	}
	g.onError = h
	return nil
}

// Command registers spec in g.
func (g *Group) Command(spec Spec) (*Command, error) {
	if err := g.checkOpen(spec.Name); err != nil {
		return nil, err
	}
	if spec.Handler == nil {
		return nil, g.regErr(spec.Name, "command has no handler")
	}
	if err := g.checkNames(spec.Name, spec.Aliases); err != nil {
		return nil, err
	}
	var parsed args.Spec
	if !spec.Raw {
		var err error
		if parsed, err = args.NewSpec(spec.Args...); err != nil {
			e := g.regErr(spec.Name, "invalid arguments")
			e.Err = err
			return nil, e
		}
	} else if len(spec.Args) > 0 {
		return nil, g.regErr(spec.Name, "raw commands cannot declare arguments")
	}

	spec.Aliases = append([]string(nil), spec.Aliases...)
	spec.Filters = append([]filter.Predicate(nil), spec.Filters...)
	c := &Command{spec: spec, args: parsed, parent: g}
	g.add(c, spec.Name, spec.Aliases)
	return c, nil
}

// Group registers a nested group in g.
func (g *Group) Group(spec GroupSpec) (*Group, error) {
	if err := g.checkOpen(spec.Name); err != nil {
		return nil, err
	}
	if g.depth >= MaxGroupDepth {
		return nil, g.regErr(spec.Name, fmt.Sprintf("groups cannot nest deeper than %d levels", MaxGroupDepth))
	}
	if err := g.checkNames(spec.Name, spec.Aliases); err != nil {
		return nil, err
	}
	child := &Group{
		name:        spec.Name,
		aliases:     append([]string(nil), spec.Aliases...),
		description: spec.Description,
		filters:     append([]filter.Predicate(nil), spec.Filters...),
		depth:       g.depth + 1,
		parent:      g,
		tree:        g.tree,
		entries:     make(map[string]any),
		fallback:    spec.Default,
		onError:     spec.OnError,
	}
	g.add(child, spec.Name, spec.Aliases)
	return child, nil
}

func (g *Group) add(entry any, name string, aliases []string) {
	g.entries[name] = entry
	for _, a := range aliases {
		g.entries[a] = entry
	}
	g.order = append(g.order, entry)
}

func (g *Group) checkOpen(name string) error {
	if g.tree.Frozen() {
		return g.regErr(name, "tree is frozen")
	}
	return nil
}

func (g *Group) checkNames(name string, aliases []string) error {
	all := append([]string{name}, aliases...)
	seen := make(map[string]struct{}, len(all))
	for _, n := range all {
		if n == "" || strings.IndexFunc(n, unicode.IsSpace) >= 0 {
			return g.regErr(name, fmt.Sprintf("invalid name %q", n))
		}
		if _, dup := seen[n]; dup {
			return g.regErr(name, fmt.Sprintf("alias %q repeats", n))
		}
		seen[n] = struct{}{}
		if _, taken := g.entries[n]; taken {
			return g.regErr(name, fmt.Sprintf("name %q is already taken", n))
		}
	}
	return nil
}

func (g *Group) regErr(name, reason string) *RegistrationError {
	return &RegistrationError{Scope: strings.Join(g.Path(), " "), Name: name, Reason: reason}
}

// Use adds handler middleware, outermost first.
func (t *Tree) Use(mws ...Middleware) error {
	if t.Frozen() {
		return &RegistrationError{Name: "middleware", Reason: "tree is frozen"}
	}
	t.middlewares = append(t.middlewares, mws...)
	return nil
}

// Wrap applies the tree's middleware to h.
func (t *Tree) Wrap(h Handler) Handler {
	return Apply(h, t.middlewares...)
}
