// Package args turns the raw text after a command name, or the pre-typed
// options of an interaction, into named typed values.
package args

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Kind selects how an argument is read and converted.
type Kind int

const (
	String Kind = iota
	Integer
	Float
	// Text consumes the rest of the input verbatim.
	Text
	// List consumes the rest of the input split on whitespace.
	List
	User
	Member
	Channel
	Role
	// TypedChannel is a Channel restricted to Arg.ChannelTypes.
	TypedChannel
)

var kindNames = map[Kind]string{
	String:       "string",
	Integer:      "integer",
	Float:        "number",
	Text:         "text",
	List:         "list",
	User:         "user",
	Member:       "member",
	Channel:      "channel",
	Role:         "role",
	TypedChannel: "channel",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Remainder reports whether k consumes all remaining input.
func (k Kind) Remainder() bool { return k == Text || k == List }

// Arg describes one argument.
type Arg struct {
	Name        string
	Description string
	Kind        Kind
	Required    bool
	// Default is used when an optional argument is absent. Only valid when
	// Required is false.
	Default any
	// Choices restricts String values to an exact, case-sensitive set.
	Choices []string
	// Min and Max bound Integer and Float values, inclusive.
	Min, Max *float64
	// ChannelTypes restricts TypedChannel values.
	ChannelTypes []discordgo.ChannelType
}

// Bound is a helper for Arg.Min and Arg.Max.
func Bound(v float64) *float64 { return &v }

// ErrInvalidSpec is wrapped by every error NewSpec returns.
var ErrInvalidSpec = errors.New("invalid argument spec")

// Spec is an ordered, validated list of arguments. The zero Spec takes no arguments.
type Spec struct {
	args []Arg
}

// NewSpec validates args. At most one remainder argument is allowed and it
// must come last; names must be unique; defaults require Required == false.
func NewSpec(args ...Arg) (Spec, error) {
	seen := make(map[string]struct{}, len(args))
	for i, a := range args {
		if a.Name == "" {
			return Spec{}, fmt.Errorf("%w: argument %d has no name", ErrInvalidSpec, i)
		}
		if _, dup := seen[a.Name]; dup {
			return Spec{}, fmt.Errorf("%w: duplicate argument %q", ErrInvalidSpec, a.Name)
		}
		seen[a.Name] = struct{}{}
		if _, ok := kindNames[a.Kind]; !ok {
			return Spec{}, fmt.Errorf("%w: argument %q has unknown kind %d", ErrInvalidSpec, a.Name, int(a.Kind))
		}
		if a.Kind.Remainder() && i != len(args)-1 {
			return Spec{}, fmt.Errorf("%w: %s argument %q must be last", ErrInvalidSpec, a.Kind, a.Name)
		}
		if a.Required && a.Default != nil {
			return Spec{}, fmt.Errorf("%w: required argument %q cannot have a default", ErrInvalidSpec, a.Name)
		}
		if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
			return Spec{}, fmt.Errorf("%w: argument %q has min above max", ErrInvalidSpec, a.Name)
		}
		if a.Kind == TypedChannel && len(a.ChannelTypes) == 0 {
			return Spec{}, fmt.Errorf("%w: argument %q needs channel types", ErrInvalidSpec, a.Name)
		}
	}
	out := make([]Arg, len(args))
	copy(out, args)
	return Spec{args: out}, nil
}

// MustSpec is like NewSpec but panics on error.
func MustSpec(args ...Arg) Spec {
	s, err := NewSpec(args...)
	if err != nil {
		panic(err)
	}
	return s
}

// Args returns a copy of the argument list.
func (s Spec) Args() []Arg {
	out := make([]Arg, len(s.args))
	copy(out, s.args)
	return out
}

// Len returns the number of arguments.
func (s Spec) Len() int { return len(s.args) }

// Usage renders the spec as "<required> [optional] [rest...]".
func (s Spec) Usage() string {
	var b strings.Builder
	for i, a := range s.args {
		if i > 0 {
			b.WriteByte(' ')
		}
		name := a.Name
		if a.Kind.Remainder() {
			name += "..."
		}
		if a.Required {
			fmt.Fprintf(&b, "<%s>", name)
		} else {
			fmt.Fprintf(&b, "[%s]", name)
		}
	}
	return b.String()
}
