package args

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/lookup"
)

// Scope is what id-lookup arguments resolve against.
type Scope struct {
	GuildID string
	Lookup  lookup.Lookup
}

// ArgumentError reports the argument that failed. Parsing is all-or-nothing,
// so no values accompany it.
type ArgumentError struct {
	Arg    Arg
	Value  string
	Reason string
	Err    error
}

func (e *ArgumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("argument %q: %s: %v", e.Arg.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("argument %q: %s", e.Arg.Name, e.Reason)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// Message is the text shown to the invoker.
func (e *ArgumentError) Message() string {
	if e.Value != "" {
		return fmt.Sprintf("Invalid value `%s` for `%s`: %s.", e.Value, e.Arg.Name, e.Reason)
	}
	return fmt.Sprintf("Argument `%s` %s.", e.Arg.Name, e.Reason)
}

func argErr(a Arg, value, reason string) *ArgumentError {
	return &ArgumentError{Arg: a, Value: value, Reason: reason}
}

// Parse reads spec from raw. Scalars take one whitespace-delimited token each,
// in order; a trailing Text or List argument takes the rest. Text keeps the
// rest verbatim apart from the whitespace separating it from the previous
// token.
func Parse(ctx context.Context, spec Spec, raw string, scope Scope) (Values, error) {
	values := make(Values, len(spec.args))
	rest := raw
	for _, a := range spec.args {
		var (
			token   string
			present bool
		)
		if a.Kind.Remainder() {
			token = strings.TrimLeftFunc(rest, unicode.IsSpace)
			rest = ""
			present = token != ""
		} else {
			token, rest = NextToken(rest)
			present = token != ""
		}

		if !present {
			if a.Required {
				return nil, argErr(a, "", "is required")
			}
			values[a.Name] = a.Default
			continue
		}

		var (
			v   any
			err error
		)
		if a.Kind == List {
			v = strings.Fields(token)
		} else {
			v, err = convert(ctx, a, token, scope)
		}
		if err != nil {
			return nil, err
		}
		values[a.Name] = v
	}
	return values, nil
}

// NextToken splits off the first whitespace-delimited token and returns it
// with the unconsumed remainder.
func NextToken(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

func convert(ctx context.Context, a Arg, token string, scope Scope) (any, error) {
	switch a.Kind {
	case String:
		if len(a.Choices) > 0 && !slices.Contains(a.Choices, token) {
			return nil, argErr(a, token, "must be one of "+strings.Join(a.Choices, ", "))
		}
		return token, nil
	case Text:
		return token, nil
	case Integer:
		f, err := strconv.ParseFloat(token, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, argErr(a, token, "is not a whole number")
		}
		return checkInt(a, token, math.Trunc(f))
	case Float:
		f, err := strconv.ParseFloat(token, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, argErr(a, token, "is not a number")
		}
		return checkFloat(a, token, f)
	case User, Member, Channel, Role, TypedChannel:
		return resolve(ctx, a, token, scope)
	}
	return nil, argErr(a, token, "has an unsupported kind")
}

func checkInt(a Arg, token string, f float64) (any, error) {
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, argErr(a, token, "is out of range")
	}
	if _, err := checkFloat(a, token, f); err != nil {
		return nil, err
	}
	return int64(f), nil
}

func checkFloat(a Arg, token string, f float64) (any, error) {
	switch {
	case a.Min != nil && a.Max != nil && (f < *a.Min || f > *a.Max):
		return nil, argErr(a, token, fmt.Sprintf("must be between %v and %v", *a.Min, *a.Max))
	case a.Min != nil && f < *a.Min:
		return nil, argErr(a, token, fmt.Sprintf("must be at least %v", *a.Min))
	case a.Max != nil && f > *a.Max:
		return nil, argErr(a, token, fmt.Sprintf("must be at most %v", *a.Max))
	}
	return f, nil
}

// mentionID extracts the snowflake from a bare id or a mention using one of prefixes.
func mentionID(token string, prefixes ...string) (string, bool) {
	id := token
	if strings.HasPrefix(token, "<") && strings.HasSuffix(token, ">") {
		inner := token[1 : len(token)-1]
		id = ""
		for _, p := range prefixes {
			if strings.HasPrefix(inner, p) {
				id = inner[len(p):]
				break
			}
		}
	}
	if id == "" {
		return "", false
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return "", false
	}
	return id, true
}

func resolve(ctx context.Context, a Arg, token string, scope Scope) (any, error) {
	var (
		id string
		ok bool
	)
	switch a.Kind {
	case User, Member:
		// "@!" is the nickname mention form
		id, ok = mentionID(token, "@!", "@")
	case Channel, TypedChannel:
		id, ok = mentionID(token, "#")
	case Role:
		id, ok = mentionID(token, "@&")
	}
	if !ok {
		return nil, argErr(a, token, "is not a valid "+a.Kind.String()+" mention or id")
	}
	if scope.Lookup == nil {
		return nil, argErr(a, token, "cannot be looked up here")
	}

	var (
		v   any
		err error
	)
	switch a.Kind {
	case User:
		var u *discordgo.User
		if u, err = scope.Lookup.User(ctx, id); u != nil {
			v = u
		}
	case Member:
		if scope.GuildID == "" {
			return nil, argErr(a, token, "can only be used in a server")
		}
		var m *discordgo.Member
		if m, err = scope.Lookup.Member(ctx, scope.GuildID, id); m != nil {
			v = m
		}
	case Role:
		if scope.GuildID == "" {
			return nil, argErr(a, token, "can only be used in a server")
		}
		var r *discordgo.Role
		if r, err = scope.Lookup.Role(ctx, scope.GuildID, id); r != nil {
			v = r
		}
	case Channel, TypedChannel:
		var c *discordgo.Channel
		if c, err = scope.Lookup.Channel(ctx, id); c != nil {
			if a.Kind == TypedChannel && !slices.Contains(a.ChannelTypes, c.Type) {
				return nil, argErr(a, token, "is not the right kind of channel")
			}
			v = c
		}
	}
	if err != nil {
		e := argErr(a, token, "could not be looked up")
		e.Err = err
		return nil, e
	}
	if v == nil {
		return nil, argErr(a, token, "could not be found")
	}
	return v, nil
}
