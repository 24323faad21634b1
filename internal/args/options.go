package args

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Option is one pre-typed interaction option. Values arrive as the platform
// decoded them: string, float64, int64, bool, or an id string for mentionables.
type Option struct {
	Name  string
	Value any
}

// ParseOptions maps interaction options onto spec by name. Options are not
// re-tokenized; the same required, default, choice and range rules apply.
// Options that spec does not name are ignored.
func ParseOptions(ctx context.Context, spec Spec, opts []Option, scope Scope) (Values, error) {
	byName := make(map[string]any, len(opts))
	for _, o := range opts {
		byName[o.Name] = o.Value
	}

	values := make(Values, len(spec.args))
	for _, a := range spec.args {
		raw, ok := byName[a.Name]
		if !ok || raw == nil {
			if a.Required {
				return nil, argErr(a, "", "is required")
			}
			values[a.Name] = a.Default
			continue
		}
		v, err := convertOption(ctx, a, raw, scope)
		if err != nil {
			return nil, err
		}
		values[a.Name] = v
	}
	return values, nil
}

func convertOption(ctx context.Context, a Arg, raw any, scope Scope) (any, error) {
	switch a.Kind {
	case Integer, Float:
		f, ok := number(raw)
		if !ok {
			return nil, argErr(a, fmt.Sprint(raw), "is not a number")
		}
		if a.Kind == Integer {
			return checkInt(a, fmt.Sprint(raw), math.Trunc(f))
		}
		return checkFloat(a, fmt.Sprint(raw), f)
	case List:
		switch v := raw.(type) {
		case []string:
			return v, nil
		case string:
			return strings.Fields(v), nil
		}
		return nil, argErr(a, fmt.Sprint(raw), "is not a list")
	}

	// already resolved by the platform
	switch v := raw.(type) {
	case *discordgo.User:
		if a.Kind == User {
			return v, nil
		}
	case *discordgo.Member:
		if a.Kind == Member {
			return v, nil
		}
	case *discordgo.Role:
		if a.Kind == Role {
			return v, nil
		}
	case *discordgo.Channel:
		if a.Kind == Channel {
			return v, nil
		}
	}

	s, ok := raw.(string)
	if !ok {
		return nil, argErr(a, fmt.Sprint(raw), "has the wrong type")
	}
	if s == "" {
		if a.Required {
			return nil, argErr(a, "", "is required")
		}
		return a.Default, nil
	}
	return convert(ctx, a, s, scope)
}

func number(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return number(float64(v))
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}
