package args

import "github.com/bwmarrin/discordgo"

// Values holds parsed arguments by name. Absent optional arguments map to
// their default, which may be nil.
type Values map[string]any

// Has reports whether name holds a non-nil value.
func (v Values) Has(name string) bool { return v[name] != nil }

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Int(name string) int64 {
	switch n := v[name].(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func (v Values) Float(name string) float64 {
	switch n := v[name].(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func (v Values) Strings(name string) []string {
	s, _ := v[name].([]string)
	return s
}

func (v Values) User(name string) *discordgo.User {
	switch u := v[name].(type) {
	case *discordgo.User:
		return u
	case *discordgo.Member:
		return u.User
	}
	return nil
}

func (v Values) Member(name string) *discordgo.Member {
	m, _ := v[name].(*discordgo.Member)
	return m
}

func (v Values) Channel(name string) *discordgo.Channel {
	c, _ := v[name].(*discordgo.Channel)
	return c
}

func (v Values) Role(name string) *discordgo.Role {
	r, _ := v[name].(*discordgo.Role)
	return r
}
