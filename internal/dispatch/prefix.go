package dispatch

import "strings"

// PrefixResolver decides whether a message is addressed to the bot.
type PrefixResolver struct {
	Default string
	Extra   []string
	// Mention accepts "<@botID>" and "<@!botID>" as prefixes.
	Mention bool
}

// Match returns the longest matching prefix and the text after it.
func (p PrefixResolver) Match(content, botID string) (prefix, rest string, ok bool) {
	candidates := make([]string, 0, len(p.Extra)+3)
	if p.Default != "" {
		candidates = append(candidates, p.Default)
	}
	for _, e := range p.Extra {
		if e != "" {
			candidates = append(candidates, e)
		}
	}
	if p.Mention && botID != "" {
		candidates = append(candidates, "<@"+botID+">", "<@!"+botID+">")
	}

	for _, c := range candidates {
		if len(c) > len(prefix) && strings.HasPrefix(content, c) {
			prefix = c
			ok = true
		}
	}
	if !ok {
		return "", "", false
	}
	return prefix, content[len(prefix):], true
}
