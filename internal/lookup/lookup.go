// Package lookup defines the read-only view of the object cache that filters
// and argument parsers resolve ids against.
package lookup

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Lookup resolves platform objects by id. Implementations return (nil, nil)
// when the object does not exist; an error means the lookup itself failed.
type Lookup interface {
	User(ctx context.Context, userID string) (*discordgo.User, error)
	Member(ctx context.Context, guildID, userID string) (*discordgo.Member, error)
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)
	Role(ctx context.Context, guildID, roleID string) (*discordgo.Role, error)
	Guild(ctx context.Context, guildID string) (*discordgo.Guild, error)
	// BotID returns the user id the bot runs as.
	BotID() string
}

// Static is an in-memory Lookup. The console runner and tests seed it directly.
type Static struct {
	mu       sync.RWMutex
	Self     string
	users    map[string]*discordgo.User
	members  map[string]*discordgo.Member
	channels map[string]*discordgo.Channel
	guilds   map[string]*discordgo.Guild
}

// NewStatic returns an empty Static lookup running as botID.
func NewStatic(botID string) *Static {
	return &Static{
		Self:     botID,
		users:    make(map[string]*discordgo.User),
		members:  make(map[string]*discordgo.Member),
		channels: make(map[string]*discordgo.Channel),
		guilds:   make(map[string]*discordgo.Guild),
	}
}

// AddGuild stores g and its roles.
func (s *Static) AddGuild(g *discordgo.Guild) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guilds[g.ID] = g
}

// AddChannel stores c.
func (s *Static) AddChannel(c *discordgo.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[c.ID] = c
}

// AddMember stores m and its user.
func (s *Static) AddMember(m *discordgo.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberKey(m.GuildID, m.User.ID)] = m
	s.users[m.User.ID] = m.User
}

// AddUser stores u.
func (s *Static) AddUser(u *discordgo.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Static) User(_ context.Context, userID string) (*discordgo.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[userID], nil
}

func (s *Static) Member(_ context.Context, guildID, userID string) (*discordgo.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members[memberKey(guildID, userID)], nil
}

func (s *Static) Channel(_ context.Context, channelID string) (*discordgo.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channels[channelID], nil
}

func (s *Static) Role(_ context.Context, guildID, roleID string) (*discordgo.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g := s.guilds[guildID]
	if g == nil {
		return nil, nil
	}
	for _, r := range g.Roles {
		if r.ID == roleID {
			return r, nil
		}
	}
	return nil, nil
}

func (s *Static) Guild(_ context.Context, guildID string) (*discordgo.Guild, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guilds[guildID], nil
}

func (s *Static) BotID() string { return s.Self }

func memberKey(guildID, userID string) string {
	return guildID + ":" + userID
}
