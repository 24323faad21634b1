package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// ErrMissingToken is returned when the bot is started without DISCORD_TOKEN.
var ErrMissingToken = errors.New("DISCORD_TOKEN is not set")

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	StoragePath  string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	CommandPrefix   string   `env:"COMMAND_PREFIX" envDefault:"!"`
	CommandPrefixes []string `env:"COMMAND_PREFIXES" envSeparator:","`
	MentionPrefix   bool     `env:"MENTION_PREFIX" envDefault:"true"`

	DeveloperID           string   `env:"DEVELOPER_ID"`
	DiscordGuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	InitSlashCommands     bool     `env:"INIT_SLASH_COMMANDS" envDefault:"true"`

	AckSoftDeadline time.Duration `env:"ACK_SOFT_DEADLINE" envDefault:"250ms"`
	AckHardDeadline time.Duration `env:"ACK_HARD_DEADLINE" envDefault:"3s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	} else if err != nil {
		log.Debug().Msg("no .env file found, falling back to system environment variables")
	}
	return Parse(env.Options{})
}

// Parse builds a Config from opts; tests pass an explicit Environment.
func Parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that parse fine but cannot work together.
func (c *Config) Validate() error {
	if c.CommandPrefix == "" && len(c.CommandPrefixes) == 0 && !c.MentionPrefix {
		return errors.New("no command prefix configured")
	}
	if c.AckSoftDeadline <= 0 || c.AckHardDeadline <= 0 {
		return errors.New("acknowledgement deadlines must be positive")
	}
	if c.AckSoftDeadline >= c.AckHardDeadline {
		return fmt.Errorf("ACK_SOFT_DEADLINE (%s) must be shorter than ACK_HARD_DEADLINE (%s)", c.AckSoftDeadline, c.AckHardDeadline)
	}
	return nil
}

// RequireToken fails when no bot token is configured.
func (c *Config) RequireToken() error {
	if c.DiscordToken == "" {
		return ErrMissingToken
	}
	return nil
}

// IsDeveloper reports whether userID is the configured developer.
func (c *Config) IsDeveloper(userID string) bool {
	return c != nil && c.DeveloperID != "" && c.DeveloperID == userID
}

// IsGuildBlacklisted reports whether the bot should ignore guildID.
func (c *Config) IsGuildBlacklisted(guildID string) bool {
	return c != nil && guildID != "" && slices.Contains(c.DiscordGuildBlacklist, guildID)
}
