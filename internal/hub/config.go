package hub

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"botboard/internal/relay"
)

const (
	// DefaultSecretsFile is the optional secret store read from the working
	// directory. Keys in it take priority over environment variables.
	DefaultSecretsFile = "secrets.yaml"

	// GlobalWebhookKey is the fallback webhook key shared by all bots.
	GlobalWebhookKey = "WEBHOOK_URL"

	// ArchiveWebhookKey configures the documentation archive side channel.
	ArchiveWebhookKey = "ARCHIVE_WEBHOOK_URL"
)

type Config struct {
	Log struct {
		Level string `validate:"oneof=debug info warn error"`
	}
	Relay struct {
		Timeout time.Duration `validate:"min=1s,max=10m"`
	}
	Secrets struct {
		File string
	}

	secrets *viper.Viper
}

func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Log.Level = "info"
	cfg.Relay.Timeout = relay.DefaultTimeout
	cfg.Secrets.File = DefaultSecretsFile
	return cfg
}

// Load reads the secret store (if present) and validates the configuration.
// A missing secrets file is not an error; resolution falls through to the
// environment.
func (c *Config) Load() error {
	v := viper.New()
	v.SetConfigFile(c.Secrets.File)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("failed to read secrets file %s: %w", c.Secrets.File, err)
			}
		}
	}
	c.secrets = v

	if level := c.lookup("LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ResolveWebhook resolves a bot's delivery endpoint. Candidate keys, highest
// priority first: the bot's own secrets key (when set), WEBHOOK_URL_<ID>,
// then the global WEBHOOK_URL. For each key the secret store is consulted
// before the environment; the first non-empty value wins.
func (c *Config) ResolveWebhook(id, secretsKey string) (relay.Endpoint, string) {
	var candidates []string
	if secretsKey != "" {
		candidates = append(candidates, secretsKey)
	}
	candidates = append(candidates, PerBotWebhookKey(id), GlobalWebhookKey)

	for _, key := range candidates {
		if value := c.lookup(key); value != "" {
			return relay.Endpoint{URL: value, Keys: candidates}, key
		}
	}
	return relay.Endpoint{Keys: candidates}, ""
}

// ResolveArchive resolves the archive side-channel endpoint, falling back to
// the bot's own webhook when no dedicated key is set.
func (c *Config) ResolveArchive(fallback relay.Endpoint) string {
	if value := c.lookup(ArchiveWebhookKey); value != "" {
		return value
	}
	return fallback.URL
}

// PerBotWebhookKey returns the bot-specific configuration key, e.g.
// WEBHOOK_URL_TICKETS for id "tickets".
func PerBotWebhookKey(id string) string {
	return GlobalWebhookKey + "_" + strings.ToUpper(id)
}

func (c *Config) lookup(key string) string {
	if c.secrets != nil {
		if value := c.secrets.GetString(key); value != "" {
			return value
		}
	}
	return os.Getenv(key)
}
