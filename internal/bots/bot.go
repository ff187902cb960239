// Package bots defines the bot contract and the compiled-in variants shown
// on the dashboard. A bot is display metadata plus four behavior hooks; every
// hook has a default and variants override only what they need.
package bots

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"botboard/internal/relay"
)

// Bot describes one persona. Instances are built once at discovery and are
// immutable afterwards; the resolved webhook is cached on the instance.
type Bot struct {
	ID          string `validate:"required,lowercase,alphanum"`
	Name        string `validate:"required"`
	Description string `validate:"required"`
	Emoji       string `validate:"required"`
	Color       string `validate:"required,hexcolor"`

	// SecretsKey overrides the per-bot webhook lookup key when set.
	SecretsKey string

	// Webhook and WebhookKey are filled by the registry at discovery.
	Webhook    relay.Endpoint
	WebhookKey string

	// ArchiveEndpoint is set for bots that carry the archive side channel.
	ArchiveEndpoint string
	HasArchive      bool

	GreetingFunc func(b *Bot) string
	FormatFunc   func(b *Bot, raw string) string
	PayloadFunc  func(b *Bot, formatted string) relay.Payload
	RenderFunc   func(b *Bot, content string, isUser bool, timestamp string) string
}

var validate = validator.New()

func (b *Bot) Validate() error {
	return validate.Struct(b)
}

// Greeting returns the single seed message shown before any user input.
func (b *Bot) Greeting() string {
	if b.GreetingFunc != nil {
		return b.GreetingFunc(b)
	}
	return fmt.Sprintf("Hello! I'm %s. %s How can I help you today?", b.Name, b.Description)
}

// FormatPrompt transforms raw user input into the text sent upstream.
func (b *Bot) FormatPrompt(raw string) string {
	if b.FormatFunc != nil {
		return b.FormatFunc(b, raw)
	}
	return raw
}

// BuildPayload produces the request content for the webhook. The default
// carries the prompt under "frage" with the bot's display name appended, as
// the upstream workflow expects.
func (b *Bot) BuildPayload(formatted string) relay.Payload {
	if b.PayloadFunc != nil {
		return b.PayloadFunc(b, formatted)
	}
	return relay.NewPayload(map[string]string{
		"frage": fmt.Sprintf("%s \n Es wird eine Nachricht für folgenden Bot verlangt: %s", formatted, b.Name),
	})
}

// RenderMessage produces the display representation of one message.
func (b *Bot) RenderMessage(content string, isUser bool, timestamp string) string {
	if b.RenderFunc != nil {
		return b.RenderFunc(b, content, isUser, timestamp)
	}
	return defaultRender(b, content, isUser, timestamp)
}

func defaultRender(b *Bot, content string, isUser bool, timestamp string) string {
	if isUser {
		return fmt.Sprintf("Du  %s\n%s", timestamp, content)
	}
	return fmt.Sprintf("%s %s  %s\n%s", b.Emoji, b.Name, timestamp, content)
}
