package bots

import (
	"net/http"

	"botboard/internal/relay"
)

// NewInternWikiBot fronts the internal wiki search. Its upstream expects a
// tagged query via GET parameters rather than a JSON body.
func NewInternWikiBot() *Bot {
	return &Bot{
		ID:          "internwiki",
		Name:        "Internal Wiki Bot",
		Description: "Search and get answers from our wiki, documentation, and company resources.",
		Emoji:       "📚",
		Color:       "#7A5CFF",
		GreetingFunc: func(b *Bot) string {
			return "Hi, I answer from the internal wiki. What should I look up?"
		},
		FormatFunc: func(b *Bot, raw string) string {
			return "[WIKI_QUERY] " + raw
		},
		PayloadFunc: func(b *Bot, formatted string) relay.Payload {
			return relay.Payload{
				Method: http.MethodGet,
				Fields: map[string]string{
					"frage": formatted,
					"bot":   b.Name,
				},
			}
		},
	}
}
