package bots

// NewAssistantBot is the general-purpose persona. It uses every default hook.
func NewAssistantBot() *Bot {
	return &Bot{
		ID:          "assistant",
		Name:        "General AI Assistant",
		Description: "Get help with general questions, writing, coding, and creative tasks.",
		Emoji:       "🌍",
		Color:       "#4A4A4A",
	}
}
