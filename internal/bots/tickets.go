package bots

// NewTicketsBot analyzes support tickets.
func NewTicketsBot() *Bot {
	return &Bot{
		ID:          "tickets",
		Name:        "Ticket Analyzer",
		Description: "Analyze support tickets, extract insights, categorize issues, and suggest solutions.",
		Emoji:       "🎟️",
		Color:       "#F59E0B",
		FormatFunc: func(b *Bot, raw string) string {
			return "[TICKET_ANALYSIS] " + raw
		},
	}
}
