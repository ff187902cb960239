package bots

// ArchiveHint is appended to assistant replies from bots with an archive
// side channel. It is a display affordance layered on the default rendering;
// the underlying message content is untouched.
const ArchiveHint = "[ctrl+a] Zur Dokumentation hinzufügen"

// NewDocumentationBot finds and retrieves documentation. Replies can be
// pushed to a secondary archive endpoint; that side channel is independent
// of the conversational contract.
func NewDocumentationBot() *Bot {
	return &Bot{
		ID:          "documentation",
		Name:        "Documentation Bot",
		Description: "Assist with finding and retrieving documentation, guides, and API references.",
		Emoji:       "📄",
		Color:       "#6EE7B7",
		HasArchive:  true,
		GreetingFunc: func(b *Bot) string {
			return "Hello! Tell me what docs, APIs, or guides you need. I'll fetch them."
		},
		FormatFunc: func(b *Bot, raw string) string {
			return "[DOCS_REQUEST] " + raw
		},
		RenderFunc: func(b *Bot, content string, isUser bool, timestamp string) string {
			rendered := defaultRender(b, content, isUser, timestamp)
			if isUser {
				return rendered
			}
			return rendered + "\n" + ArchiveHint
		},
	}
}
