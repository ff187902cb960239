// Package hub holds the dashboard core: configuration and the per-user
// session state machine tying the bot registry to the webhook relay.
package hub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"botboard/internal/bots"
	"botboard/internal/relay"
	"botboard/internal/utils"
)

// View is the active dashboard screen.
type View int

const (
	ViewListing View = iota
	ViewConversation
)

// Message is one transcript entry. IDs are 1-based and strictly increasing
// within a transcript; Timestamp is wall-clock HH:MM:SS at append time.
type Message struct {
	ID        int    `json:"id"`
	Content   string `json:"content"`
	IsUser    bool   `json:"isUser"`
	Timestamp string `json:"timestamp"`
}

// Session tracks one user's view, active bot, and per-bot transcripts. A
// session is confined to a single goroutine (the presentation event loop);
// the registry is the only state shared across sessions and is read-only.
type Session struct {
	ID        string
	CreatedAt time.Time

	registry *bots.Registry
	relay    *relay.Relay
	logger   *utils.Logger
	now      func() time.Time

	view        View
	activeBotID string
	transcripts map[string][]Message
}

func NewSession(registry *bots.Registry, rel *relay.Relay, logger *utils.Logger) *Session {
	return &Session{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		registry:    registry,
		relay:       rel,
		logger:      logger,
		now:         time.Now,
		view:        ViewListing,
		transcripts: make(map[string][]Message),
	}
}

func (s *Session) View() View { return s.view }

// Bots returns the registry's bots in discovery order.
func (s *Session) Bots() []*bots.Bot { return s.registry.List() }

// ActiveBot returns the selected bot while in the conversation view.
func (s *Session) ActiveBot() (*bots.Bot, bool) {
	if s.view != ViewConversation {
		return nil, false
	}
	return s.registry.Get(s.activeBotID)
}

// Transcript returns the ordered message history for one bot. The returned
// slice is owned by the session and must not be mutated.
func (s *Session) Transcript(botID string) []Message {
	return s.transcripts[botID]
}

// Select enters the conversation view for botID. The transcript is seeded
// with the bot's greeting the first time only; re-entering after Back leaves
// it untouched. An unknown id is a programming error: the listing only ever
// offers registered ids.
func (s *Session) Select(botID string) error {
	bot, ok := s.registry.Get(botID)
	if !ok {
		return fmt.Errorf("unknown bot id %q", botID)
	}

	s.view = ViewConversation
	s.activeBotID = botID

	if _, seeded := s.transcripts[botID]; !seeded {
		s.append(botID, bot.Greeting(), false)
		s.logger.Debugf("seeded transcript for %s", botID)
	}
	return nil
}

// Back returns to the listing view. Always available; transcripts persist.
func (s *Session) Back() {
	s.view = ViewListing
	s.activeBotID = ""
}

// Submit sends text to the active bot. Whitespace-only input is a no-op.
// Otherwise exactly two messages are appended: the user message, then the
// assistant reply or a user-facing failure message. Delivery failures are
// reported through the transcript, never as an error.
func (s *Session) Submit(ctx context.Context, text string) error {
	if s.view != ViewConversation {
		return errors.New("submit outside conversation view")
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	bot, ok := s.registry.Get(s.activeBotID)
	if !ok {
		return fmt.Errorf("active bot %q missing from registry", s.activeBotID)
	}

	s.append(s.activeBotID, text, true)

	formatted := bot.FormatPrompt(text)
	payload := bot.BuildPayload(formatted)

	reply, err := s.relay.Deliver(ctx, bot.Webhook, payload)
	if err != nil {
		s.logger.Warnf("delivery to %s failed: %v", bot.ID, err)
		s.append(s.activeBotID, failureMessage(err), false)
		return nil
	}

	s.append(s.activeBotID, reply, false)
	return nil
}

// ArchiveLatest pushes the most recent assistant reply of the active bot to
// its archive endpoint. The outcome is for transient UI feedback only and
// never appears in the transcript.
func (s *Session) ArchiveLatest(ctx context.Context) error {
	bot, ok := s.ActiveBot()
	if !ok {
		return errors.New("no active bot")
	}
	if !bot.HasArchive {
		return fmt.Errorf("bot %s has no archive channel", bot.ID)
	}

	transcript := s.transcripts[bot.ID]
	for i := len(transcript) - 1; i >= 0; i-- {
		if !transcript[i].IsUser {
			return s.relay.Archive(ctx, bot.ArchiveEndpoint, transcript[i].Content)
		}
	}
	return errors.New("no assistant message to archive")
}

func (s *Session) append(botID, content string, isUser bool) {
	transcript := s.transcripts[botID]
	s.transcripts[botID] = append(transcript, Message{
		ID:        len(transcript) + 1,
		Content:   content,
		IsUser:    isUser,
		Timestamp: s.now().Format("15:04:05"),
	})
}

func failureMessage(err error) string {
	var noEndpoint *relay.NoEndpointError
	if errors.As(err, &noEndpoint) {
		keys := "`" + strings.Join(noEndpoint.Keys, "` oder `") + "`"
		return fmt.Sprintf("❌ Kein Webhook konfiguriert. Bitte setze %s in den Secrets/Umgebungsvariablen.", keys)
	}
	return fmt.Sprintf("❌ Anfrage fehlgeschlagen: %v", err)
}
