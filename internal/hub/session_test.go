package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botboard/internal/bots"
	"botboard/internal/relay"
	"botboard/internal/utils"
)

// buildSession discovers the real variant table against the current
// environment, so tests set webhook env vars before calling it.
func buildSession(t *testing.T, timeout time.Duration) *Session {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Secrets.File = filepath.Join(t.TempDir(), "missing.yaml")
	require.NoError(t, cfg.Load())

	logger := utils.NewNopLogger()
	registry := bots.Discover(cfg, logger)
	return NewSession(registry, relay.New(timeout, logger), logger)
}

func clearWebhookEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WEBHOOK_URL", "")
	t.Setenv("WEBHOOK_URL_TICKETS", "")
	t.Setenv("WEBHOOK_URL_ASSISTANT", "")
	t.Setenv("WEBHOOK_URL_DOCUMENTATION", "")
	t.Setenv("WEBHOOK_URL_INTERNWIKI", "")
	t.Setenv(ArchiveWebhookKey, "")
}

func TestSessionStartsInListing(t *testing.T) {
	clearWebhookEnv(t)
	s := buildSession(t, 0)

	assert.Equal(t, ViewListing, s.View())
	_, ok := s.ActiveBot()
	assert.False(t, ok)
	assert.NotEmpty(t, s.ID)
	assert.Len(t, s.Bots(), 4)
}

func TestSelectSeedsGreetingExactlyOnce(t *testing.T) {
	clearWebhookEnv(t)
	s := buildSession(t, 0)

	require.NoError(t, s.Select("tickets"))
	assert.Equal(t, ViewConversation, s.View())

	transcript := s.Transcript("tickets")
	require.Len(t, transcript, 1)
	assert.False(t, transcript[0].IsUser)
	assert.Equal(t, 1, transcript[0].ID)
	assert.Equal(t, bots.NewTicketsBot().Greeting(), transcript[0].Content)

	s.Back()
	assert.Equal(t, ViewListing, s.View())
	require.NoError(t, s.Select("tickets"))

	assert.Equal(t, transcript, s.Transcript("tickets"))
}

func TestSelectUnknownBotFails(t *testing.T) {
	clearWebhookEnv(t)
	s := buildSession(t, 0)

	assert.Error(t, s.Select("nonexistent"))
	assert.Equal(t, ViewListing, s.View())
}

func TestSubmitWhitespaceIsNoOp(t *testing.T) {
	clearWebhookEnv(t)
	s := buildSession(t, 0)
	require.NoError(t, s.Select("tickets"))

	require.NoError(t, s.Submit(context.Background(), ""))
	require.NoError(t, s.Submit(context.Background(), "   "))
	require.NoError(t, s.Submit(context.Background(), "\n\t"))

	assert.Len(t, s.Transcript("tickets"), 1)
}

func TestSubmitOutsideConversationFails(t *testing.T) {
	clearWebhookEnv(t)
	s := buildSession(t, 0)

	assert.Error(t, s.Submit(context.Background(), "hallo"))
}

func TestSubmitWithoutEndpointSurfacesConfigHint(t *testing.T) {
	clearWebhookEnv(t)
	s := buildSession(t, 0)
	require.NoError(t, s.Select("tickets"))

	require.NoError(t, s.Submit(context.Background(), "ticket #42 is broken"))

	transcript := s.Transcript("tickets")
	require.Len(t, transcript, 3)

	userMsg := transcript[1]
	assert.True(t, userMsg.IsUser)
	assert.Equal(t, "ticket #42 is broken", userMsg.Content)

	botMsg := transcript[2]
	assert.False(t, botMsg.IsUser)
	assert.Contains(t, botMsg.Content, "Kein Webhook konfiguriert")
	assert.Contains(t, botMsg.Content, "WEBHOOK_URL_TICKETS")
}

func TestSubmitSuccessAppendsTrimmedReply(t *testing.T) {
	clearWebhookEnv(t)

	var gotFrage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotFrage = body["frage"]
		w.Write([]byte("  Ticket categorized as billing.\n"))
	}))
	defer server.Close()
	t.Setenv("WEBHOOK_URL_TICKETS", server.URL)

	s := buildSession(t, 0)
	require.NoError(t, s.Select("tickets"))
	require.NoError(t, s.Submit(context.Background(), "ticket #42 is broken"))

	transcript := s.Transcript("tickets")
	require.Len(t, transcript, 3)
	assert.Equal(t, "Ticket categorized as billing.", transcript[2].Content)
	assert.False(t, transcript[2].IsUser)

	// The prompt hook tagged the text and the payload named the bot.
	assert.Contains(t, gotFrage, "[TICKET_ANALYSIS] ticket #42 is broken")
	assert.Contains(t, gotFrage, "Ticket Analyzer")
}

func TestSubmitEmptyReplyUsesPlaceholder(t *testing.T) {
	clearWebhookEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	t.Setenv("WEBHOOK_URL_TICKETS", server.URL)

	s := buildSession(t, 0)
	require.NoError(t, s.Select("tickets"))
	require.NoError(t, s.Submit(context.Background(), "hallo"))

	transcript := s.Transcript("tickets")
	require.Len(t, transcript, 3)
	assert.Equal(t, relay.NoReplyPlaceholder, transcript[2].Content)
	assert.NotEmpty(t, transcript[2].Content)
}

func TestSubmitTimeoutSurfacesFailure(t *testing.T) {
	clearWebhookEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()
	t.Setenv("WEBHOOK_URL_TICKETS", server.URL)

	s := buildSession(t, 50*time.Millisecond)
	require.NoError(t, s.Select("tickets"))
	require.NoError(t, s.Submit(context.Background(), "langsam?"))

	transcript := s.Transcript("tickets")
	require.Len(t, transcript, 3)
	assert.Contains(t, transcript[2].Content, "❌ Anfrage fehlgeschlagen")

	// Transcript stays well-formed after the failure.
	for i, message := range transcript {
		assert.Equal(t, i+1, message.ID)
	}
}

func TestSubmitAlwaysAppendsExactlyTwo(t *testing.T) {
	clearWebhookEnv(t)
	s := buildSession(t, 0)
	require.NoError(t, s.Select("tickets"))

	// No endpoint configured: failures still append a user and an
	// assistant message, and never block the next submit.
	require.NoError(t, s.Submit(context.Background(), "erste"))
	require.NoError(t, s.Submit(context.Background(), "zweite"))

	transcript := s.Transcript("tickets")
	require.Len(t, transcript, 5)
	for i, message := range transcript {
		assert.Equal(t, i+1, message.ID)
	}
	assert.True(t, transcript[1].IsUser)
	assert.False(t, transcript[2].IsUser)
	assert.True(t, transcript[3].IsUser)
	assert.False(t, transcript[4].IsUser)
}

func TestMessageTimestampsUseClock(t *testing.T) {
	clearWebhookEnv(t)
	s := buildSession(t, 0)
	fixed := time.Date(2024, 5, 17, 14, 30, 45, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Select("tickets"))

	transcript := s.Transcript("tickets")
	require.Len(t, transcript, 1)
	assert.Equal(t, "14:30:45", transcript[0].Timestamp)
}

func TestTranscriptsAreIndependentPerBot(t *testing.T) {
	clearWebhookEnv(t)
	s := buildSession(t, 0)

	require.NoError(t, s.Select("tickets"))
	require.NoError(t, s.Submit(context.Background(), "ticket frage"))
	s.Back()

	require.NoError(t, s.Select("assistant"))
	assert.Len(t, s.Transcript("assistant"), 1)
	assert.Len(t, s.Transcript("tickets"), 3)
}

func TestArchiveLatestPostsReplyToSideChannel(t *testing.T) {
	clearWebhookEnv(t)

	replyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hier ist die Doku."))
	}))
	defer replyServer.Close()

	var archived map[string]string
	archiveServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&archived))
	}))
	defer archiveServer.Close()

	t.Setenv("WEBHOOK_URL_DOCUMENTATION", replyServer.URL)
	t.Setenv(ArchiveWebhookKey, archiveServer.URL)

	s := buildSession(t, 0)
	require.NoError(t, s.Select("documentation"))
	require.NoError(t, s.Submit(context.Background(), "wo ist die API-Doku?"))
	require.NoError(t, s.ArchiveLatest(context.Background()))

	assert.Equal(t, "add_to_doku", archived["bottype"])
	assert.Equal(t, "Hier ist die Doku.", archived["content"])

	// The side channel never touches the transcript.
	assert.Len(t, s.Transcript("documentation"), 3)
}

func TestArchiveLatestRequiresArchiveBot(t *testing.T) {
	clearWebhookEnv(t)
	s := buildSession(t, 0)
	require.NoError(t, s.Select("tickets"))

	assert.Error(t, s.ArchiveLatest(context.Background()))
}
