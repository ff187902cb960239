// Package tui renders the dashboard and chat views. It consumes the
// session's public state only and pushes exactly three events into it:
// select, back, and submit.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"botboard/internal/bots"
	"botboard/internal/hub"
	"botboard/internal/relay"
	"botboard/internal/utils"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Padding(1, 2)
	chatFrameDepth = 7
)

type submitDoneMsg struct{}

type archiveDoneMsg struct {
	err error
}

type model struct {
	session *hub.Session
	logger  *utils.Logger
	ctx     context.Context

	width  int
	height int

	botList list.Model
	chat    viewport.Model
	input   textarea.Model
	spinner spinner.Model
	keys    keyMap
	help    help.Model

	sending     bool
	pendingText string
	status      string
	statusIsErr bool
	showHelp    bool
}

// Run starts the dashboard for one interactive session.
func Run(cfg *hub.Config, registry *bots.Registry, logger *utils.Logger) error {
	rel := relay.New(cfg.Relay.Timeout, logger)
	session := hub.NewSession(registry, rel, logger)

	p := tea.NewProgram(newModel(session, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newModel(session *hub.Session, logger *utils.Logger) model {
	botList := list.New(buildBotItems(session.Bots()), list.NewDefaultDelegate(), 0, 0)
	botList.Title = "Chatbot Dashboard"
	botList.SetShowStatusBar(false)
	botList.SetFilteringEnabled(true)
	botList.SetShowHelp(false)

	input := textarea.New()
	input.Placeholder = "Schreibe eine Nachricht..."
	input.Prompt = ""
	input.ShowLineNumbers = false
	input.SetHeight(3)
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = dimStyle

	return model{
		session: session,
		logger:  logger,
		ctx:     context.Background(),
		botList: botList,
		chat:    viewport.New(0, 0),
		input:   input,
		spinner: spin,
		keys:    defaultKeyMap,
		help:    help.New(),
	}
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.botList.SetSize(msg.Width, msg.Height-2)
		m.chat.Width = msg.Width
		m.chat.Height = msg.Height - chatFrameDepth
		m.input.SetWidth(msg.Width - 4)
		// While a delivery is in flight the submit goroutine owns the
		// session; re-rendering waits for submitDoneMsg.
		if !m.sending {
			m.syncChat()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submitDoneMsg:
		m.sending = false
		m.pendingText = ""
		m.input.Reset()
		m.syncChat()
		return m, nil

	case archiveDoneMsg:
		if msg.err != nil {
			m.status = "Archivieren fehlgeschlagen: " + msg.err.Error()
			m.statusIsErr = true
		} else {
			m.status = "Antwort zur Dokumentation hinzugefügt"
			m.statusIsErr = false
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Help) && m.session.View() == hub.ViewListing && !m.botList.SettingFilter() {
			m.showHelp = !m.showHelp
			return m, nil
		}
		if m.session.View() == hub.ViewListing {
			return m.updateListing(msg)
		}
		return m.updateConversation(msg)
	}

	return m, nil
}

func (m model) updateListing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Select) && !m.botList.SettingFilter() {
		item, ok := m.botList.SelectedItem().(botItem)
		if !ok {
			return m, nil
		}
		if err := m.session.Select(item.bot.ID); err != nil {
			m.logger.Errorf("select failed: %v", err)
			return m, nil
		}
		m.status = ""
		m.input.Reset()
		m.input.Focus()
		m.syncChat()
		return m, textarea.Blink
	}

	var cmd tea.Cmd
	m.botList, cmd = m.botList.Update(msg)
	return m, cmd
}

func (m model) updateConversation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// One in-flight delivery at a time: the next submit is accepted only
	// after both appends have landed.
	if m.sending {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.session.Back()
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.Archive):
		bot, ok := m.session.ActiveBot()
		if !ok || !bot.HasArchive {
			return m, nil
		}
		return m, m.archiveCmd()

	case key.Matches(msg, m.keys.Send):
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			m.input.Reset()
			return m, nil
		}
		m.sending = true
		m.pendingText = text
		m.status = ""
		m.syncChat()
		return m, tea.Batch(m.submitCmd(text), m.spinner.Tick)
	}

	switch msg.String() {
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitCmd runs the synchronous submit off the event loop. The session is
// not touched again until submitDoneMsg arrives.
func (m model) submitCmd(text string) tea.Cmd {
	session := m.session
	logger := m.logger
	ctx := m.ctx
	return func() tea.Msg {
		if err := session.Submit(ctx, text); err != nil {
			logger.Errorf("submit failed: %v", err)
		}
		return submitDoneMsg{}
	}
}

func (m model) archiveCmd() tea.Cmd {
	session := m.session
	ctx := m.ctx
	return func() tea.Msg {
		return archiveDoneMsg{err: session.ArchiveLatest(ctx)}
	}
}

func (m *model) syncChat() {
	bot, ok := m.session.ActiveBot()
	if !ok {
		return
	}

	width := m.chat.Width
	if width <= 0 {
		width = 80
	}

	var blocks []string
	for _, message := range m.session.Transcript(bot.ID) {
		rendered := bot.RenderMessage(message.Content, message.IsUser, message.Timestamp)
		rendered = ansi.Wrap(rendered, width, "")
		if message.IsUser {
			rendered = userStyle.Render(rendered)
		}
		blocks = append(blocks, rendered)
	}
	// The pending bubble carries no timestamp; the session stamps the
	// message itself when the append lands.
	if m.sending && m.pendingText != "" {
		pending := bot.RenderMessage(m.pendingText, true, "")
		blocks = append(blocks, userStyle.Render(ansi.Wrap(pending, width, "")))
	}

	m.chat.SetContent(strings.Join(blocks, "\n\n"))
	m.chat.GotoBottom()
}

func (m model) View() string {
	if m.session.View() == hub.ViewListing {
		return m.viewListing()
	}
	return m.viewConversation()
}

func (m model) viewListing() string {
	if len(m.session.Bots()) == 0 {
		notice := noticeStyle.Render("Keine Bots gefunden. Füge neue Bots unter internal/bots hinzu.")
		return notice + "\n" + m.help.View(m.keys)
	}
	view := m.botList.View()
	if m.showHelp {
		return view + "\n" + m.help.View(m.keys)
	}
	return view + "\n" + dimStyle.Render("enter: open chat • ?: help • ctrl+c: quit")
}

func (m model) viewConversation() string {
	bot, ok := m.session.ActiveBot()
	if !ok {
		return ""
	}

	header := titleStyle.Foreground(lipgloss.Color(bot.Color)).Render(bot.Emoji+" "+bot.Name) +
		"\n" + dimStyle.Render(bot.Description)

	var footer string
	if m.sending {
		footer = m.spinner.View() + dimStyle.Render(" warte auf Antwort...")
	} else {
		footer = inputBoxStyle.Render(m.input.View())
	}

	var statusLine string
	if m.status != "" {
		if m.statusIsErr {
			statusLine = errStyle.Render(m.status)
		} else {
			statusLine = okStyle.Render(m.status)
		}
	}

	parts := []string{header, m.chat.View(), footer}
	if statusLine != "" {
		parts = append(parts, statusLine)
	}
	parts = append(parts, dimStyle.Render(fmt.Sprintf("esc: dashboard • enter: send%s • ctrl+c: quit", archiveHintFor(bot))))
	return strings.Join(parts, "\n")
}

func archiveHintFor(bot *bots.Bot) string {
	if bot.HasArchive {
		return " • ctrl+a: archive"
	}
	return ""
}
