package watch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattjoyce/signalhub/internal/hub"
)

const maxEventLog = 200

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	apiURL string
	apiKey string

	width  int
	height int

	// State
	health    healthMsg
	healthy   bool
	eventLog  []hub.Event
	viewport  viewport.Model
	follow    bool
	lastError string

	// UI state
	theme Theme

	// Communication
	feedEvents chan hub.Event
}

// New creates a new watch TUI model.
func New(apiURL, apiKey string) *Model {
	vp := viewport.New(80, 20)
	return &Model{
		apiURL:     apiURL,
		apiKey:     apiKey,
		eventLog:   make([]hub.Event, 0, maxEventLog),
		feedEvents: make(chan hub.Event, 100),
		viewport:   vp,
		follow:     true,
		theme:      NewDefaultTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.apiURL, m.apiKey, m.feedEvents),
		receiveNextEvent(m.feedEvents),
		func() tea.Msg { return fetchHealth(m.apiURL, m.apiKey) },
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "f":
			m.follow = !m.follow
		case "up", "k":
			m.follow = false
			m.viewport.ScrollUp(1)
		case "down", "j":
			m.viewport.ScrollDown(1)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 7
		m.refreshViewport()

	case tickMsg:
		return m, tea.Batch(
			func() tea.Msg { return fetchHealth(m.apiURL, m.apiKey) },
			tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		)

	case healthMsg:
		m.health = msg
		m.healthy = msg.Status == "ok"

	case eventMsg:
		m.eventLog = append(m.eventLog, hub.Event(msg))
		if len(m.eventLog) > maxEventLog {
			m.eventLog = m.eventLog[len(m.eventLog)-maxEventLog:]
		}
		m.refreshViewport()
		return m, receiveNextEvent(m.feedEvents)

	case sseDisconnectedMsg:
		m.lastError = "event stream disconnected, retrying..."
		return m, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
			return subscribeToEvents(m.apiURL, m.apiKey, m.feedEvents)()
		})

	case errMsg:
		m.lastError = msg.Error()
	}

	return m, nil
}

func (m *Model) refreshViewport() {
	var lines []string
	for _, e := range m.eventLog {
		lines = append(lines, formatEvent(e, m.theme))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m Model) View() string {
	header := m.renderHeader()
	stream := m.theme.Border.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("EVENT STREAM"),
		m.viewport.View(),
	))

	footer := m.theme.Dim.Render("  q quit · f follow · j/k scroll")
	if m.lastError != "" {
		footer = m.theme.StatusFailed.Render("  " + m.lastError)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, stream, footer)
}

func (m Model) renderHeader() string {
	status := m.theme.StatusFailed.Render("●  unreachable")
	if m.healthy {
		status = m.theme.StatusOK.Render("●  ok")
	}

	info := fmt.Sprintf("signals %d · subscribers %d · executor %s · journal %d · up %s",
		m.health.Signals,
		m.health.Subscribers,
		m.health.ExecutorState,
		m.health.JournalDepth,
		(time.Duration(m.health.UptimeSeconds) * time.Second).String(),
	)

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		m.theme.Title.Render("SIGNALHUB "),
		status,
		m.theme.Dim.Render("   "+info),
	)
	return m.theme.Border.Width(m.width - 2).Render(content)
}

func formatEvent(e hub.Event, theme Theme) string {
	ts := theme.Dim.Render(e.At.Format("15:04:05"))

	// Color the event type based on category
	var typeStyle lipgloss.Style
	switch {
	case strings.HasSuffix(e.Type, ".completed"):
		typeStyle = theme.StatusOK
	case strings.HasSuffix(e.Type, ".failed"):
		typeStyle = theme.StatusFailed
	case strings.HasSuffix(e.Type, ".submitted"):
		typeStyle = theme.StatusAsync
	default:
		typeStyle = theme.Dim
	}

	typeName := typeStyle.Render(fmt.Sprintf("%-20s", e.Type))
	desc := extractEventDesc(e)

	return fmt.Sprintf("%s %s %s", ts, typeName, desc)
}

func extractEventDesc(e hub.Event) string {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)

	var parts []string

	if id, ok := data["emission_id"].(string); ok {
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, fmt.Sprintf("[%s]", id))
	}

	if sig, ok := data["signal"].(string); ok {
		parts = append(parts, sig)
	}

	if subs, ok := data["subscribers"].(float64); ok {
		parts = append(parts, fmt.Sprintf("subs=%d", int(subs)))
	}

	if outcome, ok := data["outcome"].(string); ok {
		parts = append(parts, outcome)
	}

	if len(parts) == 0 {
		raw := string(e.Data)
		if len(raw) > 60 {
			raw = raw[:60] + "..."
		}
		return raw
	}

	return strings.Join(parts, " ")
}
