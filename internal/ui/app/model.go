package app

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	journeydto "shiftbuddy/internal/modules/journey/dto"
	apperrors "shiftbuddy/internal/platform/errors"
	"shiftbuddy/internal/ui/components"
	"shiftbuddy/internal/ui/theme"
	historyview "shiftbuddy/internal/ui/views/history"
	journeyview "shiftbuddy/internal/ui/views/journey"
)

// ─── port ────────────────────────────────────────────────────────────────────

// journeyPort is everything the screen needs; the sub-views each take a
// narrower slice of it.
type journeyPort interface {
	Current(ctx context.Context) (journeydto.JourneyOutput, error)
	Refresh(ctx context.Context) (journeydto.RefreshOutput, error)
	Confirm(ctx context.Context) (journeydto.RefreshOutput, error)
	Upload(ctx context.Context, flag string) (journeydto.JourneyOutput, error)
	Feedback(ctx context.Context, rating int, comment string) (journeydto.FeedbackOutput, error)
	Reset(ctx context.Context) (journeydto.JourneyOutput, error)
	History(ctx context.Context, limit int) ([]journeydto.TrackEntryOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabJourney tabID = iota
	tabHistory
	tabCount
)

var tabLabels = [tabCount]string{"Journey", "History"}

// ─── async messages ───────────────────────────────────────────────────────────

type feedbackSentMsg struct {
	out journeydto.FeedbackOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Refresh key.Binding
	Confirm key.Binding
	Upload  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh track")),
		Confirm: key.NewBinding(key.WithKeys("c", "enter"), key.WithHelp("c", "confirm step")),
		Upload:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "record upload")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Refresh, k.Confirm, k.Upload},
		{k.Tab, k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model: tab routing, help overlay and the
// command palette. Journey logic stays behind journeyPort.
type Model struct {
	dataDir string
	port    journeyPort

	journeyView journeyview.Model
	historyView historyview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

func NewModel(dataDir string, port journeyPort) Model {
	return Model{
		dataDir:     dataDir,
		port:        port,
		journeyView: journeyview.New(port),
		historyView: historyview.New(port),
		activeTab:   tabJourney,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.journeyView.Init(), m.historyView.Init())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case journeyview.LoadedMsg:
		switch {
		case errors.Is(msg.Err, apperrors.ErrNoActiveJourney):
			m.status = "no active journey"
		case msg.Err != nil:
			m.status = "journey: " + msg.Err.Error()
		default:
			m.status = "journey at " + msg.Journey.StepLabel
		}
		var cmd tea.Cmd
		m.journeyView, cmd = m.journeyView.Update(msg)
		return m, cmd

	case journeyview.RefreshedMsg:
		m.status = refreshStatus(msg.Result, msg.Err)
		var cmd tea.Cmd
		m.journeyView, cmd = m.journeyView.Update(msg)
		return m, tea.Batch(cmd, m.historyView.Reload())

	case historyview.LoadedMsg:
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(msg)
		return m, cmd

	case feedbackSentMsg:
		if msg.err != nil {
			m.status = "feedback failed: " + msg.err.Error()
		} else {
			m.status = "feedback saved to " + msg.out.ReceiptPath
		}
		var cmd tea.Cmd
		m.journeyView, cmd = m.journeyView.Update(journeyview.LoadedMsg{Journey: msg.out.Journey, Err: msg.err})
		return m, tea.Batch(cmd, m.historyView.Reload())

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.activeTab == tabHistory && m.historyView.Filtering() {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case msg.String() == "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case msg.String() == "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Palette):
			return m, m.palette.Open()
		case key.Matches(msg, m.keys.Refresh):
			m.status = "refreshing slot track…"
			return m, m.journeyView.Refresh()
		case m.activeTab == tabJourney && key.Matches(msg, m.keys.Confirm):
			return m, m.confirm()
		case m.activeTab == tabJourney && key.Matches(msg, m.keys.Upload):
			return m, m.upload()
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabJourney:
		m.journeyView, tabCmd = m.journeyView.Update(msg)
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	}
	cmds = append(cmds, tabCmd)
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabHistory:
		content = m.historyView.View()
	default:
		content = m.journeyView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "shiftbuddy  " + strings.Join(parts, theme.Muted.Render(" │ ")) + theme.Muted.Render("  "+m.dataDir)
	return theme.Bar.Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if j, ok := m.journeyView.Journey(); ok {
		left = theme.Hot.Render("● "+j.SlotID) + "  " + left
	}
	right := theme.Muted.Render("?:help  r:refresh  :::palette  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + theme.Bar.Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	if m.port == nil {
		m.status = "journey adapter not configured"
		return m, nil
	}
	switch parts[0] {
	case "journey:refresh":
		m.status = "refreshing slot track…"
		return m, m.journeyView.Refresh()

	case "journey:confirm":
		return m, m.confirm()

	case "journey:upload":
		return m, m.upload()

	case "journey:feedback":
		if len(parts) < 2 {
			m.status = "usage: journey:feedback <1-5> [comment]"
			return m, nil
		}
		rating, err := strconv.Atoi(parts[1])
		if err != nil || rating < 1 || rating > 5 {
			m.status = "rating must be 1-5"
			return m, nil
		}
		comment := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), parts[0]+" "+parts[1]))
		return m, m.feedbackCmd(rating, comment)

	case "journey:reset":
		return m, m.resetCmd()

	case "history:reload":
		m.activeTab = tabHistory
		return m, m.historyView.Reload()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) confirm() tea.Cmd {
	j, ok := m.journeyView.Journey()
	if !ok || !j.ConfirmEnabled {
		m.status = "nothing to confirm"
		return nil
	}
	if j.Step == 4 {
		m.status = "finish with journey:feedback <1-5> [comment]"
		return m.palette.Open()
	}
	m.status = "confirming " + j.StepLabel + "…"
	return m.journeyView.Confirm()
}

func (m *Model) upload() tea.Cmd {
	cmd := m.journeyView.Upload()
	if cmd == nil {
		m.status = "no upload at this step"
	}
	return cmd
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.journeyView, _ = m.journeyView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
}

func refreshStatus(out journeydto.RefreshOutput, err error) string {
	switch {
	case err != nil:
		return "refresh failed: " + err.Error()
	case out.Outcome == journeydto.RefreshStale:
		return "refresh superseded by a newer change"
	default:
		return strconv.Itoa(out.CompletedSteps) + " of 5 steps confirmed"
	}
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) feedbackCmd(rating int, comment string) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		out, err := port.Feedback(context.Background(), rating, comment)
		return feedbackSentMsg{out: out, err: err}
	}
}

func (m Model) resetCmd() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		out, err := port.Reset(context.Background())
		return journeyview.LoadedMsg{Journey: out, Err: err}
	}
}
