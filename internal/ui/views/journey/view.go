package journey

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	journeydto "shiftbuddy/internal/modules/journey/dto"
	"shiftbuddy/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

// Port is the minimal interface this view needs from the journey use-case.
type Port interface {
	Current(ctx context.Context) (journeydto.JourneyOutput, error)
	Refresh(ctx context.Context) (journeydto.RefreshOutput, error)
	Confirm(ctx context.Context) (journeydto.RefreshOutput, error)
	Upload(ctx context.Context, flag string) (journeydto.JourneyOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// LoadedMsg carries the journey after a local read or mutation.
type LoadedMsg struct {
	Journey journeydto.JourneyOutput
	Err     error
}

// RefreshedMsg carries the result of a slot-track refresh or confirmation.
type RefreshedMsg struct {
	Result journeydto.RefreshOutput
	Err    error
}

var stepperLabels = [...]string{"Start Journey", "Reach", "Start Shift", "Process", "End"}

// uploadFlags maps the available upload to the flag it sets.
var uploadFlags = map[string]string{
	"odometer_photo":    "odometer_uploaded",
	"destination_image": "image_uploaded",
	"consent_form":      "consent_form_uploaded",
	"progress_note":     "progress_note_uploaded",
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port     Port
	journey  journeydto.JourneyOutput
	loaded   bool
	loading  bool
	lastErr  error
	spinner  spinner.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer
	width    int
	height   int
}

func New(port Port) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	r, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(0),
	)
	return Model{port: port, spinner: sp, viewport: viewport.New(0, 0), renderer: r}
}

func (m Model) Init() tea.Cmd {
	if m.port == nil {
		return nil
	}
	return m.currentCmd()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.viewport.SetContent(m.renderSummary())

	case LoadedMsg:
		m.loading = false
		m.lastErr = msg.Err
		if msg.Err == nil {
			m.journey = msg.Journey
			m.loaded = true
		}
		m.viewport.SetContent(m.renderSummary())

	case RefreshedMsg:
		m.loading = false
		m.lastErr = msg.Err
		// Failed and stale results still carry the state the service kept.
		if msg.Result.Journey.SlotID != "" {
			m.journey = msg.Result.Journey
			m.loaded = true
		}
		m.viewport.SetContent(m.renderSummary())

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var vCmd tea.Cmd
	m.viewport, vCmd = m.viewport.Update(msg)
	cmds = append(cmds, vCmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.loaded {
		if m.loading {
			return m.spinner.View() + " Loading journey…"
		}
		hint := "No active journey. Start one with `shiftbuddy journey start <slot-id>`."
		if m.lastErr != nil {
			hint = "Journey unavailable: " + m.lastErr.Error()
		}
		return theme.Title.Render("Journey") + "\n\n" + theme.Muted.Render(hint)
	}

	header := theme.Title.Render("Slot "+m.journey.SlotID) + "  " + theme.Muted.Render(m.journey.StepLabel)
	if m.loading {
		header += "  " + m.spinner.View()
	}
	actions := m.renderActions()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		theme.Pane.Render(m.renderStepper()),
		theme.Pane.Render(m.renderFlags()),
	)
	used := lipgloss.Height(header) + lipgloss.Height(body) + lipgloss.Height(actions)
	vp := m.viewport
	vp.Height = max(m.height-used-1, 1)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, actions, vp.View())
}

// Journey returns the last journey the view displayed.
func (m Model) Journey() (journeydto.JourneyOutput, bool) {
	return m.journey, m.loaded
}

// Refresh re-derives the journey from the slot track.
func (m *Model) Refresh() tea.Cmd {
	if m.port == nil {
		return nil
	}
	m.loading = true
	port := m.port
	return tea.Batch(func() tea.Msg {
		out, err := port.Refresh(context.Background())
		return RefreshedMsg{Result: out, Err: err}
	}, m.spinner.Tick)
}

// Confirm completes the current step; it is a no-op while the action is disabled.
func (m *Model) Confirm() tea.Cmd {
	if m.port == nil || !m.loaded || !m.journey.ConfirmEnabled || m.loading {
		return nil
	}
	m.loading = true
	port := m.port
	return tea.Batch(func() tea.Msg {
		out, err := port.Confirm(context.Background())
		return RefreshedMsg{Result: out, Err: err}
	}, m.spinner.Tick)
}

// Upload records the upload offered at the current step, if any.
func (m Model) Upload() tea.Cmd {
	flag, ok := uploadFlags[m.journey.AvailableUpload]
	if m.port == nil || !m.loaded || !ok {
		return nil
	}
	port := m.port
	return func() tea.Msg {
		out, err := port.Upload(context.Background(), flag)
		return LoadedMsg{Journey: out, Err: err}
	}
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	m.viewport.Width = m.width
	if r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(m.width),
	); err == nil {
		m.renderer = r
	}
}

func (m Model) currentCmd() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		out, err := port.Current(context.Background())
		return LoadedMsg{Journey: out, Err: err}
	}
}

func (m Model) renderStepper() string {
	var sb strings.Builder
	for i, label := range stepperLabels {
		switch {
		case m.journey.Finished || i < m.journey.StepperPosition:
			sb.WriteString(theme.Done.Render("✔ " + label))
		case i == m.journey.StepperPosition:
			sb.WriteString(theme.Hot.Render("● " + label))
		default:
			sb.WriteString(theme.Muted.Render("○ " + label))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderFlags() string {
	f := m.journey.Flags
	rows := []struct {
		label string
		on    bool
	}{
		{"odometer uploaded", f.OdometerUploaded},
		{"destination reached", f.DestinationReached},
		{"image uploaded", f.ImageUploaded},
		{"consent form uploaded", f.ConsentFormUploaded},
		{"treatment started", f.TreatmentStarted},
		{"progress note uploaded", f.ProgressNoteUploaded},
		{"feedback submitted", f.FeedbackSubmitted},
	}
	var sb strings.Builder
	for _, r := range rows {
		mark := theme.Muted.Render("[ ] ")
		if r.on {
			mark = theme.Done.Render("[x] ")
		}
		sb.WriteString(mark + r.label + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderActions() string {
	confirm := theme.Muted.Render("confirm (c): disabled")
	if m.journey.ConfirmEnabled {
		confirm = theme.Hot.Render("confirm (c)")
	}
	upload := theme.Muted.Render("upload (u): none")
	if m.journey.AvailableUpload != "" {
		upload = theme.Hot.Render("upload (u): " + strings.ReplaceAll(m.journey.AvailableUpload, "_", " "))
	}
	line := confirm + "   " + upload + "   " + theme.Muted.Render("refresh (r)")
	if m.lastErr != nil {
		line += "\n" + theme.Error.Render(m.lastErr.Error())
	}
	return line
}

func (m Model) renderSummary() string {
	if !m.loaded {
		return ""
	}
	j := m.journey
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", j.StepLabel)
	fmt.Fprintf(&sb, "- **Slot:** %s\n", j.SlotID)
	fmt.Fprintf(&sb, "- **Step:** %d of 5 (`%s`)\n", j.Step, j.StepKey)
	if !j.RefreshedAt.IsZero() {
		fmt.Fprintf(&sb, "- **Last refresh:** %s\n", j.RefreshedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if j.Finished {
		sb.WriteString("\nAll steps are confirmed. Thanks for the feedback.\n")
	} else if j.Step == 4 {
		sb.WriteString("\nSubmit feedback from the palette to finish: `journey:feedback <1-5> [comment]`.\n")
	}
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(sb.String()); err == nil {
			return rendered
		}
	}
	return sb.String()
}
