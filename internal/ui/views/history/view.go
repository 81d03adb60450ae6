package history

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	journeydto "shiftbuddy/internal/modules/journey/dto"
	"shiftbuddy/internal/ui/theme"
)

const historyLimit = 50

type Port interface {
	History(ctx context.Context, limit int) ([]journeydto.TrackEntryOutput, error)
}

type LoadedMsg struct {
	Entries []journeydto.TrackEntryOutput
	Err     error
}

type entryItem struct {
	entry journeydto.TrackEntryOutput
}

func (i entryItem) Title() string { return i.entry.Step }
func (i entryItem) Description() string {
	updated := "-"
	if !i.entry.UpdatedAt.IsZero() {
		updated = i.entry.UpdatedAt.Local().Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%s  updated %s", i.entry.Status, updated)
}
func (i entryItem) FilterValue() string { return i.entry.Step + " " + i.entry.Status }

// Model lists the slot-track rows recorded by the last applied refresh.
type Model struct {
	port Port
	list list.Model
	err  error
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Slot track"
	l.Styles.Title = theme.Title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	return Model{port: port, list: l}
}

func (m Model) Init() tea.Cmd { return m.Reload() }

// Reload queries the track history again.
func (m Model) Reload() tea.Cmd {
	if m.port == nil {
		return nil
	}
	port := m.port
	return func() tea.Msg {
		entries, err := port.History(context.Background(), historyLimit)
		return LoadedMsg{Entries: entries, Err: err}
	}
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
	case LoadedMsg:
		m.err = msg.Err
		items := make([]list.Item, 0, len(msg.Entries))
		for _, e := range msg.Entries {
			items = append(items, entryItem{entry: e})
		}
		return m, m.list.SetItems(items)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.err != nil {
		return theme.Title.Render("Slot track") + "\n\n" + theme.Muted.Render(m.err.Error())
	}
	return m.list.View()
}
