// Package ui provides the interactive terminal picker used to choose a
// stream variant or a history entry.
package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("205")).
			Foreground(lipgloss.Color("205")).
			Padding(0, 0, 0, 1)
)

// item is a plain display string backed by its index.
type item struct {
	label string
}

func (i item) Title() string       { return i.label }
func (i item) Description() string { return "" }
func (i item) FilterValue() string { return i.label }

type model struct {
	list      list.Model
	choice    int
	cancelled bool
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			m.choice = m.list.Index()
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	return m.list.View()
}

// Select presents items and returns the chosen index. Cancelling the
// picker is an error so callers abort cleanly.
func Select(title string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}

	listItems := make([]list.Item, len(items))
	for i, it := range items {
		listItems[i] = item{label: it}
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)
	delegate.Styles.SelectedTitle = selectedStyle

	l := list.New(listItems, delegate, 0, 0)
	l.Title = title
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)

	p := tea.NewProgram(model{list: l, choice: -1}, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return -1, fmt.Errorf("running picker: %w", err)
	}

	m := final.(model)
	if m.cancelled || m.choice < 0 {
		return -1, fmt.Errorf("selection cancelled")
	}
	return m.choice, nil
}
