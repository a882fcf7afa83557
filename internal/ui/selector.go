package ui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/list"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/idlab-discover/tinynas-cli/internal/apperr"
)

// DescriptionItem is one architecture description offered by the selector.
type DescriptionItem struct {
	Path    string
	Name    string
	Layers  int
	Detect  string
	ModTime time.Time
}

func (i DescriptionItem) Title() string { return i.Name }

func (i DescriptionItem) Description() string {
	parts := []string{}
	if i.Layers > 0 {
		parts = append(parts, fmt.Sprintf("%d layers", i.Layers))
	}
	if i.Detect != "" {
		parts = append(parts, "detect "+i.Detect)
	}
	if !i.ModTime.IsZero() {
		parts = append(parts, i.ModTime.Format("2006-01-02 15:04"))
	}
	return Dim.Render(strings.Join(parts, " · "))
}

func (i DescriptionItem) FilterValue() string { return i.Name }

type descriptionSelectorModel struct {
	list      list.Model
	choice    string
	quitting  bool
	confirmed bool
}

// NewDescriptionSelector creates the interactive picker over generated descriptions.
func NewDescriptionSelector(items []DescriptionItem) *descriptionSelectorModel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorHighlight).
		BorderForeground(ColorPrimary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorTextDim).
		BorderForeground(ColorPrimary)

	listItems := make([]list.Item, len(items))
	for i, it := range items {
		listItems[i] = it
	}

	l := list.New(listItems, delegate, 80, 20)
	l.Title = "Select an architecture description"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0, 1, 0)

	return &descriptionSelectorModel{list: l}
}

func (m *descriptionSelectorModel) Init() tea.Cmd { return nil }

func (m *descriptionSelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Filter input owns the keyboard while active.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if i, ok := m.list.SelectedItem().(DescriptionItem); ok {
				m.choice = i.Path
				m.confirmed = true
			}
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-4)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *descriptionSelectorModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().Foreground(ColorTextDim)
	b.WriteString(helpStyle.Render("↑/↓: navigate · /: filter · enter: train · esc: cancel"))
	return tea.NewView(b.String())
}

// RunDescriptionSelector runs the picker and returns the chosen path.
func RunDescriptionSelector(items []DescriptionItem) (string, error) {
	if len(items) == 0 {
		return "", apperr.User("no architecture descriptions found")
	}
	p := tea.NewProgram(NewDescriptionSelector(items))
	m, err := p.Run()
	if err != nil {
		return "", err
	}

	model := m.(*descriptionSelectorModel)
	if !model.confirmed {
		return "", apperr.ErrCancelled
	}
	return model.choice, nil
}
