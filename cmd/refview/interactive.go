package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	liveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	deadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err     error
	session *session
	result  string
	input   textinput.Model
}

func newInteractiveModel(s *session) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "new conn"
	ti.Prompt = "> "
	ti.Width = 40
	ti.Focus()
	return &interactiveModel{session: s, input: ti}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "quit" || line == "q" {
				return m, tea.Quit
			}
			m.result, m.err = m.session.exec(line)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("refview"))
	b.WriteString(" ")
	b.WriteString(m.session.reg.Name())
	b.WriteString("\n\n")

	section := func(title string, rows []string, style func(string) lipgloss.Style) {
		b.WriteString(headerStyle.Render(title))
		b.WriteString("\n")
		if len(rows) == 0 {
			b.WriteString(deadStyle.Render("  (none)"))
			b.WriteString("\n")
		}
		for _, row := range rows {
			b.WriteString("  ")
			b.WriteString(style(row).Render(row))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	byState := func(row string) lipgloss.Style {
		if strings.HasSuffix(row, "null") || strings.HasSuffix(row, "expired") {
			return deadStyle
		}
		return liveStyle
	}

	section("strong", m.session.strongRows(), byState)
	section("weak", m.session.weakRows(), byState)
	section("entries", m.session.entryRows(), func(string) lipgloss.Style { return liveStyle })

	events := m.session.events
	if len(events) > 5 {
		events = events[len(events)-5:]
	}
	section("destroyed", events, func(string) lipgloss.Style { return deadStyle })

	s := m.session.reg.Stats()
	b.WriteString(helpStyle.Render(fmt.Sprintf("live %d • created %d • destroyed %d • upgrades %d • failed %d",
		s.Live, s.Created, s.Destroyed, s.Upgrades, s.FailedUpgrades)))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	} else if m.result != "" {
		b.WriteString(resultStyle.Render(m.result))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter run • help commands • esc quit"))

	return b.String()
}

func runInteractive(s *session) error {
	p := tea.NewProgram(newInteractiveModel(s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
