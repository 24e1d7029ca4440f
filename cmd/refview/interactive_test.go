package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/refptr/registry"
)

func typeLine(m *interactiveModel, line string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(line)})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestInteractiveModel(t *testing.T) {
	s := newSession(registry.New(registry.WithName("tui")))
	m := newInteractiveModel(s)

	typeLine(m, "new conn")
	require.NoError(t, m.err)
	assert.Equal(t, "s1 -> #1 conn", m.result)
	assert.Empty(t, m.input.Value())

	typeLine(m, "weak s1")
	view := m.View()
	assert.Contains(t, view, "tui")
	assert.Contains(t, view, "s1  #1 conn  count=1")
	assert.Contains(t, view, "w1  live count=1")

	typeLine(m, "drop s1")
	view = m.View()
	assert.Contains(t, view, "w1  expired")
	assert.Contains(t, view, "#1 conn destroyed")

	typeLine(m, "bogus")
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "Error: unknown command")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	require.NoError(t, s.close())
}
