package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/messages"
)

func press(v *View, s string) tea.Cmd {
	var msg tea.KeyMsg
	switch s {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	_, cmd := v.Update(msg)
	return cmd
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil)

	require.NotNil(t, v)
	assert.Equal(t, 0, v.Selected())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_Render(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(80, 24)

	out := v.View()
	assert.Contains(t, out, "kbquery")
	assert.Contains(t, out, "Ask")
	assert.Contains(t, out, "Index status")
	assert.Contains(t, out, "> 1.")
	assert.Contains(t, out, "health, history and reindex")
}

func TestView_Navigation(t *testing.T) {
	v := NewView(nil, nil)

	press(v, "up")
	assert.Equal(t, 3, v.Selected(), "wraps to the last entry")

	press(v, "j")
	assert.Equal(t, 0, v.Selected(), "wraps to the first entry")

	press(v, "down")
	press(v, "down")
	assert.Equal(t, 2, v.Selected())

	press(v, "k")
	assert.Equal(t, 1, v.Selected())
}

func TestView_DigitJumps(t *testing.T) {
	v := NewView(nil, nil)

	cmd := press(v, "2")
	require.NotNil(t, cmd)
	assert.Equal(t, 1, v.Selected())
	assert.Equal(t, messages.ViewChanged{View: messages.ViewStatus}, cmd())

	assert.Nil(t, press(v, "9"))
	assert.Equal(t, 1, v.Selected())
}

func TestView_SelectNavigates(t *testing.T) {
	tests := []struct {
		downs int
		want  messages.ViewType
	}{
		{0, messages.ViewSearch},
		{1, messages.ViewStatus},
		{2, messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			v := NewView(nil, nil)
			for range tt.downs {
				press(v, "down")
			}

			cmd := press(v, "enter")
			require.NotNil(t, cmd)
			msg, ok := cmd().(messages.ViewChanged)
			require.True(t, ok)
			assert.Equal(t, tt.want, msg.View)
		})
	}
}

func TestView_QuitItem(t *testing.T) {
	v := NewView(nil, nil)
	for range 3 {
		press(v, "down")
	}

	cmd := press(v, "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestView_QKeyQuits(t *testing.T) {
	v := NewView(nil, nil)

	cmd := press(v, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
