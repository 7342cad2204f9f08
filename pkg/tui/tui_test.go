package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cpayne/midikeys/pkg/session"
)

// discardSink swallows all key actions.
type discardSink struct{}

func (discardSink) Press(string)   {}
func (discardSink) Release(string) {}

func quits(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestQuitWhileParsing(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
	}{
		{"q", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statusCh := make(chan session.Status, 8)
			ctl := session.New(discardSink{})
			m := New(ctl, statusCh)
			m.state = StateParsing

			_, cmd := m.Update(tt.key)
			if !quits(cmd) {
				t.Errorf("key %q during parse did not quit", tt.name)
			}
		})
	}
}

func TestQuitFromBrowse(t *testing.T) {
	statusCh := make(chan session.Status, 8)
	ctl := session.New(discardSink{})
	m := New(ctl, statusCh)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !quits(cmd) {
		t.Error("ctrl+c in browse state did not quit")
	}
}
