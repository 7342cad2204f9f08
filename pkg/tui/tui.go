// Package tui provides the terminal control panel for midikeys
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cpayne/midikeys/pkg/session"
	"github.com/cpayne/midikeys/pkg/timeline"
)

var (
	ivoryWhite = lipgloss.Color("#F8F8F0")
	keyGold    = lipgloss.Color("#FFD700")
	deepBlue   = lipgloss.Color("#1E3A8A")
	mutedGray  = lipgloss.Color("#666666")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ivoryWhite).
			Background(deepBlue).
			Padding(0, 2).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(ivoryWhite).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(keyGold).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(keyGold).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateBrowse State = iota
	StateParsing
	StateReady
)

// focus targets within the ready panel
const (
	focusNone = iota
	focusChordGap
	focusNoteGap
)

// Model represents the TUI model
type Model struct {
	state        State
	ctl          *session.Controller
	statusCh     chan session.Status
	filePicker   filepicker.Model
	spinner      spinner.Model
	chordInput   textinput.Model
	noteInput    textinput.Model
	focus        int
	selectedFile string
	eventCount   int
	statusLine   string
	err          error
	width        int
	height       int
}

// statusMsg carries a controller notification into the update loop.
type statusMsg session.Status

// New creates a new TUI model around ctl. Status notifications must be
// routed into statusCh by the controller's notify callback.
func New(ctl *session.Controller, statusCh chan session.Status) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".mid", ".midi"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(keyGold)

	chord := textinput.New()
	chord.Placeholder = fmt.Sprintf("%g", timeline.DefaultChordGap)
	chord.CharLimit = 8
	chord.Width = 8

	note := textinput.New()
	note.Placeholder = fmt.Sprintf("%g", timeline.DefaultNoteGap)
	note.CharLimit = 8
	note.Width = 8

	return Model{
		state:      StateBrowse,
		ctl:        ctl,
		statusCh:   statusCh,
		filePicker: fp,
		spinner:    s,
		chordInput: chord,
		noteInput:  note,
		statusLine: "select a MIDI file",
	}
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.filePicker.Init(), m.waitForStatus())
}

func (m Model) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		return statusMsg(<-m.statusCh)
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMsg:
		return m.updateStatus(session.Status(msg))
	}

	switch m.state {
	case StateBrowse:
		return m.updateBrowse(msg)
	case StateParsing:
		// The parse may block on a pathological file; quitting must
		// still work while it runs.
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "q", "ctrl+c":
				m.ctl.Stop()
				return m, tea.Quit
			}
		}
	case StateReady:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			return m.updateReady(keyMsg)
		}
	}

	return m, nil
}

func (m Model) updateStatus(s session.Status) (tea.Model, tea.Cmd) {
	switch s.Kind {
	case session.ParseStarted:
		m.statusLine = "parsing, please wait..."
	case session.ParseCompleted:
		m.state = StateReady
		m.eventCount = s.EventCount
		m.err = nil
		m.statusLine = fmt.Sprintf("parsed %d events, ready to play", s.EventCount)
	case session.ParseFailed:
		m.state = StateBrowse
		m.err = s.Err
		m.statusLine = "parse failed"
	case session.PlaybackStarted:
		m.statusLine = "playing..."
	case session.PlaybackStopped:
		m.statusLine = "playback stopped"
	}
	return m, m.waitForStatus()
}

func (m Model) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "q", "ctrl+c":
			m.ctl.Stop()
			return m, tea.Quit
		case "esc":
			if m.eventCount > 0 {
				m.state = StateReady
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.selectedFile = path
		if err := m.ctl.LoadFile(path, m.chordInput.Value(), m.noteInput.Value()); err != nil {
			m.err = err
			return m, cmd
		}
		m.state = StateParsing
		m.err = nil
		return m, tea.Batch(cmd, m.spinner.Tick)
	}

	return m, cmd
}

func (m Model) updateReady(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Interval inputs swallow keystrokes while focused.
	if m.focus != focusNone {
		switch msg.String() {
		case "esc", "enter":
			m.setFocus(focusNone)
			return m, nil
		case "tab":
			m.setFocus(m.nextFocus())
			return m, nil
		case "ctrl+c":
			m.ctl.Stop()
			return m, tea.Quit
		}
		var cmd tea.Cmd
		if m.focus == focusChordGap {
			m.chordInput, cmd = m.chordInput.Update(msg)
		} else {
			m.noteInput, cmd = m.noteInput.Update(msg)
		}
		return m, cmd
	}

	switch msg.String() {
	case "p", "enter":
		if err := m.ctl.Play(); err != nil {
			m.statusLine = err.Error()
		}
	case "s":
		m.ctl.Stop()
	case "o":
		m.state = StateBrowse
		return m, m.filePicker.Init()
	case "tab", "i":
		m.setFocus(focusChordGap)
	case "q", "ctrl+c":
		m.ctl.Stop()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) setFocus(target int) {
	m.focus = target
	m.chordInput.Blur()
	m.noteInput.Blur()
	switch target {
	case focusChordGap:
		m.chordInput.Focus()
	case focusNoteGap:
		m.noteInput.Focus()
	}
}

func (m Model) nextFocus() int {
	switch m.focus {
	case focusChordGap:
		return focusNoteGap
	default:
		return focusNone
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" MIDIKEYS "))
	s.WriteString("\n")

	switch m.state {
	case StateBrowse:
		s.WriteString(m.viewBrowse())
	case StateParsing:
		s.WriteString(m.viewParsing())
	case StateReady:
		s.WriteString(m.viewReady())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("q: quit"))

	return s.String()
}

func (m Model) viewBrowse() string {
	var s strings.Builder

	s.WriteString(labelStyle.Render("Select a MIDI file"))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s", m.err.Error())))
	}

	return s.String()
}

func (m Model) viewParsing() string {
	var s strings.Builder

	s.WriteString(fmt.Sprintf("%s Parsing %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render("  " + m.statusLine))

	return boxStyle.Render(s.String())
}

func (m Model) viewReady() string {
	var s strings.Builder

	s.WriteString(fmt.Sprintf("File:   %s\n", filepath.Base(m.selectedFile)))
	s.WriteString(fmt.Sprintf("Events: %d\n\n", m.eventCount))
	s.WriteString(fmt.Sprintf("Chord gap: %s   Note gap: %s\n", m.chordInput.View(), m.noteInput.View()))
	s.WriteString(statusStyle.Render(m.statusLine))
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("p: play • s: stop • o: open file • tab: edit gaps"))

	return boxStyle.Render(s.String())
}

// Run starts the TUI application around ctl. The returned controller
// notifications are forwarded into the program's update loop.
func Run(ctl *session.Controller, statusCh chan session.Status) error {
	p := tea.NewProgram(New(ctl, statusCh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
