package ui

import (
	"fmt"
	"strings"

	"github.com/0xlemi/semitune/internal/dispatch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const gaugeWidth = 25

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	flatStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF"))
	sharpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF5F"))
	inTuneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)

	// Note colors
	noteColors = map[string]string{
		"C": "#E8D6B0", // Beige
		"D": "#A020F0", // Purple
		"E": "#FFFF00", // Yellow
		"F": "#FFA500", // Orange
		"G": "#00FF00", // Green
		"A": "#FF0000", // Red
		"B": "#0000FF", // Blue
	}
)

// Get the next natural note (for sharp note colors)
func getNextNote(note string) string {
	switch note {
	case "C":
		return "D"
	case "D":
		return "E"
	case "E":
		return "F"
	case "F":
		return "G"
	case "G":
		return "A"
	case "A":
		return "B"
	default:
		return "C"
	}
}

// Controller is the start/stop control surface
type Controller interface {
	// Toggle starts or stops tuning and reports whether it is now running
	Toggle() (bool, error)
}

// ControllerFunc adapts a function to Controller
type ControllerFunc func() (bool, error)

// Toggle calls f()
func (f ControllerFunc) Toggle() (bool, error) { return f() }

// toggledMsg reports the outcome of a start/stop request
type toggledMsg struct {
	running bool
	err     error
}

// Model represents the UI state
type Model struct {
	panel      Panel
	sink       *Sink
	controller Controller
	running    bool
	toggling   bool
	err        error

	last        dispatch.Stamp // Newest update applied
	closedEpoch uint64         // Updates from this epoch or older are stale
	hasSignal   bool
	width       int
	height      int
}

// NewModel creates a UI model reading updates from sink
func NewModel(sink *Sink, controller Controller) Model {
	return Model{
		panel:      NewPanel(),
		sink:       sink,
		controller: controller,
	}
}

// Panel returns the current display state
func (m Model) Panel() Panel {
	return m.panel
}

// Running reports whether the model believes tuning is active
func (m Model) Running() bool {
	return m.running
}

// Init starts listening for updates and starts tuning
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.sink.Wait(), m.toggle())
}

func (m Model) toggle() tea.Cmd {
	if m.controller == nil {
		return nil
	}
	return func() tea.Msg {
		running, err := m.controller.Toggle()
		return toggledMsg{running: running, err: err}
	}
}

// accept reports whether an update stamped s is newer than what is shown
func (m Model) accept(s dispatch.Stamp) bool {
	if s.Epoch <= m.closedEpoch {
		return false
	}
	return !s.Before(m.last)
}

// Update updates the UI model based on messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "s":
			if m.toggling {
				return m, nil
			}
			m.toggling = true
			return m, m.toggle()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case toggledMsg:
		m.toggling = false
		m.running = msg.running
		m.err = msg.err

	case ResultMsg:
		if m.accept(msg.Stamp) {
			m.last = msg.Stamp
			m.hasSignal = true
			ShowResult(&m.panel, msg.Result)
		}
		return m, m.sink.Wait()

	case NoSignalMsg:
		if m.accept(msg.Stamp) {
			m.last = msg.Stamp
			m.hasSignal = false
			ShowNoSignal(&m.panel)
		}
		return m, m.sink.Wait()

	case IdleMsg:
		m.closedEpoch = max(m.closedEpoch, msg.Epoch)
		m.hasSignal = false
		ShowIdle(&m.panel)
		return m, m.sink.Wait()
	}

	return m, nil
}

// renderNote draws the note box; sharps get split colors
func renderNote(text string) string {
	name, octave, ok := strings.Cut(text, " ")
	if !ok || name == "" || noteColors[name[:1]] == "" {
		return infoStyle.Bold(true).Render(text)
	}
	octave = strings.Trim(octave, "()")
	base := name[:1]

	if !strings.Contains(name, "#") {
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color(noteColors[base])).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333")).
			Padding(2, 4).
			Render(base + octave)
	}

	leftStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[base])).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		BorderLeft(true).
		BorderTop(true).
		BorderBottom(true).
		BorderRight(false).
		Padding(2, 1, 2, 2)

	rightStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[getNextNote(base)])).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		BorderLeft(false).
		BorderTop(true).
		BorderBottom(true).
		BorderRight(true).
		Padding(2, 2, 2, 1)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Render(base),
		rightStyle.Render("#"+octave))
}

// renderGauge draws the flat half filling leftward and the sharp half
// filling rightward from the center mark
func renderGauge(left, right int, inTune bool) string {
	leftCells := left * gaugeWidth / 100
	rightCells := right * gaugeWidth / 100

	flat := strings.Repeat(" ", gaugeWidth-leftCells) + strings.Repeat("█", leftCells)
	sharp := strings.Repeat("█", rightCells) + strings.Repeat(" ", gaugeWidth-rightCells)

	center := infoStyle.Render("|")
	if inTune {
		center = inTuneStyle.Render("|")
	}
	return fmt.Sprintf("♭ [%s%s%s] ♯", flatStyle.Render(flat), center, sharpStyle.Render(sharp))
}

// View renders the UI
func (m Model) View() string {
	s := titleStyle.Render("semitune - Instrument Tuner")
	s += "\n"

	if m.hasSignal {
		s += renderNote(m.panel.Note)
	} else {
		s += infoStyle.Bold(true).Render(m.panel.Note)
	}
	s += "\n\n"

	s += infoStyle.Render(m.panel.Pitch + " | " + m.panel.Diff)
	s += "\n"
	s += renderGauge(m.panel.Left, m.panel.Right, m.hasSignal && m.panel.Left == 0 && m.panel.Right == 0)
	s += "\n\n"

	if m.err != nil {
		s += errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	status := "Stopped"
	if m.running {
		status = "Listening"
	}
	s += infoStyle.Render(status + " | space to start/stop | q to quit")

	return s
}
