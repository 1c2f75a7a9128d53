package ui

import (
	"github.com/0xlemi/semitune/internal/dispatch"
	"github.com/0xlemi/semitune/internal/note"
	tea "github.com/charmbracelet/bubbletea"
)

// ResultMsg carries a resolved note to the UI
type ResultMsg struct {
	Stamp  dispatch.Stamp
	Result note.Result
}

// NoSignalMsg reports a frame without a detectable pitch
type NoSignalMsg struct {
	Stamp dispatch.Stamp
}

// IdleMsg reports that the session with Epoch has stopped
type IdleMsg struct {
	Epoch uint64
}

// Sink queues display updates for the bubbletea program. Producers never
// block: when the UI falls behind, the oldest pending update is dropped,
// since only the latest one is shown anyway.
type Sink struct {
	updates chan tea.Msg
}

// NewSink creates a sink holding up to backlog pending updates
func NewSink(backlog int) *Sink {
	if backlog < 1 {
		backlog = 1
	}
	return &Sink{updates: make(chan tea.Msg, backlog)}
}

// Result implements dispatch.Sink
func (s *Sink) Result(stamp dispatch.Stamp, r note.Result) {
	s.post(ResultMsg{Stamp: stamp, Result: r})
}

// NoSignal implements dispatch.Sink
func (s *Sink) NoSignal(stamp dispatch.Stamp) {
	s.post(NoSignalMsg{Stamp: stamp})
}

// Idle implements tuner.Sink
func (s *Sink) Idle(epoch uint64) {
	s.post(IdleMsg{Epoch: epoch})
}

func (s *Sink) post(msg tea.Msg) {
	for {
		select {
		case s.updates <- msg:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

// Wait returns a command delivering the next update. The model issues it
// again after every update, so the program's event loop is the only
// reader.
func (s *Sink) Wait() tea.Cmd {
	return func() tea.Msg {
		return <-s.updates
	}
}
