package ui

import (
	"fmt"

	"github.com/0xlemi/semitune/internal/note"
)

// Display is the setter surface a tuning result is written to
type Display interface {
	SetPitchText(text string)
	SetDiffText(text string)
	SetNoteText(text string)
	SetRightGauge(value int)
	SetLeftGauge(value int)
}

// Texts shown when there is nothing to resolve
const (
	NotAvailable    = "N/A"
	NoPitchText     = "No pitch detected"
	IdleNoteText    = "Musical note"
	pitchTextPrefix = "Pitch: "
	diffTextPrefix  = "Diff: "
)

// ShowResult writes a resolved note to d
func ShowResult(d Display, r note.Result) {
	d.SetPitchText(fmt.Sprintf("%s%.2f Hz", pitchTextPrefix, r.ObservedHz))
	d.SetDiffText(fmt.Sprintf("%s%.2f", diffTextPrefix, r.DeviationHz))
	d.SetNoteText(r.NoteLabel())
	d.SetRightGauge(r.GaugeRight)
	d.SetLeftGauge(r.GaugeLeft)
}

// ShowNoSignal blanks d for a frame without a pitch
func ShowNoSignal(d Display) {
	blank(d, NoPitchText)
}

// ShowIdle resets d once tuning has stopped
func ShowIdle(d Display) {
	blank(d, IdleNoteText)
}

func blank(d Display, noteText string) {
	d.SetPitchText(pitchTextPrefix + NotAvailable)
	d.SetDiffText(diffTextPrefix + NotAvailable)
	d.SetNoteText(noteText)
	d.SetRightGauge(0)
	d.SetLeftGauge(0)
}

// Panel is the display state owned by the UI goroutine
type Panel struct {
	Pitch string
	Diff  string
	Note  string
	Right int
	Left  int
}

// NewPanel returns a panel in the idle state
func NewPanel() Panel {
	var p Panel
	ShowIdle(&p)
	return p
}

func (p *Panel) SetPitchText(text string) { p.Pitch = text }
func (p *Panel) SetDiffText(text string)  { p.Diff = text }
func (p *Panel) SetNoteText(text string)  { p.Note = text }
func (p *Panel) SetRightGauge(value int)  { p.Right = clampGauge(value) }
func (p *Panel) SetLeftGauge(value int)   { p.Left = clampGauge(value) }

func clampGauge(v int) int {
	return max(0, min(100, v))
}
