// Package note resolves a frequency estimate to the nearest note of the
// 12-tone equal-tempered grid anchored at C4 = 261.63 Hz.
package note

import (
	"errors"
	"fmt"
	"math"
)

const (
	// AnchorHz is the grid anchor, C4.
	AnchorHz = 261.63

	// AnchorOctave is the octave of the anchor in scientific pitch notation.
	AnchorOctave = 4

	// SemitoneRatio is the twelfth root of 2.
	SemitoneRatio = 1.0594630943592953

	semitonesPerOctave = 12
)

// ErrInvalidFrequency is returned for NaN, infinite or non-positive input.
var ErrInvalidFrequency = errors.New("invalid frequency")

// All note names in chromatic order, starting at the anchor's pitch class
var noteNames = [semitonesPerOctave]string{
	"C", "C#/Db", "D", "D#/Eb", "E", "F", "F#/Gb", "G", "G#/Ab", "A", "A#/Bb", "B",
}

// Names returns the twelve pitch-class labels in chromatic order.
func Names() []string {
	names := make([]string, len(noteNames))
	copy(names, noteNames[:])
	return names
}

// Result is the tuning state derived from one frequency estimate.
type Result struct {
	ObservedHz  float64 // Input frequency, rounded to 2 decimals
	NearestHz   float64 // Grid frequency of the nearest note, rounded to 2 decimals
	DeviationHz float64 // ObservedHz - NearestHz; positive means sharp
	Name        string  // Pitch class, e.g. "C#/Db"
	Octave      int     // Octave in scientific pitch notation
	Semitones   int     // Signed semitone offset from the anchor
	GaugeRight  int     // Sharp gauge, 0-100
	GaugeLeft   int     // Flat gauge, 0-100
}

// NoteLabel renders the note as "C (4)".
func (r Result) NoteLabel() string {
	return fmt.Sprintf("%s (%d)", r.Name, r.Octave)
}

// String renders a compact form such as "A4 +0.49Hz".
func (r Result) String() string {
	return fmt.Sprintf("%s%d %+.2fHz", r.Name, r.Octave, r.DeviationHz)
}

// InTune reports whether the observed pitch sits exactly on the grid.
func (r Result) InTune() bool {
	return r.DeviationHz == 0
}

// ResolveFunc maps a frequency in Hz to a Result.
type ResolveFunc func(hz float64) (Result, error)

// Resolve finds the nearest grid note by walking semitone by semitone from
// the anchor. Ties on the way up stay on the lower note; ties on the way
// down stay on the upper note.
func Resolve(hz float64) (Result, error) {
	observed, err := observe(hz)
	if err != nil {
		return Result{}, err
	}

	pitch := AnchorHz
	k := 0
	if observed >= AnchorHz {
		for observed-float64(pitch*SemitoneRatio) > 0 {
			pitch *= SemitoneRatio
			k++
		}
		if next := float64(pitch * SemitoneRatio); next-observed < observed-pitch {
			pitch = next
			k++
		}
	} else {
		for observed-pitch/SemitoneRatio < 0 {
			pitch /= SemitoneRatio
			k--
		}
		if lower := pitch / SemitoneRatio; observed-lower < pitch-observed {
			pitch = lower
			k--
		}
	}

	return build(observed, pitch, k), nil
}

// observe validates hz and rounds it for display stability.
func observe(hz float64) (float64, error) {
	if math.IsNaN(hz) || math.IsInf(hz, 0) || hz <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFrequency, hz)
	}
	observed := round2(hz)
	if observed <= 0 {
		return 0, fmt.Errorf("%w: %v rounds to zero", ErrInvalidFrequency, hz)
	}
	return observed, nil
}

func build(observed, pitch float64, k int) Result {
	nearest := round2(pitch)
	deviation := round2(observed - nearest)
	index, octave := position(k)

	r := Result{
		ObservedHz:  observed,
		NearestHz:   nearest,
		DeviationHz: deviation,
		Name:        noteNames[index],
		Octave:      octave,
		Semitones:   k,
	}
	r.GaugeRight, r.GaugeLeft = gauges(deviation, nearest)
	return r
}

// position maps a semitone offset to a pitch-class index and octave.
// Go's / and % truncate toward zero, so offsets below the anchor are folded
// back into range by hand.
func position(k int) (index, octave int) {
	if k >= 0 {
		return k % semitonesPerOctave, AnchorOctave + k/semitonesPerOctave
	}
	rem := k % semitonesPerOctave
	if rem == 0 {
		return 0, AnchorOctave + k/semitonesPerOctave
	}
	return semitonesPerOctave + rem, AnchorOctave - 1 + k/semitonesPerOctave
}

// gauges scales the deviation against the semitone gap on its side, so
// half a semitone reads 100. A nonzero deviation always lights its side.
func gauges(deviation, nearest float64) (right, left int) {
	switch {
	case deviation > 0:
		interval := float64(nearest*SemitoneRatio) - nearest
		return scaleGauge(deviation / interval), 0
	case deviation < 0:
		interval := nearest - nearest/SemitoneRatio
		return 0, scaleGauge(-deviation / interval)
	default:
		return 0, 0
	}
}

func scaleGauge(fraction float64) int {
	g := int(math.Round(fraction * 2 * 100))
	return max(1, min(100, g))
}

// round2 rounds half up to two decimals. The float64 conversions here and in
// the walk keep the compiler from fusing multiply-add pairs, which would move
// results that sit on a rounding boundary.
func round2(x float64) float64 {
	return math.Floor(float64(x*100)+0.5) / 100
}

// Resolver method names accepted by Lookup.
const (
	MethodWalk = "walk"
	MethodLog  = "log"
)

// Lookup returns the resolver registered under method.
func Lookup(method string) (ResolveFunc, error) {
	switch method {
	case MethodWalk, "":
		return Resolve, nil
	case MethodLog:
		return ResolveLog, nil
	default:
		return nil, fmt.Errorf("unknown resolver %q", method)
	}
}
