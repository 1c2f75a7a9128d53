// Package pitch turns audio frames into fundamental-frequency estimates.
package pitch

import (
	"errors"
	"fmt"

	"github.com/0xlemi/semitune/internal/audio"
)

// ErrEmptyFrame is returned for frames without samples.
var ErrEmptyFrame = errors.New("empty audio frame")

// Estimate is the estimator output for one frame: a positive frequency in
// Hz, or Absent when no reliable pitch was found.
type Estimate struct {
	Hz      float64
	Present bool
}

// Absent means no pitch was detected in the frame.
var Absent = Estimate{}

// Hz wraps a detected frequency.
func Hz(f float64) Estimate {
	return Estimate{Hz: f, Present: true}
}

func (e Estimate) String() string {
	if !e.Present {
		return "absent"
	}
	return fmt.Sprintf("%.2fHz", e.Hz)
}

// Estimator defines the interface for pitch detection
type Estimator interface {
	// Estimate analyzes one frame. Silence and noise yield Absent, not an
	// error; errors are reserved for malformed frames.
	Estimate(frame audio.Frame) (Estimate, error)
}

// EstimatorFunc adapts a function to Estimator.
type EstimatorFunc func(frame audio.Frame) (Estimate, error)

// Estimate calls f(frame).
func (f EstimatorFunc) Estimate(frame audio.Frame) (Estimate, error) {
	return f(frame)
}
