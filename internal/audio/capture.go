package audio

import (
	"context"
	"errors"
	"math"
)

// Capture errors
var (
	ErrAlreadyCapturing = errors.New("audio capture already started")
	ErrNotCapturing     = errors.New("audio capture not started")
)

// Frame is one analysis window of mono samples
type Frame struct {
	Samples    []float32
	SampleRate int
	Index      uint64 // Position of the frame in the capture stream
}

// Source produces analysis frames from a continuous audio stream
type Source interface {
	// Start begins audio capture
	Start() error

	// Stop ends audio capture. Stopping a stopped source is a no-op.
	Stop() error

	// ReadFrame blocks until the next frame is available. It returns
	// ErrNotCapturing once the source has been stopped.
	ReadFrame(ctx context.Context) (Frame, error)

	// IsCapturing returns true if currently capturing audio
	IsCapturing() bool
}

// Format describes the framing every source applies
type Format struct {
	SampleRate int // Samples per second
	FrameSize  int // Samples per analysis frame
	Overlap    int // Samples shared by consecutive frames
}

// DefaultFormat is 44.1kHz with 2048-sample frames overlapping by half
var DefaultFormat = Format{
	SampleRate: 44100,
	FrameSize:  2048,
	Overlap:    1024,
}

// Hop returns the number of new samples per frame
func (f Format) Hop() int {
	return f.FrameSize - f.Overlap
}

// Validate checks that the format can be framed
func (f Format) Validate() error {
	switch {
	case f.SampleRate <= 0:
		return errors.New("sample rate must be positive")
	case f.FrameSize <= 0:
		return errors.New("frame size must be positive")
	case f.Overlap < 0 || f.Overlap >= f.FrameSize:
		return errors.New("overlap must be in [0, frame size)")
	}
	return nil
}

// Level calculates RMS and dB level of a frame
func Level(samples []float32) (rms, db float32) {
	if len(samples) == 0 {
		return 0, -100
	}

	sumSquares := float32(0)
	for _, sample := range samples {
		sumSquares += sample * sample
	}

	rms = float32(math.Sqrt(float64(sumSquares / float32(len(samples)))))

	// Calculate dB (with protection against log(0))
	if rms > 0.0000001 {
		db = 20 * float32(math.Log10(float64(rms)))
	} else {
		db = -100
	}

	return rms, db
}
