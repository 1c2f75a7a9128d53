package audio

import (
	"context"
	"math"
	"sync"
	"time"
)

// ToneSource is a synthetic Source producing a sine wave. It stands in for
// the microphone in demo mode and in tests.
type ToneSource struct {
	format    Format
	amplitude float64
	paced     bool

	mu        sync.Mutex
	frequency float64
	phase     float64
	window    []float32
	index     uint64
	next      time.Time
	capturing bool
	stopped   chan struct{}
}

// NewToneSource creates a tone generator at hz. A paced source releases
// frames at the rate a real device would; an unpaced one as fast as they
// are read.
func NewToneSource(format Format, hz float64, paced bool) *ToneSource {
	return &ToneSource{
		format:    format,
		amplitude: 0.5, // 0.5 to prevent clipping
		paced:     paced,
		frequency: hz,
	}
}

// SetFrequency changes the generated pitch; 0 produces silence
func (t *ToneSource) SetFrequency(hz float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frequency = hz
}

// Frequency returns the generated pitch
func (t *ToneSource) Frequency() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frequency
}

// Start begins generating
func (t *ToneSource) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.capturing {
		return ErrAlreadyCapturing
	}
	if err := t.format.Validate(); err != nil {
		return err
	}
	t.window = nil
	t.phase = 0
	t.next = time.Now()
	t.stopped = make(chan struct{})
	t.capturing = true
	return nil
}

// Stop ends generating
func (t *ToneSource) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.capturing {
		return nil
	}
	t.capturing = false
	close(t.stopped)
	return nil
}

// ReadFrame generates the next overlapping frame
func (t *ToneSource) ReadFrame(ctx context.Context) (Frame, error) {
	t.mu.Lock()
	if !t.capturing {
		t.mu.Unlock()
		return Frame{}, ErrNotCapturing
	}
	stopped := t.stopped
	wait := time.Until(t.next)
	t.mu.Unlock()

	if t.paced && wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-stopped:
			return Frame{}, ErrNotCapturing
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.capturing {
		return Frame{}, ErrNotCapturing
	}

	n := t.format.Hop()
	if t.window == nil {
		n = t.format.FrameSize
		t.window = make([]float32, 0, t.format.FrameSize)
	} else {
		t.window = append(t.window[:0], t.window[n:]...)
	}
	t.window = append(t.window, t.generate(n)...)

	hopDuration := time.Duration(float64(t.format.Hop()) / float64(t.format.SampleRate) * float64(time.Second))
	t.next = t.next.Add(hopDuration)

	samples := make([]float32, len(t.window))
	copy(samples, t.window)
	frame := Frame{
		Samples:    samples,
		SampleRate: t.format.SampleRate,
		Index:      t.index,
	}
	t.index++
	return frame, nil
}

func (t *ToneSource) generate(n int) []float32 {
	buffer := make([]float32, n)
	if t.frequency <= 0 {
		return buffer
	}
	step := 2 * math.Pi * t.frequency / float64(t.format.SampleRate)
	for i := range buffer {
		buffer[i] = float32(t.amplitude * math.Sin(t.phase))
		t.phase = math.Mod(t.phase+step, 2*math.Pi)
	}
	return buffer
}

// IsCapturing returns true if currently generating
func (t *ToneSource) IsCapturing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.capturing
}
