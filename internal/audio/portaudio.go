package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource captures the default input device using PortAudio
type PortAudioSource struct {
	format        Format
	channels      int
	amplification float32 // Audio signal amplification factor

	mu        sync.Mutex
	stream    *portaudio.Stream
	framer    *framer
	capturing bool
}

// NewPortAudioSource creates a microphone source. PortAudio itself is only
// initialized by Start, so a source can be started again after Stop.
func NewPortAudioSource(format Format, channels int) (*PortAudioSource, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if channels < 1 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	return &PortAudioSource{
		format:        format,
		channels:      channels,
		amplification: 1.0,
	}, nil
}

// Start begins audio capture
func (c *PortAudioSource) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capturing {
		return ErrAlreadyCapturing
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio: initialize: %w", err)
	}

	c.framer = newFramer(c.format, 4)

	// One callback per hop keeps frame latency at the hop size
	stream, err := portaudio.OpenDefaultStream(
		c.channels, // input channels
		0,          // output channels (we don't need output)
		float64(c.format.SampleRate),
		c.format.Hop(),
		c.processAudio,
	)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("portaudio: open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("portaudio: start stream: %w", err)
	}

	c.stream = stream
	c.capturing = true
	return nil
}

// Stop ends audio capture. The lock is released before stopping the stream
// because PortAudio waits for a running callback, which takes the lock too.
func (c *PortAudioSource) Stop() error {
	c.mu.Lock()
	if !c.capturing {
		c.mu.Unlock()
		return nil
	}
	c.capturing = false
	stream := c.stream
	c.stream = nil
	c.framer.stop()
	c.mu.Unlock()

	// Keep going on failure so PortAudio is always terminated
	var firstErr error
	if err := stream.Stop(); err != nil {
		firstErr = fmt.Errorf("portaudio: stop stream: %w", err)
	}
	if err := stream.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("portaudio: close stream: %w", err)
	}
	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("portaudio: terminate: %w", err)
	}
	return firstErr
}

// processAudio is the PortAudio callback; it runs on the audio thread
func (c *PortAudioSource) processAudio(in, _ []float32) {
	c.mu.Lock()
	amp := c.amplification
	f := c.framer
	c.mu.Unlock()

	f.push(downmix(in, c.channels, amp))
}

// downmix averages interleaved channels into mono and applies gain
func downmix(in []float32, channels int, amp float32) []float32 {
	if channels == 1 {
		mono := make([]float32, len(in))
		for i, sample := range in {
			mono[i] = sample * amp
		}
		return mono
	}

	mono := make([]float32, len(in)/channels)
	for i := range mono {
		sum := float32(0)
		for ch := 0; ch < channels; ch++ {
			sum += in[i*channels+ch]
		}
		mono[i] = (sum / float32(channels)) * amp
	}
	return mono
}

// ReadFrame returns the next captured frame
func (c *PortAudioSource) ReadFrame(ctx context.Context) (Frame, error) {
	c.mu.Lock()
	f := c.framer
	c.mu.Unlock()

	if f == nil {
		return Frame{}, ErrNotCapturing
	}
	return f.read(ctx)
}

// IsCapturing returns true if currently capturing audio
func (c *PortAudioSource) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capturing
}

// SetAmplification sets the audio amplification factor
func (c *PortAudioSource) SetAmplification(factor float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Ensure amplification is positive
	if factor < 0.1 {
		factor = 0.1
	}

	c.amplification = factor
}
