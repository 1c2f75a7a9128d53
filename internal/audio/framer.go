package audio

import (
	"context"
	"sync"
)

// framer slices a sample stream into overlapping frames. Completed frames go
// to a bounded channel; when the reader falls behind the oldest frame is
// dropped so the producer never blocks.
type framer struct {
	format  Format
	pending []float32
	index   uint64
	frames  chan Frame
	stopped chan struct{}
	once    sync.Once
}

func newFramer(format Format, backlog int) *framer {
	if backlog < 1 {
		backlog = 1
	}
	return &framer{
		format:  format,
		pending: make([]float32, 0, format.FrameSize*2),
		frames:  make(chan Frame, backlog),
		stopped: make(chan struct{}),
	}
}

// push appends samples and emits every frame they complete
func (f *framer) push(in []float32) {
	f.pending = append(f.pending, in...)

	hop := f.format.Hop()
	offset := 0
	for len(f.pending)-offset >= f.format.FrameSize {
		samples := make([]float32, f.format.FrameSize)
		copy(samples, f.pending[offset:offset+f.format.FrameSize])
		f.emit(Frame{
			Samples:    samples,
			SampleRate: f.format.SampleRate,
			Index:      f.index,
		})
		f.index++
		offset += hop
	}
	if offset > 0 {
		f.pending = append(f.pending[:0], f.pending[offset:]...)
	}
}

func (f *framer) emit(frame Frame) {
	for {
		select {
		case f.frames <- frame:
			return
		default:
		}
		select {
		case <-f.frames:
		default:
		}
	}
}

// read waits for the next frame or for the framer to stop
func (f *framer) read(ctx context.Context) (Frame, error) {
	select {
	case <-f.stopped:
		return Frame{}, ErrNotCapturing
	default:
	}

	select {
	case frame := <-f.frames:
		return frame, nil
	case <-f.stopped:
		return Frame{}, ErrNotCapturing
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (f *framer) stop() {
	f.once.Do(func() { close(f.stopped) })
}
