package pitch

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/0xlemi/semitune/internal/audio"
	"github.com/mjibson/go-dsp/fft"
)

// FFTOptions tunes the FFT estimator. Zero fields take the defaults.
type FFTOptions struct {
	MinFrequency    float64 // Lowest frequency to detect (Hz)
	MaxFrequency    float64 // Highest frequency to detect (Hz)
	NoiseFloor      float64 // Minimum spectral peak magnitude
	PeakThreshold   float64 // Minimum peak height as fraction of highest peak
	VolumeThreshold float64 // Minimum RMS volume level for note detection
	MinDB           float64 // Frames quieter than this are silence
}

// DefaultFFTOptions covers the range of most tuned instruments.
var DefaultFFTOptions = FFTOptions{
	MinFrequency:    40.0,   // Below E1 on a bass
	MaxFrequency:    2000.0, // Above C7
	NoiseFloor:      0.01,
	PeakThreshold:   0.2,
	VolumeThreshold: 0.005,
	MinDB:           -50.0,
}

// FFTEstimator implements pitch detection using FFT peak picking
type FFTEstimator struct {
	opts FFTOptions
}

// NewFFTEstimator creates a new FFT-based pitch estimator
func NewFFTEstimator(opts FFTOptions) *FFTEstimator {
	d := DefaultFFTOptions
	if opts.MinFrequency > 0 {
		d.MinFrequency = opts.MinFrequency
	}
	if opts.MaxFrequency > 0 {
		d.MaxFrequency = opts.MaxFrequency
	}
	if opts.NoiseFloor > 0 {
		d.NoiseFloor = opts.NoiseFloor
	}
	if opts.PeakThreshold > 0 {
		d.PeakThreshold = opts.PeakThreshold
	}
	if opts.VolumeThreshold > 0 {
		d.VolumeThreshold = opts.VolumeThreshold
	}
	if opts.MinDB < 0 {
		d.MinDB = opts.MinDB
	}
	return &FFTEstimator{opts: d}
}

// Estimate analyzes a frame and returns the dominant frequency
func (d *FFTEstimator) Estimate(frame audio.Frame) (Estimate, error) {
	if len(frame.Samples) == 0 {
		return Absent, ErrEmptyFrame
	}

	rms, db := audio.Level(frame.Samples)

	peakValue := 0.0
	for _, sample := range frame.Samples {
		peakValue = math.Max(peakValue, math.Abs(float64(sample)))
	}

	// Skip everything if the level is too low (likely silence)
	if float64(rms) < d.opts.VolumeThreshold || float64(db) < d.opts.MinDB {
		return Absent, nil
	}

	// If the peak value is too low, also skip (prevents processing very quiet sounds)
	if peakValue < d.opts.VolumeThreshold*2 {
		return Absent, nil
	}

	windowed := applyHannWindow(frame.Samples)

	// Convert from []float32 to []complex128 for the FFT
	complexSamples := make([]complex128, len(windowed))
	for i, sample := range windowed {
		complexSamples[i] = complex(float64(sample), 0)
	}

	spectrum := fft.FFT(complexSamples)

	freq, ok := d.findFundamentalFrequency(spectrum, frame.SampleRate)
	if !ok || freq < d.opts.MinFrequency || freq > d.opts.MaxFrequency {
		return Absent, nil
	}
	return Hz(freq), nil
}

// applyHannWindow applies a Hann window to the audio samples
func applyHannWindow(samples []float32) []float32 {
	windowed := make([]float32, len(samples))
	if len(samples) == 1 {
		copy(windowed, samples)
		return windowed
	}
	for i, sample := range samples {
		coeff := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(len(samples)-1)))
		windowed[i] = sample * float32(coeff)
	}
	return windowed
}

// Peak represents a peak in the frequency spectrum
type Peak struct {
	Bin       int
	Magnitude float64
	Frequency float64
}

// findFundamentalFrequency returns the interpolated frequency of the
// strongest spectral peak inside the configured range
func (d *FFTEstimator) findFundamentalFrequency(spectrum []complex128, sampleRate int) (float64, bool) {
	// We only need to look at the first half of the spectrum (Nyquist theorem)
	half := spectrum[:len(spectrum)/2]
	if len(half) < 3 {
		return 0, false
	}

	binSizeHz := float64(sampleRate) / float64(len(spectrum))

	minBin := int(d.opts.MinFrequency / binSizeHz)
	if minBin < 1 {
		minBin = 1 // Avoid DC component
	}
	maxBin := int(d.opts.MaxFrequency/binSizeHz) + 1
	if maxBin >= len(half) {
		maxBin = len(half) - 1
	}

	magnitudes := make([]float64, len(half))
	maxMagnitude := 0.0
	for i := range half {
		magnitudes[i] = cmplx.Abs(half[i])
		if i >= minBin && i <= maxBin && magnitudes[i] > maxMagnitude {
			maxMagnitude = magnitudes[i]
		}
	}

	if maxMagnitude < d.opts.NoiseFloor {
		return 0, false
	}

	var peaks []Peak
	for i := minBin; i < maxBin; i++ {
		prev, current, next := magnitudes[i-1], magnitudes[i], magnitudes[i+1]
		if current <= prev || current <= next || current <= maxMagnitude*d.opts.PeakThreshold {
			continue
		}

		// Quadratic interpolation for a more accurate peak location
		freq := float64(i) * binSizeHz
		if denom := prev - 2*current + next; denom != 0 {
			delta := 0.5 * (prev - next) / denom
			freq = (float64(i) + delta) * binSizeHz
		}
		peaks = append(peaks, Peak{Bin: i, Magnitude: current, Frequency: freq})
	}

	if len(peaks) == 0 {
		return 0, false
	}

	sort.Slice(peaks, func(i, j int) bool {
		return peaks[i].Magnitude > peaks[j].Magnitude
	})
	return peaks[0].Frequency, true
}
