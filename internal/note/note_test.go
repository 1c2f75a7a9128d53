package note

import (
	"errors"
	"math"
	"testing"
)

// walkGrid builds grid point k the same way the resolver does, by repeated
// multiplication or division from the anchor.
func walkGrid(k int) float64 {
	pitch := AnchorHz
	for i := 0; i < k; i++ {
		pitch *= SemitoneRatio
	}
	for i := 0; i > k; i-- {
		pitch /= SemitoneRatio
	}
	return pitch
}

func TestResolve(t *testing.T) {
	tests := []struct {
		hz        float64
		name      string
		octave    int
		semitones int
		nearest   float64
		deviation float64
		right     int
		left      int
	}{
		{261.63, "C", 4, 0, 261.63, 0, 0, 0},
		{246.94, "B", 3, -1, 246.95, -0.01, 0, 1},
		{277.18, "C#/Db", 4, 1, 277.19, -0.01, 0, 1},
		{329.63, "E", 4, 4, 329.63, 0, 0, 0},
		{440, "A", 4, 9, 440.01, -0.01, 0, 1},
		{440.5, "A", 4, 9, 440.01, 0.49, 4, 0},
		{435, "A", 4, 9, 440.01, -5.01, 0, 41},
		{130.81, "C", 3, -12, 130.81, 0, 0, 0},
		{130.82, "C", 3, -12, 130.81, 0.01, 1, 0},
		{123.47, "B", 2, -13, 123.47, 0, 0, 0},
		{100, "G", 2, -17, 98, 2, 69, 0},
		{82.41, "E", 2, -20, 82.41, 0, 0, 0},
		{65.41, "C", 2, -24, 65.41, 0, 0, 0},
		{61.74, "B", 1, -25, 61.74, 0, 0, 0},
		{20, "D#/Eb", 0, -45, 19.45, 0.55, 95, 0},
		{16.35, "C", 0, -48, 16.35, 0, 0, 0},
		{1000, "B", 5, 23, 987.78, 12.22, 42, 0},
		{3000, "F#/Gb", 7, 42, 2960.01, 39.99, 45, 0},
		{4186.01, "C", 8, 48, 4186.08, -0.07, 0, 1},
		{269.40, "C", 4, 0, 261.63, 7.77, 100, 0},
		{269.41, "C#/Db", 4, 1, 277.19, -7.78, 0, 100},
	}

	for _, tt := range tests {
		got, err := Resolve(tt.hz)
		if err != nil {
			t.Fatalf("Resolve(%v) error: %v", tt.hz, err)
		}
		if got.Name != tt.name || got.Octave != tt.octave || got.Semitones != tt.semitones {
			t.Errorf("Resolve(%v) = %s (%d) k=%d, want %s (%d) k=%d",
				tt.hz, got.Name, got.Octave, got.Semitones, tt.name, tt.octave, tt.semitones)
		}
		if got.NearestHz != tt.nearest {
			t.Errorf("Resolve(%v).NearestHz = %v, want %v", tt.hz, got.NearestHz, tt.nearest)
		}
		if got.DeviationHz != tt.deviation {
			t.Errorf("Resolve(%v).DeviationHz = %v, want %v", tt.hz, got.DeviationHz, tt.deviation)
		}
		if got.GaugeRight != tt.right || got.GaugeLeft != tt.left {
			t.Errorf("Resolve(%v) gauges = %d/%d, want %d/%d",
				tt.hz, got.GaugeRight, got.GaugeLeft, tt.right, tt.left)
		}
	}
}

func TestResolveAnchor(t *testing.T) {
	got, err := Resolve(AnchorHz)
	if err != nil {
		t.Fatal(err)
	}
	if got.NoteLabel() != "C (4)" {
		t.Errorf("NoteLabel = %q, want %q", got.NoteLabel(), "C (4)")
	}
	if !got.InTune() || got.GaugeLeft != 0 || got.GaugeRight != 0 {
		t.Errorf("anchor should be in tune with empty gauges, got %+v", got)
	}
	if got.String() != "C4 +0.00Hz" {
		t.Errorf("String = %q", got.String())
	}
}

func TestResolveGridPoints(t *testing.T) {
	for k := -48; k <= 48; k++ {
		got, err := Resolve(walkGrid(k))
		if err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
		if got.Semitones != k {
			t.Errorf("k=%d: resolved to k=%d", k, got.Semitones)
		}
		if got.DeviationHz != 0 || got.GaugeRight != 0 || got.GaugeLeft != 0 {
			t.Errorf("k=%d: deviation %v gauges %d/%d", k, got.DeviationHz, got.GaugeRight, got.GaugeLeft)
		}

		// Closed form: index = k mod 12 folded positive, octave = 4 + floor(k/12).
		wantIndex := ((k % 12) + 12) % 12
		wantOctave := AnchorOctave + int(math.Floor(float64(k)/12))
		if got.Name != noteNames[wantIndex] || got.Octave != wantOctave {
			t.Errorf("k=%d: got %s (%d), want %s (%d)", k, got.Name, got.Octave, noteNames[wantIndex], wantOctave)
		}
	}
}

func TestResolveOctaveBoundary(t *testing.T) {
	tests := []struct {
		k      int
		name   string
		octave int
	}{
		{-1, "B", 3},
		{-11, "C#/Db", 3},
		{-12, "C", 3},
		{-13, "B", 2},
		{-24, "C", 2},
		{-25, "B", 1},
		{11, "B", 4},
		{12, "C", 5},
	}

	for _, tt := range tests {
		index, octave := position(tt.k)
		if noteNames[index] != tt.name || octave != tt.octave {
			t.Errorf("position(%d) = %s (%d), want %s (%d)", tt.k, noteNames[index], octave, tt.name, tt.octave)
		}
	}
}

func TestResolveMidpoints(t *testing.T) {
	// Around each midpoint the lower and upper 0.01 Hz steps land on
	// opposite notes, on both sides of the anchor.
	tests := []struct {
		below, above float64
		low, high    int
	}{
		{269.40, 269.41, 0, 1},
		{254.28, 254.29, -1, 0},
		{127.14, 127.15, -13, -12},
		{63.57, 63.58, -25, -24},
	}

	for _, tt := range tests {
		lo, err := Resolve(tt.below)
		if err != nil {
			t.Fatal(err)
		}
		hi, err := Resolve(tt.above)
		if err != nil {
			t.Fatal(err)
		}
		if lo.Semitones != tt.low || hi.Semitones != tt.high {
			t.Errorf("midpoint %v/%v resolved to k=%d/%d, want %d/%d",
				tt.below, tt.above, lo.Semitones, hi.Semitones, tt.low, tt.high)
		}
		if lo.GaugeRight != 100 || hi.GaugeLeft != 100 {
			t.Errorf("midpoint %v/%v gauges %d/%d, want full scale", tt.below, tt.above, lo.GaugeRight, hi.GaugeLeft)
		}
	}
}

func TestResolveDeviationBound(t *testing.T) {
	for hz := 10.0; hz < 5000; hz += 0.37 {
		got, err := Resolve(hz)
		if err != nil {
			t.Fatalf("Resolve(%v): %v", hz, err)
		}
		var interval float64
		if got.DeviationHz >= 0 {
			interval = got.NearestHz*SemitoneRatio - got.NearestHz
		} else {
			interval = got.NearestHz - got.NearestHz/SemitoneRatio
		}
		if math.Abs(got.DeviationHz) > interval/2+0.011 {
			t.Fatalf("Resolve(%v): deviation %v exceeds half semitone %v", hz, got.DeviationHz, interval/2)
		}
		if got.GaugeRight < 0 || got.GaugeRight > 100 || got.GaugeLeft < 0 || got.GaugeLeft > 100 {
			t.Fatalf("Resolve(%v): gauges out of range %d/%d", hz, got.GaugeRight, got.GaugeLeft)
		}
		if got.GaugeRight != 0 && got.GaugeLeft != 0 {
			t.Fatalf("Resolve(%v): both gauges set %d/%d", hz, got.GaugeRight, got.GaugeLeft)
		}
		if (got.DeviationHz != 0) != (got.GaugeRight+got.GaugeLeft != 0) {
			t.Fatalf("Resolve(%v): deviation %v with gauges %d/%d", hz, got.DeviationHz, got.GaugeRight, got.GaugeLeft)
		}
	}
}

func TestResolvePure(t *testing.T) {
	for _, hz := range []float64{12.34, 261.63, 440, 987.654} {
		a, errA := Resolve(hz)
		b, errB := Resolve(hz)
		if errA != nil || errB != nil {
			t.Fatalf("Resolve(%v): %v, %v", hz, errA, errB)
		}
		if a != b {
			t.Errorf("Resolve(%v) not deterministic: %+v vs %+v", hz, a, b)
		}
	}
}

func TestResolveInvalid(t *testing.T) {
	for _, hz := range []float64{0, -1, -261.63, 0.004, math.NaN(), math.Inf(1), math.Inf(-1)} {
		for name, resolve := range map[string]ResolveFunc{MethodWalk: Resolve, MethodLog: ResolveLog} {
			_, err := resolve(hz)
			if !errors.Is(err, ErrInvalidFrequency) {
				t.Errorf("%s(%v) error = %v, want ErrInvalidFrequency", name, hz, err)
			}
		}
	}
}

func TestResolveLogMatchesWalk(t *testing.T) {
	for i := 1000; i < 500000; i += 7 {
		hz := float64(i) / 100
		walk, err := Resolve(hz)
		if err != nil {
			t.Fatal(err)
		}
		closed, err := ResolveLog(hz)
		if err != nil {
			t.Fatal(err)
		}
		if walk.Semitones != closed.Semitones || walk.Name != closed.Name || walk.Octave != closed.Octave {
			t.Fatalf("%v Hz: walk %v (k=%d), log %v (k=%d)", hz, walk, walk.Semitones, closed, closed.Semitones)
		}
		if walk.ObservedHz != closed.ObservedHz {
			t.Fatalf("%v Hz: observed %v vs %v", hz, walk.ObservedHz, closed.ObservedHz)
		}
		if math.Abs(walk.NearestHz-closed.NearestHz) > 0.011 {
			t.Fatalf("%v Hz: nearest %v vs %v", hz, walk.NearestHz, closed.NearestHz)
		}
	}
}

func TestResolveLogWideRange(t *testing.T) {
	got, err := ResolveLog(1e6)
	if err != nil {
		t.Fatal(err)
	}
	if got.Semitones != 143 || got.Name != "B" || got.Octave != 15 {
		t.Errorf("ResolveLog(1e6) = %v k=%d", got, got.Semitones)
	}
}

func TestLookup(t *testing.T) {
	if _, err := Lookup(MethodWalk); err != nil {
		t.Error(err)
	}
	if _, err := Lookup(MethodLog); err != nil {
		t.Error(err)
	}
	if _, err := Lookup("table"); err == nil {
		t.Error("Lookup(table) should fail")
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 12 || names[0] != "C" || names[11] != "B" {
		t.Errorf("Names() = %v", names)
	}
	names[0] = "X"
	if Names()[0] != "C" {
		t.Error("Names() must return a copy")
	}
}
