package note

import "math"

// ResolveLog is the closed-form counterpart of Resolve. It locates the
// bracketing grid points from 12*log2(f/anchor) instead of walking, which
// keeps the cost constant for very wide sweeps. Tie-breaks and rounding
// follow Resolve.
//
// Grid points here are computed as anchor*2^(k/12) rather than by repeated
// multiplication, so NearestHz may differ from Resolve by 0.01 Hz where the
// exact grid value lands on a rounding boundary (C3 = 130.815 Hz).
func ResolveLog(hz float64) (Result, error) {
	observed, err := observe(hz)
	if err != nil {
		return Result{}, err
	}

	semitones := semitonesPerOctave * math.Log2(observed/AnchorHz)

	var pitch float64
	var k int
	if observed >= AnchorHz {
		// Largest grid point strictly below observed, or the anchor itself.
		lo := max(0, int(math.Ceil(semitones))-1)
		for gridHz(lo+1) < observed {
			lo++
		}
		for lo > 0 && gridHz(lo) >= observed {
			lo--
		}
		pitch, k = gridHz(lo), lo
		if next := gridHz(lo + 1); next-observed < observed-pitch {
			pitch, k = next, lo+1
		}
	} else {
		// Smallest grid point above observed whose lower neighbor is not.
		hi := min(0, int(math.Floor(semitones))+1)
		for gridHz(hi-1) > observed {
			hi--
		}
		for hi < 0 && gridHz(hi) <= observed {
			hi++
		}
		pitch, k = gridHz(hi), hi
		if lower := gridHz(hi - 1); observed-lower < pitch-observed {
			pitch, k = lower, hi-1
		}
	}

	return build(observed, pitch, k), nil
}

// gridHz returns the exact equal-tempered frequency k semitones from the anchor.
func gridHz(k int) float64 {
	return AnchorHz * math.Exp2(float64(k)/semitonesPerOctave)
}
