// Package eval implements the evaluation-sequence heuristics that
// flag missed tactics in an engine-annotated game. Everything here is
// pure arithmetic over centipawn values; no chess knowledge involved.
package eval

const (
	// MateScore is the collapsed magnitude for forced-mate evaluations.
	MateScore = 99999

	// DefaultBlunderThreshold is the minimum swing, in centipawns,
	// that qualifies as a missed tactic.
	DefaultBlunderThreshold = 250

	// DefaultWinningClamp caps evaluation magnitude so swings inside
	// already-decided positions do not produce inflated deltas.
	DefaultWinningClamp = 800
)

// NormalizeMate collapses a mate-in-N indicator onto the centipawn
// scale, keeping the sign of the side delivering mate.
func NormalizeMate(mateIn int) int {
	if mateIn < 0 {
		return -MateScore
	}
	return MateScore
}

// Clamp caps the magnitude of v at w.
func Clamp(v, w int) int {
	if v > w {
		return w
	}
	if v < -w {
		return -w
	}
	return v
}

// AnchorPly maps a flagged detector index to the puzzle anchor ply,
// the ply immediately after the move whose advantage went unpunished.
func AnchorPly(flagged int) int {
	return flagged + 1
}

// Detector scans a per-ply evaluation sequence for missed tactics.
type Detector struct {
	BlunderThreshold int
	WinningClamp     int
}

// NewDetector returns a detector with the default thresholds.
func NewDetector() Detector {
	return Detector{
		BlunderThreshold: DefaultBlunderThreshold,
		WinningClamp:     DefaultWinningClamp,
	}
}

// Flag returns the ascending indices i where the evaluation surged in
// favor of the side moving at the anchor ply and the follow-up failed
// to consolidate. values[i] is the evaluation after ply i (white's
// point of view, mate already normalized); clamping is applied here.
//
// An index i is flagged when all of the following hold:
//  1. ev[i+1] favors the side expected at the anchor ply parity
//  2. |ev[i+1]| >= threshold
//  3. |ev[i+1]-ev[i]| >= threshold
//  4. |ev[i+2]-ev[i+1]| >= 0.66 * |ev[i+1]-ev[i]|
//  5. the swing is more than half of the resulting evaluation
//  6. the swing and the follow-up swing point in opposite directions
func (d Detector) Flag(values []int) []int {
	ev := make([]int, len(values))
	for i, v := range values {
		ev[i] = Clamp(v, d.WinningClamp)
	}

	var flagged []int
	for i := 0; i+2 < len(ev); i++ {
		next := ev[i+1]
		if sign(next) != expectedSign(AnchorPly(i)) {
			continue
		}
		if abs(next) < d.BlunderThreshold {
			continue
		}
		delta := ev[i+1] - ev[i]
		if abs(delta) < d.BlunderThreshold {
			continue
		}
		delta2 := ev[i+2] - ev[i+1]
		if 100*abs(delta2) < 66*abs(delta) {
			continue
		}
		if 2*abs(delta) <= abs(next) {
			continue
		}
		if sign(delta) == sign(delta2) {
			continue
		}
		flagged = append(flagged, i)
	}
	return flagged
}

// expectedSign is the evaluation sign that benefits the side who just
// moved at the given anchor ply: white on even plies, black on odd.
func expectedSign(anchor int) int {
	if anchor%2 == 0 {
		return 1
	}
	return -1
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
