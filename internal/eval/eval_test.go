package eval

import "testing"

func TestDetectorFlagsUnconsolidatedSwing(t *testing.T) {
	// Surge to +400 on an even anchor ply, then a full reversal.
	values := []int{10, 20, 400, -200, 450}

	d := NewDetector()
	flagged := d.Flag(values)

	if len(flagged) != 1 || flagged[0] != 1 {
		t.Fatalf("expected flagged indices [1], got %v", flagged)
	}
}

func TestDetectorFlagsBlackSideSwing(t *testing.T) {
	// Same shape mirrored for black: the anchor ply (3) is odd, so
	// the post-swing evaluation must be negative.
	values := []int{0, 0, -10, -400, 200}

	d := NewDetector()
	flagged := d.Flag(values)

	if len(flagged) != 1 || flagged[0] != 2 {
		t.Fatalf("expected flagged indices [2], got %v", flagged)
	}
}

func TestDetectorConstantSequence(t *testing.T) {
	values := []int{30, 30, 30, 30, 30, 30}

	if flagged := NewDetector().Flag(values); len(flagged) != 0 {
		t.Fatalf("expected no flags for constant sequence, got %v", flagged)
	}
}

func TestDetectorDeterministic(t *testing.T) {
	values := []int{10, 20, 400, -200, 450, -30, 500, -500, 600}
	d := NewDetector()

	first := d.Flag(values)
	for run := 0; run < 5; run++ {
		again := d.Flag(values)
		if len(again) != len(first) {
			t.Fatalf("run %d: got %v, want %v", run, again, first)
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("run %d: got %v, want %v", run, again, first)
			}
		}
	}
}

func TestDetectorClampSuppressesDecidedPositions(t *testing.T) {
	// A mate score surfacing in an already-won position clamps to the
	// winning threshold; the residual delta is below the blunder bar.
	values := []int{600, 900, MateScore, 1200, 700}

	if flagged := NewDetector().Flag(values); len(flagged) != 0 {
		t.Fatalf("expected no flags after clamping, got %v", flagged)
	}
}

func TestDetectorRejectsWrongParity(t *testing.T) {
	// Identical magnitudes to the flagged case, but the post-swing
	// evaluation favors the wrong side for its anchor parity.
	values := []int{-10, -20, -400, 200, -450}

	if flagged := NewDetector().Flag(values); len(flagged) != 0 {
		t.Fatalf("expected no flags for wrong parity, got %v", flagged)
	}
}

func TestNormalizeMate(t *testing.T) {
	if got := NormalizeMate(3); got != MateScore {
		t.Errorf("NormalizeMate(3) = %d, want %d", got, MateScore)
	}
	if got := NormalizeMate(-2); got != -MateScore {
		t.Errorf("NormalizeMate(-2) = %d, want %d", got, -MateScore)
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		v, w, want int
	}{
		{100, 800, 100},
		{900, 800, 800},
		{-900, 800, -800},
		{-100, 800, -100},
		{800, 800, 800},
	}
	for _, c := range cases {
		if got := Clamp(c.v, c.w); got != c.want {
			t.Errorf("Clamp(%d, %d) = %d, want %d", c.v, c.w, got, c.want)
		}
	}
}

func TestAnchorPly(t *testing.T) {
	for flagged, want := range map[int]int{0: 1, 1: 2, 7: 8} {
		if got := AnchorPly(flagged); got != want {
			t.Errorf("AnchorPly(%d) = %d, want %d", flagged, got, want)
		}
	}
}
