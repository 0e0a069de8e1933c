package grid

import "testing"

func squareMask(w, h, x0, y0, side int) *Bitmap {
	b := NewBitmap(w, h)
	for y := y0; y < y0+side; y++ {
		for x := x0; x < x0+side; x++ {
			b.Set(x, y, true)
		}
	}
	return b
}

func TestErodeSquare(t *testing.T) {
	// A 5x5 square eroded once with the 4-connected cross leaves a 3x3 core.
	mask := squareMask(9, 9, 2, 2, 5)
	eroded := Erode(mask, 1)
	if got := eroded.Count(); got != 9 {
		t.Errorf("eroded count = %d, expected 9", got)
	}
	for y := 3; y < 6; y++ {
		for x := 3; x < 6; x++ {
			if !eroded.At(x, y) {
				t.Errorf("core pixel (%d,%d) missing", x, y)
			}
		}
	}
}

func TestErodeZeroIterations(t *testing.T) {
	mask := squareMask(7, 7, 1, 1, 4)
	eroded := Erode(mask, 0)
	if eroded.Count() != mask.Count() {
		t.Errorf("zero-iteration erosion changed the mask: %d != %d", eroded.Count(), mask.Count())
	}
	// The result must be a copy, not an alias.
	eroded.Set(1, 1, false)
	if !mask.At(1, 1) {
		t.Error("Erode aliased its input")
	}
}

func TestErodeAtBorder(t *testing.T) {
	// Outside the frame counts as background, so a square flush against
	// the border erodes from that side too.
	mask := squareMask(5, 5, 0, 0, 3)
	eroded := Erode(mask, 1)
	if got := eroded.Count(); got != 1 {
		t.Errorf("eroded count = %d, expected 1", got)
	}
	if !eroded.At(1, 1) {
		t.Error("expected surviving pixel at (1,1)")
	}
}

func TestErodeUntilEmpty(t *testing.T) {
	mask := squareMask(9, 9, 2, 2, 5)
	if got := Erode(mask, 3).Count(); got != 0 {
		t.Errorf("over-eroded mask should be empty, got %d pixels", got)
	}
}
