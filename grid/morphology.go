package grid

// Erode shrinks a binary mask by the given number of iterations with the
// 4-connected cross structuring element. Pixels outside the frame count as
// background, so objects touching the border erode from that side too.
// Zero or negative iterations return an unchanged copy.
func Erode(mask *Bitmap, iterations int) *Bitmap {
	cur := &Bitmap{W: mask.W, H: mask.H, Bits: append([]bool(nil), mask.Bits...)}
	for it := 0; it < iterations; it++ {
		next := NewBitmap(cur.W, cur.H)
		for y := 0; y < cur.H; y++ {
			for x := 0; x < cur.W; x++ {
				if !cur.At(x, y) {
					continue
				}
				if x == 0 || y == 0 || x == cur.W-1 || y == cur.H-1 {
					continue
				}
				if cur.At(x-1, y) && cur.At(x+1, y) && cur.At(x, y-1) && cur.At(x, y+1) {
					next.Set(x, y, true)
				}
			}
		}
		cur = next
	}
	return cur
}
