// Package grid holds the pixel-level building blocks of the pipelines:
// 2-D frames of labels or intensities, stacks of frames over the leading
// axis, binary bitmaps and the morphology and region statistics computed
// on them. Label 0 always means background.
package grid

// Value is the set of pixel types a frame can carry.
type Value interface {
	~int32 | ~float64
}

// Frame is a single 2-D plane stored row-major.
type Frame[T Value] struct {
	W, H int
	Pix  []T
}

// NewFrame allocates a zero-filled frame.
func NewFrame[T Value](w, h int) *Frame[T] {
	return &Frame[T]{W: w, H: h, Pix: make([]T, w*h)}
}

// At returns the pixel at (x, y). No bounds check beyond the slice's own.
func (f *Frame[T]) At(x, y int) T { return f.Pix[y*f.W+x] }

// Set writes the pixel at (x, y).
func (f *Frame[T]) Set(x, y int, v T) { f.Pix[y*f.W+x] = v }

// Clone returns a deep copy of the frame.
func (f *Frame[T]) Clone() *Frame[T] {
	out := NewFrame[T](f.W, f.H)
	copy(out.Pix, f.Pix)
	return out
}

// Stack is a sequence of equally-shaped frames over the leading axis
// (time for TYX data, depth for ZYX data).
type Stack[T Value] []*Frame[T]

// NewStackLike allocates a stack of zero-filled frames with the same
// shape as the reference stack.
func NewStackLike[T, R Value](ref Stack[R]) Stack[T] {
	out := make(Stack[T], len(ref))
	for i, f := range ref {
		out[i] = NewFrame[T](f.W, f.H)
	}
	return out
}

// Rank is the rank of the array the stack represents: 2 for a single
// frame, 3 for a frame sequence. This is what axis specs validate against.
func (s Stack[T]) Rank() int {
	if len(s) == 1 {
		return 2
	}
	return 3
}

// Bitmap is a binary mask over a frame's footprint.
type Bitmap struct {
	W, H int
	Bits []bool
}

// NewBitmap allocates an all-false bitmap.
func NewBitmap(w, h int) *Bitmap {
	return &Bitmap{W: w, H: h, Bits: make([]bool, w*h)}
}

// At returns the bit at (x, y).
func (b *Bitmap) At(x, y int) bool { return b.Bits[y*b.W+x] }

// Set writes the bit at (x, y).
func (b *Bitmap) Set(x, y int, v bool) { b.Bits[y*b.W+x] = v }

// Count returns the number of set bits.
func (b *Bitmap) Count() int {
	n := 0
	for _, v := range b.Bits {
		if v {
			n++
		}
	}
	return n
}

// MaskOf returns the binary mask of one label value in a label frame.
func MaskOf(f *Frame[int32], label int32) *Bitmap {
	out := NewBitmap(f.W, f.H)
	for i, v := range f.Pix {
		out.Bits[i] = v == label
	}
	return out
}
