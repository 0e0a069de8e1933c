package grid

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Region holds the per-object statistics the tracking pipeline consumes.
// Centroid coordinates follow image convention: X is the column, Y the row.
type Region struct {
	Label     int32
	Area      int
	CentroidX float64
	CentroidY float64
	// Major is the major axis length of the ellipse with the same
	// normalized second central moments as the region.
	Major float64
}

// UniqueLabels returns the distinct nonzero labels of a frame in
// ascending order.
func UniqueLabels(f *Frame[int32]) []int32 {
	seen := map[int32]bool{}
	for _, v := range f.Pix {
		if v != 0 {
			seen[v] = true
		}
	}
	out := make([]int32, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ClearBorder returns a copy of the frame with every label that touches
// the frame border erased. The input frame is left untouched.
func ClearBorder(f *Frame[int32]) *Frame[int32] {
	drop := map[int32]bool{}
	for x := 0; x < f.W; x++ {
		if v := f.At(x, 0); v != 0 {
			drop[v] = true
		}
		if v := f.At(x, f.H-1); v != 0 {
			drop[v] = true
		}
	}
	for y := 0; y < f.H; y++ {
		if v := f.At(0, y); v != 0 {
			drop[v] = true
		}
		if v := f.At(f.W-1, y); v != 0 {
			drop[v] = true
		}
	}
	out := f.Clone()
	if len(drop) == 0 {
		return out
	}
	for i, v := range out.Pix {
		if drop[v] {
			out.Pix[i] = 0
		}
	}
	return out
}

type regionAcc struct {
	area       int
	sumX, sumY float64
	xs, ys     []float64
}

// Regions computes area, centroid and major axis length for every nonzero
// label in the frame. The caller must guarantee labels are exclusive (each
// connected component carries a single positive value).
func Regions(f *Frame[int32]) []Region {
	accs := map[int32]*regionAcc{}
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			v := f.At(x, y)
			if v == 0 {
				continue
			}
			a := accs[v]
			if a == nil {
				a = &regionAcc{}
				accs[v] = a
			}
			a.area++
			a.sumX += float64(x)
			a.sumY += float64(y)
			a.xs = append(a.xs, float64(x))
			a.ys = append(a.ys, float64(y))
		}
	}

	labels := make([]int32, 0, len(accs))
	for v := range accs {
		labels = append(labels, v)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	out := make([]Region, 0, len(labels))
	for _, v := range labels {
		a := accs[v]
		n := float64(a.area)
		cx := a.sumX / n
		cy := a.sumY / n
		out = append(out, Region{
			Label:     v,
			Area:      a.area,
			CentroidX: cx,
			CentroidY: cy,
			Major:     majorAxisLength(a.xs, a.ys, cx, cy),
		})
	}
	return out
}

// majorAxisLength is 4*sqrt of the largest eigenvalue of the covariance
// matrix of the region's pixel coordinates.
func majorAxisLength(xs, ys []float64, cx, cy float64) float64 {
	n := float64(len(xs))
	var cxx, cyy, cxy float64
	for i := range xs {
		dx := xs[i] - cx
		dy := ys[i] - cy
		cxx += dx * dx
		cyy += dy * dy
		cxy += dx * dy
	}
	cxx /= n
	cyy /= n
	cxy /= n

	sym := mat.NewSymDense(2, []float64{cxx, cxy, cxy, cyy})
	var eig mat.EigenSym
	if !eig.Factorize(sym, false) {
		return 0
	}
	vals := eig.Values(nil)
	largest := math.Max(vals[0], vals[1])
	if largest <= 0 {
		return 0
	}
	return 4 * math.Sqrt(largest)
}
