// Package measure decomposes labeled objects into membrane ring and inner
// core, masks outlier-bright pixels, and aggregates per-label intensity
// statistics frame by frame.
package measure

// Stats is one aggregate triple over a region footprint.
type Stats struct {
	// Mean intensity over the footprint.
	Mean float64
	// Integrated is the sum of intensities over the footprint.
	Integrated float64
	// Area is the footprint pixel count.
	Area int
}

// Record holds one label's measurements on one frame. The ring triple is
// always present; the inner triple exists only when the label kept a
// non-empty eroded core. Absence of inner data is not zero inner data:
// downstream tables render it as a blank.
type Record struct {
	Label int32
	Ring  Stats

	inner    Stats
	hasInner bool
}

// RingOnly builds a record without inner data.
func RingOnly(label int32, ring Stats) Record {
	return Record{Label: label, Ring: ring}
}

// RingAndInner builds a record carrying both triples.
func RingAndInner(label int32, ring, inner Stats) Record {
	return Record{Label: label, Ring: ring, inner: inner, hasInner: true}
}

// Inner returns the inner-region triple and whether it exists.
func (r Record) Inner() (Stats, bool) {
	return r.inner, r.hasInner
}
