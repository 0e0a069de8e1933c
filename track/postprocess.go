package track

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// PairMap is a symmetric mapping from a track identity to its merge
// partner, restricted to isolated pairs at the final frame. Built fresh per
// run and consumed once by ApplyPairing.
type PairMap map[int]int

// IsolateFullTracks keeps only rows whose track has a detection on the
// last frame. Partial tracks are typically segmentation artifacts or cells
// leaving the field of view, and pairing assumes tracks persist to the end.
// The operation is idempotent.
func IsolateFullTracks(rows []LinkedRow, frames int) []LinkedRow {
	last := frames - 1
	complete := map[int]bool{}
	for _, r := range rows {
		if r.Frame == last {
			complete[r.Track] = true
		}
	}
	out := make([]LinkedRow, 0, len(rows))
	for _, r := range rows {
		if complete[r.Track] {
			out = append(out, r)
		}
	}
	return out
}

// MakePairs inspects the last frame only: tracks whose centroids lie
// within 1.5x the sum of their diameters are adjacent, and a pair
// qualifies for merging iff its connected component has exactly two nodes,
// both of degree one. Clusters of three or more are deliberately never
// merged; guessing lineage inside an ambiguous cluster would trade
// precision for recall.
func MakePairs(rows []LinkedRow, frames int) PairMap {
	pairs := PairMap{}
	last := frames - 1

	// One detection per track identity, deduplicated by track.
	onLast := map[int]LinkedRow{}
	var order []int
	for _, r := range rows {
		if r.Frame != last {
			continue
		}
		if _, ok := onLast[r.Track]; !ok {
			onLast[r.Track] = r
			order = append(order, r.Track)
		}
	}
	if len(onLast) == 0 {
		return pairs
	}

	g := simple.NewUndirectedGraph()
	for _, t := range order {
		g.AddNode(simple.Node(int64(t)))
	}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			a := onLast[order[i]]
			b := onLast[order[j]]
			dist := euclideanDistance(a.Center(), b.Center())
			if dist < 1.5*(a.Diameter+b.Diameter) {
				g.SetEdge(simple.Edge{F: simple.Node(int64(a.Track)), T: simple.Node(int64(b.Track))})
			}
		}
	}

	for _, comp := range topo.ConnectedComponents(g) {
		if len(comp) != 2 {
			continue
		}
		a, b := comp[0].ID(), comp[1].ID()
		if g.From(a).Len() == 1 && g.From(b).Len() == 1 {
			pairs[int(a)] = int(b)
			pairs[int(b)] = int(a)
		}
	}
	return pairs
}

// ApplyPairing collapses each paired couple of tracks to one fresh lineage
// identity across its whole history. New identities are allocated from
// max(existing)+1; rows of unpaired tracks pass through unchanged.
func ApplyPairing(rows []LinkedRow, pairs PairMap) []LinkedRow {
	if len(pairs) == 0 {
		return rows
	}
	next := 0
	for _, r := range rows {
		if r.Track > next {
			next = r.Track
		}
	}
	next++

	// Walk pairs in ascending identity order so allocation is deterministic.
	keys := make([]int, 0, len(pairs))
	for p1 := range pairs {
		keys = append(keys, p1)
	}
	sort.Ints(keys)

	remap := map[int]int{}
	for _, p1 := range keys {
		p2 := pairs[p1]
		if _, done := remap[p1]; done {
			continue
		}
		if _, done := remap[p2]; done {
			continue
		}
		remap[p1] = next
		remap[p2] = next
		next++
	}

	out := make([]LinkedRow, len(rows))
	for i, r := range rows {
		if merged, ok := remap[r.Track]; ok {
			r.Track = merged
		}
		out[i] = r
	}
	return out
}
