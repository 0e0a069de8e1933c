package track

import "github.com/clegall/celltrack-go/grid"

// RelabelWithTracks rewrites each frame's segmentation labels with the
// stable track identities from the linked table. The output stack mirrors
// the input's shape; pixels whose label was pruned or never linked stay 0.
// The input stack is not touched.
func RelabelWithTracks(labels grid.Stack[int32], rows []LinkedRow) grid.Stack[int32] {
	out := grid.NewStackLike[int32](labels)

	// Per-frame map from original label to track identity. Labels are
	// strictly frame-scoped keys; the same value on another frame may
	// belong to a different track.
	byFrame := make([]map[int32]int32, len(labels))
	for _, r := range rows {
		if r.Frame < 0 || r.Frame >= len(labels) || r.OrigLabel == 0 {
			continue
		}
		m := byFrame[r.Frame]
		if m == nil {
			m = map[int32]int32{}
			byFrame[r.Frame] = m
		}
		m[r.OrigLabel] = int32(r.Track)
	}

	for t, frame := range labels {
		m := byFrame[t]
		if m == nil {
			continue
		}
		dst := out[t]
		for i, v := range frame.Pix {
			if tr, ok := m[v]; ok {
				dst.Pix[i] = tr
			}
		}
	}
	return out
}
