package track

import "github.com/clegall/celltrack-go/grid"

// Detection is one segmented object on one frame. OrigLabel is the
// frame-local segmentation label; it has no meaning across frames, so a
// detection is only unique as the pair (Frame, OrigLabel).
type Detection struct {
	Frame     int
	X         float64
	Y         float64
	Size      int
	OrigLabel int32
	Diameter  float64
}

// Center returns the detection's centroid.
func (d Detection) Center() Point { return Point{X: d.X, Y: d.Y} }

// ExtractDetections turns each frame of a label-map stack into detections.
// Objects touching the frame border are discarded before measuring:
// border-truncated cells would bias centroid and size statistics and must
// never enter tracking. Frames with no surviving objects contribute no rows.
func ExtractDetections(labels grid.Stack[int32]) []Detection {
	var out []Detection
	for t, frame := range labels {
		cleared := grid.ClearBorder(frame)
		for _, r := range grid.Regions(cleared) {
			out = append(out, Detection{
				Frame:     t,
				X:         r.CentroidX,
				Y:         r.CentroidY,
				Size:      r.Area,
				OrigLabel: r.Label,
				Diameter:  r.Major,
			})
		}
	}
	return out
}
