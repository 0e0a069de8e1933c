package track

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/google/uuid"
)

// openTrack is one track still eligible for matching. Identity is a
// provisional uuid while linking runs; output rows are renumbered to dense
// 1-based integers afterwards.
//
// When velocity prediction is on, a 2-D Kalman filter carries the track's
// position and velocity state forward so the expected position on the next
// frame accounts for the cell's recent motion. Otherwise the last measured
// centroid is used as the prediction.
type openTrack struct {
	id           uuid.UUID
	center       Point
	predicted    Point
	noMatchTimes int
	filter       *kalman_filter.Kalman2D
}

func newOpenTrack(det Detection, useVelocity bool) *openTrack {
	tr := &openTrack{
		id:        uuid.New(),
		center:    det.Center(),
		predicted: det.Center(),
	}
	if useVelocity {
		// Same filter parameterization the bounding-box trackers use for
		// centroid dynamics; dt is one frame.
		ux := 1.0
		uy := 1.0
		stdDevA := 2.0
		stdDevMx := 0.1
		stdDevMy := 0.1
		tr.filter = kalman_filter.NewKalman2D(1.0, ux, uy, stdDevA, stdDevMx, stdDevMy,
			kalman_filter.WithState2D(det.X, det.Y))
	}
	return tr
}

// predictNextPosition advances the expected position one frame. Without a
// filter the expectation stays at the last measured centroid.
func (tr *openTrack) predictNextPosition() {
	if tr.filter == nil {
		tr.predicted = tr.center
		return
	}
	tr.filter.Predict()
	x, y := tr.filter.GetState()
	tr.predicted = Point{X: x, Y: y}
}

// update feeds a matched detection into the track. The measured centroid is
// kept as-is for output; the filter only smooths the internal motion state
// used for the next prediction.
func (tr *openTrack) update(det Detection) error {
	tr.center = det.Center()
	tr.noMatchTimes = 0
	if tr.filter != nil {
		if err := tr.filter.Update(det.X, det.Y); err != nil {
			return err
		}
	}
	return nil
}
