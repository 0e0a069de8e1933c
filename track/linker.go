package track

import (
	"math"
	"sort"

	"github.com/arthurkushman/go-hungarian"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	celltrack "github.com/clegall/celltrack-go"
)

// MatchingAlgorithm selects how frame detections are assigned to open tracks.
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmGreedy assigns detections to their nearest open track
	// in ascending distance order via a min-heap. This is the default and
	// mirrors plain nearest-neighbor linking.
	MatchingAlgorithmGreedy MatchingAlgorithm = iota
	// MatchingAlgorithmHungarian uses the Hungarian algorithm (Kuhn-Munkres)
	// for a globally optimal assignment within the search radius.
	MatchingAlgorithmHungarian
)

// LinkedRow is a detection augmented with its track identity. Identities
// are dense positive integers starting at 1; at most one row exists per
// (track, frame).
type LinkedRow struct {
	Detection
	Track int
}

// Linker links detections across frames into trajectories by
// frame-sequential nearest-neighbor assignment, optionally predicting each
// track's expected position from its velocity before matching.
type Linker struct {
	// Max per-frame centroid displacement considered a valid link, in pixels.
	searchRange float64
	// Max number of consecutive frames a track may vanish and still be
	// re-acquired. Past that the track is permanently closed.
	memory int
	// Predict expected positions via per-track Kalman velocity state.
	useVelocity bool
	// Algorithm to use for matching
	algorithm MatchingAlgorithm
}

// NewLinker validates the linking parameters up front; linking never starts
// with an invalid search range or memory.
func NewLinker(searchRange float64, memory int, useVelocity bool) (*Linker, error) {
	if searchRange <= 0 {
		return nil, errors.Wrap(celltrack.ErrConfiguration, "the search range cannot be negative or zero")
	}
	if memory < 0 {
		return nil, errors.Wrap(celltrack.ErrConfiguration, "the memory cannot be negative")
	}
	return &Linker{
		searchRange: searchRange,
		memory:      memory,
		useVelocity: useVelocity,
		algorithm:   MatchingAlgorithmGreedy,
	}, nil
}

// SetAlgorithm switches the per-frame assignment algorithm.
func (l *Linker) SetAlgorithm(algorithm MatchingAlgorithm) {
	l.algorithm = algorithm
}

// Link walks frames in order, matching each frame's detections against the
// open tracks of the previous frames. Every input detection appears in
// exactly one output row.
func (l *Linker) Link(dets []Detection) ([]LinkedRow, error) {
	if len(dets) == 0 {
		return nil, nil
	}

	byFrame := map[int][]int{}
	minFrame, maxFrame := dets[0].Frame, dets[0].Frame
	for i, d := range dets {
		byFrame[d.Frame] = append(byFrame[d.Frame], i)
		if d.Frame < minFrame {
			minFrame = d.Frame
		}
		if d.Frame > maxFrame {
			maxFrame = d.Frame
		}
	}

	open := map[uuid.UUID]*openTrack{}
	// Track creation order; identities are renumbered along it at the end.
	created := []uuid.UUID{}
	rowTrack := make([]uuid.UUID, len(dets))

	register := func(detIdx int) {
		tr := newOpenTrack(dets[detIdx], l.useVelocity)
		open[tr.id] = tr
		created = append(created, tr.id)
		rowTrack[detIdx] = tr.id
	}

	for f := minFrame; f <= maxFrame; f++ {
		for _, tr := range open {
			tr.predictNextPosition()
		}

		idxs := byFrame[f]
		matched := map[uuid.UUID]bool{}
		var err error
		switch l.algorithm {
		case MatchingAlgorithmHungarian:
			err = l.matchHungarian(dets, idxs, open, created, matched, rowTrack, register)
		default:
			err = l.matchGreedy(dets, idxs, open, matched, rowTrack, register)
		}
		if err != nil {
			return nil, err
		}

		// Age unmatched tracks; close the ones gone past memory.
		for id, tr := range open {
			if matched[id] {
				continue
			}
			tr.noMatchTimes++
			if tr.noMatchTimes > l.memory {
				delete(open, id)
			}
		}
	}

	// Renumber provisional identities to dense 1-based integers in track
	// creation order.
	dense := make(map[uuid.UUID]int, len(created))
	for i, id := range created {
		dense[id] = i + 1
	}
	rows := make([]LinkedRow, len(dets))
	for i := range dets {
		rows[i] = LinkedRow{Detection: dets[i], Track: dense[rowTrack[i]]}
	}
	return rows, nil
}

// matchGreedy processes candidate links in ascending distance order. A
// min-heap over each detection's nearest open track guarantees every open
// track is claimed by its closest detection only once; later detections
// pointing at a reserved track start new tracks.
func (l *Linker) matchGreedy(dets []Detection, idxs []int, open map[uuid.UUID]*openTrack,
	matched map[uuid.UUID]bool, rowTrack []uuid.UUID, register func(int)) error {

	queue := make(matchHeap, 0, len(idxs))
	for _, detIdx := range idxs {
		center := dets[detIdx].Center()
		best := uuid.UUID{}
		bestDist := math.MaxFloat64
		for id, tr := range open {
			if dist := euclideanDistance(center, tr.predicted); dist < bestDist {
				bestDist = dist
				best = id
			}
		}
		queue.Push(&candidateMatch{detIndex: detIdx, trackID: best, distance: bestDist})
	}

	for queue.Len() > 0 {
		cand := queue.Pop()
		tr, ok := open[cand.trackID]
		if !ok || matched[cand.trackID] || cand.distance >= l.searchRange {
			register(cand.detIndex)
			continue
		}
		if err := tr.update(dets[cand.detIndex]); err != nil {
			return errors.Wrapf(err, "can't update track %s", cand.trackID)
		}
		matched[cand.trackID] = true
		rowTrack[cand.detIndex] = cand.trackID
	}
	return nil
}

// matchHungarian builds a score matrix over (open track, detection) pairs
// and solves the optimal assignment. Scores are searchRange minus distance,
// floored at zero, so the gate check after assignment still rejects pairs
// beyond the search radius.
func (l *Linker) matchHungarian(dets []Detection, idxs []int, open map[uuid.UUID]*openTrack,
	created []uuid.UUID, matched map[uuid.UUID]bool, rowTrack []uuid.UUID, register func(int)) error {

	// Stable track ordering for the matrix rows.
	openIDs := make([]uuid.UUID, 0, len(open))
	for _, id := range created {
		if _, ok := open[id]; ok {
			openIDs = append(openIDs, id)
		}
	}

	if len(openIDs) == 0 || len(idxs) == 0 {
		for _, detIdx := range idxs {
			register(detIdx)
		}
		return nil
	}

	size := len(openIDs)
	if len(idxs) > size {
		size = len(idxs)
	}
	scores := make([][]float64, size)
	for i := range scores {
		scores[i] = make([]float64, size)
	}
	for i, id := range openIDs {
		predicted := open[id].predicted
		for j, detIdx := range idxs {
			dist := euclideanDistance(dets[detIdx].Center(), predicted)
			if dist < l.searchRange {
				scores[i][j] = l.searchRange - dist
			}
		}
	}

	assignments := hungarian.SolveMax(scores)
	claimed := map[int]bool{}
	for trackRow, cols := range assignments {
		if trackRow >= len(openIDs) {
			continue
		}
		for detCol := range cols {
			if detCol >= len(idxs) {
				continue
			}
			// Padded and out-of-radius cells score zero; reject them here.
			if scores[trackRow][detCol] <= 0 {
				continue
			}
			id := openIDs[trackRow]
			detIdx := idxs[detCol]
			if err := open[id].update(dets[detIdx]); err != nil {
				return errors.Wrapf(err, "can't update track %s", id)
			}
			matched[id] = true
			rowTrack[detIdx] = id
			claimed[detCol] = true
		}
	}
	for j, detIdx := range idxs {
		if !claimed[j] {
			register(detIdx)
		}
	}
	return nil
}

// SortRows orders linked rows by frame then track identity. Output order is
// deterministic regardless of matching internals.
func SortRows(rows []LinkedRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Frame != rows[j].Frame {
			return rows[i].Frame < rows[j].Frame
		}
		return rows[i].Track < rows[j].Track
	})
}
