package track

import (
	"github.com/pkg/errors"

	celltrack "github.com/clegall/celltrack-go"
	"github.com/clegall/celltrack-go/axes"
	"github.com/clegall/celltrack-go/grid"
)

// Worker is the staged tracking pipeline: bind axes and label maps, tune
// parameters, then Run. Each stage result is kept as a typed field readable
// after the run. A Worker is single-use state for one batch; it is not safe
// for concurrent use.
type Worker struct {
	axes      axes.Spec
	labelMaps grid.Stack[int32]

	searchRange      float64
	memory           int
	useVelocity      bool
	mergeNeighbors   bool
	removeIncomplete bool
	algorithm        MatchingAlgorithm

	detections    []Detection
	linked        []LinkedRow
	pairs         PairMap
	trackedLabels grid.Stack[int32]
}

// NewWorker returns a worker with the same defaults the interactive tool
// ships with: TYX axes, 50 px search range, 2 frames of memory, velocity
// prediction on, both post-processing steps off.
func NewWorker() *Worker {
	return &Worker{
		axes:        axes.Spec("TYX"),
		searchRange: 50,
		memory:      2,
		useVelocity: true,
		algorithm:   MatchingAlgorithmGreedy,
	}
}

// SetAxes validates and installs a new axis spec. Once label maps are
// bound, a spec that changes the rank is rejected.
func (w *Worker) SetAxes(candidate string) error {
	spec, err := axes.Parse(candidate)
	if err != nil {
		return err
	}
	if w.labelMaps != nil {
		if err := spec.CheckRank(w.labelMaps.Rank()); err != nil {
			return err
		}
	}
	w.axes = spec
	return nil
}

// Axes returns the current axis spec.
func (w *Worker) Axes() axes.Spec { return w.axes }

// SetLabelMaps binds the segmentation output. The stack's rank must match
// the current axes. The worker never mutates the bound stack.
func (w *Worker) SetLabelMaps(labels grid.Stack[int32]) error {
	if len(labels) == 0 {
		return errors.Wrap(celltrack.ErrConfiguration, "the candidate label maps are empty")
	}
	if err := w.axes.CheckRank(labels.Rank()); err != nil {
		return errors.Wrap(celltrack.ErrConfiguration, "the candidate label maps are not compatible with the current axes")
	}
	w.labelMaps = labels
	return nil
}

// OverrideLabelMaps rebinds axes and label maps together.
func (w *Worker) OverrideLabelMaps(labels grid.Stack[int32], candidate string) error {
	w.labelMaps = nil
	if err := w.SetAxes(candidate); err != nil {
		return err
	}
	return w.SetLabelMaps(labels)
}

// SetSearchRange sets the max per-frame displacement considered a link.
func (w *Worker) SetSearchRange(sr float64) error {
	if sr <= 0 {
		return errors.Wrap(celltrack.ErrConfiguration, "the search range cannot be negative or zero")
	}
	w.searchRange = sr
	return nil
}

// SearchRange returns the current search range.
func (w *Worker) SearchRange() float64 { return w.searchRange }

// SetMemory sets how many consecutive frames a track may vanish and still
// be re-acquired.
func (w *Worker) SetMemory(mem int) error {
	if mem < 0 {
		return errors.Wrap(celltrack.ErrConfiguration, "the memory cannot be negative")
	}
	w.memory = mem
	return nil
}

// Memory returns the current linking memory.
func (w *Worker) Memory() int { return w.memory }

// SetUseVelocity toggles velocity-predictive linking.
func (w *Worker) SetUseVelocity(uv bool) { w.useVelocity = uv }

// SetMergeNeighbors toggles isolated-pair merging after linking.
func (w *Worker) SetMergeNeighbors(mn bool) { w.mergeNeighbors = mn }

// SetRemoveIncomplete toggles pruning of tracks absent from the last frame.
func (w *Worker) SetRemoveIncomplete(ri bool) { w.removeIncomplete = ri }

// SetAlgorithm selects the per-frame assignment algorithm.
func (w *Worker) SetAlgorithm(algorithm MatchingAlgorithm) { w.algorithm = algorithm }

// Detections returns the extracted detection table.
func (w *Worker) Detections() []Detection { return w.detections }

// LinkedTracks returns the linked table after Run.
func (w *Worker) LinkedTracks() []LinkedRow { return w.linked }

// Pairs returns the pair map built by the last run, if any.
func (w *Worker) Pairs() PairMap { return w.pairs }

// TrackedLabels returns the relabeled stack after Run.
func (w *Worker) TrackedLabels() grid.Stack[int32] { return w.trackedLabels }

// SaveLinkedTracks exports the linked table as CSV. It fails with a state
// error when called before a successful run.
func (w *Worker) SaveLinkedTracks(path string) error {
	return SaveLinkedTracks(path, w.linked)
}

// Run executes the whole tracking pipeline: detection extraction, linking,
// optional pruning and neighbor merging, and label-map reconstruction.
func (w *Worker) Run() error {
	if w.labelMaps == nil {
		return errors.Wrap(celltrack.ErrState, "label maps have not been set")
	}

	w.detections = ExtractDetections(w.labelMaps)

	linker, err := NewLinker(w.searchRange, w.memory, w.useVelocity)
	if err != nil {
		return err
	}
	linker.SetAlgorithm(w.algorithm)
	w.linked, err = linker.Link(w.detections)
	if err != nil {
		return errors.Wrap(err, "can't link detections")
	}
	if w.linked == nil {
		// A successful link over zero detections still counts as linked.
		w.linked = []LinkedRow{}
	}
	SortRows(w.linked)

	// Pruning and pairing only make sense along a time axis.
	if w.removeIncomplete && w.axes.HasTime() {
		w.linked = IsolateFullTracks(w.linked, len(w.labelMaps))
	}
	w.pairs = PairMap{}
	if w.mergeNeighbors && w.axes.HasTime() {
		w.pairs = MakePairs(w.linked, len(w.labelMaps))
		w.linked = ApplyPairing(w.linked, w.pairs)
	}

	w.trackedLabels = RelabelWithTracks(w.labelMaps, w.linked)
	return nil
}
