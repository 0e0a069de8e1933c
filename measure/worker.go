package measure

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	celltrack "github.com/clegall/celltrack-go"
	"github.com/clegall/celltrack-go/axes"
	"github.com/clegall/celltrack-go/grid"
)

// Worker is the staged membrane measurement pipeline. Bind axes, label
// maps and the intensity channel, tune thickness and outlier factor, then
// Run. Stages execute strictly in order: outlier masking, ring/inner
// decomposition, mask combination, aggregation.
type Worker struct {
	axes      axes.Spec
	labelMaps grid.Stack[int32]
	intensity grid.Stack[float64]

	// Erosion depth in pixels that splits an object into ring and core.
	thickness int
	// Pixels brighter than mean + factor*stddev of a frame's labeled
	// pixels are excluded from every aggregate of that frame.
	factor float64

	rings   grid.Stack[int32]
	inner   grid.Stack[int32]
	results [][]Record

	// Progress, when set, is called after each measured frame.
	Progress func(frame, total int)
}

// NewWorker returns a worker with the interactive tool's defaults:
// TYX axes, 4 px membrane thickness, outlier factor 2.
func NewWorker() *Worker {
	return &Worker{
		axes:      axes.Spec("TYX"),
		thickness: 4,
		factor:    2.0,
	}
}

// SetAxes validates and installs a new axis spec against any bound data.
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
	if w.intensity != nil {
		if err := spec.CheckRank(w.intensity.Rank()); err != nil {
			return err
		}
	}
	w.axes = spec
	return nil
}

// Axes returns the current axis spec.
func (w *Worker) Axes() axes.Spec { return w.axes }

// SetLabelMaps binds the (tracked or raw) label-map stack.
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

// SetIntensityChannel binds the intensity channel to measure.
func (w *Worker) SetIntensityChannel(channel grid.Stack[float64]) error {
	if len(channel) == 0 {
		return errors.Wrap(celltrack.ErrConfiguration, "the candidate intensity channel is empty")
	}
	if err := w.axes.CheckRank(channel.Rank()); err != nil {
		return errors.Wrap(celltrack.ErrConfiguration, "the candidate intensity channel is not compatible with the current axes")
	}
	w.intensity = channel
	return nil
}

// OverrideIntensityChannel rebinds axes and intensity channel together.
func (w *Worker) OverrideIntensityChannel(channel grid.Stack[float64], candidate string) error {
	w.intensity = nil
	if err := w.SetAxes(candidate); err != nil {
		return err
	}
	return w.SetIntensityChannel(channel)
}

// SetMembraneThickness sets the erosion depth in pixels.
func (w *Worker) SetMembraneThickness(thickness int) error {
	if thickness <= 0 {
		return errors.Wrap(celltrack.ErrConfiguration, "the membrane thickness cannot be negative or zero")
	}
	w.thickness = thickness
	return nil
}

// MembraneThickness returns the erosion depth.
func (w *Worker) MembraneThickness() int { return w.thickness }

// SetFactor sets the outlier exclusion factor.
func (w *Worker) SetFactor(factor float64) error {
	if factor <= 1e-3 {
		return errors.Wrap(celltrack.ErrConfiguration, "the factor cannot be negative or zero")
	}
	w.factor = factor
	return nil
}

// Factor returns the outlier exclusion factor.
func (w *Worker) Factor() float64 { return w.factor }

// Rings returns the membrane mask stack after Run.
func (w *Worker) Rings() grid.Stack[int32] { return w.rings }

// InnerRegions returns the eroded-core mask stack after Run.
func (w *Worker) InnerRegions() grid.Stack[int32] { return w.inner }

// Results returns the per-frame measurement records after Run.
func (w *Worker) Results() [][]Record { return w.results }

// RemoveOutlierIntensities builds the per-frame exclusion mask. For each
// frame the mean and population standard deviation of intensities under
// any nonzero label define the brightness cutoff; a set bit keeps the
// pixel. Bright debris would otherwise dominate integrated sums.
func (w *Worker) RemoveOutlierIntensities() ([]*grid.Bitmap, error) {
	if w.intensity == nil {
		return nil, errors.Wrap(celltrack.ErrState, "intensity channel has not been set")
	}
	if w.labelMaps == nil {
		return nil, errors.Wrap(celltrack.ErrState, "label maps have not been set")
	}

	masks := make([]*grid.Bitmap, len(w.intensity))
	for t, frame := range w.intensity {
		labels := w.labelMaps[t]
		values := make([]float64, 0, len(frame.Pix))
		for i, v := range labels.Pix {
			if v > 0 {
				values = append(values, frame.Pix[i])
			}
		}
		mask := grid.NewBitmap(frame.W, frame.H)
		masks[t] = mask
		if len(values) == 0 {
			// No labeled pixels: nothing can pass the cutoff, and nothing
			// will be measured on this frame either.
			continue
		}
		mean := stat.Mean(values, nil)
		stddev := stat.PopStdDev(values, nil)
		tooBright := mean + w.factor*stddev
		for i, v := range frame.Pix {
			mask.Bits[i] = v < tooBright
		}
	}
	return masks, nil
}

// LabelsToOutlines erodes every label's mask by the membrane thickness and
// splits it into a ring (mask minus eroded mask) and an inner core, both
// carrying the label value. Exclusive labels guarantee distinct objects
// never overwrite each other in the shared per-frame buffers.
func (w *Worker) LabelsToOutlines() (rings, inner grid.Stack[int32], err error) {
	if w.labelMaps == nil {
		return nil, nil, errors.Wrap(celltrack.ErrState, "label maps have not been set")
	}

	rings = grid.NewStackLike[int32](w.labelMaps)
	inner = grid.NewStackLike[int32](w.labelMaps)
	for t, frame := range w.labelMaps {
		ringBuf := rings[t]
		innerBuf := inner[t]
		for _, value := range grid.UniqueLabels(frame) {
			mask := grid.MaskOf(frame, value)
			eroded := grid.Erode(mask, w.thickness)
			for i := range mask.Bits {
				if !mask.Bits[i] {
					continue
				}
				if eroded.Bits[i] {
					innerBuf.Pix[i] |= value
				} else {
					ringBuf.Pix[i] |= value
				}
			}
		}
		if w.Progress != nil {
			w.Progress(t+1, len(w.labelMaps))
		}
	}
	return rings, inner, nil
}

// MeasureIntensities aggregates mean, integrated intensity and area per
// label over the ring footprint, and over the inner footprint when the
// label has one. A label without a ring footprint produces no record at
// all; a label without an inner footprint produces a ring-only record.
func (w *Worker) MeasureIntensities() error {
	if w.rings == nil {
		return errors.Wrap(celltrack.ErrState, "outlines have not been computed")
	}
	if w.inner == nil {
		return errors.Wrap(celltrack.ErrState, "inner labels have not been computed")
	}

	results := make([][]Record, len(w.rings))
	for t := range w.rings {
		intensity := w.intensity[t]
		ringStats := frameStats(w.rings[t], intensity)
		innerStats := frameStats(w.inner[t], intensity)

		labels := make([]int32, 0, len(ringStats))
		for label := range ringStats {
			labels = append(labels, label)
		}
		sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

		records := make([]Record, 0, len(labels))
		for _, label := range labels {
			ring := ringStats[label]
			if in, ok := innerStats[label]; ok {
				records = append(records, RingAndInner(label, ring, in))
			} else {
				records = append(records, RingOnly(label, ring))
			}
		}
		results[t] = records
	}
	w.results = results
	return nil
}

// frameStats aggregates the intensity triple for every nonzero label of a
// mask frame.
func frameStats(maskFrame *grid.Frame[int32], intensity *grid.Frame[float64]) map[int32]Stats {
	type acc struct {
		sum  float64
		area int
	}
	accs := map[int32]*acc{}
	for i, label := range maskFrame.Pix {
		if label == 0 {
			continue
		}
		a := accs[label]
		if a == nil {
			a = &acc{}
			accs[label] = a
		}
		a.sum += intensity.Pix[i]
		a.area++
	}
	out := make(map[int32]Stats, len(accs))
	for label, a := range accs {
		out[label] = Stats{
			Mean:       a.sum / float64(a.area),
			Integrated: a.sum,
			Area:       a.area,
		}
	}
	return out
}

// Run executes the measurement pipeline end to end.
func (w *Worker) Run() error {
	if w.labelMaps == nil {
		return errors.Wrap(celltrack.ErrState, "label maps have not been set")
	}
	if w.intensity == nil {
		return errors.Wrap(celltrack.ErrState, "intensity channel has not been set")
	}
	if len(w.intensity) != len(w.labelMaps) {
		return errors.Wrap(celltrack.ErrConfiguration, "the intensity channel and label maps have different frame counts")
	}

	discard, err := w.RemoveOutlierIntensities()
	if err != nil {
		return err
	}
	rings, inner, err := w.LabelsToOutlines()
	if err != nil {
		return err
	}

	// Zero excluded pixels out of both footprints before aggregating.
	for t := range rings {
		mask := discard[t]
		for i := range rings[t].Pix {
			if !mask.Bits[i] {
				rings[t].Pix[i] = 0
				inner[t].Pix[i] = 0
			}
		}
	}
	w.rings = rings
	w.inner = inner

	return w.MeasureIntensities()
}
