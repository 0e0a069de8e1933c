// Package segment defines the contract with the external instance
// segmentation engine. The engine turns an intensity channel into a stack
// of exclusive integer label maps; the core never segments anything itself
// and never reinterprets an engine failure.
package segment

import (
	"github.com/pkg/errors"

	celltrack "github.com/clegall/celltrack-go"
	"github.com/clegall/celltrack-go/axes"
	"github.com/clegall/celltrack-go/grid"
)

// ErrNoLabelMaps is how any engine failure surfaces to the pipelines.
var ErrNoLabelMaps = errors.Wrap(celltrack.ErrState, "no label maps available")

// Params configures one segmentation request.
type Params struct {
	// Axes of the bound channel.
	Axes axes.Spec
	// Diameter is the median object diameter in pixels.
	Diameter float64
	// Anisotropy between the Z and the YX axes for 3-D data.
	Anisotropy float64
	// Model identifies which trained model the engine should run.
	Model string
	// UseGPU asks the engine for GPU inference when available.
	UseGPU bool
}

// DefaultParams mirrors the interactive tool's segmentation defaults.
func DefaultParams() Params {
	return Params{
		Axes:       axes.Spec("TYX"),
		Diameter:   30,
		Anisotropy: 1.0,
		Model:      "cyto3",
		UseGPU:     true,
	}
}

// Validate rejects parameter values the engine must never see.
func (p Params) Validate() error {
	if len(p.Axes) < 2 {
		return errors.Wrap(celltrack.ErrConfiguration, "the axes have not been set or are invalid")
	}
	if p.Diameter <= 0 {
		return errors.Wrap(celltrack.ErrConfiguration, "the median diameter cannot be negative or zero")
	}
	if p.Anisotropy <= 1e-3 {
		return errors.Wrap(celltrack.ErrConfiguration, "the anisotropy factor cannot be negative or zero")
	}
	return nil
}

// Engine is the external collaborator producing label maps. The progress
// callback, when non-nil, is invoked after each segmented frame.
type Engine interface {
	Segment(channel grid.Stack[float64], p Params, progress func(done, total int)) (grid.Stack[int32], error)
}

// Run validates parameters, invokes the engine and normalizes any failure
// to ErrNoLabelMaps. The caller decides whether and how to retry; the core
// does not.
func Run(engine Engine, channel grid.Stack[float64], p Params, progress func(done, total int)) (grid.Stack[int32], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(channel) == 0 {
		return nil, errors.Wrap(celltrack.ErrState, "the segmentation channel has not been set")
	}
	labels, err := engine.Segment(channel, p, progress)
	if err != nil || len(labels) == 0 {
		return nil, ErrNoLabelMaps
	}
	return labels, nil
}
