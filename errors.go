package celltrack

import "github.com/pkg/errors"

// Every failure in the pipelines is a caller mistake of one of two kinds.
// There is no transient class: nothing is retried, nothing is recovered.
var (
	// ErrConfiguration marks an invalid parameter: bad axes, a non-positive
	// search range, diameter or thickness, a negative memory, a factor that
	// is too small. Raised at the setter or at the start of a run.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrState marks a run or read invoked before its inputs were bound or
	// before the upstream stage produced its result.
	ErrState = errors.New("invalid state")
)
