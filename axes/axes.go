// Package axes validates dimension-tag strings against array shapes.
// A spec is an ordered subset of the tags T, Z, Y, X; the relative order
// of the tags is fixed (T before Z before Y before X).
package axes

import (
	"strings"

	"github.com/pkg/errors"

	celltrack "github.com/clegall/celltrack-go"
)

// canonical is the full tag alphabet in its only legal relative order.
const canonical = "TZYX"

// Spec is a validated axis string, e.g. "TYX" or "ZYX".
type Spec string

// Parse validates a candidate axis string. It fails when the candidate
// contains duplicate tags, tags outside {T,Z,Y,X}, or tags out of the
// canonical relative order.
func Parse(candidate string) (Spec, error) {
	if candidate == "" {
		return "", errors.Wrap(celltrack.ErrConfiguration, "the candidate axes are empty")
	}
	lastPos := -1
	seen := map[rune]bool{}
	for _, tag := range candidate {
		pos := strings.IndexRune(canonical, tag)
		if pos < 0 {
			return "", errors.Wrapf(celltrack.ErrConfiguration, "the candidate axes %q contain unknown elements", candidate)
		}
		if seen[tag] {
			return "", errors.Wrapf(celltrack.ErrConfiguration, "the candidate axes %q contain duplicates", candidate)
		}
		seen[tag] = true
		if pos < lastPos {
			return "", errors.Wrapf(celltrack.ErrConfiguration, "the candidate axes %q are not in the correct order", candidate)
		}
		lastPos = pos
	}
	return Spec(candidate), nil
}

// CheckRank verifies that the spec's cardinality matches the rank of an
// already-bound array. Once data is bound, an axis change that alters the
// rank must be rejected through this check.
func (s Spec) CheckRank(rank int) error {
	if len(s) != rank {
		return errors.Wrapf(celltrack.ErrConfiguration,
			"the candidate axes %q are not compatible with the current data (rank %d)", string(s), rank)
	}
	return nil
}

// HasTime reports whether the leading axis is the time axis. Track pruning
// and neighbor pairing only apply when this holds.
func (s Spec) HasTime() bool {
	return len(s) > 0 && s[0] == 'T'
}

func (s Spec) String() string { return string(s) }
