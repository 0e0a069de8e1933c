package track

import (
	"errors"
	"testing"

	celltrack "github.com/clegall/celltrack-go"
)

func det(frame int, x, y float64, label int32) Detection {
	return Detection{Frame: frame, X: x, Y: y, Size: 10, OrigLabel: label, Diameter: 4}
}

func TestNewLinkerValidation(t *testing.T) {
	cases := []struct {
		name        string
		searchRange float64
		memory      int
	}{
		{"zero search range", 0, 2},
		{"negative search range", -5, 2},
		{"negative memory", 10, -1},
	}
	for _, c := range cases {
		_, err := NewLinker(c.searchRange, c.memory, false)
		if err == nil {
			t.Errorf("%s: expected an error", c.name)
			continue
		}
		if !errors.Is(err, celltrack.ErrConfiguration) {
			t.Errorf("%s: wrong error class: %v", c.name, err)
		}
	}
}

func TestLinkTwoParallelTracks(t *testing.T) {
	dets := []Detection{
		det(0, 10, 10, 1), det(0, 50, 50, 2),
		det(1, 12, 10, 1), det(1, 52, 50, 2),
		det(2, 14, 10, 1), det(2, 54, 50, 2),
	}
	linker, err := NewLinker(15, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := linker.Link(dets)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != len(dets) {
		t.Fatalf("expected %d rows, got %d", len(dets), len(rows))
	}

	// Identities are dense 1-based integers, each physical object keeps its
	// own across all frames.
	trackOf := map[float64]int{}
	for _, r := range rows {
		key := r.Y // constant per physical object in this fixture
		if prev, ok := trackOf[key]; ok && prev != r.Track {
			t.Errorf("object at y=%f switched from track %d to %d", key, prev, r.Track)
		}
		trackOf[key] = r.Track
	}
	if len(trackOf) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(trackOf))
	}
	seen := map[int]bool{}
	for _, id := range trackOf {
		if id < 1 || id > 2 {
			t.Errorf("track identity %d out of dense range", id)
		}
		seen[id] = true
	}
	if len(seen) != 2 {
		t.Error("track identities are not distinct")
	}
}

func TestLinkInjectivePerFrame(t *testing.T) {
	dets := []Detection{
		det(0, 10, 10, 1), det(0, 40, 40, 2), det(0, 80, 80, 3),
		det(1, 11, 10, 1), det(1, 41, 40, 2), det(1, 81, 80, 3),
	}
	linker, err := NewLinker(20, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := linker.Link(dets)
	if err != nil {
		t.Fatal(err)
	}
	type key struct {
		frame int
		label int32
	}
	seen := map[key]int{}
	perFrameTracks := map[int]map[int]bool{}
	for _, r := range rows {
		k := key{r.Frame, r.OrigLabel}
		if _, dup := seen[k]; dup {
			t.Errorf("duplicate row for frame %d label %d", r.Frame, r.OrigLabel)
		}
		seen[k] = r.Track
		if perFrameTracks[r.Frame] == nil {
			perFrameTracks[r.Frame] = map[int]bool{}
		}
		if perFrameTracks[r.Frame][r.Track] {
			t.Errorf("track %d appears twice on frame %d", r.Track, r.Frame)
		}
		perFrameTracks[r.Frame][r.Track] = true
	}
	if len(rows) != len(dets) {
		t.Errorf("every detection must appear in exactly one row: %d != %d", len(rows), len(dets))
	}
}

func TestLinkMemoryReacquisition(t *testing.T) {
	// The object vanishes on frame 1 and reappears on frame 2.
	dets := []Detection{
		det(0, 20, 20, 1),
		det(2, 24, 20, 1),
	}

	// With one frame of memory the track is re-acquired.
	linker, err := NewLinker(15, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := linker.Link(dets)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].Track != rows[1].Track {
		t.Errorf("expected re-acquisition with memory 1, got tracks %d and %d", rows[0].Track, rows[1].Track)
	}

	// Without memory the gap permanently closes the track.
	linker, err = NewLinker(15, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	rows, err = linker.Link(dets)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].Track == rows[1].Track {
		t.Error("expected a new track after the memory ran out")
	}
}

func TestLinkBeyondSearchRangeStartsNewTrack(t *testing.T) {
	dets := []Detection{
		det(0, 10, 10, 1),
		det(1, 90, 90, 1),
	}
	linker, err := NewLinker(15, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := linker.Link(dets)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].Track == rows[1].Track {
		t.Error("a jump beyond the search range must start a new track")
	}
}

func TestLinkHungarianMatchesCrossing(t *testing.T) {
	// Two detections nearly equidistant from two open tracks: the optimal
	// assignment links both instead of stealing the shared nearest track.
	dets := []Detection{
		det(0, 10, 10, 1), det(0, 20, 10, 2),
		det(1, 12, 10, 1), det(1, 22, 10, 2),
	}
	linker, err := NewLinker(15, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	linker.SetAlgorithm(MatchingAlgorithmHungarian)
	rows, err := linker.Link(dets)
	if err != nil {
		t.Fatal(err)
	}
	tracks := map[int]bool{}
	for _, r := range rows {
		tracks[r.Track] = true
	}
	if len(tracks) != 2 {
		t.Errorf("expected 2 tracks total, got %d", len(tracks))
	}
}

func TestLinkVelocityPrediction(t *testing.T) {
	// Constant motion of 8 px per frame, well within the search range.
	dets := []Detection{
		det(0, 10, 30, 1),
		det(1, 18, 30, 1),
		det(2, 26, 30, 1),
		det(3, 34, 30, 1),
	}
	linker, err := NewLinker(20, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := linker.Link(dets)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if r.Track != 1 {
			t.Fatalf("expected a single track 1, got track %d on frame %d", r.Track, r.Frame)
		}
	}
}

func TestLinkEmptyInput(t *testing.T) {
	linker, err := NewLinker(10, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := linker.Link(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}
