package track

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	celltrack "github.com/clegall/celltrack-go"
	"github.com/clegall/celltrack-go/grid"
)

func twoFrameStack() grid.Stack[int32] {
	// Two interior objects persisting over both frames, slightly shifted.
	f0 := labelFrame([][]int32{
		{0, 0, 0, 0, 0, 0, 0, 0},
		{0, 1, 1, 0, 0, 0, 0, 0},
		{0, 1, 1, 0, 0, 2, 2, 0},
		{0, 0, 0, 0, 0, 2, 2, 0},
		{0, 0, 0, 0, 0, 0, 0, 0},
	})
	f1 := labelFrame([][]int32{
		{0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 1, 1, 0, 0, 0, 0},
		{0, 0, 1, 1, 0, 2, 2, 0},
		{0, 0, 0, 0, 0, 2, 2, 0},
		{0, 0, 0, 0, 0, 0, 0, 0},
	})
	return grid.Stack[int32]{f0, f1}
}

func TestWorkerRunEndToEnd(t *testing.T) {
	w := NewWorker()
	if err := w.SetLabelMaps(twoFrameStack()); err != nil {
		t.Fatal(err)
	}
	if err := w.SetSearchRange(10); err != nil {
		t.Fatal(err)
	}
	if err := w.Run(); err != nil {
		t.Fatal(err)
	}

	rows := w.LinkedTracks()
	if len(rows) != 4 {
		t.Fatalf("expected 4 linked rows, got %d", len(rows))
	}
	tracked := w.TrackedLabels()
	if len(tracked) != 2 {
		t.Fatalf("expected 2 tracked frames, got %d", len(tracked))
	}
	// Every nonzero pixel of the output carries a track identity.
	for t0, frame := range tracked {
		for i, v := range frame.Pix {
			if v < 0 {
				t.Errorf("frame %d pixel %d has negative identity %d", t0, i, v)
			}
		}
	}
}

func TestWorkerRunBeforeBinding(t *testing.T) {
	w := NewWorker()
	err := w.Run()
	if err == nil {
		t.Fatal("Run before SetLabelMaps must fail")
	}
	if !errors.Is(err, celltrack.ErrState) {
		t.Errorf("wrong error class: %v", err)
	}
}

func TestWorkerSaveBeforeRun(t *testing.T) {
	w := NewWorker()
	err := w.SaveLinkedTracks("/tmp/should-not-exist.csv")
	if err == nil {
		t.Fatal("saving before linking must fail")
	}
	if !errors.Is(err, celltrack.ErrState) {
		t.Errorf("wrong error class: %v", err)
	}
}

func TestWorkerAxesRankGuard(t *testing.T) {
	w := NewWorker()
	if err := w.SetLabelMaps(twoFrameStack()); err != nil {
		t.Fatal(err)
	}
	// Rank 3 data is bound; a rank-2 spec must be rejected.
	err := w.SetAxes("YX")
	if err == nil {
		t.Fatal("axes change altering the rank must fail")
	}
	if !errors.Is(err, celltrack.ErrConfiguration) {
		t.Errorf("wrong error class: %v", err)
	}
	if w.Axes().String() != "TYX" {
		t.Errorf("failed SetAxes must not mutate the spec, got %q", w.Axes().String())
	}
}

func TestWorkerSetterValidation(t *testing.T) {
	w := NewWorker()
	if err := w.SetSearchRange(0); !errors.Is(err, celltrack.ErrConfiguration) {
		t.Errorf("SetSearchRange(0): %v", err)
	}
	if err := w.SetMemory(-1); !errors.Is(err, celltrack.ErrConfiguration) {
		t.Errorf("SetMemory(-1): %v", err)
	}
}

func TestWriteLinkedTracksFormat(t *testing.T) {
	rows := []LinkedRow{
		{Detection: Detection{Frame: 0, X: 1.5, Y: 2.5, Size: 9, OrigLabel: 4, Diameter: 3.2}, Track: 1},
	}
	var buf bytes.Buffer
	if err := WriteLinkedTracks(&buf, rows); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if lines[0] != "frame,x,y,size,orig_label,diameter,particle" {
		t.Errorf("wrong header: %s", lines[0])
	}
	if lines[1] != "0,1.5,2.5,9,4,3.2,1" {
		t.Errorf("wrong row: %s", lines[1])
	}
}
