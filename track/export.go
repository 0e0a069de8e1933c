package track

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	celltrack "github.com/clegall/celltrack-go"
)

// WriteLinkedTracks writes the linked table as delimited text with one row
// per detection: frame, x, y, size, orig_label, diameter, particle.
func WriteLinkedTracks(w io.Writer, rows []LinkedRow) error {
	if rows == nil {
		return errors.Wrap(celltrack.ErrState, "no linked tracks to save")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"frame", "x", "y", "size", "orig_label", "diameter", "particle"}); err != nil {
		return errors.Wrap(err, "can't write tracks header")
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.Frame),
			strconv.FormatFloat(r.X, 'f', -1, 64),
			strconv.FormatFloat(r.Y, 'f', -1, 64),
			strconv.Itoa(r.Size),
			strconv.FormatInt(int64(r.OrigLabel), 10),
			strconv.FormatFloat(r.Diameter, 'f', -1, 64),
			strconv.Itoa(r.Track),
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "can't write tracks row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "can't flush tracks writer")
}

// SaveLinkedTracks writes the linked table to a file path.
func SaveLinkedTracks(path string, rows []LinkedRow) error {
	if rows == nil {
		return errors.Wrap(celltrack.ErrState, "no linked tracks to save")
	}
	if path == "" {
		return errors.Wrap(celltrack.ErrConfiguration, "the output path is not valid")
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "can't create %s", path)
	}
	defer file.Close()
	return WriteLinkedTracks(file, rows)
}
