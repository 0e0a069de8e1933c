package measure

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	celltrack "github.com/clegall/celltrack-go"
)

// WriteResults flattens per-frame records into delimited text for any
// tabular display. Inner columns stay empty for ring-only records; a blank
// means "no inner region", never zero.
func WriteResults(w io.Writer, results [][]Record) error {
	if results == nil {
		return errors.Wrap(celltrack.ErrState, "no measurements to save")
	}
	cw := csv.NewWriter(w)
	header := []string{"frame", "label",
		"ring_mean", "ring_integrated", "ring_area",
		"inner_mean", "inner_integrated", "inner_area"}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "can't write results header")
	}
	for t, records := range results {
		for _, r := range records {
			row := []string{
				strconv.Itoa(t),
				strconv.FormatInt(int64(r.Label), 10),
				strconv.FormatFloat(r.Ring.Mean, 'f', -1, 64),
				strconv.FormatFloat(r.Ring.Integrated, 'f', -1, 64),
				strconv.Itoa(r.Ring.Area),
				"", "", "",
			}
			if in, ok := r.Inner(); ok {
				row[5] = strconv.FormatFloat(in.Mean, 'f', -1, 64)
				row[6] = strconv.FormatFloat(in.Integrated, 'f', -1, 64)
				row[7] = strconv.Itoa(in.Area)
			}
			if err := cw.Write(row); err != nil {
				return errors.Wrap(err, "can't write results row")
			}
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "can't flush results writer")
}

// SaveResults writes the flattened records to a file path.
func SaveResults(path string, results [][]Record) error {
	if results == nil {
		return errors.Wrap(celltrack.ErrState, "no measurements to save")
	}
	if path == "" {
		return errors.Wrap(celltrack.ErrConfiguration, "the output path is not valid")
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "can't create %s", path)
	}
	defer file.Close()
	return WriteResults(file, results)
}
