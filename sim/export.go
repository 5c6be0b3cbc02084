package sim

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/afero"
)

// CSVHeader is the first record of every export.
var CSVHeader = []string{"id", "vm", "dc", "start", "finish", "status", "length"}

// WriteCSV writes rows as comma-separated text. Start and finish times use
// two decimals in dot notation; every other field is written as is.
func WriteCSV(w io.Writer, rows []ResultRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.CloudletID),
			strconv.Itoa(r.VmID),
			strconv.Itoa(r.DatacenterID),
			strconv.FormatFloat(r.StartTime, 'f', 2, 64),
			strconv.FormatFloat(r.FinishTime, 'f', 2, 64),
			r.Status,
			strconv.FormatInt(r.Length, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes rows to path on fs, replacing any existing file.
func ExportCSV(fs afero.Fs, path string, rows []ResultRow) (err error) {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	if err := WriteCSV(f, rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
