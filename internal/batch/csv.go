package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// CSVHeader is the single column header of an export.
	CSVHeader = "License Plate"
	// DefaultCSVName is the download name used by the page.
	DefaultCSVName = "plates.csv"
)

var ErrNothingToExport = errors.New("no plates to export")

// ExportCSV writes plates as a single-column CSV with a header row.
func ExportCSV(w io.Writer, plates []string) error {
	if len(plates) == 0 {
		return ErrNothingToExport
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{CSVHeader}); err != nil {
		return err
	}
	for _, p := range plates {
		if err := cw.Write([]string{p}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile exports plates to path. No file is created for an empty list.
func WriteCSVFile(path string, plates []string) error {
	if len(plates) == 0 {
		return ErrNothingToExport
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := ExportCSV(f, plates); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
