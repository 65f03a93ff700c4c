package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
)

// WorkbookName is the file name of the combined spreadsheet.
const WorkbookName = "ObservedDeaths.xlsx"

// excelize rejects longer sheet names.
const maxSheetName = 31

// WriteCSV writes the header and rows of t to w.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write %s header: %w", t.Name, err)
	}
	record := make([]string, 0, len(t.Header))
	for _, row := range t.Rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, formatCell(v))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write %s row: %w", t.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes t to dir/t.FileName() and returns the path.
func WriteCSVFile(dir string, t Table) (path string, err error) {
	path = filepath.Join(dir, t.FileName())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err := WriteCSV(f, t); err != nil {
		return "", err
	}
	return path, nil
}

// WriteWorkbook saves every table as its own sheet of one workbook. Numbers
// are stored as numbers so the sheets can be charted directly.
func WriteWorkbook(path string, tables []Table) error {
	if len(tables) == 0 {
		return errors.New("write workbook: no tables")
	}
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		sheet := sheetName(t.Name)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("name sheet %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("add sheet %s: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, t); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t Table) error {
	for c, h := range t.Header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write %s header: %w", sheet, err)
		}
	}
	for r, row := range t.Rows {
		for c, v := range row {
			if d, ok := v.(time.Time); ok {
				v = d.Format(domain.DateLayout)
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write %s cell %s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func sheetName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}
