package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX reader.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadXLSX reads a spreadsheet registry and returns the header row and
// the data rows as string slices. Some municipalities publish service
// registries as XLSX rather than CSV.
func ReadXLSX(path string, opts XLSXOptions) (header []string, rows [][]string, err error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "fetcher: open xlsx %s", path)
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, nil, err
	}

	for i, row := range sheet.Rows {
		cells := rowToStrings(row)
		if i == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}

	if header == nil {
		return nil, nil, eris.Errorf("fetcher: xlsx %s has no rows", path)
	}
	return header, rows, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("fetcher: xlsx sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("fetcher: xlsx sheet index %d out of range", opts.SheetIndex)
	}
	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
