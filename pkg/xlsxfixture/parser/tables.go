package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoHeader indicates a sheet without a header row.
var ErrNoHeader = errors.New("sheet has no header row")

// Layout selects where a sheet keeps its type identifier and header.
type Layout int

const (
	// LayoutSheetName names the type in the sheet name, header on row 1 and
	// data from row 2.
	LayoutSheetName Layout = iota
	// LayoutLegacy names the type in A1, header on row 2 and data from row 3.
	LayoutLegacy
)

func (l Layout) String() string {
	if l == LayoutLegacy {
		return "legacy"
	}
	return "sheet-name"
}

// Table is the header and data-row bounds of one sheet.
type Table struct {
	// Sheet is the sheet name.
	Sheet string
	// Identifier is the type identifier of the sheet.
	Identifier string
	// Layout is the layout the table was read with.
	Layout Layout
	// HeaderRow is the row holding field names (1-based).
	HeaderRow int
	// Header lists the field names in column order.
	Header []string
	// DataRows is the number of rows below the header.
	DataRows int
}

// FirstRow returns the first data row.
func (t *Table) FirstRow() int {
	return t.HeaderRow + 1
}

// LastRow returns the last data row, or HeaderRow when there is no data.
func (t *Table) LastRow() int {
	return t.HeaderRow + t.DataRows
}

// Contains reports whether row is a data row of the table.
func (t *Table) Contains(row int) bool {
	return row >= t.FirstRow() && row <= t.LastRow()
}

// SheetScan holds the rendered content of a sheet.
type SheetScan struct {
	Sheet string
	rows  [][]string
}

// ScanSheet reads the rendered content of a sheet.
func ScanSheet(f *excelize.File, sheet string) (*SheetScan, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return &SheetScan{Sheet: sheet, rows: rows}, nil
}

// LegacyIdentifier returns the content of A1 when it is the only populated
// cell of row 1.
func (s *SheetScan) LegacyIdentifier() (string, bool) {
	if len(s.rows) == 0 {
		return "", false
	}
	first := trimTrailingEmpty(s.rows[0])
	if len(first) != 1 || strings.TrimSpace(first[0]) == "" {
		return "", false
	}
	return strings.TrimSpace(first[0]), true
}

// Table binds the header of the sheet using layout.
func (s *SheetScan) Table(layout Layout) (*Table, error) {
	t := &Table{Sheet: s.Sheet, Layout: layout, Identifier: s.Sheet, HeaderRow: 1}
	if layout == LayoutLegacy {
		id, ok := s.LegacyIdentifier()
		if !ok {
			return nil, fmt.Errorf("sheet %q: cell A1 does not hold a type identifier", s.Sheet)
		}
		t.Identifier = id
		t.HeaderRow = 2
	}

	if len(s.rows) < t.HeaderRow {
		return nil, fmt.Errorf("%w: %q", ErrNoHeader, s.Sheet)
	}
	header := trimTrailingEmpty(s.rows[t.HeaderRow-1])
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoHeader, s.Sheet)
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			cell, _ := excelize.CoordinatesToCellName(i+1, t.HeaderRow)
			return nil, fmt.Errorf("sheet %q: empty header cell %s", s.Sheet, cell)
		}
		header[i] = name
	}
	t.Header = header

	if _, maxRow, _, _ := findDataBounds(s.rows); maxRow+1 > t.HeaderRow {
		t.DataRows = maxRow + 1 - t.HeaderRow
	}
	return t, nil
}

// Rows returns the number of rendered rows up to the last populated one.
func (s *SheetScan) Rows() int {
	_, maxRow, _, _ := findDataBounds(s.rows)
	return maxRow + 1
}

// findDataBounds finds the bounding box of non-empty cells (0-based). All
// bounds are -1 for an empty sheet.
func findDataBounds(rows [][]string) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if cell != "" {
				if minRow < 0 || rowIdx < minRow {
					minRow = rowIdx
				}
				if maxRow < 0 || rowIdx > maxRow {
					maxRow = rowIdx
				}
				if minCol < 0 || colIdx < minCol {
					minCol = colIdx
				}
				if maxCol < 0 || colIdx > maxCol {
					maxCol = colIdx
				}
			}
		}
	}

	return
}

func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	out := make([]string, end)
	copy(out, row[:end])
	return out
}
