package models

import "time"

// CellType classifies what a cell holds.
type CellType int

const (
	// CellEmpty has no value.
	CellEmpty CellType = iota
	// CellBool holds a native boolean.
	CellBool
	// CellNumber holds a number.
	CellNumber
	// CellText holds a string.
	CellText
	// CellDate holds a native date-time (date serial or ISO date cell).
	CellDate
	// CellFormula holds a formula.
	CellFormula
	// CellError holds a spreadsheet error value such as #N/A.
	CellError
)

// Cell is a cell as read from a sheet.
type Cell struct {
	// Row is the row index (1-based).
	Row int
	// Col is the column index (1-based).
	Col int
	// Type is the detected cell type.
	Type CellType
	// Raw is the unformatted cell content.
	Raw string
	// Formula is the formula text without the leading '='.
	Formula string
	// Time is the converted value of a CellDate cell.
	Time time.Time
	// Naive is set when Time carried no zone in the file. Serial dates are
	// always naive and reported in UTC.
	Naive bool
}

// IsEmpty reports whether the cell has no content.
func (c Cell) IsEmpty() bool {
	return c.Type == CellEmpty
}

// CellValue is a value ready to be written to a cell.
type CellValue struct {
	Type  CellType
	Value any
}

// EmptyCell is the CellValue that writes nothing.
var EmptyCell = CellValue{Type: CellEmpty}
