// Package parser provides workbook reading and writing utilities on top of
// excelize.
package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
	"github.com/xuri/excelize/v2"
)

// builtInDateFormats lists the built-in number formats that render dates.
var builtInDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// CellReader reads typed cells from a workbook. Style lookups are cached.
type CellReader struct {
	f          *excelize.File
	date1904   bool
	dateStyles map[int]bool
}

// NewCellReader creates a CellReader for f.
func NewCellReader(f *excelize.File) *CellReader {
	r := &CellReader{f: f, dateStyles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}
	return r
}

// ReadRow reads cols cells of a row, starting at column 1.
func (r *CellReader) ReadRow(sheet string, row, cols int) ([]models.Cell, error) {
	cells := make([]models.Cell, 0, cols)
	for col := 1; col <= cols; col++ {
		cell, err := r.ReadCell(sheet, col, row)
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

// ReadCell reads one cell and classifies its content.
func (r *CellReader) ReadCell(sheet string, col, row int) (models.Cell, error) {
	cell := models.Cell{Row: row, Col: col}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return cell, err
	}

	formula, err := r.f.GetCellFormula(sheet, name)
	if err != nil {
		return cell, err
	}
	raw, err := r.f.GetCellValue(sheet, name, excelize.Options{RawCellValue: true})
	if err != nil {
		return cell, err
	}
	if formula != "" {
		cell.Type = models.CellFormula
		cell.Formula = formula
		cell.Raw = raw
		return cell, nil
	}
	if raw == "" {
		return cell, nil
	}
	cell.Raw = raw

	cellType, err := r.f.GetCellType(sheet, name)
	if err != nil {
		return cell, err
	}
	switch cellType {
	case excelize.CellTypeBool:
		cell.Type = models.CellBool
	case excelize.CellTypeError:
		cell.Type = models.CellError
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		cell.Type = models.CellText
	case excelize.CellTypeDate:
		t, naive, ok := parseISODate(raw)
		if !ok {
			cell.Type = models.CellText
			break
		}
		cell.Type = models.CellDate
		cell.Time = t
		cell.Naive = naive
	default:
		serial, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			cell.Type = models.CellText
			break
		}
		cell.Type = models.CellNumber
		if r.isDateStyled(sheet, name) {
			if t, err := excelize.ExcelDateToTime(serial, r.date1904); err == nil {
				cell.Type = models.CellDate
				cell.Time = t
				cell.Naive = true
			}
		}
	}
	return cell, nil
}

// isDateStyled reports whether the number format of a cell renders a date.
func (r *CellReader) isDateStyled(sheet, name string) bool {
	styleID, err := r.f.GetCellStyle(sheet, name)
	if err != nil || styleID == 0 {
		return false
	}
	if isDate, ok := r.dateStyles[styleID]; ok {
		return isDate
	}
	isDate := false
	if style, err := r.f.GetStyle(styleID); err == nil {
		isDate = builtInDateFormats[style.NumFmt]
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		}
	}
	r.dateStyles[styleID] = isDate
	return isDate
}

// isDateFormatCode reports whether a custom number format has date or time
// tokens outside quoted literals and bracketed sections.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, c := range code {
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(c)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "ydhs")
}

// parseISODate parses the content of an ISO 8601 date cell. Values without
// an offset are naive.
func parseISODate(raw string) (time.Time, bool, bool) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, false, true
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true, true
		}
	}
	return time.Time{}, false, false
}
